package api

import (
	"aclue/internal/config"
	"aclue/internal/model"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/go-playground/validator/v10"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// TokenStore is what the client needs from the token manager.
type TokenStore interface {
	AccessToken(ctx context.Context) string
	RefreshToken(ctx context.Context) string
	SetTokens(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
	SetUser(ctx context.Context, user *model.User) error
}

// Navigator sends the user back to the login route after the session could
// not be recovered. Headless callers leave it nil.
type Navigator interface {
	RedirectToLogin(route string)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.nav = n }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

type Client struct {
	baseURL    string
	loginRoute string
	timeout    time.Duration
	http       *http.Client
	tokens     TokenStore
	nav        Navigator
	validate   *validator.Validate
	log        *slog.Logger
	now        func() time.Time

	mu         sync.Mutex
	refreshing bool
	queue      []chan refreshResult
}

func New(cfg config.APIConfig, tokens TokenStore, log *slog.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		loginRoute: cfg.LoginRoute,
		timeout:    timeout,
		tokens:     tokens,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		log:        log,
		now:        time.Now,
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   20,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
				ForceAttemptHTTP2:     true,
			},
			Timeout: timeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request is replayable: body is kept as bytes. retried marks a request that
// already went through token recovery; public requests (login, register,
// refresh) never trigger it.
type request struct {
	method  string
	path    string
	body    []byte
	retried bool
	public  bool
}

type response struct {
	status int
	body   []byte
}

// Kinds of failures handleError knows how to normalize.
type (
	setupError     struct{ err error }
	transportError struct{ err error }
	responseError  struct {
		status int
		body   []byte
	}
)

func (e *setupError) Error() string { return "build request: " + e.err.Error() }
func (e *setupError) Unwrap() error { return e.err }

func (e *transportError) Error() string { return "http request: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func (e *responseError) Error() string { return fmt.Sprintf("api error %d", e.status) }

// send performs one HTTP round trip. token is injected as a bearer credential
// when non-empty; nothing else about the request is touched.
func (c *Client) send(ctx context.Context, r *request, token string) (*response, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return nil, &setupError{err: err}
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.log.Debug("calling api",
		slog.String("method", r.method),
		slog.String("path", r.path),
		slog.Bool("retried", r.retried))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{err: err}
	}

	c.log.Debug("api response",
		slog.String("path", r.path),
		slog.Int("status", resp.StatusCode),
		slog.Int("body_length", len(respBody)))

	return &response{status: resp.StatusCode, body: respBody}, nil
}

// do runs a request through the auth interceptors: bearer injection before,
// token recovery on a first 401 after.
func (c *Client) do(ctx context.Context, r *request) ([]byte, error) {
	sent := c.tokens.AccessToken(ctx)

	resp, err := c.send(ctx, r, sent)
	if err != nil {
		return nil, c.handleError(err)
	}

	if resp.status == http.StatusUnauthorized && !r.retried && !r.public {
		return c.recoverUnauthorized(ctx, r, sent, resp)
	}
	if resp.status >= http.StatusBadRequest {
		return nil, c.handleError(&responseError{status: resp.status, body: resp.body})
	}
	return resp.body, nil
}

// replay re-sends a request that already went through recovery with token.
func (c *Client) replay(ctx context.Context, r *request, token string) ([]byte, error) {
	r.retried = true

	resp, err := c.send(ctx, r, token)
	if err != nil {
		return nil, c.handleError(err)
	}
	if resp.status >= http.StatusBadRequest {
		return nil, c.handleError(&responseError{status: resp.status, body: resp.body})
	}
	return resp.body, nil
}

func (c *Client) newRequest(method, path string, payload any) (*request, error) {
	r := &request{method: method, path: path}
	if payload == nil {
		return r, nil
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, c.handleError(&setupError{err: fmt.Errorf("marshal request: %w", err)})
	}
	r.body = b
	return r, nil
}

// Get decodes the response into out, unwrapping a {data: ...} envelope when
// the backend sent one.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	r, _ := c.newRequest(http.MethodGet, path, nil)

	body, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if err := decodeData(body, out); err != nil {
		return c.handleError(err)
	}
	return nil
}

// Post always returns an envelope, wrapping raw bodies as {data, success: true}.
func (c *Client) Post(ctx context.Context, path string, payload any) (*model.Envelope, error) {
	r, err := c.newRequest(http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}

	env, err := normalizeEnvelope(body)
	if err != nil {
		return nil, c.handleError(err)
	}
	return env, nil
}

func (c *Client) Put(ctx context.Context, path string, payload any, out any) error {
	r, err := c.newRequest(http.MethodPut, path, payload)
	if err != nil {
		return err
	}

	body, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	if err := decodeData(body, out); err != nil {
		return c.handleError(err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, path string) error {
	r, _ := c.newRequest(http.MethodDelete, path, nil)

	_, err := c.do(ctx, r)
	return err
}
