package api

import (
	"aclue/internal/model"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

var (
	ErrNoRefreshToken = errors.New("no refresh token available")

	errSessionCleared = errors.New("session cleared while request was in flight")
)

type refreshResult struct {
	token string
	err   error
}

// recoverUnauthorized handles the first 401 of a request: it obtains a fresh
// access token (at most one refresh in flight) and replays the request once.
func (c *Client) recoverUnauthorized(ctx context.Context, r *request, sent string, resp *response) ([]byte, error) {
	token, err := c.awaitRefresh(ctx, sent, true)
	if errors.Is(err, errSessionCleared) {
		return nil, c.handleError(&responseError{status: resp.status, body: resp.body})
	}
	if err != nil {
		return nil, err
	}
	return c.replay(ctx, r, token)
}

// Refresh forces a token refresh, joining one already in flight.
func (c *Client) Refresh(ctx context.Context) (model.TokenPair, error) {
	token, err := c.awaitRefresh(ctx, "", false)
	if err != nil {
		return model.TokenPair{}, err
	}
	return model.TokenPair{AccessToken: token, RefreshToken: c.tokens.RefreshToken(ctx)}, nil
}

// awaitRefresh joins the refresh in flight by queueing behind it, or starts a
// new one. With checkStale set, a request whose token is no longer the held
// one skips the refresh: another cycle already finished after it was sent.
func (c *Client) awaitRefresh(ctx context.Context, sent string, checkStale bool) (string, error) {
	c.mu.Lock()

	if c.refreshing {
		wait := make(chan refreshResult, 1)
		c.queue = append(c.queue, wait)
		c.mu.Unlock()

		select {
		case res := <-wait:
			return res.token, res.err
		case <-ctx.Done():
			return "", c.handleError(ctx.Err())
		}
	}

	if checkStale {
		if current := c.tokens.AccessToken(ctx); current != sent {
			c.mu.Unlock()
			if current == "" {
				return "", errSessionCleared
			}
			return current, nil
		}
	}

	c.refreshing = true
	c.mu.Unlock()

	return c.runRefresh(ctx)
}

// runRefresh owns the refresh cycle. The queue is drained and the flag reset
// no matter how the cycle ends.
func (c *Client) runRefresh(ctx context.Context) (token string, err error) {
	defer func() { c.release(token, err) }()

	// a caller giving up must not log everyone out
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	pair, err := c.refreshTokens(ctx)
	if err != nil {
		c.expireSession(ctx, err)
		return "", err
	}
	return pair.AccessToken, nil
}

// release resolves every queued waiter, in the order they queued.
func (c *Client) release(token string, err error) {
	c.mu.Lock()
	queue := c.queue
	c.queue = nil
	c.refreshing = false
	c.mu.Unlock()

	for _, wait := range queue {
		wait <- refreshResult{token: token, err: err}
	}
}

func (c *Client) refreshTokens(ctx context.Context) (model.TokenPair, error) {
	refresh := c.tokens.RefreshToken(ctx)
	if refresh == "" {
		return model.TokenPair{}, model.NewAPIError(
			statusMessage(http.StatusUnauthorized),
			model.CodeUnauthorized,
			http.StatusUnauthorized,
			c.timestamp(),
			nil,
			ErrNoRefreshToken,
		)
	}

	r, err := c.newRequest(http.MethodPost, "/auth/refresh", model.RefreshRequest{RefreshToken: refresh})
	if err != nil {
		return model.TokenPair{}, err
	}
	r.public = true

	resp, err := c.send(ctx, r, "")
	if err != nil {
		return model.TokenPair{}, c.handleError(err)
	}
	if resp.status >= http.StatusBadRequest {
		return model.TokenPair{}, c.handleError(&responseError{status: resp.status, body: resp.body})
	}

	var tr model.TokenResponse
	if err := decodeData(resp.body, &tr); err != nil {
		return model.TokenPair{}, c.handleError(fmt.Errorf("decode refresh response: %w", err))
	}

	pair := tr.Pair()
	if pair.AccessToken == "" {
		return model.TokenPair{}, c.handleError(errors.New("refresh response carried no access token"))
	}
	if pair.RefreshToken == "" {
		pair.RefreshToken = refresh
	}

	if err := c.tokens.SetTokens(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		c.log.Warn("refreshed tokens kept in memory only", slog.String("error", err.Error()))
	}

	c.log.Info("access token refreshed")
	return pair, nil
}

// expireSession is the one destructive path: tokens are dropped and the user
// is sent to the login route.
func (c *Client) expireSession(ctx context.Context, cause error) {
	c.log.Warn("token refresh failed, clearing session", slog.String("error", cause.Error()))

	if err := c.tokens.Clear(ctx); err != nil {
		c.log.Error("failed to clear tokens", slog.String("error", err.Error()))
	}
	if c.nav != nil {
		c.nav.RedirectToLogin(c.loginRoute)
	}
}
