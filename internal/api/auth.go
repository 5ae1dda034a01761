package api

import (
	"aclue/internal/model"
	"context"
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"log/slog"
	"net/http"
	"strings"
)

// Login exchanges credentials for a token pair and stores it.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.AuthSession, error) {
	if err := c.validateInput(creds); err != nil {
		return nil, err
	}
	return c.authenticate(ctx, "/auth/login", creds)
}

// Register creates the account and signs the user in with the returned pair.
func (c *Client) Register(ctx context.Context, reg model.Registration) (*model.AuthSession, error) {
	if err := c.validateInput(reg); err != nil {
		return nil, err
	}
	return c.authenticate(ctx, "/auth/register", reg)
}

func (c *Client) authenticate(ctx context.Context, path string, payload any) (*model.AuthSession, error) {
	r, err := c.newRequest(http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}
	r.public = true

	body, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}

	env, err := normalizeEnvelope(body)
	if err != nil {
		return nil, c.handleError(err)
	}

	var tr model.TokenResponse
	if err := env.Decode(&tr); err != nil {
		return nil, c.handleError(fmt.Errorf("decode auth response: %w", err))
	}

	pair := tr.Pair()
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return nil, c.handleError(errors.New("auth response carried no token pair"))
	}

	if err := c.tokens.SetTokens(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		c.log.Warn("tokens kept in memory only", slog.String("error", err.Error()))
	}
	if tr.User != nil {
		if err := c.tokens.SetUser(ctx, tr.User); err != nil {
			c.log.Warn("failed to cache user", slog.String("error", err.Error()))
		}
	}

	c.log.Info("signed in", slog.String("path", path))
	return &model.AuthSession{Tokens: pair, User: tr.User}, nil
}

// Logout tells the backend, but clears local credentials whatever it answers.
func (c *Client) Logout(ctx context.Context) {
	if c.tokens.AccessToken(ctx) != "" {
		r, _ := c.newRequest(http.MethodPost, "/auth/logout", nil)
		r.public = true
		if _, err := c.do(ctx, r); err != nil {
			c.log.Warn("logout request failed", slog.String("error", err.Error()))
		}
	}

	if err := c.tokens.Clear(ctx); err != nil {
		c.log.Error("failed to clear tokens", slog.String("error", err.Error()))
	}
}

// Me fetches the current user and refreshes the cached profile.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.Get(ctx, "/auth/me", &u); err != nil {
		return nil, err
	}

	if err := c.tokens.SetUser(ctx, &u); err != nil {
		c.log.Warn("failed to cache user", slog.String("error", err.Error()))
	}
	return &u, nil
}

// validateInput rejects bad input before any network call.
func (c *Client) validateInput(v any) error {
	err := c.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return c.handleError(err)
	}

	fields := make(map[string]string, len(fieldErrs))
	names := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fe.Tag()
		names = append(names, fe.Field())
	}

	return model.NewAPIError(
		msgValidation+" ("+strings.Join(names, ", ")+")",
		model.CodeValidation,
		http.StatusBadRequest,
		c.timestamp(),
		fields,
		err,
	)
}
