package api

import (
	"aclue/internal/model"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

const (
	msgValidation   = "Invalid request. Please check your input."
	msgUnauthorized = "Authentication required. Please sign in again."
	msgForbidden    = "You do not have permission to perform this action."
	msgNotFound     = "The requested resource was not found."
	msgServer       = "A server error occurred. Please try again later."
	msgUnknown      = "An unexpected error occurred."
	msgNetwork      = "Network error. Please check your connection."
	msgTimeout      = "The request timed out. Please try again."
	msgCancelled    = "The request was cancelled."
)

func statusMessage(status int) string {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return msgValidation
	case status == http.StatusUnauthorized:
		return msgUnauthorized
	case status == http.StatusForbidden:
		return msgForbidden
	case status == http.StatusNotFound:
		return msgNotFound
	case status >= http.StatusInternalServerError:
		return msgServer
	default:
		return msgUnknown
	}
}

func statusCode(status int) string {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return model.CodeValidation
	case status == http.StatusUnauthorized:
		return model.CodeUnauthorized
	case status == http.StatusForbidden:
		return model.CodeForbidden
	case status == http.StatusNotFound:
		return model.CodeNotFound
	case status >= http.StatusInternalServerError:
		return model.CodeServer
	default:
		return model.CodeUnknown
	}
}

func (c *Client) timestamp() string {
	return c.now().UTC().Format(isoMillis)
}

// handleError turns any failure into the uniform error callers receive.
func (c *Client) handleError(err error) *model.APIError {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var (
		respErr      *responseError
		transportErr *transportError
	)

	var out *model.APIError
	switch {
	case errors.As(err, &respErr):
		out = c.fromResponse(respErr)

	case errors.Is(err, context.Canceled):
		out = model.NewAPIError(msgCancelled, model.CodeCancelled, 0, c.timestamp(), nil, err)

	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		out = model.NewAPIError(msgTimeout, model.CodeTimeout, 0, c.timestamp(), nil, err)

	case errors.As(err, &transportErr):
		out = model.NewAPIError(msgNetwork, model.CodeNetwork, 0, c.timestamp(), nil, err)

	default:
		// the request could not be built, or its response could not be read
		out = model.NewAPIError(msgUnknown, model.CodeUnknown, 0, c.timestamp(), nil, err)
	}

	c.log.Debug("api request failed",
		slog.String("code", out.Code),
		slog.Int("status", out.Status),
		slog.String("error", err.Error()))

	return out
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// fromResponse prefers what the server said about the failure over the
// generic per-status text.
func (c *Client) fromResponse(e *responseError) *model.APIError {
	message := statusMessage(e.status)
	code := statusCode(e.status)

	var details any
	if len(e.body) > 0 {
		var payload any
		if err := json.Unmarshal(e.body, &payload); err == nil {
			details = payload
			if obj, ok := payload.(map[string]any); ok {
				if m := serverMessage(obj); m != "" {
					message = m
				}
				if cd := serverCode(obj); cd != "" {
					code = cd
				}
			}
		} else if text := strings.TrimSpace(string(e.body)); text != "" {
			details = text
		}
	}

	return model.NewAPIError(message, code, e.status, c.timestamp(), details, e)
}

func serverMessage(obj map[string]any) string {
	for _, key := range []string{"message", "detail"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	switch v := obj["error"].(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v["message"].(string); ok {
			return s
		}
	}
	return ""
}

func serverCode(obj map[string]any) string {
	for _, key := range []string{"code", "error_code"} {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	if v, ok := obj["error"].(map[string]any); ok {
		if s, ok := v["code"].(string); ok {
			return s
		}
	}
	return ""
}
