package tests

import (
	"aclue/internal/api"
	"aclue/internal/model"
	"aclue/internal/tests/suite"
	"context"
	"encoding/json"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// expiredAccess registers a /items/{id} route that answers 401 to anything but
// the valid access token and reports every rejection on the returned channel.
func expiredAccess(s *suite.Suite) <-chan struct{} {
	rejected := make(chan struct{}, 16)

	s.Router.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token != s.ValidAccess() {
			rejected <- struct{}{}
			suite.WriteJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
			return
		}
		suite.WriteJSON(w, http.StatusOK, map[string]string{"path": r.URL.Path, "token": token})
	})

	return rejected
}

func TestRefresh_ConcurrentUnauthorizedSingleFlight(t *testing.T) {
	s := suite.New(t)
	ctx := context.Background()

	require.NoError(t, s.Tokens.SetTokens(ctx, "A1", "R1"))
	s.SetValidAccess("A2")
	rejected := expiredAccess(s)

	const n = 3
	var refreshCalls atomic.Int32
	s.Router.Post("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)

		// hold the refresh until every request has seen its 401
		for i := 0; i < n; i++ {
			select {
			case <-rejected:
			case <-time.After(3 * time.Second):
				t.Errorf("only %d of %d requests were rejected", i, n)
			}
		}
		suite.WriteJSON(w, http.StatusOK, map[string]string{"access_token": "A2", "refresh_token": "R2"})
	})

	results := make([]map[string]string, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			var out map[string]string
			if err := s.Client.Get(gctx, fmt.Sprintf("/items/%d", i), &out); err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, refreshCalls.Load())
	for i, out := range results {
		assert.Equal(t, fmt.Sprintf("/items/%d", i), out["path"])
		assert.Equal(t, "A2", out["token"])
	}
	assert.Equal(t, model.TokenPair{AccessToken: "A2", RefreshToken: "R2"}, s.Tokens.Tokens(ctx))
	assert.Empty(t, s.Navigator.Redirects())
}

func TestRefresh_FailureClearsSessionOnce(t *testing.T) {
	s := suite.New(t)
	ctx := context.Background()

	require.NoError(t, s.Tokens.SetTokens(ctx, "A1", "R1"))
	s.SetValidAccess("A2")
	rejected := expiredAccess(s)

	const n = 3
	var refreshCalls atomic.Int32
	s.Router.Post("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		for i := 0; i < n; i++ {
			select {
			case <-rejected:
			case <-time.After(3 * time.Second):
				t.Errorf("only %d of %d requests were rejected", i, n)
			}
		}
		suite.WriteJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Refresh token revoked"})
	})

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Client.Get(ctx, fmt.Sprintf("/items/%d", i), nil)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, refreshCalls.Load())
	require.Len(t, errs, n)
	for _, err := range errs {
		var apiErr *model.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
		assert.Equal(t, model.CodeUnauthorized, apiErr.Code)
	}

	assert.Equal(t, model.TokenPair{}, s.Tokens.Tokens(ctx))
	_, err := s.Storage.Get(ctx, s.Keys.AccessToken)
	assert.Error(t, err)
	assert.Equal(t, []string{suite.LoginRoute}, s.Navigator.Redirects())
}

func TestRefresh_NoRefreshTokenSkipsNetwork(t *testing.T) {
	s := suite.New(t)
	ctx := context.Background()

	require.NoError(t, s.Storage.Set(ctx, s.Keys.AccessToken, "A1"))
	s.SetValidAccess("A2")
	expiredAccess(s)

	var refreshCalls atomic.Int32
	s.Router.Post("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
	})

	err := s.Client.Get(ctx, "/items/1", nil)
	require.ErrorIs(t, err, api.ErrNoRefreshToken)

	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	assert.Zero(t, refreshCalls.Load())
	assert.Empty(t, s.Tokens.AccessToken(ctx))
	assert.Equal(t, []string{suite.LoginRoute}, s.Navigator.Redirects())
}

func TestRefresh_RetriedRequestIsNotRefreshedAgain(t *testing.T) {
	s := suite.New(t)
	ctx := context.Background()

	require.NoError(t, s.Tokens.SetTokens(ctx, "A1", "R1"))

	var endpointCalls, refreshCalls atomic.Int32
	s.Router.Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		endpointCalls.Add(1)
		suite.WriteJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not allowed"})
	})
	s.Router.Post("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		suite.WriteJSON(w, http.StatusOK, map[string]string{"access_token": "A2"})
	})

	err := s.Client.Get(ctx, "/admin", nil)

	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Not allowed", apiErr.Message)

	assert.EqualValues(t, 2, endpointCalls.Load())
	assert.EqualValues(t, 1, refreshCalls.Load())

	// the refresh response carried no refresh token, the old one is kept
	assert.Equal(t, model.TokenPair{AccessToken: "A2", RefreshToken: "R1"}, s.Tokens.Tokens(ctx))
	assert.Empty(t, s.Navigator.Redirects())
}

func TestRefresh_EnvelopedCamelCaseResponse(t *testing.T) {
	s := suite.New(t)
	ctx := context.Background()

	require.NoError(t, s.Tokens.SetTokens(ctx, "A1", "R1"))

	var body model.RefreshRequest
	s.Router.Post("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		suite.WriteJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]string{"accessToken": "A9", "refreshToken": "R9"},
		})
	})

	pair, err := s.Client.Refresh(ctx)
	require.NoError(t, err)

	assert.Equal(t, "R1", body.RefreshToken)
	assert.Equal(t, model.TokenPair{AccessToken: "A9", RefreshToken: "R9"}, pair)
	assert.Equal(t, pair, s.Tokens.Tokens(ctx))
}

func TestRefresh_ServerErrorOnRetryIsNormalized(t *testing.T) {
	s := suite.New(t)
	ctx := context.Background()

	require.NoError(t, s.Tokens.SetTokens(ctx, "A1", "R1"))

	var calls atomic.Int32
	s.Router.Get("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})
	s.Router.Post("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		suite.WriteJSON(w, http.StatusOK, map[string]string{"access_token": "A2", "refresh_token": "R2"})
	})

	_, err := s.Client.Product(ctx, "p1")

	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, model.CodeServer, apiErr.Code)
	assert.Equal(t, "upstream exploded", apiErr.Details)
	assert.NotEmpty(t, apiErr.Timestamp)
}
