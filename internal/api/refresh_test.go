package api

import (
	"context"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRelease_ResolvesWaitersInOrder(t *testing.T) {
	c := newTestClient(t, "http://unused", &staticTokens{})

	waiters := make([]chan refreshResult, 3)
	c.refreshing = true
	for i := range waiters {
		waiters[i] = make(chan refreshResult, 1)
		c.queue = append(c.queue, waiters[i])
	}

	c.release("A2", nil)

	for _, w := range waiters {
		res := <-w
		assert.Equal(t, "A2", res.token)
		assert.NoError(t, res.err)
	}
	assert.False(t, c.refreshing)
	assert.Empty(t, c.queue)
}

func TestRelease_PropagatesFailure(t *testing.T) {
	c := newTestClient(t, "http://unused", &staticTokens{})

	wait := make(chan refreshResult, 1)
	c.refreshing = true
	c.queue = []chan refreshResult{wait}

	boom := errors.New("refresh failed")
	c.release("", boom)

	res := <-wait
	assert.ErrorIs(t, res.err, boom)
	assert.False(t, c.refreshing)
}

func TestAwaitRefresh_StaleTokenSkipsRefresh(t *testing.T) {
	c := newTestClient(t, "http://unused", &staticTokens{access: "A2", refresh: "R2"})

	token, err := c.awaitRefresh(context.Background(), "A1", true)
	require.NoError(t, err)
	assert.Equal(t, "A2", token)
	assert.False(t, c.refreshing)
}

func TestAwaitRefresh_ClearedSession(t *testing.T) {
	c := newTestClient(t, "http://unused", &staticTokens{})

	_, err := c.awaitRefresh(context.Background(), "A1", true)
	assert.ErrorIs(t, err, errSessionCleared)
}

func TestAwaitRefresh_WaiterHonoursContext(t *testing.T) {
	c := newTestClient(t, "http://unused", &staticTokens{access: "A1", refresh: "R1"})
	c.refreshing = true

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.awaitRefresh(ctx, "A1", true)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// the abandoned waiter is still released without blocking
	c.release("A2", nil)
	assert.False(t, c.refreshing)
}

func TestRefresh_StartsCycleWhenIdle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/refresh", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"A2","refresh_token":"R2"}`))
	}))
	defer srv.Close()

	tokens := &staticTokens{access: "A1", refresh: "R1"}
	c := newTestClient(t, srv.URL, tokens)

	pair, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A2", pair.AccessToken)
	assert.Equal(t, "R2", pair.RefreshToken)
	assert.Zero(t, tokens.cleared)
}

func TestRefresh_MissingAccessTokenFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token_type":"bearer"}`))
	}))
	defer srv.Close()

	tokens := &staticTokens{access: "A1", refresh: "R1"}
	c := newTestClient(t, srv.URL, tokens)

	_, err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, tokens.cleared)
}
