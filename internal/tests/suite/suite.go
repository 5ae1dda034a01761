package suite

import (
	"aclue/internal/api"
	"aclue/internal/config"
	"aclue/internal/storage/memory"
	"aclue/internal/tests/mock"
	"aclue/internal/token"
	"encoding/json"
	"github.com/go-chi/chi/v5"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// Suite wires a real api.Client and token.Manager to a fake backend served by
// httptest. Tests register the routes they need on Router.
type Suite struct {
	*testing.T

	// Backend
	Router chi.Router
	Server *httptest.Server

	// Client side
	Storage   *memory.Storage
	Keys      config.StorageKeys
	Tokens    *token.Manager
	Client    *api.Client
	Navigator *mock.MockNavigator
	Log       *slog.Logger

	mu          sync.Mutex
	validAccess string
}

const LoginRoute = "/signin"

func New(t *testing.T) *Suite {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if os.Getenv("ACLUE_TEST_VERBOSE") != "" {
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	router := chi.NewRouter()
	server := httptest.NewServer(router)

	store := memory.New()
	keys := config.DefaultKeys()
	tokens := token.NewManager(store, keys, log)
	nav := mock.NewMockNavigator()

	client := api.New(config.APIConfig{
		BaseURL:    server.URL,
		Timeout:    5 * time.Second,
		LoginRoute: LoginRoute,
	}, tokens, log, api.WithNavigator(nav))

	s := &Suite{
		T:         t,
		Router:    router,
		Server:    server,
		Storage:   store,
		Keys:      keys,
		Tokens:    tokens,
		Client:    client,
		Navigator: nav,
		Log:       log,
	}

	t.Cleanup(func() {
		s.Cleanup()
	})

	return s
}

func (s *Suite) Cleanup() {
	if s.Server != nil {
		s.Server.Close()
	}
}

// SetValidAccess sets the only access token RequireBearer accepts.
func (s *Suite) SetValidAccess(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validAccess = token
}

func (s *Suite) ValidAccess() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validAccess
}

// RequireBearer answers 401 unless the request carries the valid access token.
func (s *Suite) RequireBearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token != s.ValidAccess() {
			WriteJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		next(w, r)
	}
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
