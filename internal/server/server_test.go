package server

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aroma-tales/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubDatabase reports a fixed health; handlers that reach the pool are not exercised here
type stubDatabase struct {
	status string
	closed bool
}

func (s *stubDatabase) DB() *sql.DB { return nil }

func (s *stubDatabase) Health() map[string]string {
	return map[string]string{"status": s.status}
}

func (s *stubDatabase) Close() error {
	s.closed = true
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", Env: "test", IdempotencyTTL: time.Hour},
		JWT:    config.JWTConfig{Secret: "test-secret", AccessExpiry: 15},
		Mail:   config.MailConfig{From: "shop@example.com", AdminInbox: "owner@example.com"},
		Notification: config.NotificationConfig{
			Mode:            config.NotifyModeDirect,
			DispatchTimeout: time.Second,
		},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"https://aromatales.pk"}},
		RateLimit: config.RateLimitConfig{Requests: 3, Window: time.Minute},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, db *stubDatabase) *Server {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	srv, err := NewServer(cfg, zap.NewNop(), db, client)
	require.NoError(t, err)
	return srv
}

func TestServer_Health(t *testing.T) {
	db := &stubDatabase{status: "up"}
	srv := newTestServer(t, testConfig(), db)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	db.status = "down"
	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_AdminRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, testConfig(), &stubDatabase{status: "up"})

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestServer_RateLimitsApiButNotHealth(t *testing.T) {
	srv := newTestServer(t, testConfig(), &stubDatabase{status: "up"})

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		w := httptest.NewRecorder()
		srv.Handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, codes[3])

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		w := httptest.NewRecorder()
		srv.Handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	srv := newTestServer(t, testConfig(), &stubDatabase{status: "up"})

	req := httptest.NewRequest(http.MethodOptions, "/api/orders", nil)
	req.Header.Set("Origin", "https://aromatales.pk")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, req)

	assert.Equal(t, "https://aromatales.pk", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_CloseReleasesResources(t *testing.T) {
	db := &stubDatabase{status: "up"}
	cfg := testConfig()
	cfg.Notification.Mode = config.NotifyModeOutbox
	cfg.Notification.PollInterval = time.Hour
	srv := newTestServer(t, cfg, db)

	require.NoError(t, srv.Close())
	assert.True(t, db.closed)
}
