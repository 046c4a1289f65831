package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/guruhub/internal/auth"
	"github.com/geocoder89/guruhub/internal/cache"
	"github.com/geocoder89/guruhub/internal/config"
	apphttp "github.com/geocoder89/guruhub/internal/http"
	"github.com/geocoder89/guruhub/internal/http/handlers"
	"github.com/geocoder89/guruhub/internal/observability"
	"github.com/geocoder89/guruhub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key"

func testConfig() config.Config {
	return config.Config{
		Env:                 "test",
		JWTSecret:           testSecret,
		JWTAccessTTLMinutes: 60,
		AllowSelfAdmin:      true,
		CacheTTLSeconds:     30,
		CORSOrigins:         []string{"http://localhost:3000"},
		LoginRateLimit:      100,
		MaxBodyBytes:        1 << 20,
	}
}

type stores struct {
	users      auth.UserStore
	categories handlers.CategoriesRepo
	gurus      apphttp.GurusStore
}

type testApp struct {
	router *gin.Engine
	tokens *auth.Manager
}

func newTestApp(t *testing.T, cfg config.Config, s stores) testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())
	svc := auth.NewService(s.users, security.NewBcryptHasher(bcrypt.MinCost), tokens, auth.Options{
		AllowSelfAdmin: cfg.AllowSelfAdmin,
		Logger:         logger,
		Observer:       prom,
	})

	router := apphttp.NewRouter(logger, apphttp.Deps{
		Config:     cfg,
		Auth:       svc,
		Tokens:     tokens,
		Categories: s.categories,
		Gurus:      s.gurus,
		Cache:      cache.Instrument(cache.New(time.Minute), "content", prom),
		Prom:       prom,
		Gatherer:   reg,
	})

	return testApp{router: router, tokens: tokens}
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %T: %v (body=%s)", out, err, w.Body.String())
	}
	return out
}

type errorEnvelope struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	} `json:"error"`
}
