package integration_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/geocoder89/guruhub/internal/domain/user"
	"github.com/geocoder89/guruhub/internal/repo/memory"
)

func memoryStores() stores {
	cats := memory.NewCategoriesRepo()
	return stores{
		users:      memory.NewUsersRepo(),
		categories: cats,
		gurus:      memory.NewGurusRepo(cats),
	}
}

type loginBody struct {
	Token string    `json:"token"`
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  user.Role `json:"role"`
}

func runAuthScenario(t *testing.T, app testApp, email string) {
	t.Helper()
	r := app.router

	// register as admin
	w := doJSON(t, r, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Asha", "email": email, "password": "pw123456", "role": "admin",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("register response leaked password data: %s", w.Body.String())
	}

	// login
	w = doJSON(t, r, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": "pw123456"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	login := decode[loginBody](t, w)
	if login.Token == "" || login.Role != user.RoleAdmin {
		t.Fatalf("unexpected login body: %+v", login)
	}

	// profile
	w = doJSON(t, r, http.MethodGet, "/auth/profile", login.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("profile: %d %s", w.Code, w.Body.String())
	}
	prof := decode[user.Profile](t, w)
	if prof.Role != user.RoleAdmin || prof.Name != "Asha" || prof.ID != login.ID {
		t.Fatalf("unexpected profile: %+v", prof)
	}

	// mutation with the token
	category := map[string]string{"name": "Modern " + email, "description": "after 1800"}
	w = doJSON(t, r, http.MethodPost, "/api/categories", login.Token, category)
	if w.Code != http.StatusCreated {
		t.Fatalf("create category as admin: %d %s", w.Code, w.Body.String())
	}

	// same mutation without a header
	w = doJSON(t, r, http.MethodPost, "/api/categories", "", category)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("create category without token: %d %s", w.Code, w.Body.String())
	}
}

func TestAuthFlow_EndToEnd(t *testing.T) {
	app := newTestApp(t, testConfig(), memoryStores())
	runAuthScenario(t, app, "a@x.com")
}

func TestAuthFlow_LegacyPrefix(t *testing.T) {
	app := newTestApp(t, testConfig(), memoryStores())
	r := app.router

	w := doJSON(t, r, http.MethodPost, "/api/users/register", "", map[string]string{"name": "U", "email": "u@x.com", "password": "pw"})
	if w.Code != http.StatusCreated {
		t.Fatalf("register via legacy prefix: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/users/login", "", map[string]string{"email": "U@X.com", "password": "pw"})
	if w.Code != http.StatusOK {
		t.Fatalf("login via legacy prefix: %d %s", w.Code, w.Body.String())
	}

	tok := decode[loginBody](t, w).Token
	if w := doJSON(t, r, http.MethodGet, "/api/users/profile", tok, nil); w.Code != http.StatusOK {
		t.Fatalf("profile via legacy prefix: %d", w.Code)
	}
}

func TestAuthFlow_RoleGate(t *testing.T) {
	app := newTestApp(t, testConfig(), memoryStores())
	r := app.router

	doJSON(t, r, http.MethodPost, "/auth/register", "", map[string]string{"name": "U", "email": "u@x.com", "password": "pw"})
	w := doJSON(t, r, http.MethodPost, "/auth/login", "", map[string]string{"email": "u@x.com", "password": "pw"})
	userTok := decode[loginBody](t, w).Token

	body := map[string]string{"name": "Ancient", "description": "before 500"}

	w = doJSON(t, r, http.MethodPost, "/api/categories", userTok, body)
	if w.Code != http.StatusForbidden {
		t.Fatalf("user token on admin endpoint: %d %s", w.Code, w.Body.String())
	}

	expired, _ := app.tokens.IssueWithTTL("someone", user.RoleAdmin, 0)
	w = doJSON(t, r, http.MethodPost, "/api/categories", expired, body)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expired token: %d", w.Code)
	}

	parts := strings.Split(userTok, ".")
	forged := parts[0] + "." + parts[1] + ".invalidsignature"
	w = doJSON(t, r, http.MethodPost, "/api/categories", forged, body)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("tampered token: %d", w.Code)
	}

	env := decode[errorEnvelope](t, w)
	if env.Error.Code != "unauthenticated" || env.Error.RequestID == "" {
		t.Fatalf("unexpected rejection body: %+v", env)
	}

	if w := doJSON(t, r, http.MethodGet, "/api/categories", "", nil); w.Code != http.StatusOK {
		t.Fatalf("public read should not need a token: %d", w.Code)
	}
}

func TestAuthFlow_LoginFailuresLookTheSame(t *testing.T) {
	app := newTestApp(t, testConfig(), memoryStores())
	r := app.router

	doJSON(t, r, http.MethodPost, "/auth/register", "", map[string]string{"name": "U", "email": "u@x.com", "password": "right"})

	wrong := doJSON(t, r, http.MethodPost, "/auth/login", "", map[string]string{"email": "u@x.com", "password": "wrong"})
	unknown := doJSON(t, r, http.MethodPost, "/auth/login", "", map[string]string{"email": "ghost@x.com", "password": "right"})

	if wrong.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401s, got %d / %d", wrong.Code, unknown.Code)
	}

	a, b := decode[errorEnvelope](t, wrong), decode[errorEnvelope](t, unknown)
	if a.Error.Code != b.Error.Code || a.Error.Message != b.Error.Message {
		t.Fatalf("failures differ: %+v vs %+v", a.Error, b.Error)
	}

	for _, body := range []map[string]string{
		{"email": "nobody", "password": "right"},
		{"email": "u@x.com", "password": ""},
	} {
		w := doJSON(t, r, http.MethodPost, "/auth/login", "", body)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("login %v: expected 401, got %d %s", body, w.Code, w.Body.String())
		}
		if got := decode[errorEnvelope](t, w); got.Error.Code != a.Error.Code || got.Error.Message != a.Error.Message {
			t.Fatalf("login %v: failure differs: %+v", body, got.Error)
		}
	}
}

func TestAuthFlow_DuplicateEmailAnyCase(t *testing.T) {
	app := newTestApp(t, testConfig(), memoryStores())
	r := app.router

	doJSON(t, r, http.MethodPost, "/auth/register", "", map[string]string{"name": "U", "email": "dup@x.com", "password": "pw"})
	w := doJSON(t, r, http.MethodPost, "/auth/register", "", map[string]string{"name": "V", "email": "DUP@x.com", "password": "pw"})

	if w.Code != http.StatusBadRequest || decode[errorEnvelope](t, w).Error.Code != "email_taken" {
		t.Fatalf("expected 400 email_taken, got %d %s", w.Code, w.Body.String())
	}
}

func TestAuthFlow_SelfAdminPolicyOff(t *testing.T) {
	cfg := testConfig()
	cfg.AllowSelfAdmin = false

	app := newTestApp(t, cfg, memoryStores())

	w := doJSON(t, app.router, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "M", "email": "m@x.com", "password": "pw", "role": "admin",
	})
	if w.Code != http.StatusForbidden || decode[errorEnvelope](t, w).Error.Code != "role_not_allowed" {
		t.Fatalf("expected 403 role_not_allowed, got %d %s", w.Code, w.Body.String())
	}
}

func TestMetricsExposeAuthCounters(t *testing.T) {
	app := newTestApp(t, testConfig(), memoryStores())
	r := app.router

	doJSON(t, r, http.MethodPost, "/auth/login", "", map[string]string{"email": "ghost@x.com", "password": "pw"})
	doJSON(t, r, http.MethodGet, "/auth/profile", "", nil)

	w := doJSON(t, r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: %d", w.Code)
	}

	body := w.Body.String()
	for _, want := range []string{
		`guruhub_auth_logins_total{result="invalid_credentials"} 1`,
		`guruhub_auth_token_rejections_total{reason="missing_header"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}
