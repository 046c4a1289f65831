package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/guruhub/internal/actorctx"
	"github.com/geocoder89/guruhub/internal/auth"
	"github.com/geocoder89/guruhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type fakeAuthService struct {
	RegisterFn func(ctx context.Context, in auth.RegisterInput) (user.Profile, error)
	LoginFn    func(ctx context.Context, email, password string) (auth.LoginResult, error)
	ProfileFn  func(ctx context.Context, userID string) (user.Profile, error)
}

func (f *fakeAuthService) Register(ctx context.Context, in auth.RegisterInput) (user.Profile, error) {
	return f.RegisterFn(ctx, in)
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (auth.LoginResult, error) {
	return f.LoginFn(ctx, email, password)
}

func (f *fakeAuthService) Profile(ctx context.Context, userID string) (user.Profile, error) {
	return f.ProfileFn(ctx, userID)
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

func newAuthRouter(svc AuthService, identity *actorctx.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := NewAuthHandler(svc)
	r := gin.New()

	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/profile", func(c *gin.Context) {
		if identity != nil {
			c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), *identity))
		}
		c.Next()
	}, h.Profile)

	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) APIError {
	t.Helper()

	var env errorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, w.Body.String())
	}
	return env.Error
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{name: "created", body: `{"name":"A","email":"a@example.com","password":"pw","role":"admin"}`, wantStatus: http.StatusCreated},
		{name: "missing fields", body: `{"email":"a@example.com"}`, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "bad email", body: `{"name":"A","email":"nope","password":"pw"}`, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "duplicate", body: `{"name":"A","email":"a@example.com","password":"pw"}`, svcErr: auth.ErrDuplicateEmail, wantStatus: http.StatusBadRequest, wantCode: "email_taken"},
		{name: "bad role", body: `{"name":"A","email":"a@example.com","password":"pw","role":"x"}`, svcErr: errors.Join(auth.ErrInvalidInput, user.ErrInvalidRole), wantStatus: http.StatusBadRequest, wantCode: "invalid_role"},
		{name: "blank after trim", body: `{"name":" ","email":"a@example.com","password":"pw"}`, svcErr: auth.ErrInvalidInput, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "admin policy off", body: `{"name":"A","email":"a@example.com","password":"pw","role":"admin"}`, svcErr: auth.ErrForbiddenRole, wantStatus: http.StatusForbidden, wantCode: "role_not_allowed"},
		{name: "store failure", body: `{"name":"A","email":"a@example.com","password":"pw"}`, svcErr: errors.New("db down"), wantStatus: http.StatusInternalServerError, wantCode: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got auth.RegisterInput
			svc := &fakeAuthService{RegisterFn: func(ctx context.Context, in auth.RegisterInput) (user.Profile, error) {
				got = in
				if tt.svcErr != nil {
					return user.Profile{}, tt.svcErr
				}
				return user.Profile{ID: "u1", Name: in.Name, Email: in.Email, Role: user.RoleAdmin}, nil
			}}

			w := postJSON(newAuthRouter(svc, nil), "/auth/register", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body=%s)", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantCode != "" {
				if code := decodeError(t, w).Code; code != tt.wantCode {
					t.Fatalf("code = %q, want %q", code, tt.wantCode)
				}
				return
			}

			var prof user.Profile
			if err := json.Unmarshal(w.Body.Bytes(), &prof); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if prof.ID != "u1" || got.Role != "admin" {
				t.Fatalf("unexpected profile %+v / input %+v", prof, got)
			}
		})
	}
}

func TestAuthHandler_LoginFlattensProfile(t *testing.T) {
	svc := &fakeAuthService{LoginFn: func(ctx context.Context, email, password string) (auth.LoginResult, error) {
		return auth.LoginResult{
			Token:   "tok",
			Profile: user.Profile{ID: "u1", Name: "A", Email: email, Role: user.RoleUser},
		}, nil
	}}

	w := postJSON(newAuthRouter(svc, nil), "/auth/login", `{"email":"a@example.com","password":"pw"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", w.Code, w.Body.String())
	}

	var resp LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := LoginResponse{Token: "tok", ID: "u1", Name: "A", Email: "a@example.com", Role: user.RoleUser}
	if resp != want {
		t.Fatalf("got %+v, want %+v", resp, want)
	}
}

func TestAuthHandler_LoginFailureIsUniform(t *testing.T) {
	svc := &fakeAuthService{LoginFn: func(ctx context.Context, email, password string) (auth.LoginResult, error) {
		return auth.LoginResult{}, auth.ErrInvalidCredentials
	}}

	r := newAuthRouter(svc, nil)

	a := postJSON(r, "/auth/login", `{"email":"known@example.com","password":"wrong"}`)
	b := postJSON(r, "/auth/login", `{"email":"unknown@example.com","password":"whatever"}`)

	if a.Code != http.StatusUnauthorized || b.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401s, got %d and %d", a.Code, b.Code)
	}

	ea, eb := decodeError(t, a), decodeError(t, b)
	if ea.Code != "invalid_credentials" || ea.Message != invalidCredentialsMessage || ea != eb {
		t.Fatalf("responses differ: %+v vs %+v", ea, eb)
	}
}

func TestAuthHandler_Profile(t *testing.T) {
	svc := &fakeAuthService{ProfileFn: func(ctx context.Context, userID string) (user.Profile, error) {
		if userID == "gone" {
			return user.Profile{}, auth.ErrNotFound
		}
		return user.Profile{ID: userID, Name: "A", Email: "a@example.com", Role: user.RoleUser}, nil
	}}

	tests := []struct {
		name       string
		identity   *actorctx.Identity
		wantStatus int
	}{
		{name: "ok", identity: &actorctx.Identity{UserID: "u1", Role: user.RoleUser}, wantStatus: http.StatusOK},
		{name: "no identity", wantStatus: http.StatusUnauthorized},
		{name: "deleted user", identity: &actorctx.Identity{UserID: "gone", Role: user.RoleUser}, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newAuthRouter(svc, tt.identity)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/profile", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body=%s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestAuthHandler_LoginLeavesCredentialChecksToService(t *testing.T) {
	var seen []string
	svc := &fakeAuthService{LoginFn: func(ctx context.Context, email, password string) (auth.LoginResult, error) {
		seen = append(seen, email+"|"+password)
		return auth.LoginResult{}, auth.ErrInvalidCredentials
	}}

	r := newAuthRouter(svc, nil)

	for _, body := range []string{
		`{"email":"nobody","password":"pw123456"}`,
		`{"email":"a@example.com","password":""}`,
		`{}`,
	} {
		w := postJSON(r, "/auth/login", body)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("body %s: expected 401, got %d %s", body, w.Code, w.Body.String())
		}
		if e := decodeError(t, w); e.Code != "invalid_credentials" || e.Message != invalidCredentialsMessage {
			t.Fatalf("body %s: unexpected error %+v", body, e)
		}
	}

	if len(seen) != 3 {
		t.Fatalf("expected every body to reach the service, got %v", seen)
	}

	if w := postJSON(r, "/auth/login", `{"email":`); w.Code != http.StatusBadRequest {
		t.Fatalf("unparsable body should stay 400, got %d", w.Code)
	}
}

func TestAuthHandler_TimeoutBoundsServiceCall(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var remaining time.Duration
	svc := &fakeAuthService{LoginFn: func(ctx context.Context, email, password string) (auth.LoginResult, error) {
		dl, ok := ctx.Deadline()
		if !ok {
			t.Fatalf("expected a deadline on the service context")
		}
		remaining = time.Until(dl)
		return auth.LoginResult{}, auth.ErrInvalidCredentials
	}}

	r := gin.New()
	r.POST("/auth/login", NewAuthHandler(svc).WithTimeout(200*time.Millisecond).Login)

	postJSON(r, "/auth/login", `{"email":"a@example.com","password":"pw"}`)

	if remaining <= 0 || remaining > 200*time.Millisecond {
		t.Fatalf("expected the configured 200ms deadline, got %s left", remaining)
	}
}

func TestRespondAuthError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{errors.Join(auth.ErrInvalidInput, user.ErrInvalidRole), http.StatusBadRequest, "invalid_role"},
		{auth.ErrInvalidInput, http.StatusBadRequest, "invalid_request"},
		{auth.ErrDuplicateEmail, http.StatusBadRequest, "email_taken"},
		{auth.ErrForbiddenRole, http.StatusForbidden, "role_not_allowed"},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{auth.ErrNotFound, http.StatusNotFound, "not_found"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		respondAuthError(c, tt.err)

		if w.Code != tt.wantStatus {
			t.Fatalf("%v: status = %d, want %d", tt.err, w.Code, tt.wantStatus)
		}
		if got := decodeError(t, w); got.Code != tt.wantCode {
			t.Fatalf("%v: code = %q, want %q", tt.err, got.Code, tt.wantCode)
		}
	}
}
