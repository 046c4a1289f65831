package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/guruhub/internal/actorctx"
	"github.com/geocoder89/guruhub/internal/auth"
	"github.com/geocoder89/guruhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// AuthService is what the auth endpoints need from auth.Service.
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (user.Profile, error)
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	Profile(ctx context.Context, userID string) (user.Profile, error)
}

type AuthHandler struct {
	svc     AuthService
	timeout time.Duration
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc, timeout: DefaultStoreTimeout}
}

// WithTimeout sets how long one request may spend in the auth service.
func (h *AuthHandler) WithTimeout(d time.Duration) *AuthHandler {
	h.timeout = d
	return h
}

// LoginRequest carries no validation tags: a missing or malformed email or
// password fails as invalid credentials in auth.Service, not as a 400.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
	Role     string `json:"role"`
}

// LoginResponse flattens the profile next to the token.
type LoginResponse struct {
	Token string    `json:"token"`
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  user.Role `json:"role"`
}

const invalidCredentialsMessage = "Invalid email or password."

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeContext(ctx, h.timeout)
	defer cancel()

	prof, err := h.svc.Register(cctx, auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})

	if err != nil {
		respondAuthError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, prof)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeContext(ctx, h.timeout)
	defer cancel()

	res, err := h.svc.Login(cctx, req.Email, req.Password)

	if err != nil {
		respondAuthError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, LoginResponse{
		Token: res.Token,
		ID:    res.Profile.ID,
		Name:  res.Profile.Name,
		Email: res.Profile.Email,
		Role:  res.Profile.Role,
	})
}

// Profile must sit behind AuthMiddleware.Authenticate.
func (h *AuthHandler) Profile(ctx *gin.Context) {
	userID, ok := actorctx.UserIDFrom(ctx.Request.Context())

	if !ok {
		RespondUnAuthorized(ctx, "unauthenticated", "Authentication required")
		return
	}

	cctx, cancel := storeContext(ctx, h.timeout)
	defer cancel()

	prof, err := h.svc.Profile(cctx, userID)

	if err != nil {
		respondAuthError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, prof)
}

func respondAuthError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, user.ErrInvalidRole):
		RespondError(ctx, http.StatusBadRequest, "invalid_role", "Role must be one of: user, admin", nil)
	case errors.Is(err, auth.ErrInvalidInput):
		RespondBadRequest(ctx, "Name, email and password are required", nil)
	case errors.Is(err, auth.ErrDuplicateEmail):
		RespondError(ctx, http.StatusBadRequest, "email_taken", "Email is already in use.", nil)
	case errors.Is(err, auth.ErrForbiddenRole):
		RespondForbidden(ctx, "role_not_allowed", "This role cannot be self-assigned")
	case errors.Is(err, auth.ErrInvalidCredentials):
		RespondUnAuthorized(ctx, "invalid_credentials", invalidCredentialsMessage)
	case errors.Is(err, auth.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	default:
		RespondInternal(ctx, "Could not complete the request", err)
	}
}
