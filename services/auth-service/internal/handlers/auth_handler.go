package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/libs/handlers"
	"github.com/genzone/backend/services/auth-service/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Register validates the registration form and creates an inactive student account.
	//
	// "req" parameter contains first name, last name, email, password and its confirmation.
	//
	// A verification email is queued in the background. Validation failures carry the offending field.
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	// Method VerifyEmail activates the account bound to the verification token.
	//
	// An expired or malformed token is a validation error on "token". Verifying twice is not an error.
	VerifyEmail(ctx context.Context, token string) error
	// Method CheckStatus reports whether the account registered with "email" is verified.
	//
	// If no such account exists, a NotFound error will be returned together with "nil" value.
	CheckStatus(ctx context.Context, email string) (*models.StatusResponse, error)
	// Method ResendVerification queues a new verification email.
	//
	// If the account is already verified, a Conflict error will be returned.
	ResendVerification(ctx context.Context, email string) error
	// Method Login checks the credentials of an active user and issues a token pair.
	//
	// "req" parameter contains email and password.
	//
	// A wrong password or an unverified account is an Unauthenticated error.
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	// Method Refresh performs a refresh token validation and returns a new access token and refresh token.
	//
	// "refreshToken" parameter is used to identify the user.
	//
	// If refresh token is invalid or expired, an Unauthenticated error will be returned together with empty strings.
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	handlers.BaseHandler
	authService   AuthService
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService AuthService,
	logger *zap.Logger,
	accessExpiry time.Duration,
	refreshExpiry time.Duration,
) *AuthHandler {
	return &AuthHandler{
		BaseHandler:   handlers.BaseHandler{Logger: logger},
		authService:   authService,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// RegisterRoutes registers all auth handler routes
// Note: This assumes the router is already scoped to /api/v1
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Get("/verify", h.Verify)
		r.Get("/status", h.Status)
		r.Post("/resend", h.Resend)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
	})
}

// MessageResponse is a plain confirmation body
type MessageResponse struct {
	Message string `json:"message"`
}

// Register handles POST /auth/register
// @Summary Register a new user
// @Description Creates an inactive student account and sends a verification email.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration form"
// @Success 201 {object} models.UserResponse
// @Failure 400 {object} handlers.ErrorResponse "Validation error"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, user.ToResponse())
}

// Verify handles GET /auth/verify
// @Summary Verify email
// @Description Activates the account bound to the verification token from the email link.
// @Tags auth
// @Produce json
// @Param token query string true "Verification token"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid or expired token"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Router /auth/verify [get]
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.RespondAppError(w, r, apperrors.Validation("token", "token is required"))
		return
	}

	if err := h.authService.VerifyEmail(r.Context(), token); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, MessageResponse{Message: "email verified"})
}

// Status handles GET /auth/status
// @Summary Verification status
// @Description Reports whether the account registered with the email is verified.
// @Tags auth
// @Produce json
// @Param email query string true "Account email"
// @Success 200 {object} models.StatusResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid email"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Router /auth/status [get]
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.authService.CheckStatus(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, status)
}

// Resend handles POST /auth/resend
// @Summary Resend verification email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.EmailRequest true "Account email"
// @Success 202 {object} MessageResponse
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Failure 409 {object} handlers.ErrorResponse "Already verified"
// @Router /auth/resend [post]
func (h *AuthHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	if err := h.authService.ResendVerification(r.Context(), req.Email); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusAccepted, MessageResponse{Message: "verification email sent"})
}

// Login handles POST /auth/login
// @Summary Login user
// @Description Authenticates an active user. Tokens are returned in the body and as HTTP-only cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} handlers.ErrorResponse "Invalid request body"
// @Failure 401 {object} handlers.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.setTokenCookies(w, resp.AccessToken, resp.RefreshToken)
	h.RespondJSON(w, http.StatusOK, resp)
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse carries a freshly issued token pair
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Refresh handles POST /auth/refresh
// @Summary Refresh access token
// @Description Rotates the refresh token. The token can be provided in the request body or as a cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest false "Refresh token request (optional if using cookie)"
// @Success 200 {object} TokenResponse
// @Failure 401 {object} handlers.ErrorResponse "Invalid or expired refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var refreshToken string
	var req RefreshRequest

	if r.ContentLength != 0 {
		if err := h.DecodeJSON(r, &req); err != nil {
			h.RespondAppError(w, r, err)
			return
		}
		refreshToken = req.RefreshToken
	}
	if refreshToken == "" {
		if cookie, err := r.Cookie("refresh_token"); err == nil {
			refreshToken = cookie.Value
		}
	}

	accessToken, newRefreshToken, err := h.authService.Refresh(r.Context(), refreshToken)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.setTokenCookies(w, accessToken, newRefreshToken)
	h.RespondJSON(w, http.StatusOK, TokenResponse{AccessToken: accessToken, RefreshToken: newRefreshToken})
}

// setTokenCookies sets access and refresh tokens as HTTP-only cookies
func (h *AuthHandler) setTokenCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(h.accessExpiry.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(h.refreshExpiry.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
