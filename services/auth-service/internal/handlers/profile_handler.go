package handlers

import (
	"context"
	"net/http"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/libs/auth/middleware"
	"github.com/genzone/backend/libs/handlers"
	"github.com/genzone/backend/libs/pagination"
	"github.com/genzone/backend/services/auth-service/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProfileService is the interface that wraps methods for profile business logic
type ProfileService interface {
	// GetUser retrieves the public profile of a user
	//
	// If user with such ID does not exist, a NotFound error will be returned together with "nil" value.
	GetUser(ctx context.Context, id int) (*models.UserResponse, error)
	// ListUsers retrieves a page of user profiles ordered by ID
	//
	// A page past the last one is a NotFound error.
	ListUsers(ctx context.Context, params pagination.Params) (*pagination.Page[models.UserResponse], error)
	// UpdateUser updates first name, last name and/or photo of a user
	//
	// "actorID" must equal "id", otherwise a Forbidden error will be returned.
	UpdateUser(ctx context.Context, actorID, id int, req *models.UpdateUserRequest) (*models.UserResponse, error)
	// DeleteUser removes a user account
	//
	// "actorID" must equal "id", otherwise a Forbidden error will be returned.
	DeleteUser(ctx context.Context, actorID, id int) error
	// ChangePassword replaces the password of the acting user
	//
	// A wrong old password is a validation error on "oldPassword".
	ChangePassword(ctx context.Context, actorID int, req *models.ChangePasswordRequest) error
}

// ProfileHandler handles profile HTTP requests
type ProfileHandler struct {
	handlers.BaseHandler
	profileService ProfileService
	limits         pagination.Limits
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService ProfileService, logger *zap.Logger, limits pagination.Limits) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:    handlers.BaseHandler{Logger: logger},
		profileService: profileService,
		limits:         limits,
	}
}

// RegisterRoutes registers profile handler routes
func (h *ProfileHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/users", func(r chi.Router) {
		r.With(adminMiddleware).Get("/", h.ListUsers)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Put("/me/password", h.ChangePassword)
			r.Get("/{id}", h.GetUser)
			r.Patch("/{id}", h.UpdateUser)
			r.Delete("/{id}", h.DeleteUser)
		})
	})
}

// ListUsers handles GET /users
// @Summary List users
// @Description Paginated list of users. Admin only.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(10)
// @Success 200 {object} pagination.Page[models.UserResponse]
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 403 {object} handlers.ErrorResponse "Forbidden"
// @Failure 404 {object} handlers.ErrorResponse "Invalid page"
// @Router /users [get]
func (h *ProfileHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.FromRequest(r, h.limits)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	page, err := h.profileService.ListUsers(r.Context(), params)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, page)
}

// GetUser handles GET /users/{id}
// @Summary Get user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.UserResponse
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Router /users/{id} [get]
func (h *ProfileHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.IntParam(r, "id")
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	user, err := h.profileService.GetUser(r.Context(), id)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, user)
}

// UpdateUser handles PATCH /users/{id}
// @Summary Update user profile
// @Description Updates first name, last name and photo. The username follows the name.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body models.UpdateUserRequest true "Fields to update"
// @Success 200 {object} models.UserResponse
// @Failure 400 {object} handlers.ErrorResponse "Validation error"
// @Failure 403 {object} handlers.ErrorResponse "Not the owner"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Router /users/{id} [patch]
func (h *ProfileHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondAppError(w, r, apperrors.Unauthenticated("authentication required"))
		return
	}

	id, err := h.IntParam(r, "id")
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	var req models.UpdateUserRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	user, err := h.profileService.UpdateUser(r.Context(), actorID, id, &req)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /users/{id}
// @Summary Delete user account
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204 "No content"
// @Failure 403 {object} handlers.ErrorResponse "Not the owner"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Router /users/{id} [delete]
func (h *ProfileHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondAppError(w, r, apperrors.Unauthenticated("authentication required"))
		return
	}

	id, err := h.IntParam(r, "id")
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	if err := h.profileService.DeleteUser(r.Context(), actorID, id); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword handles PUT /users/me/password
// @Summary Change password
// @Tags users
// @Accept json
// @Security BearerAuth
// @Param request body models.ChangePasswordRequest true "Old and new password"
// @Success 204 "No content"
// @Failure 400 {object} handlers.ErrorResponse "Validation error"
// @Router /users/me/password [put]
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.RespondAppError(w, r, apperrors.Unauthenticated("authentication required"))
		return
	}

	var req models.ChangePasswordRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	if err := h.profileService.ChangePassword(r.Context(), actorID, &req); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
