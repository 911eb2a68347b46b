package handlers

import (
	"context"
	"net/http"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/libs/handlers"
	"github.com/genzone/backend/libs/pagination"
	"github.com/genzone/backend/services/learn-service/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MembershipService is the interface that wraps methods for course membership business logic
type MembershipService interface {
	// Add puts a course into one of the actor's sets. An existing membership is a Conflict.
	Add(ctx context.Context, actorID, courseID int, kind models.MembershipKind) error
	// Remove takes a course out of one of the actor's sets. An absent membership is a Conflict.
	Remove(ctx context.Context, actorID, courseID int, kind models.MembershipKind) error
	// ListMine retrieves a page of the actor's courses of "kind": owned, enrolled, favorite or in_progress
	ListMine(ctx context.Context, actorID int, kind string, params pagination.Params) (*pagination.Page[models.Course], error)
}

// membershipSegments maps route segments to membership kinds
var membershipSegments = map[string]models.MembershipKind{
	"enroll":      models.MembershipEnrolled,
	"favorite":    models.MembershipFavorite,
	"in-progress": models.MembershipInProgress,
}

// MembershipHandler handles enrollment, favorites and in-progress HTTP requests
type MembershipHandler struct {
	handlers.BaseHandler
	membershipService MembershipService
	limits            pagination.Limits
}

// NewMembershipHandler creates a new membership handler
func NewMembershipHandler(membershipService MembershipService, logger *zap.Logger, limits pagination.Limits) *MembershipHandler {
	return &MembershipHandler{
		BaseHandler:       handlers.BaseHandler{Logger: logger},
		membershipService: membershipService,
		limits:            limits,
	}
}

// RegisterRoutes registers membership handler routes. All of them require auth.
func (h *MembershipHandler) RegisterRoutes(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Get("/courses/mine", h.ListMine)
		r.Post("/course/{id}/{membership:(enroll|favorite|in-progress)}", h.AddMembership)
		r.Delete("/course/{id}/{membership:(enroll|favorite|in-progress)}", h.RemoveMembership)
	})
}

func (h *MembershipHandler) membershipParams(r *http.Request) (int, int, models.MembershipKind, error) {
	actorID, err := requireActor(r)
	if err != nil {
		return 0, 0, "", err
	}

	courseID, err := h.IntParam(r, "id")
	if err != nil {
		return 0, 0, "", err
	}

	kind, ok := membershipSegments[chi.URLParam(r, "membership")]
	if !ok {
		return 0, 0, "", apperrors.NotFound("unknown membership")
	}
	return actorID, courseID, kind, nil
}

// AddMembership handles POST /course/{id}/enroll, /course/{id}/favorite and /course/{id}/in-progress
// @Summary Add course membership
// @Description Enrolls in a course, adds it to favorites or marks it in progress
// @Tags memberships
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param membership path string true "Membership" Enums(enroll, favorite, in-progress)
// @Success 201 "Created"
// @Failure 404 {object} handlers.ErrorResponse "Course not found"
// @Failure 409 {object} handlers.ErrorResponse "Already a member"
// @Router /course/{id}/{membership} [post]
func (h *MembershipHandler) AddMembership(w http.ResponseWriter, r *http.Request) {
	actorID, courseID, kind, err := h.membershipParams(r)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	if err := h.membershipService.Add(r.Context(), actorID, courseID, kind); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// RemoveMembership handles DELETE /course/{id}/enroll, /course/{id}/favorite and /course/{id}/in-progress
// @Summary Remove course membership
// @Tags memberships
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param membership path string true "Membership" Enums(enroll, favorite, in-progress)
// @Success 204 "No content"
// @Failure 404 {object} handlers.ErrorResponse "Course not found"
// @Failure 409 {object} handlers.ErrorResponse "Not a member"
// @Router /course/{id}/{membership} [delete]
func (h *MembershipHandler) RemoveMembership(w http.ResponseWriter, r *http.Request) {
	actorID, courseID, kind, err := h.membershipParams(r)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	if err := h.membershipService.Remove(r.Context(), actorID, courseID, kind); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMine handles GET /courses/mine
// @Summary List my courses
// @Tags memberships
// @Produce json
// @Security BearerAuth
// @Param kind query string true "Which courses" Enums(owned, enrolled, favorite, in_progress)
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(10)
// @Success 200 {object} pagination.Page[models.Course]
// @Failure 400 {object} handlers.ErrorResponse "Unknown kind"
// @Router /courses/mine [get]
func (h *MembershipHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actorID, err := requireActor(r)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	params, err := pagination.FromRequest(r, h.limits)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	page, err := h.membershipService.ListMine(r.Context(), actorID, r.URL.Query().Get("kind"), params)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, page)
}
