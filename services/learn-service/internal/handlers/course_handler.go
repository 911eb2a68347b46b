package handlers

import (
	"context"
	"net/http"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/libs/auth/middleware"
	"github.com/genzone/backend/libs/handlers"
	"github.com/genzone/backend/libs/pagination"
	"github.com/genzone/backend/services/learn-service/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CourseService is the interface that wraps methods for course business logic
type CourseService interface {
	// ListCourses retrieves a page of courses. A non-empty "search" filters on the title.
	ListCourses(ctx context.Context, search string, params pagination.Params) (*pagination.Page[models.Course], error)
	// CreateCourse creates a course owned by "actorID"
	//
	// Title, description and preview are required, price must not be negative.
	CreateCourse(ctx context.Context, actorID int, req *models.CreateCourseRequest) (*models.Course, error)
	// GetCourse retrieves a course with its module outline
	//
	// "actorID" is 0 for anonymous callers, otherwise the response carries "hasAccess".
	GetCourse(ctx context.Context, actorID, id int) (*models.CourseDetailResponse, error)
	// UpdateCourse applies a partial update. Anyone but the owner gets a Forbidden error.
	UpdateCourse(ctx context.Context, actorID, id int, req *models.UpdateCourseRequest) (*models.Course, error)
	// DeleteCourse removes a course with everything below it. Anyone but the owner gets a Forbidden error.
	DeleteCourse(ctx context.Context, actorID, id int) error
	// CheckAccess reports whether "actorID" owns or is enrolled in the course
	CheckAccess(ctx context.Context, actorID, id int) (*models.AccessResponse, error)
}

// CourseHandler handles course HTTP requests
type CourseHandler struct {
	handlers.BaseHandler
	courseService CourseService
	limits        pagination.Limits
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courseService CourseService, logger *zap.Logger, limits pagination.Limits) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   handlers.BaseHandler{Logger: logger},
		courseService: courseService,
		limits:        limits,
	}
}

// RegisterRoutes registers course handler routes.
// Reads go through optionalAuth so that signed-in callers are recognised, writes require auth.
func (h *CourseHandler) RegisterRoutes(r chi.Router, auth, optionalAuth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/courses", h.ListCourses)
		r.Get("/course/{id}", h.GetCourse)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Post("/courses", h.CreateCourse)
		r.Patch("/course/{id}", h.UpdateCourse)
		r.Delete("/course/{id}", h.DeleteCourse)
		r.Get("/course/{id}/access", h.CheckAccess)
	})
}

// actorFrom returns the authenticated user or 0 for anonymous requests
func actorFrom(r *http.Request) int {
	userID, _ := middleware.GetUserID(r.Context())
	return userID
}

// requireActor returns the authenticated user or an Unauthenticated error
func requireActor(r *http.Request) (int, error) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		return 0, apperrors.Unauthenticated("authentication required")
	}
	return userID, nil
}

// ListCourses handles GET /courses
// @Summary List courses
// @Description Paginated course catalog, optionally filtered by title
// @Tags courses
// @Produce json
// @Param search query string false "Title search"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(10)
// @Success 200 {object} pagination.Page[models.Course]
// @Failure 400 {object} handlers.ErrorResponse "Invalid pagination"
// @Failure 404 {object} handlers.ErrorResponse "Invalid page"
// @Router /courses [get]
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.FromRequest(r, h.limits)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	page, err := h.courseService.ListCourses(r.Context(), r.URL.Query().Get("search"), params)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, page)
}

// CreateCourse handles POST /courses
// @Summary Create course
// @Description Creates a course owned by the caller
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateCourseRequest true "Course"
// @Success 201 {object} models.Course
// @Failure 400 {object} handlers.ErrorResponse "Validation error"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	actorID, err := requireActor(r)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	var req models.CreateCourseRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	course, err := h.courseService.CreateCourse(r.Context(), actorID, &req)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, course)
}

// GetCourse handles GET /course/{id}
// @Summary Get course
// @Description Course with its modules and lessons. Signed-in callers also get hasAccess.
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.CourseDetailResponse
// @Failure 404 {object} handlers.ErrorResponse "Course not found"
// @Router /course/{id} [get]
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, err := h.IntParam(r, "id")
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	course, err := h.courseService.GetCourse(r.Context(), actorFrom(r), id)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, course)
}

// UpdateCourse handles PATCH /course/{id}
// @Summary Update course
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body models.UpdateCourseRequest true "Fields to update"
// @Success 200 {object} models.Course
// @Failure 400 {object} handlers.ErrorResponse "Validation error"
// @Failure 403 {object} handlers.ErrorResponse "Not the owner"
// @Failure 404 {object} handlers.ErrorResponse "Course not found"
// @Router /course/{id} [patch]
func (h *CourseHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	actorID, err := requireActor(r)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	id, err := h.IntParam(r, "id")
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	var req models.UpdateCourseRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	course, err := h.courseService.UpdateCourse(r.Context(), actorID, id, &req)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, course)
}

// DeleteCourse handles DELETE /course/{id}
// @Summary Delete course
// @Description Deletes the course with its modules, lessons, steps, contents and memberships
// @Tags courses
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 204 "No content"
// @Failure 403 {object} handlers.ErrorResponse "Not the owner"
// @Failure 404 {object} handlers.ErrorResponse "Course not found"
// @Router /course/{id} [delete]
func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	actorID, err := requireActor(r)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	id, err := h.IntParam(r, "id")
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	if err := h.courseService.DeleteCourse(r.Context(), actorID, id); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CheckAccess handles GET /course/{id}/access
// @Summary Check course access
// @Description Whether the caller owns or is enrolled in the course
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} models.AccessResponse
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.ErrorResponse "Course not found"
// @Router /course/{id}/access [get]
func (h *CourseHandler) CheckAccess(w http.ResponseWriter, r *http.Request) {
	actorID, err := requireActor(r)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	id, err := h.IntParam(r, "id")
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	access, err := h.courseService.CheckAccess(r.Context(), actorID, id)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, access)
}
