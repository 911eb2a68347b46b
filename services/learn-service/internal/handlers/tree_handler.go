package handlers

import (
	"context"
	"net/http"

	"github.com/genzone/backend/libs/handlers"
	"github.com/genzone/backend/libs/pagination"
	"github.com/genzone/backend/services/learn-service/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TreeService is the interface that wraps methods for the module, lesson, step and content business logic.
//
// Every write resolves the node from its path first, so a missing node is a NotFound error and
// a write by anyone but the course owner is a Forbidden error. Creating a child is a write on its parent.
type TreeService interface {
	CreateModule(ctx context.Context, actorID, courseID int, req *models.ModuleRequest) (*models.Module, error)
	// GetModule retrieves a module with its lesson outline
	GetModule(ctx context.Context, path models.Path) (*models.Module, error)
	UpdateModule(ctx context.Context, actorID int, path models.Path, req *models.ModuleRequest) (*models.Module, error)
	// DeleteModule removes a module with everything below it and renumbers the following modules
	DeleteModule(ctx context.Context, actorID int, path models.Path) error

	CreateLesson(ctx context.Context, actorID int, path models.Path, req *models.LessonRequest) (*models.Lesson, error)
	// GetLesson retrieves a lesson with one page of its steps
	GetLesson(ctx context.Context, path models.Path, params pagination.Params) (*models.LessonDetailResponse, error)
	UpdateLesson(ctx context.Context, actorID int, path models.Path, req *models.LessonRequest) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, actorID int, path models.Path) error

	// CreateStep appends an empty step to a lesson
	CreateStep(ctx context.Context, actorID int, path models.Path) (*models.Step, error)
	GetStep(ctx context.Context, path models.Path) (*models.Step, error)
	// ReplaceContents makes the contents of a step equal to the request
	ReplaceContents(ctx context.Context, actorID int, path models.Path, req *models.ReplaceContentsRequest) (*models.Step, error)
	DeleteStep(ctx context.Context, actorID int, path models.Path) error

	CreateContent(ctx context.Context, actorID int, path models.Path, input *models.ContentInput) (*models.Content, error)
	GetContent(ctx context.Context, path models.Path) (*models.Content, error)
	UpdateContent(ctx context.Context, actorID int, path models.Path, req *models.UpdateContentRequest) (*models.Content, error)
	DeleteContent(ctx context.Context, actorID int, path models.Path) error
}

const (
	modulePattern  = "/course/{id}/module/{m}"
	lessonPattern  = modulePattern + "/lesson/{l}"
	stepPattern    = lessonPattern + "/step/{s}"
	contentPattern = stepPattern + "/content/{c}"
)

// TreeHandler handles module, lesson, step and content HTTP requests
type TreeHandler struct {
	handlers.BaseHandler
	treeService TreeService
	stepLimits  pagination.Limits
}

// NewTreeHandler creates a new content tree handler. stepLimits bound the steps page of a lesson.
func NewTreeHandler(treeService TreeService, logger *zap.Logger, stepLimits pagination.Limits) *TreeHandler {
	return &TreeHandler{
		BaseHandler: handlers.BaseHandler{Logger: logger},
		treeService: treeService,
		stepLimits:  stepLimits,
	}
}

// RegisterRoutes registers content tree routes. Reads are open, writes require auth.
func (h *TreeHandler) RegisterRoutes(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Get(modulePattern, h.GetModule)
	r.Get(lessonPattern, h.GetLesson)
	r.Get(stepPattern, h.GetStep)
	r.Get(contentPattern, h.GetContent)

	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Post("/course/{id}/module", h.CreateModule)
		r.Patch(modulePattern, h.UpdateModule)
		r.Delete(modulePattern, h.DeleteModule)

		r.Post(modulePattern+"/lesson", h.CreateLesson)
		r.Patch(lessonPattern, h.UpdateLesson)
		r.Delete(lessonPattern, h.DeleteLesson)

		r.Post(lessonPattern+"/step", h.CreateStep)
		r.Put(stepPattern, h.ReplaceContents)
		r.Delete(stepPattern, h.DeleteStep)

		r.Post(stepPattern+"/content", h.CreateContent)
		r.Patch(contentPattern, h.UpdateContent)
		r.Delete(contentPattern, h.DeleteContent)
	})
}

// pathParams are the URL parameters that address each level of the tree, outermost first
var pathParams = []string{"id", "m", "l", "s", "c"}

// parsePath reads the first depth levels of the node path from the URL
func (h *TreeHandler) parsePath(r *http.Request, depth int) (models.Path, error) {
	values := make([]int, len(pathParams))
	for i, name := range pathParams[:depth] {
		value, err := h.IntParam(r, name)
		if err != nil {
			return models.Path{}, err
		}
		values[i] = value
	}
	return models.Path{
		CourseID:   values[0],
		ModuleNum:  values[1],
		LessonNum:  values[2],
		StepNum:    values[3],
		ContentNum: values[4],
	}, nil
}

// writeRequest resolves the actor and the node path of a write
func (h *TreeHandler) writeRequest(r *http.Request, depth int) (int, models.Path, error) {
	actorID, err := requireActor(r)
	if err != nil {
		return 0, models.Path{}, err
	}
	path, err := h.parsePath(r, depth)
	return actorID, path, err
}

// CreateModule handles POST /course/{id}/module
// @Summary Create module
// @Description Appends a module to the course
// @Tags modules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body models.ModuleRequest true "Module"
// @Success 201 {object} models.Module
// @Failure 400 {object} handlers.ErrorResponse "Validation error"
// @Failure 403 {object} handlers.ErrorResponse "Not the owner"
// @Failure 404 {object} handlers.ErrorResponse "Course not found"
// @Router /course/{id}/module [post]
func (h *TreeHandler) CreateModule(w http.ResponseWriter, r *http.Request) {
	actorID, path, err := h.writeRequest(r, 1)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	var req models.ModuleRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	module, err := h.treeService.CreateModule(r.Context(), actorID, path.CourseID, &req)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, module)
}

// GetModule handles GET /course/{id}/module/{m}
// @Summary Get module
// @Tags modules
// @Produce json
// @Param id path int true "Course ID"
// @Param m path int true "Module number"
// @Success 200 {object} models.Module
// @Failure 404 {object} handlers.ErrorResponse "Module not found"
// @Router /course/{id}/module/{m} [get]
func (h *TreeHandler) GetModule(w http.ResponseWriter, r *http.Request) {
	path, err := h.parsePath(r, 2)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	module, err := h.treeService.GetModule(r.Context(), path)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, module)
}

// UpdateModule handles PATCH /course/{id}/module/{m}
// @Summary Update module
// @Tags modules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param m path int true "Module number"
// @Param request body models.ModuleRequest true "Fields to update"
// @Success 200 {object} models.Module
// @Failure 400 {object} handlers.ErrorResponse "Validation error"
// @Failure 403 {object} handlers.ErrorResponse "Not the owner"
// @Failure 404 {object} handlers.ErrorResponse "Module not found"
// @Router /course/{id}/module/{m} [patch]
func (h *TreeHandler) UpdateModule(w http.ResponseWriter, r *http.Request) {
	actorID, path, err := h.writeRequest(r, 2)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	var req models.ModuleRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	module, err := h.treeService.UpdateModule(r.Context(), actorID, path, &req)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, module)
}

// DeleteModule handles DELETE /course/{id}/module/{m}
// @Summary Delete module
// @Description Deletes the module with its lessons, steps and contents. Later modules move up by one.
// @Tags modules
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param m path int true "Module number"
// @Success 204 "No content"
// @Failure 403 {object} handlers.ErrorResponse "Not the owner"
// @Failure 404 {object} handlers.ErrorResponse "Module not found"
// @Router /course/{id}/module/{m} [delete]
func (h *TreeHandler) DeleteModule(w http.ResponseWriter, r *http.Request) {
	actorID, path, err := h.writeRequest(r, 2)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	if err := h.treeService.DeleteModule(r.Context(), actorID, path); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateLesson handles POST /course/{id}/module/{m}/lesson
// @Summary Create lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param m path int true "Module number"
// @Param request body models.LessonRequest true "Lesson"
// @Success 201 {object} models.Lesson
// @Failure 400 {object} handlers.ErrorResponse "Validation error"
// @Failure 403 {object} handlers.ErrorResponse "Not the owner"
// @Failure 404 {object} handlers.ErrorResponse "Module not found"
// @Router /course/{id}/module/{m}/lesson [post]
func (h *TreeHandler) CreateLesson(w http.ResponseWriter, r *http.Request) {
	actorID, path, err := h.writeRequest(r, 2)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	var req models.LessonRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	lesson, err := h.treeService.CreateLesson(r.Context(), actorID, path, &req)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, lesson)
}

// GetLesson handles GET /course/{id}/module/{m}/lesson/{l}
// @Summary Get lesson
// @Description Lesson with a page of its steps. Each step carries its contents.
// @Tags lessons
// @Produce json
// @Param id path int true "Course ID"
// @Param m path int true "Module number"
// @Param l path int true "Lesson number"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Steps per page" default(1)
// @Success 200 {object} models.LessonDetailResponse
// @Failure 404 {object} handlers.ErrorResponse "Lesson not found"
// @Router /course/{id}/module/{m}/lesson/{l} [get]
func (h *TreeHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	path, err := h.parsePath(r, 3)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	params, err := pagination.FromRequest(r, h.stepLimits)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	lesson, err := h.treeService.GetLesson(r.Context(), path, params)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, lesson)
}

// UpdateLesson handles PATCH /course/{id}/module/{m}/lesson/{l}
// @Summary Update lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param m path int true "Module number"
// @Param l path int true "Lesson number"
// @Param request body models.LessonRequest true "Fields to update"
// @Success 200 {object} models.Lesson
// @Failure 403 {object} handlers.ErrorResponse "Not the owner"
// @Failure 404 {object} handlers.ErrorResponse "Lesson not found"
// @Router /course/{id}/module/{m}/lesson/{l} [patch]
func (h *TreeHandler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	actorID, path, err := h.writeRequest(r, 3)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	var req models.LessonRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	lesson, err := h.treeService.UpdateLesson(r.Context(), actorID, path, &req)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, lesson)
}

// DeleteLesson handles DELETE /course/{id}/module/{m}/lesson/{l}
// @Summary Delete lesson
// @Tags lessons
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param m path int true "Module number"
// @Param l path int true "Lesson number"
// @Success 204 "No content"
// @Failure 403 {object} handlers.ErrorResponse "Not the owner"
// @Failure 404 {object} handlers.ErrorResponse "Lesson not found"
// @Router /course/{id}/module/{m}/lesson/{l} [delete]
func (h *TreeHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	actorID, path, err := h.writeRequest(r, 3)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	if err := h.treeService.DeleteLesson(r.Context(), actorID, path); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateStep handles POST /course/{id}/module/{m}/lesson/{l}/step
// @Summary Create step
// @Description Appends an empty step to the lesson
// @Tags steps
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param m path int true "Module number"
// @Param l path int true "Lesson number"
// @Success 201 {object} models.Step
// @Failure 403 {object} handlers.ErrorResponse "Not the owner"
// @Failure 404 {object} handlers.ErrorResponse "Lesson not found"
// @Router /course/{id}/module/{m}/lesson/{l}/step [post]
func (h *TreeHandler) CreateStep(w http.ResponseWriter, r *http.Request) {
	actorID, path, err := h.writeRequest(r, 3)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	step, err := h.treeService.CreateStep(r.Context(), actorID, path)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, step)
}

// GetStep handles GET /course/{id}/module/{m}/lesson/{l}/step/{s}
// @Summary Get step
// @Tags steps
// @Produce json
// @Param id path int true "Course ID"
// @Param m path int true "Module number"
// @Param l path int true "Lesson number"
// @Param s path int true "Step number"
// @Success 200 {object} models.Step
// @Failure 404 {object} handlers.ErrorResponse "Step not found"
// @Router /course/{id}/module/{m}/lesson/{l}/step/{s} [get]
func (h *TreeHandler) GetStep(w http.ResponseWriter, r *http.Request) {
	path, err := h.parsePath(r, 4)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	step, err := h.treeService.GetStep(r.Context(), path)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, step)
}

// ReplaceContents handles PUT /course/{id}/module/{m}/lesson/{l}/step/{s}
// @Summary Replace step contents
// @Description Contents whose number is missing from the body are deleted, the others are updated or created
// @Tags steps
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param m path int true "Module number"
// @Param l path int true "Lesson number"
// @Param s path int true "Step number"
// @Param request body models.ReplaceContentsRequest true "Target contents"
// @Success 200 {object} models.Step
// @Failure 400 {object} handlers.ErrorResponse "Validation error"
// @Failure 403 {object} handlers.ErrorResponse "Not the owner"
// @Failure 404 {object} handlers.ErrorResponse "Step not found"
// @Router /course/{id}/module/{m}/lesson/{l}/step/{s} [put]
func (h *TreeHandler) ReplaceContents(w http.ResponseWriter, r *http.Request) {
	actorID, path, err := h.writeRequest(r, 4)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	var req models.ReplaceContentsRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	step, err := h.treeService.ReplaceContents(r.Context(), actorID, path, &req)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, step)
}

// DeleteStep handles DELETE /course/{id}/module/{m}/lesson/{l}/step/{s}
// @Summary Delete step
// @Tags steps
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param m path int true "Module number"
// @Param l path int true "Lesson number"
// @Param s path int true "Step number"
// @Success 204 "No content"
// @Failure 403 {object} handlers.ErrorResponse "Not the owner"
// @Failure 404 {object} handlers.ErrorResponse "Step not found"
// @Router /course/{id}/module/{m}/lesson/{l}/step/{s} [delete]
func (h *TreeHandler) DeleteStep(w http.ResponseWriter, r *http.Request) {
	actorID, path, err := h.writeRequest(r, 4)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	if err := h.treeService.DeleteStep(r.Context(), actorID, path); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateContent handles POST /course/{id}/module/{m}/lesson/{l}/step/{s}/content
// @Summary Create content
// @Tags contents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param m path int true "Module number"
// @Param l path int true "Lesson number"
// @Param s path int true "Step number"
// @Param request body models.ContentInput true "Content"
// @Success 201 {object} models.Content
// @Failure 400 {object} handlers.ErrorResponse "Validation error"
// @Failure 403 {object} handlers.ErrorResponse "Not the owner"
// @Failure 404 {object} handlers.ErrorResponse "Step not found"
// @Router /course/{id}/module/{m}/lesson/{l}/step/{s}/content [post]
func (h *TreeHandler) CreateContent(w http.ResponseWriter, r *http.Request) {
	actorID, path, err := h.writeRequest(r, 4)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	var input models.ContentInput
	if err := h.DecodeJSON(r, &input); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	content, err := h.treeService.CreateContent(r.Context(), actorID, path, &input)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, content)
}

// GetContent handles GET /course/{id}/module/{m}/lesson/{l}/step/{s}/content/{c}
// @Summary Get content
// @Tags contents
// @Produce json
// @Param id path int true "Course ID"
// @Param m path int true "Module number"
// @Param l path int true "Lesson number"
// @Param s path int true "Step number"
// @Param c path int true "Content number"
// @Success 200 {object} models.Content
// @Failure 404 {object} handlers.ErrorResponse "Content not found"
// @Router /course/{id}/module/{m}/lesson/{l}/step/{s}/content/{c} [get]
func (h *TreeHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	path, err := h.parsePath(r, 5)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	content, err := h.treeService.GetContent(r.Context(), path)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, content)
}

// UpdateContent handles PATCH /course/{id}/module/{m}/lesson/{l}/step/{s}/content/{c}
// @Summary Update content
// @Tags contents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param m path int true "Module number"
// @Param l path int true "Lesson number"
// @Param s path int true "Step number"
// @Param c path int true "Content number"
// @Param request body models.UpdateContentRequest true "Fields to update"
// @Success 200 {object} models.Content
// @Failure 400 {object} handlers.ErrorResponse "Validation error"
// @Failure 403 {object} handlers.ErrorResponse "Not the owner"
// @Failure 404 {object} handlers.ErrorResponse "Content not found"
// @Router /course/{id}/module/{m}/lesson/{l}/step/{s}/content/{c} [patch]
func (h *TreeHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	actorID, path, err := h.writeRequest(r, 5)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	var req models.UpdateContentRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	content, err := h.treeService.UpdateContent(r.Context(), actorID, path, &req)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, content)
}

// DeleteContent handles DELETE /course/{id}/module/{m}/lesson/{l}/step/{s}/content/{c}
// @Summary Delete content
// @Tags contents
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param m path int true "Module number"
// @Param l path int true "Lesson number"
// @Param s path int true "Step number"
// @Param c path int true "Content number"
// @Success 204 "No content"
// @Failure 403 {object} handlers.ErrorResponse "Not the owner"
// @Failure 404 {object} handlers.ErrorResponse "Content not found"
// @Router /course/{id}/module/{m}/lesson/{l}/step/{s}/content/{c} [delete]
func (h *TreeHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	actorID, path, err := h.writeRequest(r, 5)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	if err := h.treeService.DeleteContent(r.Context(), actorID, path); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
