package handlers

import (
	"context"
	"net/http"

	"github.com/genzone/backend/libs/handlers"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MaintenanceService is the interface that wraps periodic cleanup jobs
type MaintenanceService interface {
	// CleanExpiredTokens deletes refresh tokens past their lifetime and returns how many were removed
	CleanExpiredTokens(ctx context.Context) (int, error)
	// PurgeUnverifiedUsers deletes accounts whose verification link expired unused and returns how many were removed
	PurgeUnverifiedUsers(ctx context.Context) (int, error)
}

// MaintenanceHandler handles maintenance requests issued by the scheduler
type MaintenanceHandler struct {
	handlers.BaseHandler
	maintenanceService MaintenanceService
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(maintenanceService MaintenanceService, logger *zap.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		BaseHandler:        handlers.BaseHandler{Logger: logger},
		maintenanceService: maintenanceService,
	}
}

// RegisterRoutes registers maintenance handler routes
// Note: the router is expected to be guarded by the API key middleware
func (h *MaintenanceHandler) RegisterRoutes(r chi.Router) {
	r.Delete("/tokens", h.CleanTokens)
	r.Delete("/unverified", h.PurgeUnverified)
}

// DeletedResponse reports how many rows a cleanup removed
type DeletedResponse struct {
	Deleted int `json:"deleted"`
}

// CleanTokens handles DELETE /maintenance/tokens
// @Summary Clean expired tokens
// @Description Removes all refresh tokens older than the refresh token lifetime
// @Tags maintenance
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} DeletedResponse
// @Failure 401 {object} handlers.ErrorResponse "Invalid API key"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /maintenance/tokens [delete]
func (h *MaintenanceHandler) CleanTokens(w http.ResponseWriter, r *http.Request) {
	count, err := h.maintenanceService.CleanExpiredTokens(r.Context())
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, DeletedResponse{Deleted: count})
}

// PurgeUnverified handles DELETE /maintenance/unverified
// @Summary Purge unverified users
// @Description Removes inactive accounts older than the verification link lifetime
// @Tags maintenance
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} DeletedResponse
// @Failure 401 {object} handlers.ErrorResponse "Invalid API key"
// @Failure 500 {object} handlers.ErrorResponse "Internal server error"
// @Router /maintenance/unverified [delete]
func (h *MaintenanceHandler) PurgeUnverified(w http.ResponseWriter, r *http.Request) {
	count, err := h.maintenanceService.PurgeUnverifiedUsers(r.Context())
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, DeletedResponse{Deleted: count})
}
