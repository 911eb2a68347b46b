package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/libs/middlewares"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, ErrorResponse{Error: message, Code: codeForStatus(status)})
}

// RespondAppError translates an application error into a response.
// Internal errors are logged with their cause and answered with a generic message.
func (h *BaseHandler) RespondAppError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperrors.KindOf(err)
	status := StatusForKind(kind)

	if kind == apperrors.KindInternal {
		h.Logger.Error("request failed",
			zap.String("request_id", middlewares.GetRequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		h.RespondJSON(w, status, ErrorResponse{Error: "internal server error", Code: string(kind)})
		return
	}

	h.RespondJSON(w, status, ErrorResponse{
		Error: apperrors.MessageOf(err),
		Code:  string(kind),
		Field: apperrors.FieldOf(err),
	})
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields
func (h *BaseHandler) DecodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Validation("body", "request body is empty")
		}
		return apperrors.Validation("body", fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

// IntParam parses a positive integer URL parameter
func (h *BaseHandler) IntParam(r *http.Request, name string) (int, error) {
	value, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || value < 1 {
		return 0, apperrors.Validation(name, fmt.Sprintf("invalid %s", name))
	}
	return value, nil
}

// StatusForKind maps an error kind to its HTTP status
func StatusForKind(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindForbidden:
		return http.StatusForbidden
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return string(apperrors.KindNotFound)
	case http.StatusForbidden:
		return string(apperrors.KindForbidden)
	case http.StatusBadRequest:
		return string(apperrors.KindValidation)
	case http.StatusConflict:
		return string(apperrors.KindConflict)
	case http.StatusUnauthorized:
		return string(apperrors.KindUnauthenticated)
	default:
		return string(apperrors.KindInternal)
	}
}
