package handlers

import (
	"context"
	"net/http"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/libs/auth/middleware"
	"github.com/genzone/backend/libs/handlers"
	"github.com/genzone/backend/libs/pagination"
	"github.com/genzone/backend/services/chat-service/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ChatService is the interface that wraps methods for conversation business logic
type ChatService interface {
	// StartOrGet returns the conversation with the user owning "email" and reports whether it was just created
	StartOrGet(ctx context.Context, actorID int, email string) (*models.ConversationSummary, bool, error)
	// ListFor retrieves a page of the actor's conversations, most recently active first
	ListFor(ctx context.Context, actorID int, params pagination.Params) (*pagination.Page[models.ConversationSummary], error)
	// Get retrieves a conversation with a page of its messages, newest first.
	// Anyone but the two participants gets a Forbidden error.
	Get(ctx context.Context, actorID, conversationID int, params pagination.Params) (*models.ConversationDetail, error)
	// PostMessage appends a message to a conversation the actor takes part in
	PostMessage(ctx context.Context, actorID, conversationID int, text string) (*models.Message, error)
}

// ChatHandler handles conversation HTTP requests
type ChatHandler struct {
	handlers.BaseHandler
	chatService ChatService
	limits      pagination.Limits
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService ChatService, logger *zap.Logger, limits pagination.Limits) *ChatHandler {
	return &ChatHandler{
		BaseHandler: handlers.BaseHandler{Logger: logger},
		chatService: chatService,
		limits:      limits,
	}
}

// RegisterRoutes registers chat handler routes. All of them require auth.
func (h *ChatHandler) RegisterRoutes(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Route("/conversations", func(r chi.Router) {
		r.Use(auth)
		r.Post("/start", h.StartConversation)
		r.Get("/", h.ListConversations)
		r.Get("/{id}", h.GetConversation)
		r.Post("/{id}/messages", h.PostMessage)
	})
}

func requireActor(r *http.Request) (int, error) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		return 0, apperrors.Unauthenticated("authentication required")
	}
	return userID, nil
}

// StartConversation handles POST /conversations/start
// @Summary Start conversation
// @Description Returns the conversation with the user owning the email, creating it on first contact
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.StartConversationRequest true "Participant email"
// @Success 200 {object} models.ConversationSummary "Existing conversation"
// @Success 201 {object} models.ConversationSummary "New conversation"
// @Failure 400 {object} handlers.ErrorResponse "Validation error"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Router /conversations/start [post]
func (h *ChatHandler) StartConversation(w http.ResponseWriter, r *http.Request) {
	actorID, err := requireActor(r)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	var req models.StartConversationRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	conversation, created, err := h.chatService.StartOrGet(r.Context(), actorID, req.Email)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.RespondJSON(w, status, conversation)
}

// ListConversations handles GET /conversations
// @Summary List conversations
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(10)
// @Success 200 {object} pagination.Page[models.ConversationSummary]
// @Failure 404 {object} handlers.ErrorResponse "Invalid page"
// @Router /conversations [get]
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
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

	page, err := h.chatService.ListFor(r.Context(), actorID, params)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, page)
}

// GetConversation handles GET /conversations/{id}
// @Summary Get conversation
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(10)
// @Success 200 {object} models.ConversationDetail
// @Failure 403 {object} handlers.ErrorResponse "Not a participant"
// @Failure 404 {object} handlers.ErrorResponse "Conversation not found"
// @Router /conversations/{id} [get]
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
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

	params, err := pagination.FromRequest(r, h.limits)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	conversation, err := h.chatService.Get(r.Context(), actorID, id, params)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, conversation)
}

// PostMessage handles POST /conversations/{id}/messages
// @Summary Post message
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Param request body models.PostMessageRequest true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} handlers.ErrorResponse "Validation error"
// @Failure 403 {object} handlers.ErrorResponse "Not a participant"
// @Failure 404 {object} handlers.ErrorResponse "Conversation not found"
// @Router /conversations/{id}/messages [post]
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
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

	var req models.PostMessageRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	message, err := h.chatService.PostMessage(r.Context(), actorID, id, req.Text)
	if err != nil {
		h.RespondAppError(w, r, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, message)
}
