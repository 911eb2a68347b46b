package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/libs/auth/middleware"
	"github.com/genzone/backend/libs/pagination"
	"github.com/genzone/backend/services/chat-service/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockChatService is a mock implementation of ChatService
type mockChatService struct {
	summary        *models.ConversationSummary
	created        bool
	err            error
	actorID        int
	email          string
	conversationID int
	text           string
	params         pagination.Params
}

func (m *mockChatService) StartOrGet(ctx context.Context, actorID int, email string) (*models.ConversationSummary, bool, error) {
	m.actorID = actorID
	m.email = email
	return m.summary, m.created, m.err
}

func (m *mockChatService) ListFor(ctx context.Context, actorID int, params pagination.Params) (*pagination.Page[models.ConversationSummary], error) {
	m.actorID = actorID
	m.params = params
	if m.err != nil {
		return nil, m.err
	}
	return &pagination.Page[models.ConversationSummary]{Page: params.Page, PageSize: params.PageSize, Results: []models.ConversationSummary{}}, nil
}

func (m *mockChatService) Get(ctx context.Context, actorID, conversationID int, params pagination.Params) (*models.ConversationDetail, error) {
	m.actorID = actorID
	m.conversationID = conversationID
	m.params = params
	if m.err != nil {
		return nil, m.err
	}
	return &models.ConversationDetail{ID: conversationID}, nil
}

func (m *mockChatService) PostMessage(ctx context.Context, actorID, conversationID int, text string) (*models.Message, error) {
	m.actorID = actorID
	m.conversationID = conversationID
	m.text = text
	if m.err != nil {
		return nil, m.err
	}
	return &models.Message{ID: 1, ConversationID: conversationID, SenderID: actorID, Text: text}, nil
}

// withUser authenticates every request as the given user
func withUser(userID int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), userID, middleware.RoleStudent)))
		})
	}
}

func newChatRouter(svc ChatService) chi.Router {
	r := chi.NewRouter()
	NewChatHandler(svc, zap.NewNop(), pagination.Limits{Default: 10, Max: 100}).RegisterRoutes(r, withUser(3))
	return r
}

func TestChatHandler_StartConversation(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		svc            *mockChatService
		expectedStatus int
	}{
		{
			name:           "created",
			body:           `{"email":"alan@example.com"}`,
			svc:            &mockChatService{summary: &models.ConversationSummary{ID: 1}, created: true},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "existing",
			body:           `{"email":"alan@example.com"}`,
			svc:            &mockChatService{summary: &models.ConversationSummary{ID: 1}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "with yourself",
			body:           `{"email":"ada@example.com"}`,
			svc:            &mockChatService{err: apperrors.Validation("email", "cannot start a conversation with yourself")},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown user",
			body:           `{"email":"nobody@example.com"}`,
			svc:            &mockChatService{err: apperrors.NotFound("user not found")},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "empty body",
			body:           ``,
			svc:            &mockChatService{},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/conversations/start", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			newChatRouter(tt.svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestChatHandler_ListConversations(t *testing.T) {
	svc := &mockChatService{}
	rec := httptest.NewRecorder()

	newChatRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations?page=2&page_size=500", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, svc.actorID)
	assert.Equal(t, pagination.Params{Page: 2, PageSize: 100}, svc.params)
}

func TestChatHandler_GetConversation(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		err            error
		expectedStatus int
	}{
		{name: "participant", target: "/conversations/5?page_size=2", expectedStatus: http.StatusOK},
		{name: "outsider", target: "/conversations/5", err: apperrors.Forbidden("only participants can read this conversation"), expectedStatus: http.StatusForbidden},
		{name: "missing", target: "/conversations/99", err: apperrors.NotFound("conversation not found"), expectedStatus: http.StatusNotFound},
		{name: "invalid id", target: "/conversations/abc", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockChatService{err: tt.err}
			rec := httptest.NewRecorder()

			newChatRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestChatHandler_PostMessage(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := &mockChatService{}
		rec := httptest.NewRecorder()

		newChatRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/conversations/5/messages", strings.NewReader(`{"text":"hello"}`)))

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 5, svc.conversationID)
		assert.Equal(t, "hello", svc.text)
		assert.Contains(t, rec.Body.String(), `"senderId":3`)
	})

	t.Run("blank text", func(t *testing.T) {
		svc := &mockChatService{err: apperrors.Validation("text", "text is required")}
		rec := httptest.NewRecorder()

		newChatRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/conversations/5/messages", strings.NewReader(`{"text":"  "}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
