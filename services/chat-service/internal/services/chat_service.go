package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/libs/pagination"
	"github.com/genzone/backend/services/chat-service/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	messagesPostedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_posted_total",
			Help: "Total number of chat messages stored",
		},
	)

	eventPublishFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_event_publish_failures_total",
			Help: "Total number of chat events that could not be published",
		},
	)
)

// ConversationRepository is the interface that wraps methods for conversations table data access
type ConversationRepository interface {
	// GetByID retrieves a conversation by ID, or NotFound
	GetByID(ctx context.Context, id int) (*models.Conversation, error)
	// FindByPair retrieves the conversation of a canonical pair, or NotFound
	FindByPair(ctx context.Context, lowID, highID int) (*models.Conversation, error)
	// Upsert stores a conversation unless its pair exists, sets its ID and reports whether it was created
	Upsert(ctx context.Context, conversation *models.Conversation) (bool, error)
	// ListForUser retrieves a page of a user's conversations, most recently active first, with the total count
	ListForUser(ctx context.Context, userID, offset, limit int) ([]models.Conversation, int, error)
}

// MessageRepository is the interface that wraps methods for messages table data access
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	// ListByConversation retrieves a page of messages, newest first, with the total count
	ListByConversation(ctx context.Context, conversationID, offset, limit int) ([]models.Message, int, error)
	LatestByConversations(ctx context.Context, conversationIDs []int) (map[int]models.Message, error)
}

// UserRepository is the interface that wraps the participant profile reads
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.UserSummary, error)
	GetByIDs(ctx context.Context, ids []int) (map[int]models.UserSummary, error)
}

// EventPublisher is the interface that wraps event delivery to a user's channel
type EventPublisher interface {
	Publish(ctx context.Context, userID int, event models.Event) error
}

type chatService struct {
	conversationRepo ConversationRepository
	messageRepo      MessageRepository
	userRepo         UserRepository
	publisher        EventPublisher
	logger           *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	conversationRepo ConversationRepository,
	messageRepo MessageRepository,
	userRepo UserRepository,
	publisher EventPublisher,
	logger *zap.Logger,
) *chatService {
	return &chatService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		publisher:        publisher,
		logger:           logger,
	}
}

// StartOrGet returns the conversation between the actor and the user with the given email,
// creating it on first contact. The boolean reports whether it was created by this call.
func (s *chatService) StartOrGet(ctx context.Context, actorID int, email string) (*models.ConversationSummary, bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, false, apperrors.Validation("email", "email is required")
	}

	participant, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if participant.ID == actorID {
		return nil, false, apperrors.Validation("email", "cannot start a conversation with yourself")
	}

	conversation, created, err := s.findOrCreate(ctx, actorID, participant.ID)
	if err != nil {
		return nil, false, err
	}

	summaries, err := s.summarize(ctx, []models.Conversation{*conversation})
	if err != nil {
		return nil, false, err
	}
	return &summaries[0], created, nil
}

func (s *chatService) findOrCreate(ctx context.Context, actorID, participantID int) (*models.Conversation, bool, error) {
	low, high := models.CanonicalPair(actorID, participantID)

	existing, err := s.conversationRepo.FindByPair(ctx, low, high)
	if err == nil {
		return existing, false, nil
	}
	if !apperrors.Is(err, apperrors.KindNotFound) {
		return nil, false, err
	}

	conversation := models.NewConversation(actorID, participantID)
	created, err := s.conversationRepo.Upsert(ctx, conversation)
	if err != nil {
		return nil, false, err
	}
	if created {
		return conversation, true, nil
	}

	// another request created the pair first, its row names the real initiator
	winner, err := s.conversationRepo.GetByID(ctx, conversation.ID)
	if err != nil {
		return nil, false, err
	}
	return winner, false, nil
}

// ListFor retrieves a page of the actor's conversations with their latest message
func (s *chatService) ListFor(ctx context.Context, actorID int, params pagination.Params) (*pagination.Page[models.ConversationSummary], error) {
	conversations, total, err := s.conversationRepo.ListForUser(ctx, actorID, params.Offset(), params.PageSize)
	if err != nil {
		return nil, err
	}

	summaries, err := s.summarize(ctx, conversations)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(summaries, total, params)
}

// Get retrieves a conversation with one page of its messages, newest first. Only participants may read it.
func (s *chatService) Get(ctx context.Context, actorID, conversationID int, params pagination.Params) (*models.ConversationDetail, error) {
	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(actorID) {
		return nil, apperrors.Forbidden("only participants can read this conversation")
	}

	messages, total, err := s.messageRepo.ListByConversation(ctx, conversationID, params.Offset(), params.PageSize)
	if err != nil {
		return nil, err
	}
	page, err := pagination.NewPage(messages, total, params)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.GetByIDs(ctx, []int{conversation.InitiatorID, conversation.ReceiverID})
	if err != nil {
		return nil, err
	}

	return &models.ConversationDetail{
		ID:        conversation.ID,
		Initiator: profile(users, conversation.InitiatorID),
		Receiver:  profile(users, conversation.ReceiverID),
		Messages:  page,
	}, nil
}

// PostMessage appends a message and notifies both participants.
// Notification failures are logged and counted but do not fail the post.
func (s *chatService) PostMessage(ctx context.Context, actorID, conversationID int, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.Validation("text", "text is required")
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return nil, apperrors.Validation("text", fmt.Sprintf("text must be at most %d characters", models.MaxMessageLength))
	}

	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(actorID) {
		return nil, apperrors.Forbidden("only participants can post to this conversation")
	}

	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       actorID,
		Text:           text,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}
	messagesPostedTotal.Inc()

	// the message is stored, a client hanging up must not stop the notification
	publishCtx := context.WithoutCancel(ctx)
	event := models.Event{Type: models.EventMessageCreated, Message: message}
	for _, userID := range []int{conversation.UserLowID, conversation.UserHighID} {
		if err := s.publisher.Publish(publishCtx, userID, event); err != nil {
			eventPublishFailuresTotal.Inc()
			s.logger.Warn("Failed to publish chat event",
				zap.Int("user_id", userID),
				zap.Int("message_id", message.ID),
				zap.Error(err),
			)
		}
	}

	return message, nil
}

// summarize attaches participant profiles and the latest message to each conversation
func (s *chatService) summarize(ctx context.Context, conversations []models.Conversation) ([]models.ConversationSummary, error) {
	ids := make([]int, 0, len(conversations))
	userIDs := make([]int, 0, 2*len(conversations))
	for _, c := range conversations {
		ids = append(ids, c.ID)
		userIDs = append(userIDs, c.InitiatorID, c.ReceiverID)
	}

	users, err := s.userRepo.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	latest, err := s.messageRepo.LatestByConversations(ctx, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ConversationSummary, 0, len(conversations))
	for _, c := range conversations {
		summary := models.ConversationSummary{
			ID:        c.ID,
			Initiator: profile(users, c.InitiatorID),
			Receiver:  profile(users, c.ReceiverID),
			CreatedAt: c.CreatedAt,
		}
		if message, ok := latest[c.ID]; ok {
			summary.LastMessage = &message
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// profile returns the user's profile, or a bare id when the account no longer exists
func profile(users map[int]models.UserSummary, id int) models.UserSummary {
	if user, ok := users[id]; ok {
		return user
	}
	return models.UserSummary{ID: id}
}
