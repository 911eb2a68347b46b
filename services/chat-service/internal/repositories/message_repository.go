package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/genzone/backend/services/chat-service/internal/models"
)

const messageColumns = "m.id, m.conversation_id, m.sender_id, m.text, m.created_at"

type messageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *sql.DB) *messageRepository {
	return &messageRepository{
		db: db,
	}
}

// Create appends a message to its conversation and fills in ID and CreatedAt
func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	// microsecond precision matches DATETIME(6)
	createdAt := time.Now().UTC().Truncate(time.Microsecond)

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO messages (conversation_id, sender_id, text, created_at) VALUES (?, ?, ?, ?)",
		message.ConversationID,
		message.SenderID,
		message.Text,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	message.ID = int(id)
	message.CreatedAt = createdAt
	return nil
}

// ListByConversation retrieves a page of a conversation's messages, newest first, and the total count
func (r *messageRepository) ListByConversation(ctx context.Context, conversationID, offset, limit int) ([]models.Message, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages WHERE conversation_id = ?", conversationID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM messages m
		WHERE m.conversation_id = ?
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ? OFFSET ?
	`, messageColumns)

	messages, err := r.queryMessages(ctx, query, conversationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// LatestByConversations retrieves the newest message of each conversation that has one
func (r *messageRepository) LatestByConversations(ctx context.Context, conversationIDs []int) (map[int]models.Message, error) {
	latest := make(map[int]models.Message, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return latest, nil
	}

	placeholders := make([]string, len(conversationIDs))
	args := make([]any, len(conversationIDs))
	for i, id := range conversationIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	// ids grow with insertion, so the highest id is the newest message
	query := fmt.Sprintf(`
		SELECT %s
		FROM messages m
		JOIN (
			SELECT MAX(id) AS id
			FROM messages
			WHERE conversation_id IN (%s)
			GROUP BY conversation_id
		) newest ON newest.id = m.id
	`, messageColumns, strings.Join(placeholders, ", "))

	messages, err := r.queryMessages(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	for _, message := range messages {
		latest[message.ConversationID] = message
	}
	return latest, nil
}

func (r *messageRepository) queryMessages(ctx context.Context, query string, args ...any) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var message models.Message
		if err := rows.Scan(&message.ID, &message.ConversationID, &message.SenderID, &message.Text, &message.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return messages, nil
}
