package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/services/chat-service/internal/models"
)

const conversationColumns = "c.id, c.initiator_id, c.receiver_id, c.user_low_id, c.user_high_id, c.created_at"

type conversationRepository struct {
	db *sql.DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *sql.DB) *conversationRepository {
	return &conversationRepository{
		db: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner, c *models.Conversation) error {
	return row.Scan(&c.ID, &c.InitiatorID, &c.ReceiverID, &c.UserLowID, &c.UserHighID, &c.CreatedAt)
}

// GetByID retrieves a conversation by its ID
func (r *conversationRepository) GetByID(ctx context.Context, id int) (*models.Conversation, error) {
	query := fmt.Sprintf("SELECT %s FROM conversations c WHERE c.id = ?", conversationColumns)

	var conversation models.Conversation
	err := scanConversation(r.db.QueryRowContext(ctx, query, id), &conversation)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("conversation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation by id: %w", err)
	}
	return &conversation, nil
}

// FindByPair retrieves the conversation of a canonical (low, high) pair
func (r *conversationRepository) FindByPair(ctx context.Context, lowID, highID int) (*models.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM conversations c
		WHERE c.user_low_id = ? AND c.user_high_id = ?
	`, conversationColumns)

	var conversation models.Conversation
	err := scanConversation(r.db.QueryRowContext(ctx, query, lowID, highID), &conversation)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("conversation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation by pair: %w", err)
	}
	return &conversation, nil
}

// Upsert inserts the conversation unless its pair already exists and sets its ID either way.
// It reports whether this call created the row. When two first contacts race, the unique
// pair index lets one insert win and the other receives the winner's ID.
func (r *conversationRepository) Upsert(ctx context.Context, conversation *models.Conversation) (bool, error) {
	query := `
		INSERT INTO conversations (initiator_id, receiver_id, user_low_id, user_high_id)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)
	`

	result, err := r.db.ExecContext(ctx, query,
		conversation.InitiatorID,
		conversation.ReceiverID,
		conversation.UserLowID,
		conversation.UserHighID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert conversation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get last insert id: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	conversation.ID = int(id)
	return rowsAffected == 1, nil
}

// ListForUser retrieves a page of the conversations a user takes part in, most recently active first
func (r *conversationRepository) ListForUser(ctx context.Context, userID, offset, limit int) ([]models.Conversation, int, error) {
	var total int
	countQuery := "SELECT COUNT(*) FROM conversations WHERE user_low_id = ? OR user_high_id = ?"
	if err := r.db.QueryRowContext(ctx, countQuery, userID, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count conversations: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM conversations c
		LEFT JOIN (
			SELECT conversation_id, MAX(created_at) AS last_at
			FROM messages
			GROUP BY conversation_id
		) activity ON activity.conversation_id = c.id
		WHERE c.user_low_id = ? OR c.user_high_id = ?
		ORDER BY COALESCE(activity.last_at, c.created_at) DESC, c.id DESC
		LIMIT ? OFFSET ?
	`, conversationColumns)

	rows, err := r.db.QueryContext(ctx, query, userID, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var conversations []models.Conversation
	for rows.Next() {
		var conversation models.Conversation
		if err := scanConversation(rows, &conversation); err != nil {
			return nil, 0, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, conversation)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return conversations, total, nil
}
