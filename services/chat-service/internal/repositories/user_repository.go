package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/services/chat-service/internal/models"
)

// userRepository reads participant profiles from the users table owned by auth-service.
// It never writes.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new read-only user repository
func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{
		db: db,
	}
}

// GetByEmail retrieves a user profile by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.UserSummary, error) {
	var user models.UserSummary
	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, username, photo FROM users WHERE email = ? LIMIT 1",
		email,
	).Scan(&user.ID, &user.Email, &user.Username, &user.Photo)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// GetByIDs retrieves the profiles of the given users keyed by id. Unknown ids are left out.
func (r *userRepository) GetByIDs(ctx context.Context, ids []int) (map[int]models.UserSummary, error) {
	users := make(map[int]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf("SELECT id, email, username, photo FROM users WHERE id IN (%s)", strings.Join(placeholders, ", "))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var user models.UserSummary
		if err := rows.Scan(&user.ID, &user.Email, &user.Username, &user.Photo); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users[user.ID] = user
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}
