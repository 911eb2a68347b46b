package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/libs/database"
	"github.com/genzone/backend/services/learn-service/internal/models"
)

type membershipRepository struct {
	db *sql.DB
}

// NewMembershipRepository creates a new course membership repository
func NewMembershipRepository(db *sql.DB) *membershipRepository {
	return &membershipRepository{
		db: db,
	}
}

// Add records a membership. An existing membership of the same kind is a conflict.
func (r *membershipRepository) Add(ctx context.Context, userID, courseID int, kind models.MembershipKind) error {
	query := "INSERT INTO course_memberships (user_id, course_id, kind) VALUES (?, ?, ?)"

	if _, err := r.db.ExecContext(ctx, query, userID, courseID, kind); err != nil {
		if database.IsDuplicateEntry(err) {
			return apperrors.Conflict(fmt.Sprintf("course is already %s", kindLabel(kind)))
		}
		return fmt.Errorf("failed to add membership: %w", err)
	}
	return nil
}

// Remove deletes a membership. Removing an absent membership is a conflict.
func (r *membershipRepository) Remove(ctx context.Context, userID, courseID int, kind models.MembershipKind) error {
	query := "DELETE FROM course_memberships WHERE user_id = ? AND course_id = ? AND kind = ?"

	result, err := r.db.ExecContext(ctx, query, userID, courseID, kind)
	if err != nil {
		return fmt.Errorf("failed to remove membership: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.Conflict(fmt.Sprintf("course is not %s", kindLabel(kind)))
	}
	return nil
}

// Exists checks whether a user holds a membership of the given kind
func (r *membershipRepository) Exists(ctx context.Context, userID, courseID int, kind models.MembershipKind) (bool, error) {
	query := "SELECT EXISTS(SELECT 1 FROM course_memberships WHERE user_id = ? AND course_id = ? AND kind = ?)"
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, courseID, kind).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

// ListCourses retrieves a page of the courses a user holds with the given kind and the total count
func (r *membershipRepository) ListCourses(ctx context.Context, userID int, kind models.MembershipKind, offset, limit int) ([]models.Course, int, error) {
	var total int
	countQuery := "SELECT COUNT(*) FROM course_memberships WHERE user_id = ? AND kind = ?"
	if err := r.db.QueryRowContext(ctx, countQuery, userID, kind).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count memberships: %w", err)
	}

	query := `
		SELECT c.id, c.title, c.description, c.owner_id, c.price, c.rating, c.preview, c.created_at, c.updated_at
		FROM courses c
		JOIN course_memberships cm ON cm.course_id = c.id
		WHERE cm.user_id = ? AND cm.kind = ?
		ORDER BY cm.created_at DESC, c.id
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, userID, kind, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query member courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		var course models.Course
		if err := scanCourse(rows, &course); err != nil {
			return nil, 0, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return courses, total, nil
}

func kindLabel(kind models.MembershipKind) string {
	switch kind {
	case models.MembershipFavorite:
		return "in favorites"
	case models.MembershipInProgress:
		return "in progress"
	}
	return string(kind)
}
