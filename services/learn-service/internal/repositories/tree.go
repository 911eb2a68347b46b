package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/genzone/backend/libs/apperrors"
)

// level describes one layer of the content tree: a child table ordered by a
// dense 1-based number within its parent row
type level struct {
	name         string
	table        string
	parentTable  string
	parentColumn string
	numColumn    string
	// descendants delete everything below a child row, deepest first.
	// Each statement takes the child id as its only argument.
	descendants []string
}

var (
	moduleLevel = level{
		name:         "module",
		table:        "modules",
		parentTable:  "courses",
		parentColumn: "course_id",
		numColumn:    "module_num",
		descendants: []string{
			`DELETE c FROM contents c
				JOIN steps s ON s.id = c.step_id
				JOIN lessons l ON l.id = s.lesson_id
				WHERE l.module_id = ?`,
			`DELETE s FROM steps s
				JOIN lessons l ON l.id = s.lesson_id
				WHERE l.module_id = ?`,
			`DELETE FROM lessons WHERE module_id = ?`,
		},
	}
	lessonLevel = level{
		name:         "lesson",
		table:        "lessons",
		parentTable:  "modules",
		parentColumn: "module_id",
		numColumn:    "lesson_num",
		descendants: []string{
			`DELETE c FROM contents c
				JOIN steps s ON s.id = c.step_id
				WHERE s.lesson_id = ?`,
			`DELETE FROM steps WHERE lesson_id = ?`,
		},
	}
	stepLevel = level{
		name:         "step",
		table:        "steps",
		parentTable:  "lessons",
		parentColumn: "lesson_id",
		numColumn:    "step_num",
		descendants: []string{
			`DELETE FROM contents WHERE step_id = ?`,
		},
	}
	contentLevel = level{
		name:         "content",
		table:        "contents",
		parentTable:  "steps",
		parentColumn: "step_id",
		numColumn:    "content_num",
	}
)

// withTx runs fn in a transaction, committing only if fn succeeds
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// lockParent takes a row lock on the parent so creates and deletes under it serialize
func (l level) lockParent(ctx context.Context, tx *sql.Tx, parentID int) error {
	query := fmt.Sprintf("SELECT id FROM %s WHERE id = ? FOR UPDATE", l.parentTable)
	var id int
	err := tx.QueryRowContext(ctx, query, parentID).Scan(&id)
	if err == sql.ErrNoRows {
		return apperrors.NotFound(fmt.Sprintf("parent of %s not found", l.name))
	}
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", l.parentTable, err)
	}
	return nil
}

// nextNum returns sibling count + 1
func (l level) nextNum(ctx context.Context, tx *sql.Tx, parentID int) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", l.table, l.parentColumn)
	var count int
	if err := tx.QueryRowContext(ctx, query, parentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", l.table, err)
	}
	return count + 1, nil
}

// childNum reads the current number of a child under a locked parent
func (l level) childNum(ctx context.Context, tx *sql.Tx, parentID, id int) (int, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND %s = ?", l.numColumn, l.table, l.parentColumn)
	var num int
	err := tx.QueryRowContext(ctx, query, id, parentID).Scan(&num)
	if err == sql.ErrNoRows {
		return 0, apperrors.NotFound(l.name + " not found")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find %s: %w", l.name, err)
	}
	return num, nil
}

// deleteAndShift removes the child with the given ID together with its descendants and
// closes the gap it leaves. The number is read again under the parent lock since
// siblings may have been renumbered after the caller resolved the path. Ascending
// order keeps the unique (parent, num) index valid after every single row update.
func (l level) deleteAndShift(ctx context.Context, db *sql.DB, parentID, id int) error {
	return withTx(ctx, db, func(tx *sql.Tx) error {
		if err := l.lockParent(ctx, tx, parentID); err != nil {
			return err
		}

		num, err := l.childNum(ctx, tx, parentID, id)
		if err != nil {
			return err
		}

		for _, stmt := range l.descendants {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("failed to delete %s descendants: %w", l.name, err)
			}
		}

		deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE id = ?", l.table)
		if _, err := tx.ExecContext(ctx, deleteQuery, id); err != nil {
			return fmt.Errorf("failed to delete %s: %w", l.name, err)
		}

		shiftQuery := fmt.Sprintf(
			"UPDATE %s SET %s = %s - 1 WHERE %s = ? AND %s > ? ORDER BY %s ASC",
			l.table, l.numColumn, l.numColumn, l.parentColumn, l.numColumn, l.numColumn,
		)
		if _, err := tx.ExecContext(ctx, shiftQuery, parentID, num); err != nil {
			return fmt.Errorf("failed to renumber %s: %w", l.table, err)
		}
		return nil
	})
}

// insertNumbered locks the parent, computes the next number with next and runs insert with it
func (l level) insertNumbered(
	ctx context.Context,
	db *sql.DB,
	parentID int,
	next func(ctx context.Context, tx *sql.Tx, parentID int) (int, error),
	insert func(tx *sql.Tx, num int) (sql.Result, error),
) (int, int, error) {
	var id, num int
	err := withTx(ctx, db, func(tx *sql.Tx) error {
		if err := l.lockParent(ctx, tx, parentID); err != nil {
			return err
		}

		n, err := next(ctx, tx, parentID)
		if err != nil {
			return err
		}

		result, err := insert(tx, n)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", l.name, err)
		}

		lastID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		id, num = int(lastID), n
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return id, num, nil
}

// updateFields applies a dynamic SET clause to the row with the given id
func updateFields(ctx context.Context, db *sql.DB, table, name string, id int, setParts []string, args []any) error {
	if len(setParts) == 0 {
		return apperrors.Validation("body", "no fields to update")
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(setParts, ", "))
	args = append(args, id)

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	// MySQL reports 0 for an update that matched but changed nothing
	if rowsAffected == 0 {
		var exists bool
		if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = ?)", table), id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check %s existence: %w", name, err)
		}
		if !exists {
			return apperrors.NotFound(name + " not found")
		}
	}
	return nil
}
