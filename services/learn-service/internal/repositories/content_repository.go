package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/services/learn-service/internal/models"
)

const contentColumns = "id, step_id, content_num, content_type, text, media, width, height"

type contentRepository struct {
	db *sql.DB
}

// NewContentRepository creates a new content repository
func NewContentRepository(db *sql.DB) *contentRepository {
	return &contentRepository{
		db: db,
	}
}

func scanContent(row rowScanner, content *models.Content) error {
	return row.Scan(
		&content.ID,
		&content.StepID,
		&content.ContentNum,
		&content.ContentType,
		&content.Text,
		&content.Media,
		&content.Width,
		&content.Height,
	)
}

// Get retrieves a content block by its path
func (r *contentRepository) Get(ctx context.Context, path models.Path) (*models.Content, error) {
	query := `
		SELECT c.id, c.step_id, c.content_num, c.content_type, c.text, c.media, c.width, c.height, m.course_id
		FROM contents c
		JOIN steps s ON s.id = c.step_id
		JOIN lessons l ON l.id = s.lesson_id
		JOIN modules m ON m.id = l.module_id
		WHERE m.course_id = ? AND m.module_num = ? AND l.lesson_num = ? AND s.step_num = ? AND c.content_num = ?
	`

	var content models.Content
	err := r.db.QueryRowContext(ctx, query,
		path.CourseID, path.ModuleNum, path.LessonNum, path.StepNum, path.ContentNum,
	).Scan(
		&content.ID,
		&content.StepID,
		&content.ContentNum,
		&content.ContentType,
		&content.Text,
		&content.Media,
		&content.Width,
		&content.Height,
		&content.CourseID,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("content not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	return &content, nil
}

// ListBySteps retrieves the contents of several steps keyed by step id, each ordered by number
func (r *contentRepository) ListBySteps(ctx context.Context, stepIDs []int) (map[int][]models.Content, error) {
	result := make(map[int][]models.Content, len(stepIDs))
	if len(stepIDs) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(stepIDs))
	args := make([]any, len(stepIDs))
	for i, id := range stepIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM contents
		WHERE step_id IN (%s)
		ORDER BY step_id, content_num
	`, contentColumns, strings.Join(placeholders, ", "))

	contents, err := queryContents(ctx, r.db, query, args...)
	if err != nil {
		return nil, err
	}
	for _, content := range contents {
		result[content.StepID] = append(result[content.StepID], content)
	}
	return result, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryContents(ctx context.Context, q queryer, query string, args ...any) ([]models.Content, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contents: %w", err)
	}
	defer rows.Close()

	contents := []models.Content{}
	for rows.Next() {
		var content models.Content
		if err := scanContent(rows, &content); err != nil {
			return nil, fmt.Errorf("failed to scan content: %w", err)
		}
		contents = append(contents, content)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return contents, nil
}

// nextContentNum returns MAX(content_num) + 1, which stays unique after a bulk replace left gaps
func nextContentNum(ctx context.Context, tx *sql.Tx, stepID int) (int, error) {
	var next int
	err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(content_num), 0) + 1 FROM contents WHERE step_id = ?", stepID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to get next content number: %w", err)
	}
	return next, nil
}

// Create appends a content block to its step and fills in its id and number
func (r *contentRepository) Create(ctx context.Context, content *models.Content) error {
	id, num, err := contentLevel.insertNumbered(ctx, r.db, content.StepID, nextContentNum,
		func(tx *sql.Tx, num int) (sql.Result, error) {
			return insertContent(ctx, tx, content.StepID, num, content)
		})
	if err != nil {
		return err
	}

	content.ID, content.ContentNum = id, num
	return nil
}

func insertContent(ctx context.Context, tx *sql.Tx, stepID, num int, content *models.Content) (sql.Result, error) {
	return tx.ExecContext(ctx, `
		INSERT INTO contents (step_id, content_num, content_type, text, media, width, height)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, stepID, num, content.ContentType, content.Text, content.Media, content.Width, content.Height)
}

// Update updates a content block (partial update)
func (r *contentRepository) Update(ctx context.Context, id int, req *models.UpdateContentRequest) error {
	var setParts []string
	var args []any

	if req.ContentType != nil {
		setParts = append(setParts, "content_type = ?")
		args = append(args, *req.ContentType)
	}
	if req.Text != nil {
		setParts = append(setParts, "text = ?")
		args = append(args, *req.Text)
	}
	if req.Media != nil {
		setParts = append(setParts, "media = ?")
		args = append(args, *req.Media)
	}
	if req.Width != nil {
		setParts = append(setParts, "width = ?")
		args = append(args, *req.Width)
	}
	if req.Height != nil {
		setParts = append(setParts, "height = ?")
		args = append(args, *req.Height)
	}

	return updateFields(ctx, r.db, "contents", "content", id, setParts, args)
}

// Delete removes the content block with the given ID and renumbers the rest
func (r *contentRepository) Delete(ctx context.Context, stepID, id int) error {
	return contentLevel.deleteAndShift(ctx, r.db, stepID, id)
}

// Replace makes the step's contents equal to target: blocks whose number is absent are
// deleted, present ones are updated in place and new ones are inserted.
// The resulting contents are returned ordered by number.
func (r *contentRepository) Replace(ctx context.Context, stepID int, target []models.Content) ([]models.Content, error) {
	var contents []models.Content
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := contentLevel.lockParent(ctx, tx, stepID); err != nil {
			return err
		}

		existing, err := existingContentIDs(ctx, tx, stepID)
		if err != nil {
			return err
		}

		wanted := make(map[int]bool, len(target))
		for _, content := range target {
			wanted[content.ContentNum] = true
		}

		for _, num := range slices.Sorted(maps.Keys(existing)) {
			if wanted[num] {
				continue
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM contents WHERE id = ?", existing[num]); err != nil {
				return fmt.Errorf("failed to delete content: %w", err)
			}
		}

		for i := range target {
			content := &target[i]
			if id, ok := existing[content.ContentNum]; ok {
				_, err := tx.ExecContext(ctx, `
					UPDATE contents
					SET content_type = ?, text = ?, media = ?, width = ?, height = ?
					WHERE id = ?
				`, content.ContentType, content.Text, content.Media, content.Width, content.Height, id)
				if err != nil {
					return fmt.Errorf("failed to update content: %w", err)
				}
				continue
			}
			if _, err := insertContent(ctx, tx, stepID, content.ContentNum, content); err != nil {
				return fmt.Errorf("failed to create content: %w", err)
			}
		}

		query := fmt.Sprintf("SELECT %s FROM contents WHERE step_id = ? ORDER BY content_num", contentColumns)
		contents, err = queryContents(ctx, tx, query, stepID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return contents, nil
}

// existingContentIDs maps content numbers of a step to row ids
func existingContentIDs(ctx context.Context, tx *sql.Tx, stepID int) (map[int]int, error) {
	rows, err := tx.QueryContext(ctx, "SELECT id, content_num FROM contents WHERE step_id = ?", stepID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contents: %w", err)
	}
	defer rows.Close()

	existing := make(map[int]int)
	for rows.Next() {
		var id, num int
		if err := rows.Scan(&id, &num); err != nil {
			return nil, fmt.Errorf("failed to scan content: %w", err)
		}
		existing[num] = id
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return existing, nil
}
