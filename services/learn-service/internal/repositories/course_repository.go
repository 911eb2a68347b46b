package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/services/learn-service/internal/models"
)

const courseColumns = "id, title, description, owner_id, price, rating, preview, created_at, updated_at"

type courseRepository struct {
	db *sql.DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *sql.DB) *courseRepository {
	return &courseRepository{
		db: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner, course *models.Course) error {
	return row.Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&course.OwnerID,
		&course.Price,
		&course.Rating,
		&course.Preview,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
}

// List retrieves a page of courses, optionally filtered by a title search, and the total count
func (r *courseRepository) List(ctx context.Context, search string, offset, limit int) ([]models.Course, int, error) {
	where := ""
	var args []any
	if search != "" {
		where = "WHERE title LIKE ?"
		args = append(args, "%"+search+"%")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM courses %s", where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM courses
		%s
		ORDER BY id
		LIMIT ? OFFSET ?
	`, courseColumns, where)

	courses, err := r.queryCourses(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

// ListByOwner retrieves a page of the courses a user owns and the total count
func (r *courseRepository) ListByOwner(ctx context.Context, ownerID, offset, limit int) ([]models.Course, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM courses WHERE owner_id = ?", ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count owned courses: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM courses
		WHERE owner_id = ?
		ORDER BY id
		LIMIT ? OFFSET ?
	`, courseColumns)

	courses, err := r.queryCourses(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (r *courseRepository) queryCourses(ctx context.Context, query string, args ...any) ([]models.Course, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		var course models.Course
		if err := scanCourse(rows, &course); err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return courses, nil
}

// GetByID retrieves a course by its ID
func (r *courseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = ? LIMIT 1", courseColumns)

	var course models.Course
	err := scanCourse(r.db.QueryRowContext(ctx, query, id), &course)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("course not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course by id: %w", err)
	}

	return &course, nil
}

// GetOwnerID returns the owner of a course
func (r *courseRepository) GetOwnerID(ctx context.Context, id int) (int, error) {
	var ownerID int
	err := r.db.QueryRowContext(ctx, "SELECT owner_id FROM courses WHERE id = ?", id).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return 0, apperrors.NotFound("course not found")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get course owner: %w", err)
	}
	return ownerID, nil
}

// Create creates a new course
func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	query := `
		INSERT INTO courses (title, description, owner_id, price, preview)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		course.Title,
		course.Description,
		course.OwnerID,
		course.Price,
		course.Preview,
	)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	course.ID = int(id)
	return nil
}

// Update updates a course (partial update)
func (r *courseRepository) Update(ctx context.Context, id int, req *models.UpdateCourseRequest) error {
	var setParts []string
	var args []any

	if req.Title != nil {
		setParts = append(setParts, "title = ?")
		args = append(args, *req.Title)
	}
	if req.Description != nil {
		setParts = append(setParts, "description = ?")
		args = append(args, *req.Description)
	}
	if req.Price != nil {
		setParts = append(setParts, "price = ?")
		args = append(args, *req.Price)
	}
	if req.Preview != nil {
		setParts = append(setParts, "preview = ?")
		args = append(args, *req.Preview)
	}

	return updateFields(ctx, r.db, "courses", "course", id, setParts, args)
}

// Delete deletes a course together with its whole content tree and memberships
func (r *courseRepository) Delete(ctx context.Context, id int) error {
	cascade := []string{
		`DELETE c FROM contents c
			JOIN steps s ON s.id = c.step_id
			JOIN lessons l ON l.id = s.lesson_id
			JOIN modules m ON m.id = l.module_id
			WHERE m.course_id = ?`,
		`DELETE s FROM steps s
			JOIN lessons l ON l.id = s.lesson_id
			JOIN modules m ON m.id = l.module_id
			WHERE m.course_id = ?`,
		`DELETE l FROM lessons l
			JOIN modules m ON m.id = l.module_id
			WHERE m.course_id = ?`,
		`DELETE FROM modules WHERE course_id = ?`,
		`DELETE FROM course_memberships WHERE course_id = ?`,
	}

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, stmt := range cascade {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("failed to delete course tree: %w", err)
			}
		}

		result, err := tx.ExecContext(ctx, "DELETE FROM courses WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete course: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperrors.NotFound("course not found")
		}
		return nil
	})
}

// Outline retrieves the modules of a course with their lessons, both ordered by number
func (r *courseRepository) Outline(ctx context.Context, courseID int) ([]models.ModuleOutline, error) {
	query := `
		SELECT m.module_num, m.title, m.description, l.lesson_num, l.title, l.description
		FROM modules m
		LEFT JOIN lessons l ON l.module_id = m.id
		WHERE m.course_id = ?
		ORDER BY m.module_num, l.lesson_num
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query course outline: %w", err)
	}
	defer rows.Close()

	outline := []models.ModuleOutline{}
	for rows.Next() {
		var (
			module            models.ModuleOutline
			lessonNum         sql.NullInt64
			lessonTitle       sql.NullString
			lessonDescription sql.NullString
		)
		if err := rows.Scan(&module.ModuleNum, &module.Title, &module.Description, &lessonNum, &lessonTitle, &lessonDescription); err != nil {
			return nil, fmt.Errorf("failed to scan course outline: %w", err)
		}

		if n := len(outline); n == 0 || outline[n-1].ModuleNum != module.ModuleNum {
			module.Lessons = []models.LessonOutline{}
			outline = append(outline, module)
		}
		if lessonNum.Valid {
			last := &outline[len(outline)-1]
			last.Lessons = append(last.Lessons, models.LessonOutline{
				LessonNum:   int(lessonNum.Int64),
				Title:       lessonTitle.String,
				Description: lessonDescription.String,
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return outline, nil
}
