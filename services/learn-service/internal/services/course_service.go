package services

import (
	"context"
	"strings"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/libs/pagination"
	"github.com/genzone/backend/services/learn-service/internal/models"
	"github.com/genzone/backend/services/learn-service/internal/policy"
)

// CourseRepository is the interface that wraps methods for Course table data access
type CourseRepository interface {
	// List retrieves "limit" courses starting at "offset" together with the total count.
	// A non-empty "search" filters on the course title.
	List(ctx context.Context, search string, offset, limit int) ([]models.Course, int, error)
	// ListByOwner retrieves a page of the courses owned by "ownerID" together with the total count
	ListByOwner(ctx context.Context, ownerID, offset, limit int) ([]models.Course, int, error)
	// GetByID retrieves a course by ID
	//
	// If course with such ID does not exist, a NotFound error will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.Course, error)
	// Create inserts a course and fills in its ID
	Create(ctx context.Context, course *models.Course) error
	// Update applies the set fields of "req" to the course
	//
	// If course does not exist, a NotFound error will be returned.
	Update(ctx context.Context, id int, req *models.UpdateCourseRequest) error
	// Delete removes a course with its whole content tree and memberships in one transaction
	Delete(ctx context.Context, id int) error
	// Outline retrieves the modules of a course with their lessons
	Outline(ctx context.Context, courseID int) ([]models.ModuleOutline, error)
}

// Authorizer decides who may read or change content tree nodes
type Authorizer interface {
	// Authorize returns nil if "actorID" may perform "op" on "node".
	// Changes by anyone but the course owner are Forbidden.
	Authorize(ctx context.Context, actorID int, node models.Node, op policy.Op) error
	// HasAccess reports whether "actorID" owns or is enrolled in the course
	HasAccess(ctx context.Context, actorID, courseID int) (bool, error)
}

type courseService struct {
	courseRepo CourseRepository
	authorizer Authorizer
}

// NewCourseService creates a new course service
func NewCourseService(courseRepo CourseRepository, authorizer Authorizer) *courseService {
	return &courseService{
		courseRepo: courseRepo,
		authorizer: authorizer,
	}
}

// ListCourses retrieves a page of courses matching an optional title search
func (s *courseService) ListCourses(ctx context.Context, search string, params pagination.Params) (*pagination.Page[models.Course], error) {
	courses, total, err := s.courseRepo.List(ctx, strings.TrimSpace(search), params.Offset(), params.PageSize)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(courses, total, params)
}

// CreateCourse creates a course owned by the actor
func (s *courseService) CreateCourse(ctx context.Context, actorID int, req *models.CreateCourseRequest) (*models.Course, error) {
	if actorID == 0 {
		return nil, apperrors.Unauthenticated("authentication required")
	}

	course := &models.Course{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		OwnerID:     actorID,
		Price:       req.Price,
		Preview:     strings.TrimSpace(req.Preview),
	}

	switch {
	case course.Title == "":
		return nil, apperrors.Validation("title", "title is required")
	case course.Description == "":
		return nil, apperrors.Validation("description", "description is required")
	case course.Preview == "":
		return nil, apperrors.Validation("preview", "preview is required")
	case course.Price < 0:
		return nil, apperrors.Validation("price", "price must not be negative")
	}

	if err := s.courseRepo.Create(ctx, course); err != nil {
		return nil, err
	}

	return s.courseRepo.GetByID(ctx, course.ID)
}

// GetCourse retrieves a course with its module outline.
// For an authenticated actor the response also tells whether they have access.
func (s *courseService) GetCourse(ctx context.Context, actorID, id int) (*models.CourseDetailResponse, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	outline, err := s.courseRepo.Outline(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &models.CourseDetailResponse{Course: *course, Modules: outline}
	if actorID != 0 {
		hasAccess, err := s.authorizer.HasAccess(ctx, actorID, id)
		if err != nil {
			return nil, err
		}
		detail.HasAccess = &hasAccess
	}

	return detail, nil
}

// UpdateCourse applies a partial update. Only the owner may change a course.
func (s *courseService) UpdateCourse(ctx context.Context, actorID, id int, req *models.UpdateCourseRequest) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.Authorize(ctx, actorID, course, policy.OpWrite); err != nil {
		return nil, err
	}

	if req.Title == nil && req.Description == nil && req.Price == nil && req.Preview == nil {
		return nil, apperrors.Validation("body", "no fields to update")
	}
	if err := requireNonBlank("title", req.Title); err != nil {
		return nil, err
	}
	if err := requireNonBlank("description", req.Description); err != nil {
		return nil, err
	}
	if err := requireNonBlank("preview", req.Preview); err != nil {
		return nil, err
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, apperrors.Validation("price", "price must not be negative")
	}

	if err := s.courseRepo.Update(ctx, id, req); err != nil {
		return nil, err
	}

	return s.courseRepo.GetByID(ctx, id)
}

// DeleteCourse removes a course and everything below it. Only the owner may delete a course.
func (s *courseService) DeleteCourse(ctx context.Context, actorID, id int) error {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizer.Authorize(ctx, actorID, course, policy.OpWrite); err != nil {
		return err
	}

	return s.courseRepo.Delete(ctx, id)
}

// CheckAccess reports whether the actor may study a course
func (s *courseService) CheckAccess(ctx context.Context, actorID, id int) (*models.AccessResponse, error) {
	hasAccess, err := s.authorizer.HasAccess(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	return &models.AccessResponse{CourseID: id, HasAccess: hasAccess}, nil
}

// requireNonBlank rejects a field that is set to an empty value and trims it in place
func requireNonBlank(field string, value *string) error {
	if value == nil {
		return nil
	}
	*value = strings.TrimSpace(*value)
	if *value == "" {
		return apperrors.Validation(field, field+" must not be empty")
	}
	return nil
}
