package services

import (
	"context"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/libs/pagination"
	"github.com/genzone/backend/services/learn-service/internal/models"
)

// MembershipCourseRepository is the interface that wraps the course reads needed by membership service
type MembershipCourseRepository interface {
	// GetByID retrieves a course by ID, or NotFound
	GetByID(ctx context.Context, id int) (*models.Course, error)
	// ListByOwner retrieves a page of the courses owned by "ownerID" together with the total count
	ListByOwner(ctx context.Context, ownerID, offset, limit int) ([]models.Course, int, error)
}

// MembershipRepository is the interface that wraps methods for course_memberships table data access
type MembershipRepository interface {
	// Add records a membership. An existing membership of the same kind is a Conflict.
	Add(ctx context.Context, userID, courseID int, kind models.MembershipKind) error
	// Remove deletes a membership. Removing an absent membership is a Conflict.
	Remove(ctx context.Context, userID, courseID int, kind models.MembershipKind) error
	// ListCourses retrieves a page of the courses "userID" holds with "kind" together with the total count
	ListCourses(ctx context.Context, userID int, kind models.MembershipKind, offset, limit int) ([]models.Course, int, error)
}

type membershipService struct {
	courseRepo     MembershipCourseRepository
	membershipRepo MembershipRepository
}

// NewMembershipService creates a new membership service
func NewMembershipService(courseRepo MembershipCourseRepository, membershipRepo MembershipRepository) *membershipService {
	return &membershipService{
		courseRepo:     courseRepo,
		membershipRepo: membershipRepo,
	}
}

// Add puts a course into one of the actor's sets: enrolled, favorite or in progress
func (s *membershipService) Add(ctx context.Context, actorID, courseID int, kind models.MembershipKind) error {
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return err
	}
	return s.membershipRepo.Add(ctx, actorID, courseID, kind)
}

// Remove takes a course out of one of the actor's sets
func (s *membershipService) Remove(ctx context.Context, actorID, courseID int, kind models.MembershipKind) error {
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return err
	}
	return s.membershipRepo.Remove(ctx, actorID, courseID, kind)
}

// ListMine retrieves a page of the actor's courses of the given kind. Kind "owned" lists the courses the actor created.
func (s *membershipService) ListMine(ctx context.Context, actorID int, kind string, params pagination.Params) (*pagination.Page[models.Course], error) {
	var (
		courses []models.Course
		total   int
		err     error
	)

	if kind == models.CourseListOwned {
		courses, total, err = s.courseRepo.ListByOwner(ctx, actorID, params.Offset(), params.PageSize)
	} else {
		membershipKind, parseErr := models.ParseMembershipKind(kind)
		if parseErr != nil {
			return nil, apperrors.Validation("kind", "kind must be one of owned, enrolled, favorite, in_progress")
		}
		courses, total, err = s.membershipRepo.ListCourses(ctx, actorID, membershipKind, params.Offset(), params.PageSize)
	}
	if err != nil {
		return nil, err
	}

	return pagination.NewPage(courses, total, params)
}
