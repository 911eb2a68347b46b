package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/libs/pagination"
	"github.com/genzone/backend/services/auth-service/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// ProfileUserRepository is the interface that wraps methods for User table data access needed by profile service
type ProfileUserRepository interface {
	// GetByID retrieves a user by ID
	//
	// If user with such ID does not exist, a NotFound error will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.User, error)
	// List retrieves "limit" users starting at "offset", ordered by ID, together with the total count
	List(ctx context.Context, offset, limit int) ([]models.User, int, error)
	// UpdateProfile updates the non-empty profile fields of "user"
	//
	// If user does not exist, a NotFound error will be returned.
	UpdateProfile(ctx context.Context, user *models.User) error
	// UpdatePassword replaces the password hash of a user
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	// Delete removes a user and their refresh tokens
	//
	// If user does not exist, a NotFound error will be returned.
	Delete(ctx context.Context, id int) error
}

// profileService implements ProfileService
type profileService struct {
	userRepo ProfileUserRepository
}

// NewProfileService creates a new profile service
func NewProfileService(userRepo ProfileUserRepository) *profileService {
	return &profileService{
		userRepo: userRepo,
	}
}

// GetUser retrieves the public profile of a user
func (s *profileService) GetUser(ctx context.Context, id int) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	response := user.ToResponse()
	return &response, nil
}

// ListUsers retrieves a page of users
func (s *profileService) ListUsers(ctx context.Context, params pagination.Params) (*pagination.Page[models.UserResponse], error) {
	users, total, err := s.userRepo.List(ctx, params.Offset(), params.PageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]models.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, users[i].ToResponse())
	}
	return pagination.NewPage(responses, total, params)
}

// UpdateUser updates the profile of a user. Only the user may update their own profile.
// The username is rebuilt from the resulting first and last name.
func (s *profileService) UpdateUser(ctx context.Context, actorID, id int, req *models.UpdateUserRequest) (*models.UserResponse, error) {
	if actorID != id {
		return nil, apperrors.Forbidden("you can only update your own profile")
	}
	if req.FirstName == nil && req.LastName == nil && req.Photo == nil {
		return nil, apperrors.Validation("body", "at least one field must be provided")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	update := &models.User{ID: id}
	if req.FirstName != nil {
		firstName := strings.TrimSpace(*req.FirstName)
		if firstName == "" {
			return nil, apperrors.Validation("firstName", "first name cannot be empty")
		}
		user.FirstName = firstName
		update.FirstName = firstName
	}
	if req.LastName != nil {
		lastName := strings.TrimSpace(*req.LastName)
		if lastName == "" {
			return nil, apperrors.Validation("lastName", "last name cannot be empty")
		}
		user.LastName = lastName
		update.LastName = lastName
	}
	if req.Photo != nil {
		photo := strings.TrimSpace(*req.Photo)
		if photo == "" {
			return nil, apperrors.Validation("photo", "photo cannot be empty")
		}
		user.Photo = photo
		update.Photo = photo
	}
	if update.FirstName != "" || update.LastName != "" {
		user.Username = models.DisplayName(user.FirstName, user.LastName)
		update.Username = user.Username
	}

	if err := s.userRepo.UpdateProfile(ctx, update); err != nil {
		return nil, err
	}

	response := user.ToResponse()
	return &response, nil
}

// DeleteUser removes the account of a user. Only the user may delete their own account.
func (s *profileService) DeleteUser(ctx context.Context, actorID, id int) error {
	if actorID != id {
		return apperrors.Forbidden("you can only delete your own account")
	}
	return s.userRepo.Delete(ctx, id)
}

// ChangePassword replaces the password of the acting user after checking the old one
func (s *profileService) ChangePassword(ctx context.Context, actorID int, req *models.ChangePasswordRequest) error {
	if req.OldPassword == "" {
		return apperrors.Validation("oldPassword", "old password is required")
	}
	if err := validatePassword("newPassword", req.NewPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return apperrors.Validation("oldPassword", "old password is incorrect")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.userRepo.UpdatePassword(ctx, actorID, string(passwordHash))
}
