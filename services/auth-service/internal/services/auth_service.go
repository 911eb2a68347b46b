package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/libs/auth/service"
	"github.com/genzone/backend/libs/tasks"
	"github.com/genzone/backend/services/auth-service/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the interface that wraps methods for User table data access
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// "user" parameter is used to create a new user. Its ID is filled on success.
	//
	// If some error occurs during user creation, the error will be returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, a NotFound error will be returned together with "nil" value.
	GetByID(ctx context.Context, id int) (*models.User, error)
	// Method GetByEmail retrieves a user by email.
	//
	// If user with such email does not exist, a NotFound error will be returned together with "nil" value.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method ExistsByEmail checks if a user with such email exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Method Activate marks the user as active.
	//
	// Activating an already active user is not an error.
	Activate(ctx context.Context, id int) error
}

// UserTokenRepository is the interface that wraps methods for UserToken table data access
type UserTokenRepository interface {
	// Method Create inserts a new user token into the database.
	//
	// If some error occurs during user token creation, the error will be returned.
	Create(ctx context.Context, userToken *models.UserToken) error
	// Method GetByToken retrieves a user token by token string.
	//
	// If user token with such token does not exist, a NotFound error will be returned together with "nil" value.
	GetByToken(ctx context.Context, token string) (*models.UserToken, error)
	// Method UpdateToken replaces oldToken of the user with newToken.
	//
	// If the token does not belong to the user, a NotFound error will be returned.
	UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error
	// Method DeleteByToken deletes a user token by token string.
	//
	// Deleting a missing token is not an error.
	DeleteByToken(ctx context.Context, token string) error
}

// EmailDispatcher hands emails to the background worker pool
type EmailDispatcher interface {
	// Method EnqueueEmail queues the email described by "payload".
	//
	// It returns once the job is queued. Delivery happens later in the worker.
	EnqueueEmail(ctx context.Context, payload tasks.EmailPayload) error
}

// authService implements AuthService
type authService struct {
	userRepo        UserRepository
	userTokenRepo   UserTokenRepository
	tokenGenerator  *service.TokenGenerator
	emails          EmailDispatcher
	logger          *zap.Logger
	verificationURL string
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo UserRepository,
	userTokenRepo UserTokenRepository,
	tokenGenerator *service.TokenGenerator,
	emails EmailDispatcher,
	logger *zap.Logger,
	verificationURL string,
) *authService {
	return &authService{
		userRepo:        userRepo,
		userTokenRepo:   userTokenRepo,
		tokenGenerator:  tokenGenerator,
		emails:          emails,
		logger:          logger,
		verificationURL: verificationURL,
	}
}

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Register creates an inactive student account and sends the verification email
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if firstName == "" {
		return nil, apperrors.Validation("firstName", "first name is required")
	}
	if lastName == "" {
		return nil, apperrors.Validation("lastName", "last name is required")
	}
	if err := validatePassword("password", req.Password); err != nil {
		return nil, err
	}
	if req.Password != req.PasswordConf {
		return nil, apperrors.Validation("passwordConf", "passwords do not match")
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.Validation("email", "user with this email already exists")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		Username:     models.DisplayName(firstName, lastName),
		PasswordHash: string(passwordHash),
		Role:         models.RoleStudent,
		IsActive:     false,
		Photo:        models.DefaultPhoto,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// Registration succeeds even when the email cannot be queued; the user can ask for a resend
	if err := s.sendVerification(ctx, user); err != nil {
		s.logger.Warn("failed to enqueue verification email", zap.Int("userId", user.ID), zap.Error(err))
	}

	return user, nil
}

// VerifyEmail activates the account bound to a verification token
func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.tokenGenerator.ValidateVerificationToken(strings.TrimSpace(token))
	if errors.Is(err, service.ErrTokenExpired) {
		return apperrors.Validation("token", "activation link expired")
	}
	if err != nil {
		return apperrors.Validation("token", "invalid token")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsActive {
		return nil
	}

	return s.userRepo.Activate(ctx, user.ID)
}

// CheckStatus reports whether the account registered with email is verified
func (s *authService) CheckStatus(ctx context.Context, email string) (*models.StatusResponse, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, normalized)
	if err != nil {
		return nil, err
	}

	status := models.StatusPending
	if user.IsActive {
		status = models.StatusVerified
	}
	return &models.StatusResponse{Email: user.Email, Status: status}, nil
}

// ResendVerification issues a new verification token and queues the email again
func (s *authService) ResendVerification(ctx context.Context, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, normalized)
	if err != nil {
		return err
	}
	if user.IsActive {
		return apperrors.Conflict("account is already verified")
	}

	if err := s.sendVerification(ctx, user); err != nil {
		return apperrors.Internal("failed to send verification email", err)
	}
	return nil
}

// Login authenticates an active user
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, apperrors.Validation("email", "email is required")
	}
	if req.Password == "" {
		return nil, apperrors.Validation("password", "password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if apperrors.Is(err, apperrors.KindNotFound) {
		return nil, apperrors.Unauthenticated("invalid credentials")
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthenticated("invalid credentials")
	}
	if !user.IsActive {
		return nil, apperrors.Unauthenticated("account is not verified")
	}

	accessToken, refreshToken, err := generateAndSaveTokens(ctx, s.tokenGenerator, s.userTokenRepo, user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.ToResponse(),
	}, nil
}

// Refresh rotates a refresh token and issues a new access token
func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return "", "", apperrors.Unauthenticated("refresh token is required")
	}

	if err := s.tokenGenerator.ValidateRefreshToken(refreshToken); err != nil {
		// Drop a stale token if it is still stored
		if delErr := s.userTokenRepo.DeleteByToken(ctx, refreshToken); delErr != nil {
			s.logger.Warn("failed to delete invalid refresh token", zap.Error(delErr))
		}
		return "", "", apperrors.Unauthenticated("invalid or expired refresh token")
	}

	userToken, err := s.userTokenRepo.GetByToken(ctx, refreshToken)
	if apperrors.Is(err, apperrors.KindNotFound) {
		return "", "", apperrors.Unauthenticated("invalid or expired refresh token")
	}
	if err != nil {
		return "", "", err
	}

	user, err := s.userRepo.GetByID(ctx, userToken.UserID)
	if apperrors.Is(err, apperrors.KindNotFound) {
		return "", "", apperrors.Unauthenticated("user no longer exists")
	}
	if err != nil {
		return "", "", err
	}

	accessToken, newRefreshToken, err := s.tokenGenerator.GenerateTokens(user.ID, int(user.Role))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	if err := s.userTokenRepo.UpdateToken(ctx, refreshToken, newRefreshToken, user.ID); err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return "", "", apperrors.Unauthenticated("invalid or expired refresh token")
		}
		return "", "", err
	}

	return accessToken, newRefreshToken, nil
}

func (s *authService) sendVerification(ctx context.Context, user *models.User) error {
	token, err := s.tokenGenerator.GenerateVerificationToken(user.ID)
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}

	return s.emails.EnqueueEmail(ctx, tasks.EmailPayload{
		Template: tasks.TemplateVerifyEmail,
		To:       user.Email,
		Vars:     []string{user.Username, verificationLink(s.verificationURL, token)},
	})
}

func verificationLink(base, token string) string {
	separator := "?"
	if strings.Contains(base, "?") {
		separator = "&"
	}
	return base + separator + "token=" + url.QueryEscape(token)
}

// generateAndSaveTokens issues a token pair and stores the refresh token
func generateAndSaveTokens(ctx context.Context, tokenGenerator *service.TokenGenerator,
	userTokenRepo UserTokenRepository, userID int, role models.Role) (string, string, error) {
	accessToken, refreshToken, err := tokenGenerator.GenerateTokens(userID, int(role))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	userToken := &models.UserToken{
		UserID: userID,
		Token:  refreshToken,
	}
	if err := userTokenRepo.Create(ctx, userToken); err != nil {
		return "", "", fmt.Errorf("failed to save refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", apperrors.Validation("email", "email is required")
	}
	if _, err := mail.ParseAddress(normalized); err != nil || !emailRegex.MatchString(normalized) {
		return "", apperrors.Validation("email", "invalid email format")
	}
	return normalized, nil
}

// validatePassword requires at least 8 characters with a letter and a digit
func validatePassword(field, password string) error {
	if len([]rune(password)) < 8 {
		return apperrors.Validation(field, "password must be at least 8 characters long")
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return apperrors.Validation(field, "password must contain at least one letter and one digit")
	}
	return nil
}
