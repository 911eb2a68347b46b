package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/genzone/backend/libs/apperrors"
	"github.com/genzone/backend/libs/auth/service"
	"github.com/genzone/backend/libs/tasks"
	"github.com/genzone/backend/services/auth-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// mockUserRepository is a mock implementation of the user repository interfaces
type mockUserRepository struct {
	user                *models.User
	err                 error
	createErr           error
	existsByEmailResult bool
	existsByEmailError  error
	activateErr         error
	activatedID         int

	users    []models.User
	total    int
	listErr  error
	updated  *models.User
	updErr   error
	password string
	pwErr    error
	deleted  int
	delErr   error

	inactiveCount int
	inactiveErr   error
	cutoff        time.Time
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = 1
	m.user = user
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailError != nil {
		return false, m.existsByEmailError
	}
	return m.existsByEmailResult, nil
}

func (m *mockUserRepository) Activate(ctx context.Context, id int) error {
	m.activatedID = id
	return m.activateErr
}

func (m *mockUserRepository) List(ctx context.Context, offset, limit int) ([]models.User, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.users, m.total, nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	m.updated = user
	return m.updErr
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	m.password = passwordHash
	return m.pwErr
}

func (m *mockUserRepository) Delete(ctx context.Context, id int) error {
	m.deleted = id
	return m.delErr
}

func (m *mockUserRepository) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int, error) {
	m.cutoff = cutoff
	return m.inactiveCount, m.inactiveErr
}

// mockUserTokenRepository is a mock implementation of UserTokenRepository
type mockUserTokenRepository struct {
	token          *models.UserToken
	err            error
	updateTokenErr error
	created        []string
	deleted        []string

	expiredCount int
	expiredErr   error
	expiryTime   time.Time
}

func (m *mockUserTokenRepository) Create(ctx context.Context, userToken *models.UserToken) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, userToken.Token)
	return nil
}

func (m *mockUserTokenRepository) GetByToken(ctx context.Context, token string) (*models.UserToken, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.token, nil
}

func (m *mockUserTokenRepository) UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error {
	return m.updateTokenErr
}

func (m *mockUserTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	m.deleted = append(m.deleted, token)
	return nil
}

func (m *mockUserTokenRepository) DeleteExpiredTokens(ctx context.Context, expiryTime time.Time) (int, error) {
	m.expiryTime = expiryTime
	return m.expiredCount, m.expiredErr
}

// mockEmailDispatcher records queued emails
type mockEmailDispatcher struct {
	sent []tasks.EmailPayload
	err  error
}

func (m *mockEmailDispatcher) EnqueueEmail(ctx context.Context, payload tasks.EmailPayload) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, payload)
	return nil
}

func newTestTokenGenerator() *service.TokenGenerator {
	return service.NewTokenGenerator("test-secret", time.Hour, 24*time.Hour, 24*time.Hour)
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestAuthService(userRepo *mockUserRepository, tokenRepo *mockUserTokenRepository, emails *mockEmailDispatcher) *authService {
	return NewAuthService(userRepo, tokenRepo, newTestTokenGenerator(), emails, zap.NewNop(), "http://localhost/verify")
}

func TestNewAuthService(t *testing.T) {
	logger := zap.NewNop()
	userRepo := &mockUserRepository{}
	tokenRepo := &mockUserTokenRepository{}
	emails := &mockEmailDispatcher{}
	tokenGen := newTestTokenGenerator()

	svc := NewAuthService(userRepo, tokenRepo, tokenGen, emails, logger, "http://localhost/verify")

	assert.NotNil(t, svc)
	assert.Equal(t, userRepo, svc.userRepo)
	assert.Equal(t, tokenRepo, svc.userTokenRepo)
	assert.Equal(t, tokenGen, svc.tokenGenerator)
	assert.Equal(t, emails, svc.emails)
	assert.Equal(t, "http://localhost/verify", svc.verificationURL)
}

func TestAuthService_Register(t *testing.T) {
	validRequest := func() *models.RegisterRequest {
		return &models.RegisterRequest{
			FirstName:    "Ada",
			LastName:     "Lovelace",
			Email:        " Ada@Example.com ",
			Password:     "analytical1",
			PasswordConf: "analytical1",
		}
	}

	tests := []struct {
		name          string
		modify        func(*models.RegisterRequest)
		userRepo      *mockUserRepository
		emails        *mockEmailDispatcher
		expectedKind  apperrors.Kind
		expectedField string
		expectedError bool
	}{
		{
			name:     "success",
			modify:   func(r *models.RegisterRequest) {},
			userRepo: &mockUserRepository{},
			emails:   &mockEmailDispatcher{},
		},
		{
			name:     "email queue failure does not fail registration",
			modify:   func(r *models.RegisterRequest) {},
			userRepo: &mockUserRepository{},
			emails:   &mockEmailDispatcher{err: errors.New("redis down")},
		},
		{
			name:          "invalid email format",
			modify:        func(r *models.RegisterRequest) { r.Email = "not-an-email" },
			userRepo:      &mockUserRepository{},
			emails:        &mockEmailDispatcher{},
			expectedError: true,
			expectedKind:  apperrors.KindValidation,
			expectedField: "email",
		},
		{
			name:          "missing first name",
			modify:        func(r *models.RegisterRequest) { r.FirstName = "  " },
			userRepo:      &mockUserRepository{},
			emails:        &mockEmailDispatcher{},
			expectedError: true,
			expectedKind:  apperrors.KindValidation,
			expectedField: "firstName",
		},
		{
			name:          "password too short",
			modify:        func(r *models.RegisterRequest) { r.Password, r.PasswordConf = "abc123", "abc123" },
			userRepo:      &mockUserRepository{},
			emails:        &mockEmailDispatcher{},
			expectedError: true,
			expectedKind:  apperrors.KindValidation,
			expectedField: "password",
		},
		{
			name:          "password without digit",
			modify:        func(r *models.RegisterRequest) { r.Password, r.PasswordConf = "abcdefghij", "abcdefghij" },
			userRepo:      &mockUserRepository{},
			emails:        &mockEmailDispatcher{},
			expectedError: true,
			expectedKind:  apperrors.KindValidation,
			expectedField: "password",
		},
		{
			name:          "password confirmation mismatch",
			modify:        func(r *models.RegisterRequest) { r.PasswordConf = "analytical2" },
			userRepo:      &mockUserRepository{},
			emails:        &mockEmailDispatcher{},
			expectedError: true,
			expectedKind:  apperrors.KindValidation,
			expectedField: "passwordConf",
		},
		{
			name:          "email already registered",
			modify:        func(r *models.RegisterRequest) {},
			userRepo:      &mockUserRepository{existsByEmailResult: true},
			emails:        &mockEmailDispatcher{},
			expectedError: true,
			expectedKind:  apperrors.KindValidation,
			expectedField: "email",
		},
		{
			name:          "repository error",
			modify:        func(r *models.RegisterRequest) {},
			userRepo:      &mockUserRepository{createErr: errors.New("database error")},
			emails:        &mockEmailDispatcher{},
			expectedError: true,
			expectedKind:  apperrors.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAuthService(tt.userRepo, &mockUserTokenRepository{}, tt.emails)
			req := validRequest()
			tt.modify(req)

			user, err := svc.Register(context.Background(), req)

			if tt.expectedError {
				require.Error(t, err)
				assert.Nil(t, user)
				assert.Equal(t, tt.expectedKind, apperrors.KindOf(err))
				assert.Equal(t, tt.expectedField, apperrors.FieldOf(err))
				assert.Empty(t, tt.emails.sent)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "ada@example.com", user.Email)
			assert.Equal(t, "Ada Lovelace", user.Username)
			assert.Equal(t, models.RoleStudent, user.Role)
			assert.False(t, user.IsActive)
			assert.Equal(t, models.DefaultPhoto, user.Photo)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("analytical1")))

			if tt.emails.err == nil {
				require.Len(t, tt.emails.sent, 1)
				sent := tt.emails.sent[0]
				assert.Equal(t, tasks.TemplateVerifyEmail, sent.Template)
				assert.Equal(t, "ada@example.com", sent.To)
				require.Len(t, sent.Vars, 2)
				assert.Equal(t, "Ada Lovelace", sent.Vars[0])
				assert.True(t, strings.HasPrefix(sent.Vars[1], "http://localhost/verify?token="))
			}
		})
	}
}

func TestAuthService_VerifyEmail(t *testing.T) {
	tokenGen := newTestTokenGenerator()
	validToken, err := tokenGen.GenerateVerificationToken(1)
	require.NoError(t, err)

	expiredGen := service.NewTokenGenerator("test-secret", time.Hour, time.Hour, -time.Hour)
	expiredToken, err := expiredGen.GenerateVerificationToken(1)
	require.NoError(t, err)

	accessToken, _, err := tokenGen.GenerateTokens(1, 1)
	require.NoError(t, err)

	tests := []struct {
		name            string
		token           string
		userRepo        *mockUserRepository
		expectedKind    apperrors.Kind
		expectedMessage string
		expectedError   bool
		expectActivate  bool
	}{
		{
			name:           "activates pending user",
			token:          validToken,
			userRepo:       &mockUserRepository{user: &models.User{ID: 1, IsActive: false}},
			expectActivate: true,
		},
		{
			name:     "active user is a no-op",
			token:    validToken,
			userRepo: &mockUserRepository{user: &models.User{ID: 1, IsActive: true}},
		},
		{
			name:            "expired token",
			token:           expiredToken,
			userRepo:        &mockUserRepository{},
			expectedError:   true,
			expectedKind:    apperrors.KindValidation,
			expectedMessage: "activation link expired",
		},
		{
			name:            "garbage token",
			token:           "garbage",
			userRepo:        &mockUserRepository{},
			expectedError:   true,
			expectedKind:    apperrors.KindValidation,
			expectedMessage: "invalid token",
		},
		{
			name:            "access token is not a verification token",
			token:           accessToken,
			userRepo:        &mockUserRepository{},
			expectedError:   true,
			expectedKind:    apperrors.KindValidation,
			expectedMessage: "invalid token",
		},
		{
			name:          "unknown user",
			token:         validToken,
			userRepo:      &mockUserRepository{err: apperrors.NotFound("user not found")},
			expectedError: true,
			expectedKind:  apperrors.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAuthService(tt.userRepo, &mockUserTokenRepository{}, &mockEmailDispatcher{})

			err := svc.VerifyEmail(context.Background(), tt.token)

			if tt.expectedError {
				require.Error(t, err)
				assert.Equal(t, tt.expectedKind, apperrors.KindOf(err))
				if tt.expectedMessage != "" {
					assert.Equal(t, tt.expectedMessage, apperrors.MessageOf(err))
					assert.Equal(t, "token", apperrors.FieldOf(err))
				}
				return
			}

			require.NoError(t, err)
			if tt.expectActivate {
				assert.Equal(t, 1, tt.userRepo.activatedID)
			} else {
				assert.Zero(t, tt.userRepo.activatedID)
			}
		})
	}
}

func TestAuthService_VerifyEmail_Twice(t *testing.T) {
	tokenGen := newTestTokenGenerator()
	token, err := tokenGen.GenerateVerificationToken(1)
	require.NoError(t, err)

	user := &models.User{ID: 1}
	userRepo := &mockUserRepository{user: user}
	svc := newTestAuthService(userRepo, &mockUserTokenRepository{}, &mockEmailDispatcher{})

	require.NoError(t, svc.VerifyEmail(context.Background(), token))
	user.IsActive = true
	userRepo.activatedID = 0
	require.NoError(t, svc.VerifyEmail(context.Background(), token))
	assert.Zero(t, userRepo.activatedID)
}

func TestAuthService_CheckStatus(t *testing.T) {
	tests := []struct {
		name           string
		userRepo       *mockUserRepository
		expectedStatus models.VerificationStatus
		expectedKind   apperrors.Kind
		expectedError  bool
	}{
		{
			name:           "verified",
			userRepo:       &mockUserRepository{user: &models.User{Email: "ada@example.com", IsActive: true}},
			expectedStatus: models.StatusVerified,
		},
		{
			name:           "pending",
			userRepo:       &mockUserRepository{user: &models.User{Email: "ada@example.com"}},
			expectedStatus: models.StatusPending,
		},
		{
			name:          "unknown email",
			userRepo:      &mockUserRepository{err: apperrors.NotFound("user not found")},
			expectedError: true,
			expectedKind:  apperrors.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAuthService(tt.userRepo, &mockUserTokenRepository{}, &mockEmailDispatcher{})

			status, err := svc.CheckStatus(context.Background(), "ada@example.com")

			if tt.expectedError {
				assert.Equal(t, tt.expectedKind, apperrors.KindOf(err))
				assert.Nil(t, status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, status.Status)
			assert.Equal(t, "ada@example.com", status.Email)
		})
	}
}

func TestAuthService_ResendVerification(t *testing.T) {
	tests := []struct {
		name          string
		userRepo      *mockUserRepository
		emails        *mockEmailDispatcher
		expectedKind  apperrors.Kind
		expectedError bool
	}{
		{
			name:     "queues a new email",
			userRepo: &mockUserRepository{user: &models.User{ID: 3, Email: "ada@example.com", Username: "Ada Lovelace"}},
			emails:   &mockEmailDispatcher{},
		},
		{
			name:          "already verified",
			userRepo:      &mockUserRepository{user: &models.User{ID: 3, Email: "ada@example.com", IsActive: true}},
			emails:        &mockEmailDispatcher{},
			expectedError: true,
			expectedKind:  apperrors.KindConflict,
		},
		{
			name:          "unknown email",
			userRepo:      &mockUserRepository{err: apperrors.NotFound("user not found")},
			emails:        &mockEmailDispatcher{},
			expectedError: true,
			expectedKind:  apperrors.KindNotFound,
		},
		{
			name:          "queue failure",
			userRepo:      &mockUserRepository{user: &models.User{ID: 3, Email: "ada@example.com"}},
			emails:        &mockEmailDispatcher{err: errors.New("redis down")},
			expectedError: true,
			expectedKind:  apperrors.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAuthService(tt.userRepo, &mockUserTokenRepository{}, tt.emails)

			err := svc.ResendVerification(context.Background(), "ada@example.com")

			if tt.expectedError {
				assert.Equal(t, tt.expectedKind, apperrors.KindOf(err))
				return
			}
			require.NoError(t, err)
			require.Len(t, tt.emails.sent, 1)
			assert.Equal(t, "ada@example.com", tt.emails.sent[0].To)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hash := hashPassword(t, "analytical1")

	tests := []struct {
		name          string
		req           *models.LoginRequest
		userRepo      *mockUserRepository
		tokenRepo     *mockUserTokenRepository
		expectedKind  apperrors.Kind
		expectedError bool
	}{
		{
			name:      "success",
			req:       &models.LoginRequest{Email: "ADA@example.com", Password: "analytical1"},
			userRepo:  &mockUserRepository{user: &models.User{ID: 1, Email: "ada@example.com", PasswordHash: hash, Role: models.RoleTeacher, IsActive: true}},
			tokenRepo: &mockUserTokenRepository{},
		},
		{
			name:          "wrong password",
			req:           &models.LoginRequest{Email: "ada@example.com", Password: "wrong-pass1"},
			userRepo:      &mockUserRepository{user: &models.User{ID: 1, PasswordHash: hash, IsActive: true}},
			tokenRepo:     &mockUserTokenRepository{},
			expectedError: true,
			expectedKind:  apperrors.KindUnauthenticated,
		},
		{
			name:          "inactive account",
			req:           &models.LoginRequest{Email: "ada@example.com", Password: "analytical1"},
			userRepo:      &mockUserRepository{user: &models.User{ID: 1, PasswordHash: hash, IsActive: false}},
			tokenRepo:     &mockUserTokenRepository{},
			expectedError: true,
			expectedKind:  apperrors.KindUnauthenticated,
		},
		{
			name:          "unknown email",
			req:           &models.LoginRequest{Email: "ada@example.com", Password: "analytical1"},
			userRepo:      &mockUserRepository{err: apperrors.NotFound("user not found")},
			tokenRepo:     &mockUserTokenRepository{},
			expectedError: true,
			expectedKind:  apperrors.KindUnauthenticated,
		},
		{
			name:          "empty password",
			req:           &models.LoginRequest{Email: "ada@example.com"},
			userRepo:      &mockUserRepository{},
			tokenRepo:     &mockUserTokenRepository{},
			expectedError: true,
			expectedKind:  apperrors.KindValidation,
		},
		{
			name:          "token save failure",
			req:           &models.LoginRequest{Email: "ada@example.com", Password: "analytical1"},
			userRepo:      &mockUserRepository{user: &models.User{ID: 1, PasswordHash: hash, IsActive: true}},
			tokenRepo:     &mockUserTokenRepository{err: errors.New("database error")},
			expectedError: true,
			expectedKind:  apperrors.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAuthService(tt.userRepo, tt.tokenRepo, &mockEmailDispatcher{})

			resp, err := svc.Login(context.Background(), tt.req)

			if tt.expectedError {
				assert.Nil(t, resp)
				assert.Equal(t, tt.expectedKind, apperrors.KindOf(err))
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, resp.AccessToken)
			assert.NotEmpty(t, resp.RefreshToken)
			assert.Equal(t, []string{resp.RefreshToken}, tt.tokenRepo.created)
			assert.Equal(t, 1, resp.User.ID)

			userID, role, err := svc.tokenGenerator.ValidateAccessToken(resp.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, 1, userID)
			assert.Equal(t, int(models.RoleTeacher), role)
		})
	}
}

func TestAuthService_Refresh(t *testing.T) {
	tokenGen := newTestTokenGenerator()
	_, refreshToken, err := tokenGen.GenerateTokens(1, 1)
	require.NoError(t, err)

	tests := []struct {
		name          string
		token         string
		userRepo      *mockUserRepository
		tokenRepo     *mockUserTokenRepository
		expectedKind  apperrors.Kind
		expectedError bool
		expectDelete  bool
	}{
		{
			name:      "success",
			token:     refreshToken,
			userRepo:  &mockUserRepository{user: &models.User{ID: 1, Role: models.RoleStudent}},
			tokenRepo: &mockUserTokenRepository{token: &models.UserToken{UserID: 1, Token: refreshToken}},
		},
		{
			name:          "invalid token is deleted",
			token:         "garbage",
			userRepo:      &mockUserRepository{},
			tokenRepo:     &mockUserTokenRepository{},
			expectedError: true,
			expectedKind:  apperrors.KindUnauthenticated,
			expectDelete:  true,
		},
		{
			name:          "unknown token",
			token:         refreshToken,
			userRepo:      &mockUserRepository{},
			tokenRepo:     &mockUserTokenRepository{err: apperrors.NotFound("token not found")},
			expectedError: true,
			expectedKind:  apperrors.KindUnauthenticated,
		},
		{
			name:          "empty token",
			token:         " ",
			userRepo:      &mockUserRepository{},
			tokenRepo:     &mockUserTokenRepository{},
			expectedError: true,
			expectedKind:  apperrors.KindUnauthenticated,
		},
		{
			name:          "rotation lost a race",
			token:         refreshToken,
			userRepo:      &mockUserRepository{user: &models.User{ID: 1}},
			tokenRepo:     &mockUserTokenRepository{token: &models.UserToken{UserID: 1}, updateTokenErr: apperrors.NotFound("token not found")},
			expectedError: true,
			expectedKind:  apperrors.KindUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAuthService(tt.userRepo, tt.tokenRepo, &mockEmailDispatcher{})

			access, refresh, err := svc.Refresh(context.Background(), tt.token)

			if tt.expectedError {
				assert.Equal(t, tt.expectedKind, apperrors.KindOf(err))
				assert.Empty(t, access)
				assert.Empty(t, refresh)
				if tt.expectDelete {
					assert.Equal(t, []string{tt.token}, tt.tokenRepo.deleted)
				}
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, access)
			assert.NotEqual(t, tt.token, refresh)
		})
	}
}

func TestVerificationLink(t *testing.T) {
	assert.Equal(t, "http://x/verify?token=a.b", verificationLink("http://x/verify", "a.b"))
	assert.Equal(t, "http://x/verify?lang=en&token=a.b", verificationLink("http://x/verify?lang=en", "a.b"))
}
