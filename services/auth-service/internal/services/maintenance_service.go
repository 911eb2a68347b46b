package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpiredTokenRepository deletes refresh tokens past their lifetime
type ExpiredTokenRepository interface {
	// DeleteExpiredTokens deletes tokens created at or before "expiryTime" and returns how many were removed
	DeleteExpiredTokens(ctx context.Context, expiryTime time.Time) (int, error)
}

// InactiveUserRepository deletes accounts that were never verified
type InactiveUserRepository interface {
	// DeleteInactiveBefore deletes inactive users registered at or before "cutoff" and returns how many were removed
	DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// maintenanceService implements MaintenanceService
type maintenanceService struct {
	tokenRepo         ExpiredTokenRepository
	userRepo          InactiveUserRepository
	refreshExpiry     time.Duration
	verificationGrace time.Duration
	logger            *zap.Logger
	now               func() time.Time
}

// NewMaintenanceService creates a new maintenance service.
// Tokens older than refreshExpiry and unverified users older than verificationGrace are removed.
func NewMaintenanceService(
	tokenRepo ExpiredTokenRepository,
	userRepo InactiveUserRepository,
	refreshExpiry time.Duration,
	verificationGrace time.Duration,
	logger *zap.Logger,
) *maintenanceService {
	return &maintenanceService{
		tokenRepo:         tokenRepo,
		userRepo:          userRepo,
		refreshExpiry:     refreshExpiry,
		verificationGrace: verificationGrace,
		logger:            logger,
		now:               time.Now,
	}
}

// CleanExpiredTokens deletes refresh tokens older than the refresh token lifetime
func (s *maintenanceService) CleanExpiredTokens(ctx context.Context) (int, error) {
	count, err := s.tokenRepo.DeleteExpiredTokens(ctx, s.now().Add(-s.refreshExpiry))
	if err != nil {
		return 0, err
	}
	s.logger.Info("expired refresh tokens deleted", zap.Int("count", count))
	return count, nil
}

// PurgeUnverifiedUsers deletes inactive accounts whose verification link has expired
func (s *maintenanceService) PurgeUnverifiedUsers(ctx context.Context) (int, error) {
	count, err := s.userRepo.DeleteInactiveBefore(ctx, s.now().Add(-s.verificationGrace))
	if err != nil {
		return 0, err
	}
	s.logger.Info("unverified users deleted", zap.Int("count", count))
	return count, nil
}
