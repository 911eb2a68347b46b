package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	tokenTypeVerify  = "verify"
)

// ErrTokenExpired is returned when a token was valid but its expiry has passed
var ErrTokenExpired = errors.New("token expired")

// TokenGenerator handles JWT token generation and validation
type TokenGenerator struct {
	secret                  string
	accessTokenExpiry       time.Duration
	refreshTokenExpiry      time.Duration
	verificationTokenExpiry time.Duration
}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator(secret string, accessExpiry, refreshExpiry, verificationExpiry time.Duration) *TokenGenerator {
	return &TokenGenerator{
		secret:                  secret,
		accessTokenExpiry:       accessExpiry,
		refreshTokenExpiry:      refreshExpiry,
		verificationTokenExpiry: verificationExpiry,
	}
}

// RefreshTokenExpiry returns how long refresh tokens stay valid
func (tg *TokenGenerator) RefreshTokenExpiry() time.Duration {
	return tg.refreshTokenExpiry
}

// VerificationTokenExpiry returns how long verification links stay valid
func (tg *TokenGenerator) VerificationTokenExpiry() time.Duration {
	return tg.verificationTokenExpiry
}

// GenerateTokens generates both access and refresh tokens for a user
// Access token contains user_id and role in payload, refresh token does not
func (tg *TokenGenerator) GenerateTokens(userID int, role int) (string, string, error) {
	now := time.Now()

	accessToken, err := tg.sign(jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     now.Add(tg.accessTokenExpiry).Unix(),
		"iat":     now.Unix(),
		"type":    tokenTypeAccess,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access token: %w", err)
	}

	// jti keeps refresh tokens unique even when issued within the same second
	refreshToken, err := tg.sign(jwt.MapClaims{
		"jti":  uuid.New().String(),
		"exp":  now.Add(tg.refreshTokenExpiry).Unix(),
		"iat":  now.Unix(),
		"type": tokenTypeRefresh,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

// GenerateVerificationToken creates an email verification token bound to the user id
func (tg *TokenGenerator) GenerateVerificationToken(userID int) (string, error) {
	now := time.Now()
	token, err := tg.sign(jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(tg.verificationTokenExpiry).Unix(),
		"iat":     now.Unix(),
		"type":    tokenTypeVerify,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate verification token: %w", err)
	}
	return token, nil
}

// ValidateAccessToken validates an access token and returns the userID and role
func (tg *TokenGenerator) ValidateAccessToken(tokenString string) (int, int, error) {
	claims, err := tg.parse(tokenString, tokenTypeAccess)
	if err != nil {
		return 0, 0, err
	}

	userID, err := intClaim(claims, "user_id")
	if err != nil {
		return 0, 0, err
	}

	role, err := intClaim(claims, "role")
	if err != nil {
		return 0, 0, err
	}

	return userID, role, nil
}

// ValidateRefreshToken validates a refresh token
func (tg *TokenGenerator) ValidateRefreshToken(tokenString string) error {
	_, err := tg.parse(tokenString, tokenTypeRefresh)
	return err
}

// ValidateVerificationToken validates a verification token and returns the user id it is bound to.
// An expired token yields an error wrapping ErrTokenExpired.
func (tg *TokenGenerator) ValidateVerificationToken(tokenString string) (int, error) {
	claims, err := tg.parse(tokenString, tokenTypeVerify)
	if err != nil {
		return 0, err
	}
	return intClaim(claims, "user_id")
}

func (tg *TokenGenerator) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tg.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (tg *TokenGenerator) parse(tokenString, expectedType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tg.secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("failed to parse token: %w", ErrTokenExpired)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != expectedType {
		return nil, fmt.Errorf("unexpected token type, want %s", expectedType)
	}

	return claims, nil
}

// intClaim reads a numeric claim (JWT claims decode numbers as float64)
func intClaim(claims jwt.MapClaims, name string) (int, error) {
	value, ok := claims[name].(float64)
	if !ok {
		return 0, fmt.Errorf("%s not found in token", name)
	}
	return int(value), nil
}
