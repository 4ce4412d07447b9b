// Package auth issues and validates the JWT access tokens that
// identify learners on API requests.
package auth

import (
	"context"
	"time"
)

// Claims holds the validated contents of an access token.
type Claims struct {
	LearnerID int64
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

// JWTService signs and validates learner access tokens.
type JWTService interface {
	// GenerateToken creates a signed access token for the learner.
	GenerateToken(ctx context.Context, learnerID int64) (string, error)

	// ValidateToken parses and verifies a token, returning its claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid, or ErrInvalidToken
	// on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}
