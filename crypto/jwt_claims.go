package crypto

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the typ claim. An access token presented as a
// refresh token (or the reverse) fails validation even when both secrets
// were configured identically by mistake.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// IMPORTANT: the parser validates the values of standard claims like exp
// if they are present, but only enforces presence for the ones required by
// its options. The Validate methods below check the presence of everything
// the application reads.

// AccessClaims is the payload of the short lived session token.
type AccessClaims struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Type          string `json:"typ"`
	jwt.RegisteredClaims
}

// Validate implements jwt.ClaimsValidator. It runs after the standard
// claims were validated by the parser.
func (c AccessClaims) Validate() error {
	if c.Type != TokenTypeAccess {
		return fmt.Errorf("%w: typ %q", ErrInvalidClaimFormat, c.Type)
	}
	if c.UserID == "" {
		return fmt.Errorf("%w: missing user_id", ErrInvalidClaimFormat)
	}
	if c.Email == "" {
		return fmt.Errorf("%w: missing email", ErrInvalidClaimFormat)
	}
	if c.IssuedAt == nil {
		return fmt.Errorf("%w: missing iat claim", ErrInvalidClaimFormat)
	}
	return nil
}

// RefreshClaims is the payload of the long lived refresh token.
type RefreshClaims struct {
	UserID       string `json:"user_id"`
	TokenVersion int    `json:"token_version"`
	Type         string `json:"typ"`
	jwt.RegisteredClaims
}

func (c RefreshClaims) Validate() error {
	if c.Type != TokenTypeRefresh {
		return fmt.Errorf("%w: typ %q", ErrInvalidClaimFormat, c.Type)
	}
	if c.UserID == "" {
		return fmt.Errorf("%w: missing user_id", ErrInvalidClaimFormat)
	}
	if c.TokenVersion < 0 {
		return fmt.Errorf("%w: negative token_version", ErrInvalidClaimFormat)
	}
	if c.IssuedAt == nil {
		return fmt.Errorf("%w: missing iat claim", ErrInvalidClaimFormat)
	}
	return nil
}
