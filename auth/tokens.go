package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/caasmo/notespieces/apperr"
	"github.com/caasmo/notespieces/config"
	"github.com/caasmo/notespieces/crypto"
	"github.com/caasmo/notespieces/db"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Pair is a freshly issued session.
type Pair struct {
	AccessToken    string
	RefreshToken   string
	AccessExpires  time.Time
	RefreshExpires time.Time
}

// Tokens issues and verifies session tokens with the secrets of the
// current configuration.
type Tokens struct {
	configProvider *config.Provider
	now            func() time.Time
}

func NewTokens(configProvider *config.Provider) *Tokens {
	return &Tokens{configProvider: configProvider, now: time.Now}
}

func (t *Tokens) IssuePair(user db.User) (Pair, error) {
	cfg := t.configProvider.Get().Jwt
	now := t.now().UTC()

	accessExp := now.Add(cfg.AccessTokenDuration.Duration)
	access, err := crypto.NewJwt(crypto.AccessClaims{
		UserID:           user.ID,
		Email:            user.Email,
		EmailVerified:    user.IsEmailVerified,
		Type:             crypto.TokenTypeAccess,
		RegisteredClaims: registered(cfg, user.ID, now, accessExp),
	}, []byte(cfg.AccessSecret))
	if err != nil {
		return Pair{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshExp := now.Add(cfg.RefreshTokenDuration.Duration)
	refresh, err := crypto.NewJwt(crypto.RefreshClaims{
		UserID:           user.ID,
		TokenVersion:     user.TokenVersion,
		Type:             crypto.TokenTypeRefresh,
		RegisteredClaims: registered(cfg, user.ID, now, refreshExp),
	}, []byte(cfg.RefreshSecret))
	if err != nil {
		return Pair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return Pair{
		AccessToken:    access,
		RefreshToken:   refresh,
		AccessExpires:  accessExp,
		RefreshExpires: refreshExp,
	}, nil
}

func registered(cfg config.Jwt, subject string, now, exp time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    cfg.Issuer,
		Audience:  jwt.ClaimStrings{cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
}

func (t *Tokens) parserOptions(cfg config.Jwt) []jwt.ParserOption {
	return []jwt.ParserOption{
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithLeeway(cfg.Leeway.Duration),
		jwt.WithTimeFunc(t.now),
	}
}

// VerifyAccess returns the claims of a valid access token, or
// apperr.ErrTokenExpired / apperr.ErrInvalidToken.
func (t *Tokens) VerifyAccess(token string) (*crypto.AccessClaims, error) {
	cfg := t.configProvider.Get().Jwt
	var claims crypto.AccessClaims
	err := crypto.ParseJwt(token, []byte(cfg.AccessSecret), &claims, t.parserOptions(cfg)...)
	if err != nil {
		if errors.Is(err, crypto.ErrJwtTokenExpired) {
			return nil, apperr.ErrTokenExpired.Wrap(err)
		}
		return nil, apperr.ErrInvalidToken.Wrap(err)
	}
	return &claims, nil
}

// VerifyRefresh returns the claims of a valid refresh token. Every failure,
// expiry included, is apperr.ErrInvalidRefreshToken.
func (t *Tokens) VerifyRefresh(token string) (*crypto.RefreshClaims, error) {
	cfg := t.configProvider.Get().Jwt
	var claims crypto.RefreshClaims
	err := crypto.ParseJwt(token, []byte(cfg.RefreshSecret), &claims, t.parserOptions(cfg)...)
	if err != nil {
		return nil, apperr.ErrInvalidRefreshToken.Wrap(err)
	}
	return &claims, nil
}
