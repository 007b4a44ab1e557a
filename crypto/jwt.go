package crypto

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// MinKeyLength is the minimum required length for JWT signing keys.
	// 32 bytes (256 bits) is the minimum recommended length for HMAC-SHA256 keys.
	MinKeyLength = 32
)

var (
	// ErrJwtTokenExpired is returned when the token has expired
	ErrJwtTokenExpired = errors.New("token expired")
	// ErrJwtInvalidToken is returned when the token is invalid
	ErrJwtInvalidToken = errors.New("invalid token")
	// ErrJwtInvalidSigningMethod is returned when the signing method is not HS256
	// or the signature does not verify
	ErrJwtInvalidSigningMethod = errors.New("unexpected signing method")
	// ErrJwtInvalidSecretLength is returned for invalid secret lengths
	ErrJwtInvalidSecretLength = errors.New("invalid secret length")
	// ErrInvalidClaimFormat is returned when a required claim is missing or malformed
	ErrInvalidClaimFormat = errors.New("invalid claim format")
)

// NewJwt signs claims with HS256.
func NewJwt(claims jwt.Claims, signingKey []byte) (string, error) {
	if len(signingKey) < MinKeyLength {
		return "", ErrJwtInvalidSecretLength
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ParseJwt verifies the token signature and decodes it into claims.
// Only HS256 is accepted and expiration is required. Callers add issuer,
// audience and leeway checks through opts.
//
// Errors are collapsed to ErrJwtTokenExpired, ErrJwtInvalidSigningMethod or
// ErrJwtInvalidToken (wrapping the parser error).
func ParseJwt(token string, verificationKey []byte, claims jwt.Claims, opts ...jwt.ParserOption) error {
	opts = append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}, opts...)
	parser := jwt.NewParser(opts...)

	parsedToken, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return verificationKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrJwtTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenUnverifiable) {
			return ErrJwtInvalidSigningMethod
		}
		return fmt.Errorf("%w: %w", ErrJwtInvalidToken, err)
	}

	if !parsedToken.Valid {
		return ErrJwtInvalidToken
	}

	return nil
}
