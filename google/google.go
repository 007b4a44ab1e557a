// Package google verifies Google identity tokens and returns the identity
// they assert.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const (
	DefaultCertsURL    = "https://www.googleapis.com/oauth2/v3/certs"
	DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	DefaultTimeout     = 10 * time.Second
)

// Google signs ID tokens with either form of its issuer.
var issuers = []string{"accounts.google.com", "https://accounts.google.com"}

var (
	// ErrInvalidToken means the token was rejected: bad signature, wrong
	// audience or issuer, expired, or refused by the userinfo endpoint.
	ErrInvalidToken = errors.New("google: invalid token")
	// ErrUnavailable means Google could not be reached in time or failed.
	// Retrying later may succeed.
	ErrUnavailable = errors.New("google: service unavailable")
)

// Identity is the normalized claim set of a Google account.
type Identity struct {
	ExternalID    string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

type Config struct {
	ClientID    string
	CertsURL    string
	UserInfoURL string
	Timeout     time.Duration
	// HTTPClient is used for the key set and the userinfo calls,
	// http.DefaultClient when nil.
	HTTPClient *http.Client
}

type Verifier struct {
	verifier    *oidc.IDTokenVerifier
	userInfoURL string
	timeout     time.Duration
	httpClient  *http.Client
}

// NewVerifier builds a Verifier fetching signing keys from cfg.CertsURL.
// Keys are fetched lazily and cached by go-oidc.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("google: client id is required")
	}
	if cfg.CertsURL == "" {
		cfg.CertsURL = DefaultCertsURL
	}

	v := newVerifier(cfg)
	ctx := oidc.ClientContext(context.Background(), v.httpClient)
	v.verifier = oidc.NewVerifier(issuers[1], oidc.NewRemoteKeySet(ctx, cfg.CertsURL), oidcConfig(cfg.ClientID))
	return v, nil
}

// NewVerifierWithKeySet builds a Verifier over a fixed key set.
func NewVerifierWithKeySet(cfg Config, keySet oidc.KeySet) *Verifier {
	v := newVerifier(cfg)
	v.verifier = oidc.NewVerifier(issuers[1], keySet, oidcConfig(cfg.ClientID))
	return v
}

func newVerifier(cfg Config) *Verifier {
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = DefaultUserInfoURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Verifier{
		userInfoURL: cfg.UserInfoURL,
		timeout:     cfg.Timeout,
		httpClient:  client,
	}
}

// The issuer is checked by hand, go-oidc only accepts a single value.
func oidcConfig(clientID string) *oidc.Config {
	return &oidc.Config{ClientID: clientID, SkipIssuerCheck: true}
}

type claims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified any    `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Google sends email_verified as a boolean in ID tokens and has sent it as
// the string "true" from some endpoints.
func (c claims) identity() *Identity {
	verified := false
	switch v := c.EmailVerified.(type) {
	case bool:
		verified = v
	case string:
		verified = v == "true"
	}
	return &Identity{
		ExternalID:    c.Sub,
		Email:         c.Email,
		Name:          c.Name,
		Picture:       c.Picture,
		EmailVerified: verified,
	}
}

// VerifyIDToken checks signature, audience, issuer and expiry of a Google
// ID token.
func (v *Verifier) VerifyIDToken(ctx context.Context, rawIDToken string) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	ctx = oidc.ClientContext(ctx, v.httpClient)

	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		// go-oidc reports key set download failures only in the message
		if ctx.Err() != nil || strings.Contains(err.Error(), "fetching keys") {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !validIssuer(idToken.Issuer) {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, idToken.Issuer)
	}

	var c claims
	if err := idToken.Claims(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Sub == "" || c.Email == "" {
		return nil, fmt.Errorf("%w: missing subject or email", ErrInvalidToken)
	}
	return c.identity(), nil
}

func validIssuer(iss string) bool {
	for _, want := range issuers {
		if iss == want {
			return true
		}
	}
	return false
}

// VerifyAccessToken resolves an OAuth access token through the userinfo
// endpoint, for clients that only hold an access token.
func (v *Verifier) VerifyAccessToken(ctx context.Context, accessToken string) (*Identity, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrInvalidToken)
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, v.httpClient)

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("google: building userinfo request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: userinfo status %d", ErrUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: userinfo status %d", ErrInvalidToken, resp.StatusCode)
	}

	var c claims
	if err := json.NewDecoder(resp.Body).Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: decoding userinfo: %v", ErrUnavailable, err)
	}
	if c.Sub == "" || c.Email == "" {
		return nil, fmt.Errorf("%w: missing subject or email", ErrInvalidToken)
	}
	return c.identity(), nil
}
