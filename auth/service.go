// Package auth drives the account lifecycle: email signup with one-time
// codes, google sign in, and the issue and rotation of session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caasmo/notespieces/apperr"
	"github.com/caasmo/notespieces/config"
	"github.com/caasmo/notespieces/crypto"
	"github.com/caasmo/notespieces/db"
	"github.com/caasmo/notespieces/google"
	"github.com/caasmo/notespieces/keylock"
	"github.com/caasmo/notespieces/mail"
	"github.com/caasmo/notespieces/otp"
)

// GoogleVerifier turns a google credential into a verified identity.
// *google.Verifier implements it.
type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, rawIDToken string) (*google.Identity, error)
	VerifyAccessToken(ctx context.Context, accessToken string) (*google.Identity, error)
}

// GoogleCredential is what the client obtained from google. One of the two
// fields is set; the ID token wins when both are.
type GoogleCredential struct {
	IDToken     string
	AccessToken string
}

type SignupInput struct {
	Email       string
	Name        string
	DateOfBirth string
	Password    string
}

// CheckResult describes an email without revealing anything beyond the
// sign in method it needs.
type CheckResult struct {
	Exists          bool
	AuthProvider    db.AuthProvider
	IsEmailVerified bool
}

type Service struct {
	db             db.DbAuth
	tokens         *Tokens
	mailer         mail.Sender
	google         GoogleVerifier
	configProvider *config.Provider
	logger         *slog.Logger
	locks          *keylock.Locks
	now            func() time.Time
}

// NewService wires the orchestrator. google may be nil, then the google
// flows fail with apperr.ErrGoogleNotConfigured.
func NewService(store db.DbAuth, tokens *Tokens, mailer mail.Sender, google GoogleVerifier, configProvider *config.Provider, logger *slog.Logger) *Service {
	return &Service{
		db:             store,
		tokens:         tokens,
		mailer:         mailer,
		google:         google,
		configProvider: configProvider,
		logger:         logger,
		locks:          keylock.New(0),
		now:            time.Now,
	}
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) policy() otp.Policy {
	cfg := s.configProvider.Get().Otp
	return otp.Policy{Length: cfg.Length, TTL: cfg.TTL.Duration, Cooldown: cfg.Cooldown.Duration}
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (*db.User, error) {
	email := NormalizeEmail(in.Email)
	defer s.locks.Lock(email)()

	existing, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("signup: failed to look up user: %w", err)
	}
	if existing != nil {
		switch {
		case existing.AuthProvider == db.AuthProviderGoogle:
			return nil, apperr.ErrSignupUseGoogleLogin
		case existing.IsEmailVerified:
			return nil, apperr.ErrUserAlreadyVerified
		default:
			return nil, apperr.ErrUserExistsUnverified
		}
	}

	var hash string
	if in.Password != "" {
		if err := crypto.ValidatePasswordComplexity(in.Password); err != nil {
			return nil, apperr.ErrValidation.WithDetails(map[string]string{"password": err.Error()})
		}
		hash, err = crypto.GenerateHash(in.Password)
		if err != nil {
			return nil, fmt.Errorf("signup: failed to hash password: %w", err)
		}
	}

	policy := s.policy()
	state, code, err := policy.Generate(s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	user, err := s.db.CreateUser(ctx, db.User{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		DateOfBirth:  in.DateOfBirth,
		AuthProvider: db.AuthProviderEmail,
		Password:     hash,
		Otp:          state,
	})
	if err != nil {
		if errors.Is(err, db.ErrConstraintUnique) {
			return nil, apperr.ErrUserExistsUnverified
		}
		return nil, fmt.Errorf("signup: failed to create user: %w", err)
	}

	if err := s.mailer.SendOtp(ctx, user.Email, user.Name, code, mail.PurposeSignup, policy.TTL); err != nil {
		// the pending record goes with the undelivered code
		if delErr := s.db.DeleteUser(context.WithoutCancel(ctx), user.ID); delErr != nil {
			s.logger.Error("signup: failed to roll back user", "user_id", user.ID, "error", delErr)
		}
		return nil, apperr.ErrEmailSendFailed.Wrap(err)
	}

	return user, nil
}

// consumeOtp verifies code against the stored state and persists the
// outcome. On success the code is marked used, but the caller still has
// to persist the user.
func (s *Service) consumeOtp(ctx context.Context, user *db.User, code string) error {
	state, err := otp.Verify(user.Otp, code, s.now().UTC())
	if err != nil {
		if !errors.Is(err, otp.ErrMissing) {
			user.Otp = state
			if uErr := s.db.UpdateUser(ctx, *user); uErr != nil {
				return fmt.Errorf("failed to record otp attempt: %w", uErr)
			}
		}
		switch {
		case errors.Is(err, otp.ErrExpired):
			return apperr.ErrOtpExpired
		case errors.Is(err, otp.ErrUsed):
			return apperr.ErrOtpAlreadyUsed
		default:
			return apperr.ErrInvalidOtp
		}
	}
	user.Otp = otp.MarkUsed(state)
	return nil
}

func (s *Service) VerifySignupOtp(ctx context.Context, email, code string) (*db.User, Pair, error) {
	email = NormalizeEmail(email)
	defer s.locks.Lock(email)()

	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, Pair{}, fmt.Errorf("verify signup: failed to look up user: %w", err)
	}
	if user == nil {
		return nil, Pair{}, apperr.ErrUserNotFound
	}
	if user.IsEmailVerified {
		if user.Otp.Used {
			return nil, Pair{}, apperr.ErrOtpAlreadyUsed
		}
		return nil, Pair{}, apperr.ErrEmailAlreadyVerified
	}

	if err := s.consumeOtp(ctx, user, code); err != nil {
		return nil, Pair{}, err
	}

	user.IsEmailVerified = true
	user.LastLoginAt = s.now().UTC()
	if err := s.db.UpdateUser(ctx, *user); err != nil {
		return nil, Pair{}, fmt.Errorf("verify signup: failed to update user: %w", err)
	}

	pair, err := s.tokens.IssuePair(*user)
	if err != nil {
		return nil, Pair{}, err
	}

	s.sendWelcome(ctx, user)
	return user, pair, nil
}

func (s *Service) sendWelcome(ctx context.Context, user *db.User) {
	if err := s.mailer.SendWelcome(ctx, user.Email, user.Name); err != nil {
		s.logger.Warn("auth: welcome mail failed", "user_id", user.ID, "error", err)
	}
}

// emailUser loads the verified email account a sign in code is meant for.
func (s *Service) emailUser(ctx context.Context, email string) (*db.User, error) {
	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, apperr.ErrUserNotFound
	}
	if user.AuthProvider == db.AuthProviderGoogle {
		return nil, apperr.ErrUseGoogleLogin
	}
	if !user.IsEmailVerified {
		return nil, apperr.ErrEmailNotVerified
	}
	return user, nil
}

// Signin mails a sign in code to a verified email account.
func (s *Service) Signin(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	defer s.locks.Lock(email)()

	user, err := s.emailUser(ctx, email)
	if err != nil {
		return err
	}
	return s.issueOtp(ctx, user, mail.PurposeSignin)
}

// issueOtp replaces the code of user and mails it, unless the previous
// one is still inside the cooldown.
func (s *Service) issueOtp(ctx context.Context, user *db.User, purpose mail.Purpose) error {
	policy := s.policy()
	now := s.now().UTC()

	if wait := policy.CooldownRemaining(user.Otp, now); wait > 0 {
		return apperr.ErrOtpRateLimited.RetryAfter(wait)
	}

	state, code, err := policy.Generate(now)
	if err != nil {
		return err
	}
	previous := user.Otp
	user.Otp = state
	if err := s.db.UpdateUser(ctx, *user); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	if err := s.mailer.SendOtp(ctx, user.Email, user.Name, code, purpose, policy.TTL); err != nil {
		// an undelivered code must not start the cooldown
		user.Otp = previous
		if restoreErr := s.db.UpdateUser(context.WithoutCancel(ctx), *user); restoreErr != nil {
			s.logger.Error("failed to restore otp after mail failure", "user_id", user.ID, "error", restoreErr)
		}
		return apperr.ErrEmailSendFailed.Wrap(err)
	}
	return nil
}

func (s *Service) VerifySigninOtp(ctx context.Context, email, code string) (*db.User, Pair, error) {
	email = NormalizeEmail(email)
	defer s.locks.Lock(email)()

	user, err := s.emailUser(ctx, email)
	if err != nil {
		return nil, Pair{}, err
	}
	if err := s.consumeOtp(ctx, user, code); err != nil {
		return nil, Pair{}, err
	}

	user.LastLoginAt = s.now().UTC()
	if err := s.db.UpdateUser(ctx, *user); err != nil {
		return nil, Pair{}, fmt.Errorf("verify signin: failed to update user: %w", err)
	}

	pair, err := s.tokens.IssuePair(*user)
	if err != nil {
		return nil, Pair{}, err
	}
	return user, pair, nil
}

// ResendOtp mails a new code. Pending accounts get a signup code, verified
// ones a sign in code.
func (s *Service) ResendOtp(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	defer s.locks.Lock(email)()

	user, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("resend otp: failed to look up user: %w", err)
	}
	if user == nil {
		return apperr.ErrUserNotFound
	}
	if user.AuthProvider == db.AuthProviderGoogle {
		return apperr.ErrNoOtpNeeded
	}

	purpose := mail.PurposeSignup
	if user.IsEmailVerified {
		purpose = mail.PurposeSignin
	}
	return s.issueOtp(ctx, user, purpose)
}

func (s *Service) verifyGoogle(ctx context.Context, cred GoogleCredential) (*google.Identity, error) {
	if s.google == nil {
		return nil, apperr.ErrGoogleNotConfigured
	}

	var (
		identity *google.Identity
		err      error
	)
	switch {
	case cred.IDToken != "":
		identity, err = s.google.VerifyIDToken(ctx, cred.IDToken)
	case cred.AccessToken != "":
		identity, err = s.google.VerifyAccessToken(ctx, cred.AccessToken)
	default:
		return nil, apperr.ErrInvalidGoogleToken
	}
	if err != nil {
		if errors.Is(err, google.ErrUnavailable) {
			return nil, apperr.ErrGoogleUnavailable.Wrap(err)
		}
		return nil, apperr.ErrInvalidGoogleToken.Wrap(err)
	}
	if !identity.EmailVerified {
		return nil, apperr.ErrGoogleEmailUnverified
	}
	identity.Email = NormalizeEmail(identity.Email)
	return identity, nil
}

func (s *Service) GoogleSignup(ctx context.Context, cred GoogleCredential) (*db.User, Pair, error) {
	identity, err := s.verifyGoogle(ctx, cred)
	if err != nil {
		return nil, Pair{}, err
	}
	defer s.locks.Lock(identity.Email)()

	existing, err := s.db.GetUserByEmail(ctx, identity.Email)
	if err != nil {
		return nil, Pair{}, fmt.Errorf("google signup: failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, Pair{}, apperr.ErrEmailAlreadyRegistered
	}
	existing, err = s.db.GetUserByGoogleId(ctx, identity.ExternalID)
	if err != nil {
		return nil, Pair{}, fmt.Errorf("google signup: failed to look up google id: %w", err)
	}
	if existing != nil {
		return nil, Pair{}, apperr.ErrGoogleAccountExists
	}

	user, err := s.db.CreateUser(ctx, db.User{
		Email:           identity.Email,
		Name:            identity.Name,
		AuthProvider:    db.AuthProviderGoogle,
		GoogleID:        identity.ExternalID,
		Picture:         identity.Picture,
		IsEmailVerified: true,
		LastLoginAt:     s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, db.ErrConstraintUnique) {
			return nil, Pair{}, apperr.ErrEmailAlreadyRegistered
		}
		return nil, Pair{}, fmt.Errorf("google signup: failed to create user: %w", err)
	}

	pair, err := s.tokens.IssuePair(*user)
	if err != nil {
		return nil, Pair{}, err
	}

	s.sendWelcome(ctx, user)
	return user, pair, nil
}

func (s *Service) GoogleLogin(ctx context.Context, cred GoogleCredential) (*db.User, Pair, error) {
	identity, err := s.verifyGoogle(ctx, cred)
	if err != nil {
		return nil, Pair{}, err
	}
	defer s.locks.Lock(identity.Email)()

	user, err := s.db.GetUserByEmail(ctx, identity.Email)
	if err != nil {
		return nil, Pair{}, fmt.Errorf("google login: failed to look up user: %w", err)
	}
	if user == nil {
		return nil, Pair{}, apperr.ErrUserNotFound
	}
	if user.AuthProvider != db.AuthProviderGoogle {
		return nil, Pair{}, apperr.ErrUseEmailLogin
	}
	if user.GoogleID != "" && user.GoogleID != identity.ExternalID {
		return nil, Pair{}, apperr.ErrDifferentGoogleAccount
	}

	user.GoogleID = identity.ExternalID
	if identity.Name != "" {
		user.Name = identity.Name
	}
	if identity.Picture != "" {
		user.Picture = identity.Picture
	}
	user.LastLoginAt = s.now().UTC()
	if err := s.db.UpdateUser(ctx, *user); err != nil {
		if errors.Is(err, db.ErrConstraintUnique) {
			return nil, Pair{}, apperr.ErrGoogleAccountExists
		}
		return nil, Pair{}, fmt.Errorf("google login: failed to update user: %w", err)
	}

	pair, err := s.tokens.IssuePair(*user)
	if err != nil {
		return nil, Pair{}, err
	}
	return user, pair, nil
}

// Refresh rotates a session. A refresh token is rejected once the user's
// token version moved past the one it was issued with.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*db.User, Pair, error) {
	if refreshToken == "" {
		return nil, Pair{}, apperr.ErrInvalidRefreshToken
	}
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, Pair{}, err
	}

	user, err := s.db.GetUserById(ctx, claims.UserID)
	if err != nil {
		return nil, Pair{}, fmt.Errorf("refresh: failed to load user: %w", err)
	}
	if user == nil {
		return nil, Pair{}, apperr.ErrSessionUserNotFound
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, Pair{}, apperr.ErrInvalidRefreshToken
	}
	if !user.IsEmailVerified {
		return nil, Pair{}, apperr.ErrEmailNotVerified
	}

	pair, err := s.tokens.IssuePair(*user)
	if err != nil {
		return nil, Pair{}, err
	}
	return user, pair, nil
}

func (s *Service) CheckUser(ctx context.Context, email string) (CheckResult, error) {
	user, err := s.db.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return CheckResult{}, fmt.Errorf("check user: %w", err)
	}
	if user == nil {
		return CheckResult{}, nil
	}
	return CheckResult{
		Exists:          true,
		AuthProvider:    user.AuthProvider,
		IsEmailVerified: user.IsEmailVerified,
	}, nil
}

// Me loads the user behind an authenticated request.
func (s *Service) Me(ctx context.Context, userID string) (*db.User, error) {
	user, err := s.db.GetUserById(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("me: %w", err)
	}
	if user == nil {
		return nil, apperr.ErrSessionUserNotFound
	}
	return user, nil
}

// Authenticate resolves an access token to its claims.
func (s *Service) Authenticate(token string) (*crypto.AccessClaims, error) {
	if token == "" {
		return nil, apperr.ErrNoToken
	}
	return s.tokens.VerifyAccess(token)
}
