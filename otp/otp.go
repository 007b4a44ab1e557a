// Package otp implements one-time email codes as pure functions over an
// explicit State value. Callers persist the returned State.
package otp

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/xlzd/gotp"
)

const (
	DefaultLength   = 6
	DefaultTTL      = 10 * time.Minute
	DefaultCooldown = 30 * time.Second
)

var (
	ErrMissing  = errors.New("otp: no code issued")
	ErrExpired  = errors.New("otp: code expired")
	ErrUsed     = errors.New("otp: code already used")
	ErrMismatch = errors.New("otp: code mismatch")
)

// State is the single in-flight code of a user. The zero value means no
// code was issued.
type State struct {
	Code          string
	ExpiresAt     time.Time
	Used          bool
	Attempts      int
	LastAttemptAt time.Time
}

func (s State) IsZero() bool {
	return s.Code == ""
}

type Policy struct {
	Length   int
	TTL      time.Duration
	Cooldown time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Length: DefaultLength, TTL: DefaultTTL, Cooldown: DefaultCooldown}
}

// Generate returns a fresh State replacing any previous one, together with
// the plain code to deliver.
func (p Policy) Generate(now time.Time) (State, string, error) {
	code, err := newCode(p.Length)
	if err != nil {
		return State{}, "", err
	}

	return State{
		Code:          code,
		ExpiresAt:     now.Add(p.TTL),
		Used:          false,
		Attempts:      0,
		LastAttemptAt: now,
	}, code, nil
}

// newCode derives a numeric code from a TOTP over a random secret. The
// secret is thrown away, only the digits are kept.
func newCode(length int) (string, error) {
	if length < 1 {
		return "", fmt.Errorf("otp: invalid length %d", length)
	}
	totp := gotp.NewTOTP(gotp.RandomSecret(32), length, 30, nil)
	code := totp.Now()
	if len(code) != length {
		return "", fmt.Errorf("otp: generated %d digits, want %d", len(code), length)
	}
	return code, nil
}

// Verify checks code against s. Whatever the outcome, a present State comes
// back with Attempts incremented and LastAttemptAt set to now; callers
// persist it in every case.
//
// An expired code reports ErrExpired even when it was already used.
func Verify(s State, code string, now time.Time) (State, error) {
	if s.IsZero() {
		return s, ErrMissing
	}

	s.Attempts++
	s.LastAttemptAt = now

	if now.After(s.ExpiresAt) {
		return s, ErrExpired
	}
	if s.Used {
		return s, ErrUsed
	}
	if subtle.ConstantTimeCompare([]byte(s.Code), []byte(code)) != 1 {
		return s, ErrMismatch
	}
	return s, nil
}

func MarkUsed(s State) State {
	s.Used = true
	return s
}

func Clear(State) State {
	return State{}
}

// CooldownRemaining returns how long until a new code may be generated.
// The window starts at the last generation or verification attempt.
func (p Policy) CooldownRemaining(s State, now time.Time) time.Duration {
	if s.LastAttemptAt.IsZero() {
		return 0
	}
	remaining := s.LastAttemptAt.Add(p.Cooldown).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports whether s holds a code whose expiry passed before t.
func (s State) Expired(t time.Time) bool {
	return !s.IsZero() && t.After(s.ExpiresAt)
}
