package db

import (
	"time"

	"github.com/caasmo/notespieces/otp"
)

type AuthProvider string

const (
	AuthProviderEmail  AuthProvider = "email"
	AuthProviderGoogle AuthProvider = "google"
)

func (p AuthProvider) Valid() bool {
	return p == AuthProviderEmail || p == AuthProviderGoogle
}

// User represents a user from the database.
// Timestamps are UTC.
type User struct {
	ID    string
	Email string
	Name  string
	// DateOfBirth is a calendar date, "2006-01-02", empty when unknown.
	DateOfBirth string

	AuthProvider AuthProvider
	// GoogleID is the subject of the google identity, only set for
	// google users.
	GoogleID string
	// Password is an optional bcrypt hash, never set for google users.
	Password string
	Picture  string

	IsEmailVerified bool
	Otp             otp.State
	TokenVersion    int

	LastLoginAt time.Time
	Created     time.Time
	Updated     time.Time
}

// Note is owned by exactly one user.
type Note struct {
	ID         string
	OwnerID    string
	Title      string
	Content    string
	Tags       []string
	IsPinned   bool
	IsArchived bool
	Created    time.Time
	Updated    time.Time
}

// NoteFilter selects the notes of a listing. Nil flags do not filter.
type NoteFilter struct {
	Archived *bool
	Pinned   *bool
	Tag      string
	Offset   int
	Limit    int
}
