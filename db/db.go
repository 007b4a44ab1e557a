package db

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrConstraintUnique is returned when an insert or update collides with
	// a unique email or google id.
	ErrConstraintUnique = errors.New("unique constraint violation")
	// ErrNotFound is returned by updates addressing a record that does not exist.
	ErrNotFound = errors.New("record not found")
)

// DbAuth is the credential store.
//
// Getters return (nil, nil) when no record matches; an error always means
// the store itself failed.
type DbAuth interface {
	CreateUser(ctx context.Context, user User) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserById(ctx context.Context, id string) (*User, error)
	GetUserByGoogleId(ctx context.Context, googleID string) (*User, error)
	// UpdateUser persists the mutable fields of user. Email, AuthProvider
	// and Created never change.
	UpdateUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, id string) error
	// ClearExpiredOtps removes otp sub-records that expired before t and
	// returns how many were cleared.
	ClearExpiredOtps(ctx context.Context, before time.Time) (int, error)
}

// DbNotes stores notes. Every call is scoped by owner: a note of another
// owner behaves exactly like a missing one.
type DbNotes interface {
	CreateNote(ctx context.Context, note Note) (*Note, error)
	GetNote(ctx context.Context, id, ownerID string) (*Note, error)
	ListNotes(ctx context.Context, ownerID string, filter NoteFilter) ([]Note, int, error)
	// UpdateNote replaces title, content, tags and flags. Returns nil when
	// no note matches (id, owner).
	UpdateNote(ctx context.Context, note Note) (*Note, error)
	DeleteNote(ctx context.Context, id, ownerID string) (bool, error)
	SearchNotes(ctx context.Context, ownerID, query string, limit int) ([]Note, error)
}

// DbApp is the union the application needs. The concrete implementations
// (*zombiezen.Db, *mongo.Db) satisfy it.
type DbApp interface {
	DbAuth
	DbNotes
	Ping(ctx context.Context) error
	Close() error
}
