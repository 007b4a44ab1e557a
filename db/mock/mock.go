package mock

import (
	"context"
	"time"

	"github.com/caasmo/notespieces/db"
)

// Compile-time check to ensure Db implements the DbApp interface
var _ db.DbApp = (*Db)(nil)

// Db implements db.DbApp for testing purposes.
// Use function fields to allow overriding behavior in specific tests.
// Unset getters report no record, unset writes succeed.
type Db struct {
	// --- Mock DbAuth Methods ---
	CreateUserFunc        func(ctx context.Context, user db.User) (*db.User, error)
	GetUserByEmailFunc    func(ctx context.Context, email string) (*db.User, error)
	GetUserByIdFunc       func(ctx context.Context, id string) (*db.User, error)
	GetUserByGoogleIdFunc func(ctx context.Context, googleID string) (*db.User, error)
	UpdateUserFunc        func(ctx context.Context, user db.User) error
	DeleteUserFunc        func(ctx context.Context, id string) error
	ClearExpiredOtpsFunc  func(ctx context.Context, before time.Time) (int, error)

	// --- Mock DbNotes Methods ---
	CreateNoteFunc  func(ctx context.Context, note db.Note) (*db.Note, error)
	GetNoteFunc     func(ctx context.Context, id, ownerID string) (*db.Note, error)
	ListNotesFunc   func(ctx context.Context, ownerID string, filter db.NoteFilter) ([]db.Note, int, error)
	UpdateNoteFunc  func(ctx context.Context, note db.Note) (*db.Note, error)
	DeleteNoteFunc  func(ctx context.Context, id, ownerID string) (bool, error)
	SearchNotesFunc func(ctx context.Context, ownerID, query string, limit int) ([]db.Note, error)

	PingFunc  func(ctx context.Context) error
	CloseFunc func() error
}

// --- Implement DbAuth ---
func (m *Db) CreateUser(ctx context.Context, user db.User) (*db.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, user)
	}
	user.ID = "mock-user-id"
	return &user, nil
}
func (m *Db) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	if m.GetUserByEmailFunc != nil {
		return m.GetUserByEmailFunc(ctx, email)
	}
	return nil, nil
}
func (m *Db) GetUserById(ctx context.Context, id string) (*db.User, error) {
	if m.GetUserByIdFunc != nil {
		return m.GetUserByIdFunc(ctx, id)
	}
	return nil, nil
}
func (m *Db) GetUserByGoogleId(ctx context.Context, googleID string) (*db.User, error) {
	if m.GetUserByGoogleIdFunc != nil {
		return m.GetUserByGoogleIdFunc(ctx, googleID)
	}
	return nil, nil
}
func (m *Db) UpdateUser(ctx context.Context, user db.User) error {
	if m.UpdateUserFunc != nil {
		return m.UpdateUserFunc(ctx, user)
	}
	return nil
}
func (m *Db) DeleteUser(ctx context.Context, id string) error {
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, id)
	}
	return nil
}
func (m *Db) ClearExpiredOtps(ctx context.Context, before time.Time) (int, error) {
	if m.ClearExpiredOtpsFunc != nil {
		return m.ClearExpiredOtpsFunc(ctx, before)
	}
	return 0, nil
}

// --- Implement DbNotes ---
func (m *Db) CreateNote(ctx context.Context, note db.Note) (*db.Note, error) {
	if m.CreateNoteFunc != nil {
		return m.CreateNoteFunc(ctx, note)
	}
	note.ID = "mock-note-id"
	return &note, nil
}
func (m *Db) GetNote(ctx context.Context, id, ownerID string) (*db.Note, error) {
	if m.GetNoteFunc != nil {
		return m.GetNoteFunc(ctx, id, ownerID)
	}
	return nil, nil
}
func (m *Db) ListNotes(ctx context.Context, ownerID string, filter db.NoteFilter) ([]db.Note, int, error) {
	if m.ListNotesFunc != nil {
		return m.ListNotesFunc(ctx, ownerID, filter)
	}
	return []db.Note{}, 0, nil
}
func (m *Db) UpdateNote(ctx context.Context, note db.Note) (*db.Note, error) {
	if m.UpdateNoteFunc != nil {
		return m.UpdateNoteFunc(ctx, note)
	}
	return &note, nil
}
func (m *Db) DeleteNote(ctx context.Context, id, ownerID string) (bool, error) {
	if m.DeleteNoteFunc != nil {
		return m.DeleteNoteFunc(ctx, id, ownerID)
	}
	return false, nil
}
func (m *Db) SearchNotes(ctx context.Context, ownerID, query string, limit int) ([]db.Note, error) {
	if m.SearchNotesFunc != nil {
		return m.SearchNotesFunc(ctx, ownerID, query, limit)
	}
	return []db.Note{}, nil
}

func (m *Db) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}
func (m *Db) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
