// Package notes implements the note operations of an authenticated user.
// Every call takes the owner id from the session; a note owned by someone
// else is reported as missing.
package notes

import (
	"context"
	"fmt"
	"strings"

	"github.com/caasmo/notespieces/apperr"
	"github.com/caasmo/notespieces/db"
	"github.com/caasmo/notespieces/validation"
)

const (
	DefaultPageSize    = 20
	MaxPageSize        = 100
	DefaultSearchLimit = 50
	MaxQueryLength     = 200
	// MaxPage keeps the list offset far from int overflow.
	MaxPage            = 10000
)

type CreateInput struct {
	Title   string   `json:"title" validate:"required,max=200"`
	Content string   `json:"content" validate:"max=10000"`
	Tags    []string `json:"tags" validate:"max=10,dive,min=1,max=30"`
}

// UpdateInput changes only the fields that are set. Tags replace the
// previous ones when not nil; an empty list clears them.
type UpdateInput struct {
	Title      *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Content    *string  `json:"content" validate:"omitempty,max=10000"`
	Tags       []string `json:"tags" validate:"max=10,dive,min=1,max=30"`
	IsPinned   *bool    `json:"isPinned"`
	IsArchived *bool    `json:"isArchived"`
}

// ListInput selects a page of notes. Archived defaults to false, so
// archived notes are only listed on request.
type ListInput struct {
	Archived *bool
	Pinned   *bool
	Tag      string `json:"tag" validate:"max=30"`
	Page     int    `json:"page" validate:"min=0,max=10000"`
	Limit    int    `json:"limit" validate:"min=0,max=100"`
}

type Page struct {
	Notes []db.Note
	Total int
	Page  int
	Limit int
}

type Service struct {
	db db.DbNotes
}

func NewService(store db.DbNotes) *Service {
	return &Service{db: store}
}

// NormalizeTags trims and lower-cases tags and drops repeats, keeping the
// first occurrence order. Empty tags are kept so validation reports them.
func NormalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func (s *Service) List(ctx context.Context, ownerID string, in ListInput) (Page, error) {
	in.Tag = strings.ToLower(strings.TrimSpace(in.Tag))
	if err := validation.Struct(in); err != nil {
		return Page{}, err
	}
	if in.Page == 0 {
		in.Page = 1
	}
	if in.Limit == 0 {
		in.Limit = DefaultPageSize
	}

	archived := false
	if in.Archived != nil {
		archived = *in.Archived
	}

	notes, total, err := s.db.ListNotes(ctx, ownerID, db.NoteFilter{
		Archived: &archived,
		Pinned:   in.Pinned,
		Tag:      in.Tag,
		Offset:   (in.Page - 1) * in.Limit,
		Limit:    in.Limit,
	})
	if err != nil {
		return Page{}, fmt.Errorf("list notes: %w", err)
	}
	return Page{Notes: notes, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*db.Note, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Tags = NormalizeTags(in.Tags)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}

	note, err := s.db.CreateNote(ctx, db.Note{
		OwnerID: ownerID,
		Title:   in.Title,
		Content: in.Content,
		Tags:    in.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return note, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (*db.Note, error) {
	note, err := s.db.GetNote(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	if note == nil {
		return nil, apperr.ErrNoteNotFound
	}
	return note, nil
}

func (s *Service) Update(ctx context.Context, ownerID, id string, in UpdateInput) (*db.Note, error) {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
	}
	in.Tags = NormalizeTags(in.Tags)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	note, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		note.Title = *in.Title
	}
	if in.Content != nil {
		note.Content = *in.Content
	}
	if in.Tags != nil {
		note.Tags = in.Tags
	}
	if in.IsArchived != nil {
		note.IsArchived = *in.IsArchived
	}
	if in.IsPinned != nil {
		if *in.IsPinned && note.IsArchived {
			return nil, apperr.ErrNoteArchived
		}
		note.IsPinned = *in.IsPinned
	}
	if note.IsArchived {
		note.IsPinned = false
	}

	return s.save(ctx, *note)
}

func (s *Service) save(ctx context.Context, note db.Note) (*db.Note, error) {
	updated, err := s.db.UpdateNote(ctx, note)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	if updated == nil {
		return nil, apperr.ErrNoteNotFound
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	deleted, err := s.db.DeleteNote(ctx, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if !deleted {
		return apperr.ErrNoteNotFound
	}
	return nil
}

// TogglePin flips the pinned flag. Archived notes cannot be pinned.
func (s *Service) TogglePin(ctx context.Context, ownerID, id string) (*db.Note, error) {
	note, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !note.IsPinned && note.IsArchived {
		return nil, apperr.ErrNoteArchived
	}
	note.IsPinned = !note.IsPinned
	return s.save(ctx, *note)
}

// ToggleArchive flips the archived flag, unpinning the note when it gets
// archived.
func (s *Service) ToggleArchive(ctx context.Context, ownerID, id string) (*db.Note, error) {
	note, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	note.IsArchived = !note.IsArchived
	if note.IsArchived {
		note.IsPinned = false
	}
	return s.save(ctx, *note)
}

// Search returns the notes whose title, content or tags contain query,
// archived ones included.
func (s *Service) Search(ctx context.Context, ownerID, query string, limit int) ([]db.Note, error) {
	query = strings.TrimSpace(query)
	switch {
	case query == "":
		return nil, apperr.ErrValidation.WithDetails(map[string]string{"q": "is required"})
	case len([]rune(query)) > MaxQueryLength:
		return nil, apperr.ErrValidation.WithDetails(map[string]string{"q": fmt.Sprintf("must be at most %d characters", MaxQueryLength)})
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultSearchLimit
	}

	notes, err := s.db.SearchNotes(ctx, ownerID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	return notes, nil
}
