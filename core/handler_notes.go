package core

import (
	"net/http"
	"strconv"
	"time"

	"github.com/caasmo/notespieces/apperr"
	"github.com/caasmo/notespieces/db"
	"github.com/caasmo/notespieces/notes"
)

// NoteRecord is the public view of a note.
type NoteRecord struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Tags       []string  `json:"tags"`
	IsPinned   bool      `json:"isPinned"`
	IsArchived bool      `json:"isArchived"`
	Created    time.Time `json:"created"`
	Updated    time.Time `json:"updated"`
}

func NewNoteRecord(n *db.Note) NoteRecord {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return NoteRecord{
		ID:         n.ID,
		Title:      n.Title,
		Content:    n.Content,
		Tags:       tags,
		IsPinned:   n.IsPinned,
		IsArchived: n.IsArchived,
		Created:    n.Created,
		Updated:    n.Updated,
	}
}

func newNoteRecords(list []db.Note) []NoteRecord {
	out := make([]NoteRecord, len(list))
	for i := range list {
		out[i] = NewNoteRecord(&list[i])
	}
	return out
}

type noteData struct {
	Note NoteRecord `json:"note"`
}

type notesData struct {
	Notes []NoteRecord `json:"notes"`
	Total int          `json:"total"`
	Page  int          `json:"page,omitempty"`
	Limit int          `json:"limit,omitempty"`
}

func writeNote(w http.ResponseWriter, status int, code, message string, note *db.Note) {
	writeJsonWithData(w, status, code, message, noteData{Note: NewNoteRecord(note)})
}

// queryParser collects the errors of all malformed query parameters so
// they are reported together.
type queryParser struct {
	r       *http.Request
	details map[string]string
}

func (q *queryParser) fail(key, msg string) {
	if q.details == nil {
		q.details = make(map[string]string)
	}
	q.details[key] = msg
}

func (q *queryParser) boolPtr(key string) *bool {
	raw := q.r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		q.fail(key, "must be true or false")
		return nil
	}
	return &v
}

func (q *queryParser) int(key string) int {
	raw := q.r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		q.fail(key, "must be a number")
		return 0
	}
	return v
}

func (q *queryParser) err() error {
	if q.details == nil {
		return nil
	}
	return apperr.ErrValidation.WithDetails(q.details)
}

// ListNotesHandler returns a page of the notes of the session user.
// Endpoint: GET /notes?archived=&pinned=&tag=&page=&limit=
// Authenticated: Yes
func (a *App) ListNotesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w, r)
	if !ok {
		return
	}

	q := &queryParser{r: r}
	in := notes.ListInput{
		Archived: q.boolPtr("archived"),
		Pinned:   q.boolPtr("pinned"),
		Tag:      r.URL.Query().Get("tag"),
		Page:     q.int("page"),
		Limit:    q.int("limit"),
	}
	if err := q.err(); err != nil {
		a.WriteError(w, r, err)
		return
	}

	page, err := a.notes.List(r.Context(), user.ID, in)
	if err != nil {
		a.WriteError(w, r, err)
		return
	}

	writeJsonWithData(w, http.StatusOK, CodeOkNotes, "Notes", notesData{
		Notes: newNoteRecords(page.Notes),
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
	})
}

// CreateNoteHandler
// Endpoint: POST /notes
// Authenticated: Yes
// Allowed Mimetype: application/json
func (a *App) CreateNoteHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w, r)
	if !ok {
		return
	}

	var in notes.CreateInput
	if err := a.decodeJson(w, r, &in); err != nil {
		a.WriteError(w, r, err)
		return
	}

	note, err := a.notes.Create(r.Context(), user.ID, in)
	if err != nil {
		a.WriteError(w, r, err)
		return
	}

	writeNote(w, http.StatusCreated, CodeOkNoteCreated, "Note created", note)
}

// SearchNotesHandler matches q against title, content and tags.
// Endpoint: GET /notes/search?q=&limit=
// Authenticated: Yes
func (a *App) SearchNotesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w, r)
	if !ok {
		return
	}

	q := &queryParser{r: r}
	limit := q.int("limit")
	if err := q.err(); err != nil {
		a.WriteError(w, r, err)
		return
	}

	found, err := a.notes.Search(r.Context(), user.ID, r.URL.Query().Get("q"), limit)
	if err != nil {
		a.WriteError(w, r, err)
		return
	}

	writeJsonWithData(w, http.StatusOK, CodeOkNotes, "Notes", notesData{
		Notes: newNoteRecords(found),
		Total: len(found),
	})
}

// GetNoteHandler
// Endpoint: GET /notes/{id}
// Authenticated: Yes
func (a *App) GetNoteHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w, r)
	if !ok {
		return
	}

	note, err := a.notes.Get(r.Context(), user.ID, a.router.Param(r, "id"))
	if err != nil {
		a.WriteError(w, r, err)
		return
	}

	writeNote(w, http.StatusOK, CodeOkNote, "Note", note)
}

// UpdateNoteHandler changes the fields present in the body.
// Endpoint: PUT /notes/{id}
// Authenticated: Yes
// Allowed Mimetype: application/json
func (a *App) UpdateNoteHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w, r)
	if !ok {
		return
	}

	var in notes.UpdateInput
	if err := a.decodeJson(w, r, &in); err != nil {
		a.WriteError(w, r, err)
		return
	}

	note, err := a.notes.Update(r.Context(), user.ID, a.router.Param(r, "id"), in)
	if err != nil {
		a.WriteError(w, r, err)
		return
	}

	writeNote(w, http.StatusOK, CodeOkNoteUpdated, "Note updated", note)
}

// DeleteNoteHandler
// Endpoint: DELETE /notes/{id}
// Authenticated: Yes
func (a *App) DeleteNoteHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w, r)
	if !ok {
		return
	}

	if err := a.notes.Delete(r.Context(), user.ID, a.router.Param(r, "id")); err != nil {
		a.WriteError(w, r, err)
		return
	}

	writeJsonResponse(w, okNoteGone)
}

// PinNoteHandler toggles the pinned flag.
// Endpoint: POST /notes/{id}/pin
// Authenticated: Yes
func (a *App) PinNoteHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w, r)
	if !ok {
		return
	}

	note, err := a.notes.TogglePin(r.Context(), user.ID, a.router.Param(r, "id"))
	if err != nil {
		a.WriteError(w, r, err)
		return
	}

	writeNote(w, http.StatusOK, CodeOkNoteUpdated, "Note updated", note)
}

// ArchiveNoteHandler toggles the archived flag.
// Endpoint: POST /notes/{id}/archive
// Authenticated: Yes
func (a *App) ArchiveNoteHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w, r)
	if !ok {
		return
	}

	note, err := a.notes.ToggleArchive(r.Context(), user.ID, a.router.Param(r, "id"))
	if err != nil {
		a.WriteError(w, r, err)
		return
	}

	writeNote(w, http.StatusOK, CodeOkNoteUpdated, "Note updated", note)
}
