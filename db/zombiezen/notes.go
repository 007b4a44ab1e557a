package zombiezen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/caasmo/notespieces/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const noteColumns = `id, owner_id, title, content, tags, is_pinned, is_archived, created, updated`

// noteOrder puts pinned notes first, most recently updated first.
const noteOrder = `ORDER BY is_pinned DESC, updated DESC, id DESC`

func newNoteFromStmt(stmt *sqlite.Stmt) (*db.Note, error) {
	created, err := db.TimeParse(stmt.GetText("created"))
	if err != nil {
		return nil, fmt.Errorf("error parsing created time: %w", err)
	}
	updated, err := db.TimeParse(stmt.GetText("updated"))
	if err != nil {
		return nil, fmt.Errorf("error parsing updated time: %w", err)
	}

	tags := []string{}
	if err := json.Unmarshal([]byte(stmt.GetText("tags")), &tags); err != nil {
		return nil, fmt.Errorf("error decoding tags: %w", err)
	}

	return &db.Note{
		ID:         stmt.GetText("id"),
		OwnerID:    stmt.GetText("owner_id"),
		Title:      stmt.GetText("title"),
		Content:    stmt.GetText("content"),
		Tags:       tags,
		IsPinned:   stmt.GetInt64("is_pinned") != 0,
		IsArchived: stmt.GetInt64("is_archived") != 0,
		Created:    created,
		Updated:    updated,
	}, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("error encoding tags: %w", err)
	}
	return string(b), nil
}

func (d *Db) CreateNote(ctx context.Context, note db.Note) (*db.Note, error) {
	tags, err := encodeTags(note.Tags)
	if err != nil {
		return nil, err
	}

	conn, err := d.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get db connection: %w", err)
	}
	defer d.pool.Put(conn)

	ts := now()
	var created *db.Note
	err = sqlitex.Execute(conn,
		`INSERT INTO notes (id, owner_id, title, content, tags, is_pinned, is_archived, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+noteColumns,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				created, err = newNoteFromStmt(stmt)
				return err
			},
			Args: []any{
				newID(),
				note.OwnerID,
				note.Title,
				note.Content,
				tags,
				boolInt(note.IsPinned),
				boolInt(note.IsArchived),
				db.TimeFormat(ts),
				db.TimeFormat(ts),
			},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("failed to create note: %w", errNoRows)
	}

	return created, nil
}

// GetNote returns nil, nil when no note with id belongs to ownerID.
func (d *Db) GetNote(ctx context.Context, id, ownerID string) (*db.Note, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get db connection: %w", err)
	}
	defer d.pool.Put(conn)

	var note *db.Note
	err = sqlitex.Execute(conn,
		`SELECT `+noteColumns+` FROM notes WHERE id = ? AND owner_id = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				note, err = newNoteFromStmt(stmt)
				return err
			},
			Args: []any{id, ownerID},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return note, nil
}

// ListNotes returns one page of the owner's notes matching filter and the
// total number of matching notes. A Limit of zero or less returns all.
func (d *Db) ListNotes(ctx context.Context, ownerID string, filter db.NoteFilter) ([]db.Note, int, error) {
	where := []string{"owner_id = ?"}
	args := []any{ownerID}

	if filter.Archived != nil {
		where = append(where, "is_archived = ?")
		args = append(args, boolInt(*filter.Archived))
	}
	if filter.Pinned != nil {
		where = append(where, "is_pinned = ?")
		args = append(args, boolInt(*filter.Pinned))
	}
	if filter.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(notes.tags) WHERE json_each.value = ?)")
		args = append(args, filter.Tag)
	}
	whereSQL := strings.Join(where, " AND ")

	conn, err := d.pool.Take(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get db connection: %w", err)
	}
	defer d.pool.Put(conn)

	var total int
	err = sqlitex.Execute(conn, `SELECT count(*) AS total FROM notes WHERE `+whereSQL,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				total = int(stmt.GetInt64("total"))
				return nil
			},
			Args: args,
		})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notes: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	pageArgs := append(append([]any{}, args...), limit, filter.Offset)

	notes := []db.Note{}
	err = sqlitex.Execute(conn,
		`SELECT `+noteColumns+` FROM notes WHERE `+whereSQL+` `+noteOrder+` LIMIT ? OFFSET ?`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				note, err := newNoteFromStmt(stmt)
				if err != nil {
					return err
				}
				notes = append(notes, *note)
				return nil
			},
			Args: pageArgs,
		})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notes: %w", err)
	}

	return notes, total, nil
}

func (d *Db) UpdateNote(ctx context.Context, note db.Note) (*db.Note, error) {
	tags, err := encodeTags(note.Tags)
	if err != nil {
		return nil, err
	}

	conn, err := d.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get db connection: %w", err)
	}
	defer d.pool.Put(conn)

	var updated *db.Note
	err = sqlitex.Execute(conn,
		`UPDATE notes SET
			title = ?,
			content = ?,
			tags = ?,
			is_pinned = ?,
			is_archived = ?,
			updated = ?
		WHERE id = ? AND owner_id = ?
		RETURNING `+noteColumns,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				updated, err = newNoteFromStmt(stmt)
				return err
			},
			Args: []any{
				note.Title,
				note.Content,
				tags,
				boolInt(note.IsPinned),
				boolInt(note.IsArchived),
				db.TimeFormat(now()),
				note.ID,
				note.OwnerID,
			},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}

	return updated, nil
}

func (d *Db) DeleteNote(ctx context.Context, id, ownerID string) (bool, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get db connection: %w", err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn, `DELETE FROM notes WHERE id = ? AND owner_id = ?`,
		&sqlitex.ExecOptions{Args: []any{id, ownerID}})
	if err != nil {
		return false, fmt.Errorf("failed to delete note: %w", err)
	}

	return conn.Changes() > 0, nil
}

// SearchNotes matches query case-insensitively as a substring of the
// title, the content or any tag. Archived notes are included.
func (d *Db) SearchNotes(ctx context.Context, ownerID, query string, limit int) ([]db.Note, error) {
	if limit <= 0 {
		limit = -1
	}
	q := strings.ToLower(query)

	conn, err := d.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get db connection: %w", err)
	}
	defer d.pool.Put(conn)

	notes := []db.Note{}
	err = sqlitex.Execute(conn,
		`SELECT `+noteColumns+` FROM notes
		WHERE owner_id = ? AND (
			instr(go_lower(title), ?) > 0
			OR instr(go_lower(content), ?) > 0
			OR EXISTS (SELECT 1 FROM json_each(notes.tags) WHERE instr(go_lower(json_each.value), ?) > 0)
		)
		`+noteOrder+` LIMIT ?`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				note, err := newNoteFromStmt(stmt)
				if err != nil {
					return err
				}
				notes = append(notes, *note)
				return nil
			},
			Args: []any{ownerID, q, q, q, limit},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to search notes: %w", err)
	}

	return notes, nil
}
