package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/caasmo/notespieces/db"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type noteDoc struct {
	ID         string    `bson:"_id"`
	OwnerID    string    `bson:"ownerId"`
	Title      string    `bson:"title"`
	Content    string    `bson:"content"`
	Tags       []string  `bson:"tags"`
	IsPinned   bool      `bson:"isPinned"`
	IsArchived bool      `bson:"isArchived"`
	Created    time.Time `bson:"created"`
	Updated    time.Time `bson:"updated"`
}

func (n noteDoc) toNote() db.Note {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return db.Note{
		ID:         n.ID,
		OwnerID:    n.OwnerID,
		Title:      n.Title,
		Content:    n.Content,
		Tags:       tags,
		IsPinned:   n.IsPinned,
		IsArchived: n.IsArchived,
		Created:    utc(n.Created),
		Updated:    utc(n.Updated),
	}
}

var noteSort = bson.D{
	{Key: "isPinned", Value: -1},
	{Key: "updated", Value: -1},
	{Key: "_id", Value: -1},
}

func ownedBy(id, ownerID string) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "ownerId", Value: ownerID}}
}

func (d *Db) CreateNote(ctx context.Context, note db.Note) (*db.Note, error) {
	ts := now()
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	doc := noteDoc{
		ID:         newID(),
		OwnerID:    note.OwnerID,
		Title:      note.Title,
		Content:    note.Content,
		Tags:       tags,
		IsPinned:   note.IsPinned,
		IsArchived: note.IsArchived,
		Created:    ts,
		Updated:    ts,
	}
	if _, err := d.notes.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	n := doc.toNote()
	return &n, nil
}

func (d *Db) GetNote(ctx context.Context, id, ownerID string) (*db.Note, error) {
	var doc noteDoc
	if err := d.notes.FindOne(ctx, ownedBy(id, ownerID)).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	n := doc.toNote()
	return &n, nil
}

func (d *Db) ListNotes(ctx context.Context, ownerID string, filter db.NoteFilter) ([]db.Note, int, error) {
	query := bson.D{{Key: "ownerId", Value: ownerID}}
	if filter.Archived != nil {
		query = append(query, bson.E{Key: "isArchived", Value: *filter.Archived})
	}
	if filter.Pinned != nil {
		query = append(query, bson.E{Key: "isPinned", Value: *filter.Pinned})
	}
	if filter.Tag != "" {
		query = append(query, bson.E{Key: "tags", Value: filter.Tag})
	}

	total, err := d.notes.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notes: %w", err)
	}

	opts := options.Find().SetSort(noteSort).SetSkip(int64(filter.Offset))
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	notes, err := d.findNotes(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, int(total), nil
}

func (d *Db) findNotes(ctx context.Context, query bson.D, opts *options.FindOptionsBuilder) ([]db.Note, error) {
	cursor, err := d.notes.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	var docs []noteDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	notes := make([]db.Note, 0, len(docs))
	for _, doc := range docs {
		notes = append(notes, doc.toNote())
	}
	return notes, nil
}

func (d *Db) UpdateNote(ctx context.Context, note db.Note) (*db.Note, error) {
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "title", Value: note.Title},
		{Key: "content", Value: note.Content},
		{Key: "tags", Value: tags},
		{Key: "isPinned", Value: note.IsPinned},
		{Key: "isArchived", Value: note.IsArchived},
		{Key: "updated", Value: now()},
	}}}

	var doc noteDoc
	err := d.notes.FindOneAndUpdate(ctx, ownedBy(note.ID, note.OwnerID), update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	n := doc.toNote()
	return &n, nil
}

func (d *Db) DeleteNote(ctx context.Context, id, ownerID string) (bool, error) {
	res, err := d.notes.DeleteOne(ctx, ownedBy(id, ownerID))
	if err != nil {
		return false, fmt.Errorf("failed to delete note: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (d *Db) SearchNotes(ctx context.Context, ownerID, query string, limit int) ([]db.Note, error) {
	re := bson.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.D{
		{Key: "ownerId", Value: ownerID},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: re}},
			bson.D{{Key: "content", Value: re}},
			bson.D{{Key: "tags", Value: re}},
		}},
	}

	opts := options.Find().SetSort(noteSort)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	notes, err := d.findNotes(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search notes: %w", err)
	}
	return notes, nil
}
