// Package mongo stores users and notes in MongoDB. It is the alternative
// to the sqlite store for deployments that already run a replica set.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caasmo/notespieces/db"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	usersCollection = "users"
	notesCollection = "notes"
)

type Db struct {
	client *mongo.Client
	users  *mongo.Collection
	notes  *mongo.Collection
}

var _ db.DbApp = (*Db)(nil)

// Open connects to uri, selects database and makes sure the indexes the
// store relies on exist.
func Open(ctx context.Context, uri, database string) (*Db, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	d := &Db{
		client: client,
		users:  client.Database(database).Collection(usersCollection),
		notes:  client.Database(database).Collection(notesCollection),
	}

	if err := d.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	if err := d.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return d, nil
}

func (d *Db) ensureIndexes(ctx context.Context) error {
	_, err := d.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// email users carry no googleId field, sparse keeps them out
			Keys:    bson.D{{Key: "googleId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "otp.expiresAt", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	_, err = d.notes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "ownerId", Value: 1},
				{Key: "isArchived", Value: 1},
				{Key: "isPinned", Value: -1},
				{Key: "updated", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "tags", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create note indexes: %w", err)
	}
	return nil
}

func (d *Db) Ping(ctx context.Context) error {
	if err := d.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	return nil
}

func (d *Db) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return d.client.Disconnect(ctx)
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// now matches the millisecond precision of BSON datetimes.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
