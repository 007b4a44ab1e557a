package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/caasmo/notespieces/db"
	"github.com/caasmo/notespieces/otp"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type otpDoc struct {
	Code          string    `bson:"code"`
	ExpiresAt     time.Time `bson:"expiresAt"`
	Used          bool      `bson:"used"`
	Attempts      int       `bson:"attempts"`
	LastAttemptAt time.Time `bson:"lastAttemptAt"`
}

type userDoc struct {
	ID              string    `bson:"_id"`
	Email           string    `bson:"email"`
	Name            string    `bson:"name"`
	DateOfBirth     string    `bson:"dateOfBirth"`
	AuthProvider    string    `bson:"authProvider"`
	GoogleID        string    `bson:"googleId,omitempty"`
	Password        string    `bson:"password"`
	Picture         string    `bson:"picture"`
	IsEmailVerified bool      `bson:"isEmailVerified"`
	Otp             otpDoc    `bson:"otp"`
	TokenVersion    int       `bson:"tokenVersion"`
	LastLoginAt     time.Time `bson:"lastLoginAt"`
	Created         time.Time `bson:"created"`
	Updated         time.Time `bson:"updated"`
}

func fromUser(u db.User) userDoc {
	return userDoc{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		DateOfBirth:     u.DateOfBirth,
		AuthProvider:    string(u.AuthProvider),
		GoogleID:        u.GoogleID,
		Password:        u.Password,
		Picture:         u.Picture,
		IsEmailVerified: u.IsEmailVerified,
		Otp: otpDoc{
			Code:          u.Otp.Code,
			ExpiresAt:     u.Otp.ExpiresAt.UTC(),
			Used:          u.Otp.Used,
			Attempts:      u.Otp.Attempts,
			LastAttemptAt: u.Otp.LastAttemptAt.UTC(),
		},
		TokenVersion: u.TokenVersion,
		LastLoginAt:  u.LastLoginAt.UTC(),
		Created:      u.Created.UTC(),
		Updated:      u.Updated.UTC(),
	}
}

// utc normalizes decoded datetimes, BSON cannot tell the zero time apart
// from year one.
func utc(t time.Time) time.Time {
	t = t.UTC()
	if t.Equal(time.Time{}) {
		return time.Time{}
	}
	return t
}

func (u userDoc) toUser() *db.User {
	return &db.User{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		DateOfBirth:     u.DateOfBirth,
		AuthProvider:    db.AuthProvider(u.AuthProvider),
		GoogleID:        u.GoogleID,
		Password:        u.Password,
		Picture:         u.Picture,
		IsEmailVerified: u.IsEmailVerified,
		Otp: otp.State{
			Code:          u.Otp.Code,
			ExpiresAt:     utc(u.Otp.ExpiresAt),
			Used:          u.Otp.Used,
			Attempts:      u.Otp.Attempts,
			LastAttemptAt: utc(u.Otp.LastAttemptAt),
		},
		TokenVersion: u.TokenVersion,
		LastLoginAt:  utc(u.LastLoginAt),
		Created:      utc(u.Created),
		Updated:      utc(u.Updated),
	}
}

func (d *Db) CreateUser(ctx context.Context, user db.User) (*db.User, error) {
	ts := now()
	user.ID = newID()
	user.Created = ts
	user.Updated = ts

	doc := fromUser(user)
	if _, err := d.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, db.ErrConstraintUnique
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return doc.toUser(), nil
}

func (d *Db) getUserBy(ctx context.Context, field, value string) (*db.User, error) {
	var doc userDoc
	err := d.users.FindOne(ctx, bson.D{{Key: field, Value: value}}).Decode(&doc)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", field, err)
	}
	return doc.toUser(), nil
}

func (d *Db) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	return d.getUserBy(ctx, "email", email)
}

func (d *Db) GetUserById(ctx context.Context, id string) (*db.User, error) {
	return d.getUserBy(ctx, "_id", id)
}

func (d *Db) GetUserByGoogleId(ctx context.Context, googleID string) (*db.User, error) {
	if googleID == "" {
		return nil, nil
	}
	return d.getUserBy(ctx, "googleId", googleID)
}

func (d *Db) UpdateUser(ctx context.Context, user db.User) error {
	doc := fromUser(user)
	set := bson.D{
		{Key: "name", Value: doc.Name},
		{Key: "dateOfBirth", Value: doc.DateOfBirth},
		{Key: "password", Value: doc.Password},
		{Key: "picture", Value: doc.Picture},
		{Key: "isEmailVerified", Value: doc.IsEmailVerified},
		{Key: "otp", Value: doc.Otp},
		{Key: "tokenVersion", Value: doc.TokenVersion},
		{Key: "lastLoginAt", Value: doc.LastLoginAt},
		{Key: "updated", Value: now()},
	}
	update := bson.D{}
	if doc.GoogleID != "" {
		set = append(set, bson.E{Key: "googleId", Value: doc.GoogleID})
	} else {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "googleId", Value: ""}}})
	}
	update = append(update, bson.E{Key: "$set", Value: set})

	res, err := d.users.UpdateOne(ctx, bson.D{{Key: "_id", Value: user.ID}}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return db.ErrConstraintUnique
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return db.ErrNotFound
	}
	return nil
}

// DeleteUser removes the user and every note it owns.
func (d *Db) DeleteUser(ctx context.Context, id string) error {
	res, err := d.users.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return db.ErrNotFound
	}
	if _, err := d.notes.DeleteMany(ctx, bson.D{{Key: "ownerId", Value: id}}); err != nil {
		return fmt.Errorf("failed to delete notes of user %s: %w", id, err)
	}
	return nil
}

func (d *Db) ClearExpiredOtps(ctx context.Context, before time.Time) (int, error) {
	filter := bson.D{
		{Key: "otp.code", Value: bson.D{{Key: "$ne", Value: ""}}},
		{Key: "otp.expiresAt", Value: bson.D{{Key: "$lt", Value: before.UTC()}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "otp", Value: otpDoc{}}}}}

	res, err := d.users.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired otps: %w", err)
	}
	return int(res.ModifiedCount), nil
}
