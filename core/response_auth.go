package core

import (
	"net/http"
	"time"

	"github.com/caasmo/notespieces/auth"
	"github.com/caasmo/notespieces/db"
)

// UserRecord is the public view of a user. Credentials and the otp
// sub-record never leave the server.
//
// Example authentication response:
//
//	{
//	  "status": 200,
//	  "code": "ok_authentication",
//	  "message": "Authentication successful",
//	  "data": {
//	    "user": {"id": "0197...", "email": "ada@example.com", "authProvider": "email", ...}
//	  }
//	}
type UserRecord struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name,omitempty"`
	DateOfBirth     string     `json:"dateOfBirth,omitempty"`
	AuthProvider    string     `json:"authProvider"`
	Picture         string     `json:"picture,omitempty"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
	Created         time.Time  `json:"created"`
	Updated         time.Time  `json:"updated"`
}

func NewUserRecord(u *db.User) UserRecord {
	rec := UserRecord{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		DateOfBirth:     u.DateOfBirth,
		AuthProvider:    string(u.AuthProvider),
		Picture:         u.Picture,
		IsEmailVerified: u.IsEmailVerified,
		Created:         u.Created,
		Updated:         u.Updated,
	}
	if !u.LastLoginAt.IsZero() {
		t := u.LastLoginAt
		rec.LastLoginAt = &t
	}
	return rec
}

type userData struct {
	User UserRecord `json:"user"`
}

// writeUser answers with the user record only.
func writeUser(w http.ResponseWriter, status int, code, message string, user *db.User) {
	writeJsonWithData(w, status, code, message, userData{User: NewUserRecord(user)})
}

// writeSession sets the session cookies and answers with the user.
// Tokens travel in cookies only.
func (a *App) writeSession(w http.ResponseWriter, status int, code string, user *db.User, pair auth.Pair) {
	a.setSessionCookies(w, pair)
	writeUser(w, status, code, "Authentication successful", user)
}
