package zombiezen

import (
	"context"
	"fmt"
	"time"

	"github.com/caasmo/notespieces/db"
	"github.com/caasmo/notespieces/otp"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const userColumns = `id, email, name, date_of_birth, auth_provider, google_id, password, picture,
	is_email_verified, otp_code, otp_expires_at, otp_used, otp_attempts, otp_last_attempt_at,
	token_version, last_login_at, created, updated`

// newUserFromStmt creates a User struct from a SQLite statement
func newUserFromStmt(stmt *sqlite.Stmt) (*db.User, error) {
	times := map[string]time.Time{}
	for _, col := range []string{"otp_expires_at", "otp_last_attempt_at", "last_login_at", "created", "updated"} {
		t, err := db.TimeParse(stmt.GetText(col))
		if err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", col, err)
		}
		times[col] = t
	}

	return &db.User{
		ID:              stmt.GetText("id"),
		Email:           stmt.GetText("email"),
		Name:            stmt.GetText("name"),
		DateOfBirth:     stmt.GetText("date_of_birth"),
		AuthProvider:    db.AuthProvider(stmt.GetText("auth_provider")),
		GoogleID:        stmt.GetText("google_id"),
		Password:        stmt.GetText("password"),
		Picture:         stmt.GetText("picture"),
		IsEmailVerified: stmt.GetInt64("is_email_verified") != 0,
		Otp: otp.State{
			Code:          stmt.GetText("otp_code"),
			ExpiresAt:     times["otp_expires_at"],
			Used:          stmt.GetInt64("otp_used") != 0,
			Attempts:      int(stmt.GetInt64("otp_attempts")),
			LastAttemptAt: times["otp_last_attempt_at"],
		},
		TokenVersion: int(stmt.GetInt64("token_version")),
		LastLoginAt:  times["last_login_at"],
		Created:      times["created"],
		Updated:      times["updated"],
	}, nil
}

// CreateUser inserts user with a new id and fresh timestamps.
// Returns db.ErrConstraintUnique if the email or google id is taken.
func (d *Db) CreateUser(ctx context.Context, user db.User) (*db.User, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get db connection: %w", err)
	}
	defer d.pool.Put(conn)

	ts := now()
	user.ID = newID()
	user.Created = ts
	user.Updated = ts

	var created *db.User
	err = sqlitex.Execute(conn,
		`INSERT INTO users (id, email, name, date_of_birth, auth_provider, google_id, password, picture,
			is_email_verified, otp_code, otp_expires_at, otp_used, otp_attempts, otp_last_attempt_at,
			token_version, last_login_at, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+userColumns,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				created, err = newUserFromStmt(stmt)
				return err
			},
			Args: []any{
				user.ID,
				user.Email,
				user.Name,
				user.DateOfBirth,
				string(user.AuthProvider),
				nullable(user.GoogleID),
				user.Password,
				user.Picture,
				boolInt(user.IsEmailVerified),
				user.Otp.Code,
				db.TimeFormat(user.Otp.ExpiresAt),
				boolInt(user.Otp.Used),
				user.Otp.Attempts,
				db.TimeFormat(user.Otp.LastAttemptAt),
				user.TokenVersion,
				db.TimeFormat(user.LastLoginAt),
				db.TimeFormat(user.Created),
				db.TimeFormat(user.Updated),
			},
		})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, db.ErrConstraintUnique
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("failed to create user: %w", errNoRows)
	}

	return created, nil
}

// getUserBy returns the single user matching column = value.
// A nil user with nil error indicates no matching record was found.
func (d *Db) getUserBy(ctx context.Context, column, value string) (*db.User, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get db connection: %w", err)
	}
	defer d.pool.Put(conn)

	var user *db.User
	err = sqlitex.Execute(conn,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ? LIMIT 1`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var err error
				user, err = newUserFromStmt(stmt)
				return err
			},
			Args: []any{value},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}

	return user, nil
}

func (d *Db) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	return d.getUserBy(ctx, "email", email)
}

func (d *Db) GetUserById(ctx context.Context, id string) (*db.User, error) {
	return d.getUserBy(ctx, "id", id)
}

func (d *Db) GetUserByGoogleId(ctx context.Context, googleID string) (*db.User, error) {
	if googleID == "" {
		return nil, nil
	}
	return d.getUserBy(ctx, "google_id", googleID)
}

func (d *Db) UpdateUser(ctx context.Context, user db.User) error {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("failed to get db connection: %w", err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users SET
			name = ?,
			date_of_birth = ?,
			google_id = ?,
			password = ?,
			picture = ?,
			is_email_verified = ?,
			otp_code = ?,
			otp_expires_at = ?,
			otp_used = ?,
			otp_attempts = ?,
			otp_last_attempt_at = ?,
			token_version = ?,
			last_login_at = ?,
			updated = ?
		WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{
				user.Name,
				user.DateOfBirth,
				nullable(user.GoogleID),
				user.Password,
				user.Picture,
				boolInt(user.IsEmailVerified),
				user.Otp.Code,
				db.TimeFormat(user.Otp.ExpiresAt),
				boolInt(user.Otp.Used),
				user.Otp.Attempts,
				db.TimeFormat(user.Otp.LastAttemptAt),
				user.TokenVersion,
				db.TimeFormat(user.LastLoginAt),
				db.TimeFormat(now()),
				user.ID,
			},
		})
	if err != nil {
		if isUniqueViolation(err) {
			return db.ErrConstraintUnique
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if conn.Changes() == 0 {
		return db.ErrNotFound
	}

	return nil
}

func (d *Db) DeleteUser(ctx context.Context, id string) error {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("failed to get db connection: %w", err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn, `DELETE FROM users WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{id},
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if conn.Changes() == 0 {
		return db.ErrNotFound
	}

	return nil
}

// ClearExpiredOtps resets the otp columns of users whose code expired
// before the given instant.
func (d *Db) ClearExpiredOtps(ctx context.Context, before time.Time) (int, error) {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get db connection: %w", err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE users SET
			otp_code = '',
			otp_expires_at = '',
			otp_used = 0,
			otp_attempts = 0,
			otp_last_attempt_at = ''
		WHERE otp_code != '' AND otp_expires_at < ?`,
		&sqlitex.ExecOptions{
			Args: []any{db.TimeFormat(before)},
		})
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired otps: %w", err)
	}

	return conn.Changes(), nil
}
