package migrations

import (
	"context"
	"io/fs"
	"reflect"
	"sort"
	"testing"

	"zombiezen.com/go/sqlite/sqlitex"
)

// TestSchemaAccess verifies that all expected .sql files are embedded correctly.
func TestSchemaAccess(t *testing.T) {
	expectedFiles := []string{
		"app/notes.sql",
		"app/users.sql",
	}

	var foundFiles []string
	schemaFS := Schema()

	err := fs.WalkDir(schemaFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			foundFiles = append(foundFiles, path)
		}
		return nil
	})

	if err != nil {
		t.Fatalf("failed to walk embedded schema files: %v", err)
	}

	sort.Strings(expectedFiles)
	sort.Strings(foundFiles)

	if !reflect.DeepEqual(expectedFiles, foundFiles) {
		t.Errorf("mismatch in embedded schema files.\nGot:  %v\nWant: %v", foundFiles, expectedFiles)
	}
}

// TestApplySchemas creates an in-memory SQLite database and applies all embedded
// .sql schema files to ensure they are syntactically valid.
func TestApplySchemas(t *testing.T) {
	pool, err := sqlitex.NewPool("file::memory:", sqlitex.PoolOptions{
		PoolSize: 1,
	})
	if err != nil {
		t.Fatalf("failed to create db pool: %v", err)
	}
	t.Cleanup(func() {
		if err := pool.Close(); err != nil {
			t.Errorf("failed to close db pool: %v", err)
		}
	})

	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("failed to get db connection: %v", err)
	}
	defer pool.Put(conn)

	schemaFS := Schema()

	err = fs.WalkDir(schemaFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil // Skip directories
		}

		t.Run("Applying_"+path, func(t *testing.T) {
			sqlBytes, err := fs.ReadFile(schemaFS, path)
			if err != nil {
				t.Fatalf("failed to read embedded migration file %s: %v", path, err)
			}

			if err := sqlitex.ExecuteScript(conn, string(sqlBytes), nil); err != nil {
				t.Fatalf("failed to execute migration file %s: %v", path, err)
			}
		})
		return nil
	})

	if err != nil {
		t.Fatalf("error walking schema directory: %v", err)
	}
}

// TestSchemaConstraints checks the invariants enforced by the tables
// themselves, independent of the Go store code.
func TestSchemaConstraints(t *testing.T) {
	pool, err := sqlitex.NewPool("file::memory:", sqlitex.PoolOptions{PoolSize: 1})
	if err != nil {
		t.Fatalf("failed to create db pool: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("failed to get db connection: %v", err)
	}
	defer pool.Put(conn)

	for _, path := range []string{"app/users.sql", "app/notes.sql"} {
		sqlBytes, err := fs.ReadFile(Schema(), path)
		if err != nil {
			t.Fatal(err)
		}
		if err := sqlitex.ExecuteScript(conn, string(sqlBytes), nil); err != nil {
			t.Fatalf("failed to apply %s: %v", path, err)
		}
	}

	const now = "2024-03-11T15:04:05.000Z"
	exec := func(query string, args ...any) error {
		return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args})
	}

	if err := exec(`INSERT INTO users (id, email, auth_provider, created, updated) VALUES (?, ?, 'email', ?, ?)`,
		"u1", "ann@example.com", now, now); err != nil {
		t.Fatalf("valid email user rejected: %v", err)
	}

	testCases := []struct {
		name  string
		query string
		args  []any
	}{
		{
			name:  "duplicate email",
			query: `INSERT INTO users (id, email, auth_provider, created, updated) VALUES ('u2', 'ann@example.com', 'email', ?, ?)`,
			args:  []any{now, now},
		},
		{
			name:  "email user with google id",
			query: `INSERT INTO users (id, email, auth_provider, google_id, created, updated) VALUES ('u3', 'bob@example.com', 'email', 'g1', ?, ?)`,
			args:  []any{now, now},
		},
		{
			name:  "google user with password",
			query: `INSERT INTO users (id, email, auth_provider, google_id, password, created, updated) VALUES ('u4', 'cy@example.com', 'google', 'g2', 'hash', ?, ?)`,
			args:  []any{now, now},
		},
		{
			name:  "unknown provider",
			query: `INSERT INTO users (id, email, auth_provider, created, updated) VALUES ('u5', 'di@example.com', 'github', ?, ?)`,
			args:  []any{now, now},
		},
		{
			name:  "archived and pinned note",
			query: `INSERT INTO notes (id, owner_id, title, is_pinned, is_archived, created, updated) VALUES ('n1', 'u1', 'T', 1, 1, ?, ?)`,
			args:  []any{now, now},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := exec(tc.query, tc.args...); err == nil {
				t.Error("expected the schema to reject the row")
			}
		})
	}
}
