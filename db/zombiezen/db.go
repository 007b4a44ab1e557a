package zombiezen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caasmo/notespieces/db"
	"github.com/caasmo/notespieces/migrations"
	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

type Db struct {
	pool *sqlitex.Pool
	// ownsPool is set when the pool was opened by Open and must be closed
	// with the Db.
	ownsPool bool
}

// Verify interface implementations
var _ db.DbApp = (*Db)(nil)

// New creates a new Db instance using an existing pool provided by the user.
// The lifecycle of the provided pool is managed externally and the schema
// is expected to be applied already. Every connection of the pool must be
// prepared with PrepareConn.
func New(pool *sqlitex.Pool) (*Db, error) {
	if pool == nil {
		return nil, fmt.Errorf("provided pool cannot be nil")
	}
	return &Db{pool: pool}, nil
}

// Open opens the database file at path with poolSize connections, enables
// foreign keys on every connection and applies the embedded schema.
func Open(ctx context.Context, path string, poolSize int) (*Db, error) {
	pool, err := sqlitex.NewPool("file:"+path, sqlitex.PoolOptions{
		PoolSize: poolSize,
		PrepareConn: PrepareConn,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite pool %s: %w", path, err)
	}

	conn, err := pool.Take(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to get db connection: %w", err)
	}
	err = ApplyMigrations(conn, migrations.Schema())
	pool.Put(conn)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &Db{pool: pool, ownsPool: true}, nil
}

// PrepareConn enables foreign keys and registers go_lower, a unicode aware
// lower(). SQLite's own lower() folds ASCII only.
func PrepareConn(conn *sqlite.Conn) error {
	if err := sqlitex.ExecuteTransient(conn, "PRAGMA foreign_keys = ON;", nil); err != nil {
		return err
	}
	return conn.CreateFunction("go_lower", &sqlite.FunctionImpl{
		NArgs:         1,
		Deterministic: true,
		Scalar: func(ctx sqlite.Context, args []sqlite.Value) (sqlite.Value, error) {
			if args[0].Type() == sqlite.TypeNull {
				return sqlite.Value{}, nil
			}
			return sqlite.TextValue(strings.ToLower(args[0].Text())), nil
		},
	})
}

func (d *Db) Close() error {
	if !d.ownsPool {
		return nil
	}
	return d.pool.Close()
}

func (d *Db) Ping(ctx context.Context) error {
	conn, err := d.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("failed to get db connection: %w", err)
	}
	defer d.pool.Put(conn)

	return sqlitex.ExecuteTransient(conn, "SELECT 1;", nil)
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// now is truncated to the stored precision so values returned by writes
// equal the values read back.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func isUniqueViolation(err error) bool {
	return sqlite.ErrCode(err) == sqlite.ResultConstraintUnique
}

// nullable maps the empty string to NULL, for columns with a unique index
// that only applies to some rows.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

var errNoRows = errors.New("no rows returned")
