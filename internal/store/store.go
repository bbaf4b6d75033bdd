package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Postgres through pgx's database/sql adapter, registered as "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Supported values for Options.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects the database backend.
type Options struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string

	// DSN is the connection string. For sqlite it may also be a plain
	// file path, in which case the required pragmas are added.
	DSN string
}

// Store holds the database handle and provides access to repositories.
type Store struct {
	db      *sql.DB
	dialect string
}

// Open connects to the database described by opts and runs auto-migration.
func Open(ctx context.Context, opts Options) (*Store, error) {
	var driverName, dialectName, dsn string
	switch opts.Driver {
	case "", DriverSQLite:
		driverName, dialectName = "sqlite", dialect.SQLite
		dsn = SQLiteDSN(opts.DSN)
	case DriverPostgres:
		driverName, dialectName = "pgx", dialect.Postgres
		dsn = opts.DSN
		if dsn == "" {
			dsn = "postgres://localhost:5432/quizdoc?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", opts.Driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrate(ctx, entsql.OpenDB(dialectName, db)); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return &Store{db: db, dialect: dialectName}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the ent dialect name of the connected database.
func (s *Store) Dialect() string {
	return s.dialect
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// QuizRepo returns a QuizRepo backed by this store.
func (s *Store) QuizRepo() QuizRepo {
	return &quizRepo{db: s.db, b: entsql.Dialect(s.dialect)}
}

// EventRepo returns an EventRepo backed by this store.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{db: s.db, b: entsql.Dialect(s.dialect)}
}

// SQLiteDSN turns a file path into a modernc DSN with the pragmas every
// pooled connection needs. Foreign keys must be on for cascading deletes
// and for the migration engine. A value that already has a query string
// is returned as-is.
func SQLiteDSN(path string) string {
	if path == "" {
		path = "quizdoc.db"
	}
	if u, err := url.Parse(path); err == nil && u.RawQuery != "" {
		return path
	}
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	return "file:" + path + "?" + q.Encode()
}

// DefaultDBPath resolves the database file path in priority order:
// 1. QUIZDOC_DB environment variable
// 2. $XDG_DATA_HOME/quizdoc/quizdoc.db
// 3. ~/.local/share/quizdoc/quizdoc.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("QUIZDOC_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "quizdoc", "quizdoc.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
