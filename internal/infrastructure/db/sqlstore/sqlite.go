package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteConfig holds the settings of the embedded SQLite backend.
type SQLiteConfig struct {
	Path string
	// MaxOpenConns caps the pool. In-memory databases need exactly one
	// connection, since each connection would otherwise see its own database.
	MaxOpenConns int
}

type sqliteDialect struct{}

func (sqliteDialect) name() string { return "sqlite" }

func (sqliteDialect) schema() []string {
	return []string{`
		CREATE TABLE IF NOT EXISTS users (
			user_id       INTEGER   PRIMARY KEY AUTOINCREMENT,
			username      TEXT      UNIQUE NOT NULL,
			email         TEXT      UNIQUE NOT NULL,
			password_hash TEXT      NOT NULL,
			role          TEXT      NOT NULL DEFAULT 'employee' CHECK (role IN ('admin', 'employee')),
			first_name    TEXT,
			last_name     TEXT,
			phone         TEXT,
			is_active     INTEGER   NOT NULL DEFAULT 1,
			created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login    TIMESTAMP NULL,
			created_by    INTEGER   REFERENCES users(user_id) ON DELETE SET NULL,
			updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
}

func (sqliteDialect) isDuplicate(err error) bool {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	switch liteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// OpenSQLite opens (creating if needed) the database at cfg.Path, enables
// foreign keys and a busy timeout, and applies the schema. Writes through the
// returned Store are serialized since SQLite allows a single writer.
func OpenSQLite(ctx context.Context, cfg SQLiteConfig) (*Store, error) {
	if cfg.Path != ":memory:" && !strings.HasPrefix(cfg.Path, "file:") {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout(5000)")
	params.Set("_time_format", "sqlite")

	db, err := sql.Open("sqlite", cfg.Path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)

	return open(ctx, db, sqliteDialect{}, new(sync.Mutex))
}

func open(ctx context.Context, db *sql.DB, d dialect, writeMu *sync.Mutex) (*Store, error) {
	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s ping: %w", d.name(), err)
	}

	s := &Store{db: db, dialect: d, writeMu: writeMu}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}
