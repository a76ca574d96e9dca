package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/go-pkgz/lgr"
	_ "github.com/jackc/pgx/v5/stdlib" // postgresql driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/umputun/random-theme/app/enum"
)

// DB implements configuration storage using SQLite or PostgreSQL.
type DB struct {
	db      *sqlx.DB
	backend enum.Backend
	mu      RWLocker
}

// NewDB creates a new DB store with the given database URL.
// postgres:// or postgresql:// goes to PostgreSQL, everything else is a SQLite file.
func NewDB(dbURL string) (*DB, error) {
	backend := enum.BackendSQLite
	if enum.DetectBackend(dbURL) == enum.BackendPostgres {
		backend = enum.BackendPostgres
	}

	var db *sqlx.DB
	var err error
	var locker RWLocker

	switch backend {
	case enum.BackendPostgres:
		db, err = connectPostgres(dbURL)
		locker = noopLocker{}
	default:
		db, err = connectSQLite(dbURL)
		locker = &sync.RWMutex{}
	}
	if err != nil {
		return nil, err
	}

	s := &DB{db: db, backend: backend, mu: locker}
	if err := s.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Printf("[DEBUG] initialized %s store", s.backend)
	return s, nil
}

// connectSQLite establishes SQLite connection with pragmas.
func connectSQLite(dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil { //nolint:noctx // init-time, no context available
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	// limit connections for SQLite (single writer)
	db.SetMaxOpenConns(1)
	return db, nil
}

// connectPostgres establishes PostgreSQL connection.
func connectPostgres(dbURL string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// createSchema creates the prefs table if it doesn't exist.
func (s *DB) createSchema() error {
	ts := "DATETIME DEFAULT CURRENT_TIMESTAMP"
	if s.backend == enum.BackendPostgres {
		ts = "TIMESTAMP DEFAULT NOW()"
	}
	schema := `
		CREATE TABLE IF NOT EXISTS prefs (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at ` + ts + `
		)`
	if _, err := s.db.Exec(schema); err != nil { //nolint:noctx // init-time, no context available
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Get retrieves the value for the given key.
// Returns ErrNotFound if the key does not exist.
func (s *DB) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.GetContext(ctx, &value, s.adoptQuery("SELECT value FROM prefs WHERE key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return value, nil
}

// Set stores the value for the given key, creating or replacing it.
func (s *DB) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := s.adoptQuery(`
		INSERT INTO prefs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}
	return nil
}

// Close closes the database connection.
func (s *DB) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// adoptQuery converts SQLite query syntax to PostgreSQL:
// - placeholders: ? → $1, $2, ...
// - case: excluded. → EXCLUDED.
func (s *DB) adoptQuery(query string) string {
	if s.backend != enum.BackendPostgres {
		return query
	}

	query = strings.ReplaceAll(query, "excluded.", "EXCLUDED.")

	result := make([]byte, 0, len(query)+10)
	paramNum := 1
	for i := range len(query) {
		if query[i] != '?' {
			result = append(result, query[i])
			continue
		}
		result = append(result, '$')
		result = append(result, strconv.Itoa(paramNum)...)
		paramNum++
	}
	return string(result)
}
