// Package sqlitestore persists feature flags in a SQLite database using the
// pure Go modernc.org/sqlite driver. It suits single-node deployments and the
// CLI, where running a database server would be overkill.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dmitrymomot/featuregate/pkg/feature"
)

const schema = `
CREATE TABLE IF NOT EXISTS feature_flags (
	name        TEXT PRIMARY KEY,
	description TEXT NOT NULL DEFAULT '',
	enabled     INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);`

// Storage implements feature.Storage on top of SQLite.
type Storage struct {
	db  *sql.DB
	now func() time.Time
}

var _ feature.Storage = (*Storage)(nil)

// Open opens (creating if needed) the database file at path and applies the schema.
func Open(ctx context.Context, path string) (*Storage, error) {
	path = filepath.Clean(path)
	if strings.TrimSpace(path) == "" || path == "." {
		return nil, errors.Join(feature.ErrStorageFailure, errors.New("sqlite path is required"))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Join(feature.ErrStorageFailure, err)
	}

	dsn := path + "?" + url.Values{
		"_pragma": []string{
			"busy_timeout(5000)",
			"journal_mode(WAL)",
			"synchronous(NORMAL)",
		},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Join(feature.ErrStorageFailure, err)
	}
	// SQLite allows a single writer; serializing through one connection
	// avoids SQLITE_BUSY under concurrent toggles.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already opened database and applies the schema.
func New(ctx context.Context, db *sql.DB) (*Storage, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, errors.Join(feature.ErrStorageFailure, err)
	}
	return &Storage{db: db, now: time.Now}, nil
}

// GetFlag returns the stored flag or feature.ErrFlagNotFound.
func (s *Storage) GetFlag(ctx context.Context, name string) (*feature.Flag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, description, enabled, created_at, updated_at FROM feature_flags WHERE name = ?`,
		name,
	)
	flag, err := scanFlag(row)
	if err != nil {
		return nil, classify(err)
	}
	return flag, nil
}

// ListFlags returns all stored flags ordered by name.
func (s *Storage) ListFlags(ctx context.Context) ([]*feature.Flag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, description, enabled, created_at, updated_at FROM feature_flags ORDER BY name`,
	)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	flags := make([]*feature.Flag, 0)
	for rows.Next() {
		flag, err := scanFlag(rows)
		if err != nil {
			return nil, classify(err)
		}
		flags = append(flags, flag)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return flags, nil
}

// CreateFlag inserts a new flag, returning feature.ErrFlagExists if the name is taken.
func (s *Storage) CreateFlag(ctx context.Context, flag *feature.Flag) error {
	if flag == nil {
		return errors.Join(feature.ErrInvalidFlag, errors.New("flag cannot be nil"))
	}
	if flag.Name == "" {
		return errors.Join(feature.ErrInvalidFlag, errors.New("flag name cannot be empty"))
	}

	created := flag.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	updated := flag.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO feature_flags (name, description, enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (name) DO NOTHING`,
		flag.Name, flag.Description, flag.Enabled, created.UnixNano(), updated.UnixNano(),
	)
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return feature.ErrFlagExists
	}
	return nil
}

// SetEnabled updates the enabled state of a stored flag.
func (s *Storage) SetEnabled(ctx context.Context, name string, enabled bool) (*feature.Flag, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE feature_flags SET enabled = ?, updated_at = ? WHERE name = ?
		 RETURNING name, description, enabled, created_at, updated_at`,
		enabled, s.now().UnixNano(), name,
	)
	flag, err := scanFlag(row)
	if err != nil {
		return nil, classify(err)
	}
	return flag, nil
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Storage) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFlag(row scanner) (*feature.Flag, error) {
	var (
		flag             feature.Flag
		created, updated int64
	)
	if err := row.Scan(&flag.Name, &flag.Description, &flag.Enabled, &created, &updated); err != nil {
		return nil, err
	}
	flag.CreatedAt = time.Unix(0, created).UTC()
	flag.UpdatedAt = time.Unix(0, updated).UTC()
	return &flag, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return feature.ErrFlagNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return errors.Join(feature.ErrStorageFailure, err)
	}
}
