// Package pgstore persists feature flags in PostgreSQL via pgx.
//
// The schema lives in internal/db/migrations and is applied with pg.Migrate.
package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/featuregate/pkg/feature"
	"github.com/dmitrymomot/featuregate/pkg/pg"
)

// DB is the subset of *pgxpool.Pool used by Storage.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Storage implements feature.Storage over the feature_flags table.
type Storage struct {
	db  DB
	now func() time.Time
}

var _ feature.Storage = (*Storage)(nil)

// New creates a storage over db. The pool stays owned by the caller.
func New(db DB) *Storage {
	return &Storage{db: db, now: time.Now}
}

const selectColumns = `name, description, enabled, created_at, updated_at`

// GetFlag returns the stored flag or feature.ErrFlagNotFound.
func (s *Storage) GetFlag(ctx context.Context, name string) (*feature.Flag, error) {
	row := s.db.QueryRow(ctx, `SELECT `+selectColumns+` FROM feature_flags WHERE name = $1`, name)
	flag, err := scanFlag(row)
	if err != nil {
		return nil, classify(err)
	}
	return flag, nil
}

// ListFlags returns all stored flags ordered by name.
func (s *Storage) ListFlags(ctx context.Context) ([]*feature.Flag, error) {
	rows, err := s.db.Query(ctx, `SELECT `+selectColumns+` FROM feature_flags ORDER BY name`)
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

	_, err := s.db.Exec(ctx,
		`INSERT INTO feature_flags (name, description, enabled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		flag.Name, flag.Description, flag.Enabled, created, updated,
	)
	if err != nil {
		return classify(err)
	}
	return nil
}

// SetEnabled updates the enabled state of a stored flag.
func (s *Storage) SetEnabled(ctx context.Context, name string, enabled bool) (*feature.Flag, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE feature_flags SET enabled = $1, updated_at = $2 WHERE name = $3
		 RETURNING `+selectColumns,
		enabled, s.now(), name,
	)
	flag, err := scanFlag(row)
	if err != nil {
		return nil, classify(err)
	}
	return flag, nil
}

// Close is a no-op; the pool is closed by its owner.
func (s *Storage) Close() error {
	return nil
}

func scanFlag(row pgx.Row) (*feature.Flag, error) {
	var flag feature.Flag
	if err := row.Scan(&flag.Name, &flag.Description, &flag.Enabled, &flag.CreatedAt, &flag.UpdatedAt); err != nil {
		return nil, err
	}
	return &flag, nil
}

func classify(err error) error {
	switch {
	case pg.IsNotFoundError(err):
		return feature.ErrFlagNotFound
	case pg.IsDuplicateKeyError(err):
		return errors.Join(feature.ErrFlagExists, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return errors.Join(feature.ErrStorageFailure, err)
	}
}
