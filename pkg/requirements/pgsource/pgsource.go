// Package pgsource loads the requirements matrix from the feature_requirements
// table in PostgreSQL. Each row is one (flag, layer, operation) rule with its
// subtype array.
package pgsource

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/featuregate/pkg/requirements"
)

// Querier is the subset of *pgxpool.Pool used by Source.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Source implements requirements.Source over a pgx pool.
type Source struct {
	db Querier
}

var _ requirements.Source = (*Source)(nil)

// New creates a source reading through db.
func New(db Querier) *Source {
	return &Source{db: db}
}

// Load reads every rule. Layer names are not validated here; the resolver
// rejects unknown ones when parsing.
func (s *Source) Load(ctx context.Context) (requirements.Document, error) {
	rows, err := s.db.Query(ctx,
		`SELECT flag_name, layer, operation_name, subtypes
		 FROM feature_requirements
		 ORDER BY flag_name, layer, operation_name`,
	)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	doc := requirements.Document{}
	for rows.Next() {
		var (
			flag, layer, operation string
			subtypes               []string
		)
		if err := rows.Scan(&flag, &layer, &operation, &subtypes); err != nil {
			return nil, unavailable(err)
		}
		doc.Add(flag, requirements.Layer(layer), operation, subtypes...)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return doc, nil
}

func unavailable(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Join(requirements.ErrSourceUnavailable, err)
}
