package pg_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/featuregate/pkg/pg"
)

func TestConnectValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := pg.Connect(context.Background(), pg.Config{})
	require.ErrorIs(t, err, pg.ErrEmptyConnectionString)

	_, err = pg.Connect(context.Background(), pg.Config{ConnectionString: "postgres://%zz"})
	require.ErrorIs(t, err, pg.ErrFailedToParseDBConfig)
}

func TestMigrateMissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := pg.Migrate(context.Background(), nil, pg.Config{MigrationsPath: t.TempDir() + "/missing"}, nil)
	require.ErrorIs(t, err, pg.ErrMigrationsDirNotFound)
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	assert.True(t, pg.IsNotFoundError(fmt.Errorf("get flag: %w", pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFoundError(nil))
	assert.False(t, pg.IsNotFoundError(errors.New("boom")))

	assert.True(t, pg.IsDuplicateKeyError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, pg.IsDuplicateKeyError(&pgconn.PgError{Code: "23514"}))
	assert.False(t, pg.IsDuplicateKeyError(nil))

	assert.True(t, pg.IsCheckViolationError(errors.Join(errors.New("insert"), &pgconn.PgError{Code: "23514"})))
	assert.False(t, pg.IsCheckViolationError(pgx.ErrNoRows))
}
