package pg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrymomot/featuregate/internal/db"
)

// goose keeps its dialect, table and filesystem in package globals.
var gooseMu sync.Mutex

// Migrate applies pending schema migrations and returns the resulting
// schema version.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config, log *slog.Logger) (int64, error) {
	fsys, dir, err := migrationsFS(cfg)
	if err != nil {
		return 0, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	goose.SetLogger(gooseLogger{log: log})
	goose.SetTableName(migrationsTable(cfg))
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, errors.Join(ErrFailedToApplyMigrations, err)
	}
	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return 0, errors.Join(ErrFailedToApplyMigrations, err)
	}
	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return 0, errors.Join(ErrFailedToApplyMigrations, err)
	}
	return version, nil
}

func migrationsFS(cfg Config) (fs.FS, string, error) {
	if cfg.MigrationsPath == "" {
		return db.Migrations, db.MigrationsDir, nil
	}
	info, err := os.Stat(cfg.MigrationsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", errors.Join(ErrMigrationsDirNotFound, err)
		}
		return nil, "", errors.Join(ErrFailedToApplyMigrations, err)
	}
	if !info.IsDir() {
		return nil, "", fmt.Errorf("%w: %s is not a directory", ErrMigrationsDirNotFound, cfg.MigrationsPath)
	}
	return os.DirFS(cfg.MigrationsPath), ".", nil
}

func migrationsTable(cfg Config) string {
	if cfg.MigrationsTable == "" {
		return "featuregate_migrations"
	}
	return cfg.MigrationsTable
}

// gooseLogger routes goose output through slog.
type gooseLogger struct {
	log *slog.Logger
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(fmt.Sprintf(format, v...), slog.String("component", "migrate"))
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Info(fmt.Sprintf(format, v...), slog.String("component", "migrate"))
}
