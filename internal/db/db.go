// Package db holds the SQL schema for the PostgreSQL flag store and
// requirements source.
package db

import "embed"

// Migrations contains the goose migrations under "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations holding the files.
const MigrationsDir = "migrations"
