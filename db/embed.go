// Package db holds the SQL migrations applied to the Postgres store.
package db

import "embed"

// Migrations contains migrations/*.sql for goose.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations that goose reads.
const MigrationsDir = "migrations"
