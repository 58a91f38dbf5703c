// Package db embeds the goose migrations, one directory per SQL dialect.
package db

import "embed"

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var Migrations embed.FS

// MigrationsDir returns the directory inside Migrations for a goose dialect.
func MigrationsDir(dialect string) string {
	return "migrations/" + dialect
}
