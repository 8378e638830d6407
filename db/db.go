// Package db embeds the goose migrations so tests and tools can apply them
// without depending on the working directory.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsRoot is the directory inside Migrations that goose reads.
const MigrationsRoot = "migrations"
