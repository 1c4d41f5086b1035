// Package migrations embeds the versioned schema for each supported driver.
package migrations

import "embed"

// Postgres holds the PostgreSQL migrations under the "postgres" directory
//
//go:embed postgres/*.sql
var Postgres embed.FS

// SQLite holds the SQLite migrations under the "sqlite" directory
//
//go:embed sqlite/*.sql
var SQLite embed.FS
