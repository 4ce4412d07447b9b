package postgres

import "embed"

// MigrationsFS embeds the goose SQL migrations so the binary can
// migrate its own schema at startup.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
