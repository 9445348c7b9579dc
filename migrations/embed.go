// Package migrations embeds the PostgreSQL schema for the pgvector store.
package migrations

import "embed"

// FS contains all SQL migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
