package migrations

import "embed"

// FS SQL-миграции схемы витрины в формате goose
//
//go:embed *.sql
var FS embed.FS
