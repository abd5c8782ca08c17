package db

import "embed"

// Migrations holds the embedded SQL migration files so both cmd/migrate and
// cmd/server can apply schema changes without a filesystem checkout.
//
//go:embed migrations/*.sql
var Migrations embed.FS
