// Package db embeds the schema migrations for each supported driver.
package db

import "embed"

//go:embed migrations
var Migrations embed.FS

// Dir returns the migration folder inside Migrations for a driver name.
func Dir(driver string) string {
	switch driver {
	case "sqlite", "sqlite3":
		return "migrations/sqlite"
	default:
		return "migrations/postgres"
	}
}
