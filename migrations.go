// Package shelfarr carries the embedded database migrations so every
// binary ships its schema.
package shelfarr

import "embed"

//go:embed migrations/*.sql
var MigrationsFS embed.FS
