// Package migrations holds the embedded SQL migrations for the sqlite database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
