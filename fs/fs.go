// Package appfs exposes the repository's embedded static files.
package appfs

import "embed"

//go:embed migrations/*.sql
var FS embed.FS
