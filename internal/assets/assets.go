// Package assets holds files that are compiled into the binary.
package assets

import "embed"

//go:embed all:migrations
var MigrationsFS embed.FS
