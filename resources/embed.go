package resources

import "embed"

// FS exposes the static resource files.
//
//go:embed app.css
var FS embed.FS
