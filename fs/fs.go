package appfs

import "embed"

// FS holds the database migrations, email templates and report fonts.
//
//go:embed migrations templates fonts
var FS embed.FS
