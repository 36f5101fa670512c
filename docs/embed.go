package docs

import "embed"

// FS contains long-form Markdown docs bundled with the quarry binary.
//
//go:embed index.yaml guide reference
var FS embed.FS
