package prompts

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.txt.tmpl
var promptsFS embed.FS

// FS returns the embedded screening templates.
func FS() fs.FS {
	if sub, err := fs.Sub(promptsFS, "templates"); err == nil {
		return sub
	}
	return promptsFS
}
