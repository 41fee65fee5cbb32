package site

import (
	"embed"
	"io/fs"
)

//go:embed static/*
var staticFS embed.FS

// Index returns the embedded landing page.
func Index() ([]byte, error) {
	return fs.ReadFile(staticFS, "static/index.html")
}
