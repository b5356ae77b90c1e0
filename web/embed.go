// Package web embeds the page template, script and avatar icons so the
// server ships as a single binary.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static icons
var assetFS embed.FS

// Templates holds the HTML templates, rooted at templates/.
func Templates() fs.FS {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic("web: failed to create template filesystem: " + err.Error())
	}
	return sub
}

// Assets serves /static/* and /icons/*.
func Assets() http.Handler {
	return http.FileServer(http.FS(assetFS))
}
