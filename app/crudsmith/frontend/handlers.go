// Package frontend serves the gateway's browser editor.
package frontend

import (
	"embed"
	"fmt"

	"github.com/jrazmi/crudsmith/infrastructure/web"
)

//go:embed static
var staticFiles embed.FS

// AddHandlers serves the editor at / and its assets beside it.
func AddHandlers(wh *web.WebHandler) (*web.WebHandler, error) {
	if err := wh.FileServer(staticFiles, "static", "/"); err != nil {
		return wh, fmt.Errorf("frontend: %w", err)
	}
	return wh, nil
}
