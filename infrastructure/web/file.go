package web

import (
	"fmt"
	"io/fs"
	"net/http"
	"strings"
)

// FileServer serves the files of dir inside static under prefix. Requests
// for the prefix itself get index.html, unknown files a 404.
func (wh *WebHandler) FileServer(static fs.FS, dir string, prefix string) error {
	fSys, err := fs.Sub(static, dir)
	if err != nil {
		return fmt.Errorf("switching to static folder: %w", err)
	}

	fileServer := http.StripPrefix(strings.TrimSuffix(prefix, "/"), http.FileServerFS(fSys))
	wh.mux.Handle(fmt.Sprintf("GET %s", prefix), fileServer)

	return nil
}
