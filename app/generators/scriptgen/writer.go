package scriptgen

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteBytes writes rendered source to the fixed output file in dir. The
// previous content, if any, is overwritten in full. It returns the path
// written.
func WriteBytes(dir string, src []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
