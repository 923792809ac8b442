// Package ui serves the question page.
package ui

import (
	"fmt"
	"io/fs"
	"net/http"
)

// Handler serves the contents of dist/ at the root path.
func Handler() (http.Handler, error) {
	sub, err := fs.Sub(DistFS(), "dist")
	if err != nil {
		return nil, fmt.Errorf("failed to open ui dist: %w", err)
	}
	return http.FileServerFS(sub), nil
}
