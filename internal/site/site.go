// Package site locates a WordPress install on disk and the account owning it.
package site

import (
	"fmt"
	"os"
	"path/filepath"

	"bludgeon/internal/util"
)

// Site is a resolved WordPress install directory.
type Site struct {
	Path  string
	Owner string
}

// Resolve expands and absolutises path, checks it is a directory and looks up
// its owner.
func Resolve(path string) (*Site, error) {
	expanded, err := util.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("cannot access WordPress install at %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("WordPress install path %s is not a directory", abs)
	}

	owner, err := ownerOf(info)
	if err != nil {
		return nil, fmt.Errorf("failed to determine owner of %s: %w", abs, err)
	}
	return &Site{Path: abs, Owner: owner}, nil
}
