package io

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ringmast4r/project147/pkg/loader"
)

// IOFileLoader reads data files from a directory on the local filesystem.
type IOFileLoader struct {
	root  string
	cache *loader.Cache
}

// NewIOFileLoader creates a loader rooted at dir. Absolute file paths are
// read as is.
func NewIOFileLoader(dir string) *IOFileLoader {
	return &IOFileLoader{
		root:  dir,
		cache: loader.NewCache(),
	}
}

func (l *IOFileLoader) Root() string {
	return l.root
}

// Resolve returns the filesystem path a DataFile path maps to.
func (l *IOFileLoader) Resolve(path string) string {
	if filepath.IsAbs(path) || l.root == "" {
		return path
	}
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// GetFile reads the file content from disk. Results are cached until
// Invalidate is called.
func (l *IOFileLoader) GetFile(ctx context.Context, file loader.DataFile) ([]byte, error) {
	return l.cache.Do(file, func() ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := os.ReadFile(l.Resolve(file.Path))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", file.Path, loader.ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		return content, nil
	})
}

func (l *IOFileLoader) Invalidate(paths ...string) {
	l.cache.Invalidate(paths...)
}
