package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned (wrapped) by loaders when a file does not exist at
// the source.
var ErrNotFound = errors.New("data file not found")

type DataFileKind string

const (
	DataFileKindTSV  DataFileKind = "tsv"
	DataFileKindJSON DataFileKind = "json"
	DataFileKindHTML DataFileKind = "html"
	DataFileKindText DataFileKind = "text"
)

// DataFile describes one static input of the atlas (a cross-reference dump,
// a verse text JSON, a theographic table, a Gnostic HTML page). Path is
// relative to the source the Loader reads from: a directory, an S3 prefix or
// a base URL.
type DataFile struct {
	ID     string
	Path   string
	Kind   DataFileKind
	Loader FileLoader
}

// NewDataFile creates a DataFile whose ID defaults to its path.
func NewDataFile(path string, kind DataFileKind, l FileLoader) DataFile {
	return DataFile{
		ID:     path,
		Path:   path,
		Kind:   kind,
		Loader: l,
	}
}

// Read returns the raw file content.
func (f DataFile) Read(ctx context.Context) ([]byte, error) {
	if f.Loader == nil {
		return nil, fmt.Errorf("data file %s has no loader", f.Path)
	}
	return f.Loader.GetFile(ctx, f)
}

// ReadJSON reads the file and decodes it into v.
//
// Example:
//
//	var people []theographic.Person
//	if err := file.ReadJSON(ctx, &people); err != nil {
//		return err
//	}
func (f DataFile) ReadJSON(ctx context.Context, v any) error {
	content, err := f.Read(ctx)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return nil
}

// FileLoader loads the contents of a DataFile. Implementations read from
// disk, S3, HTTP, or decorate another loader.
type FileLoader interface {
	GetFile(ctx context.Context, file DataFile) ([]byte, error)
}

// Invalidator is implemented by caching loaders that can drop entries.
type Invalidator interface {
	Invalidate(paths ...string)
}

func CacheKey(file DataFile) string {
	return file.ID + ":" + file.Path
}
