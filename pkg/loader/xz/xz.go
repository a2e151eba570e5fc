package xz

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ringmast4r/project147/pkg/loader"

	"github.com/ulikunitz/xz"
)

const ext = ".xz"

// XZFileLoader decorates another loader with transparent xz decompression.
// A path ending in ".xz" is always decompressed; a plain path that does not
// exist is retried with ".xz" appended.
type XZFileLoader struct {
	base  loader.FileLoader
	cache *loader.Cache
}

func NewXZFileLoader(base loader.FileLoader) *XZFileLoader {
	return &XZFileLoader{
		base:  base,
		cache: loader.NewCache(),
	}
}

func (l *XZFileLoader) GetFile(ctx context.Context, file loader.DataFile) ([]byte, error) {
	return l.cache.Do(file, func() ([]byte, error) {
		if strings.HasSuffix(file.Path, ext) {
			return l.fetchCompressed(ctx, file)
		}

		content, err := l.base.GetFile(ctx, file)
		if err == nil {
			return content, nil
		}
		if !errors.Is(err, loader.ErrNotFound) {
			return nil, err
		}

		compressed := file
		compressed.ID = file.ID + ext
		compressed.Path = file.Path + ext
		return l.fetchCompressed(ctx, compressed)
	})
}

func (l *XZFileLoader) fetchCompressed(ctx context.Context, file loader.DataFile) ([]byte, error) {
	raw, err := l.base.GetFile(ctx, file)
	if err != nil {
		return nil, err
	}
	return Decompress(raw)
}

// Invalidate drops decompressed entries and forwards to the wrapped loader.
func (l *XZFileLoader) Invalidate(paths ...string) {
	l.cache.Invalidate(paths...)
	inv, ok := l.base.(loader.Invalidator)
	if !ok {
		return
	}
	if len(paths) == 0 {
		inv.Invalidate()
		return
	}
	all := make([]string, 0, 2*len(paths))
	for _, p := range paths {
		all = append(all, p, p+ext)
	}
	inv.Invalidate(all...)
}

func Decompress(raw []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("open xz stream: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress xz: %w", err)
	}
	return out, nil
}

// Compress is used by the offline tooling when publishing data files.
func Compress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
