package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ringmast4r/project147/pkg/loader"

	"codeberg.org/readeck/go-readability/v2"
)

// WebFileLoader fetches data files over HTTP relative to a base URL, e.g. a
// CDN mirror of the data directory.
type WebFileLoader struct {
	baseURL string
	client  *http.Client
	cache   *loader.Cache
}

// NewWebFileLoader creates a loader for baseURL. A nil client uses
// http.DefaultClient.
func NewWebFileLoader(baseURL string, client *http.Client) *WebFileLoader {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &WebFileLoader{
		baseURL: baseURL,
		client:  client,
		cache:   loader.NewCache(),
	}
}

// URL resolves a DataFile path against the base URL. Absolute URLs pass
// through unchanged.
func (l *WebFileLoader) URL(p string) string {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return l.baseURL + strings.TrimPrefix(p, "/")
}

func (l *WebFileLoader) GetFile(ctx context.Context, file loader.DataFile) ([]byte, error) {
	return l.cache.Do(file, func() ([]byte, error) {
		target := l.URL(file.Path)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch url: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", target, loader.ErrNotFound)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("fetch %s: unexpected status %d", target, resp.StatusCode)
		}

		return io.ReadAll(resp.Body)
	})
}

func (l *WebFileLoader) Invalidate(paths ...string) {
	l.cache.Invalidate(paths...)
}

// ReadableText extracts the main article text of an HTML page.
func ReadableText(content []byte, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}
	article, err := readability.FromReader(bytes.NewReader(content), u)
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}
	var builder strings.Builder
	if err := article.RenderText(&builder); err != nil {
		return "", fmt.Errorf("failed to render article text: %w", err)
	}
	return strings.TrimSpace(builder.String()), nil
}
