package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ringmast4r/project147/pkg/loader"
)

func TestWebFileLoader(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/data/theographic/places.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id":"rec1"}]`))
		case "/data/broken.json":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewWebFileLoader(srv.URL+"/data", srv.Client())
	file := loader.NewDataFile("theographic/places.json", loader.DataFileKindJSON, l)

	for i := 0; i < 2; i++ {
		got, err := file.Read(context.Background())
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if string(got) != `[{"id":"rec1"}]` {
			t.Fatalf("unexpected body %q", got)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one request, got %d", hits.Load())
	}

	_, err := loader.NewDataFile("missing.json", loader.DataFileKindJSON, l).Read(context.Background())
	if !errors.Is(err, loader.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = loader.NewDataFile("broken.json", loader.DataFileKindJSON, l).Read(context.Background())
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestWebFileLoaderURL(t *testing.T) {
	l := NewWebFileLoader("https://cdn.example.org/data", nil)
	if got := l.URL("/books.json"); got != "https://cdn.example.org/data/books.json" {
		t.Fatalf("URL = %q", got)
	}
	if got := l.URL("https://other.example.org/x.html"); got != "https://other.example.org/x.html" {
		t.Fatalf("URL = %q", got)
	}
}

func TestReadableText(t *testing.T) {
	page := `<html><head><title>Gospel of Truth</title></head><body>
<article><h1>The Gospel of Truth</h1>
<p>The gospel of truth is a joy for those who have received from the Father of truth the grace of knowing him,
through the power of the Word that came forth from the pleroma, the one who is in the thought and the mind of the Father.</p>
<p>Ignorance of the Father brought about anguish and terror; and the anguish grew solid like a fog, so that no one was able to see.</p>
</article></body></html>`

	got, err := ReadableText([]byte(page), "https://example.org/gtruth.html")
	if err != nil {
		t.Fatalf("ReadableText: %v", err)
	}
	if !strings.Contains(got, "gospel of truth is a joy") {
		t.Fatalf("unexpected readable text %q", got)
	}
}
