package loader

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestCacheDoFetchesOnce(t *testing.T) {
	c := NewCache()
	file := DataFile{ID: "a", Path: "a.json"}

	var calls atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Do(file, func() ([]byte, error) {
				calls.Add(1)
				return []byte("content"), nil
			})
			if err != nil || string(got) != "content" {
				t.Errorf("Do = %q, %v", got, err)
			}
		}()
	}
	wg.Wait()

	if _, err := c.Do(file, func() ([]byte, error) {
		calls.Add(1)
		return nil, errors.New("should be cached")
	}); err != nil {
		t.Fatalf("expected cached value, got %v", err)
	}
	if n := calls.Load(); n < 1 || n > 8 {
		t.Fatalf("unexpected fetch count %d", n)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 cached entry, got %d", c.Len())
	}
}

func TestCacheErrorsAreNotCached(t *testing.T) {
	c := NewCache()
	file := DataFile{ID: "a", Path: "a.json"}

	if _, err := c.Do(file, func() ([]byte, error) { return nil, errors.New("boom") }); err == nil {
		t.Fatal("expected error")
	}
	got, err := c.Do(file, func() ([]byte, error) { return []byte("ok"), nil })
	if err != nil || string(got) != "ok" {
		t.Fatalf("Do after error = %q, %v", got, err)
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache()
	for _, p := range []string{"a.json", "b.json", "c.json"} {
		file := DataFile{ID: p, Path: p}
		if _, err := c.Do(file, func() ([]byte, error) { return []byte(p), nil }); err != nil {
			t.Fatal(err)
		}
	}

	c.Invalidate("b.json")
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries after targeted invalidate, got %d", c.Len())
	}
	c.Invalidate()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Len())
	}
}
