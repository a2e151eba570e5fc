package util

import (
	"strings"
	"testing"
)

func TestNewID(t *testing.T) {
	id, err := NewID("exp")
	if err != nil {
		t.Fatalf("NewID returned error: %v", err)
	}
	if !strings.HasPrefix(id, "exp_") {
		t.Fatalf("expected exp_ prefix, got %q", id)
	}
	if len(id) != len("exp_")+16 {
		t.Fatalf("unexpected id length %d for %q", len(id), id)
	}
	for _, r := range strings.TrimPrefix(id, "exp_") {
		if !strings.ContainsRune(idAlphabet, r) {
			t.Fatalf("unexpected rune %q in %q", r, id)
		}
	}

	other, err := NewID("")
	if err != nil {
		t.Fatalf("NewID returned error: %v", err)
	}
	if len(other) != 16 || other == id {
		t.Fatalf("unexpected unprefixed id %q", other)
	}
}
