package text

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseVerseMarkedText(t *testing.T) {
	got := ParseVerseMarkedText("[1:1] In the first year\n[1:2] of Cyrus [1:3]   \n[2:1] And after these things")
	want := map[string]string{
		"1:1": "In the first year",
		"1:2": "of Cyrus",
		"2:1": "And after these things",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d verses, want %d: %#v", len(got), len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("verse %s = %q, want %q", k, got[k], v)
		}
	}
}

func TestConvertScrollmapper(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "tobit"), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tobit", "tobit.txt"), []byte("[1:1] The book of the words of Tobit [1:2] who in the time"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "sirach"), 0o700); err != nil {
		t.Fatal(err)
	}

	doc, err := ConvertScrollmapper(dir)
	if err != nil {
		t.Fatalf("ConvertScrollmapper: %v", err)
	}
	if doc.BookCount != 1 {
		t.Fatalf("expected 1 book, got %d", doc.BookCount)
	}
	tob := doc.Books["Tob"]
	if tob.Name != "Tobit" || tob.VerseCount != 2 || tob.Verses["1:2"] != "who in the time" {
		t.Fatalf("unexpected Tobit entry %+v", tob)
	}

	d := NewDeuteroTextFromDocument(doc)
	if got := d.VerseText("Tob.1.1"); got != "The book of the words of Tobit" {
		t.Fatalf("converted document not readable: %q", got)
	}

	if _, err := ConvertScrollmapper(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
