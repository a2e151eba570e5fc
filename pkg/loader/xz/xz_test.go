package xz

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ringmast4r/project147/pkg/loader"
	fileio "github.com/ringmast4r/project147/pkg/loader/io"
)

func TestXZFileLoader(t *testing.T) {
	dir := t.TempDir()
	payload := []byte("From Verse\tTo Verse\tVotes\nGen.1.1\tJohn.1.1\t250\n")

	compressed, err := Compress(payload)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cross_references.txt.xz"), compressed, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plain.txt"), []byte("plain"), 0o600); err != nil {
		t.Fatal(err)
	}

	l := NewXZFileLoader(fileio.NewIOFileLoader(dir))

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "explicit xz path", path: "cross_references.txt.xz", want: string(payload)},
		{name: "falls back to xz sibling", path: "cross_references.txt", want: string(payload)},
		{name: "plain file untouched", path: "plain.txt", want: "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.GetFile(context.Background(), loader.NewDataFile(tt.path, loader.DataFileKindTSV, l))
			if err != nil {
				t.Fatalf("GetFile: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecompressRejectsGarbage(t *testing.T) {
	if _, err := Decompress([]byte("not xz")); err == nil {
		t.Fatal("expected error for non-xz input")
	}
}
