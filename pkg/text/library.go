package text

import (
	"context"
	"strings"
	"sync"

	"github.com/ringmast4r/project147/pkg/bible"
)

type Source string

const (
	SourceKJV     Source = "kjv"
	SourceDeutero Source = "deuterocanonical"
)

// Resolved is the text found for a reference and the collection it came
// from. Text is empty when no collection knows the reference.
type Resolved struct {
	Ref    string `json:"ref"`
	Text   string `json:"text"`
	Source Source `json:"source,omitempty"`
}

// libraryBooks resolves any book name, supplements included, for chapter
// lookups in the deuterocanonical collection.
var libraryBooks = sync.OnceValue(bible.CompleteLibrary)

// Library tries the canonical text, then the deuterocanonical text, then
// the Gnostic and Dead Sea Scrolls excerpts. Any collection may be nil.
type Library struct {
	KJV          *BibleText
	Deutero      *DeuteroText
	NonCanonical *NonCanonicalText
}

func (l *Library) Resolve(ctx context.Context, ref string) Resolved {
	ref = strings.TrimSpace(ref)
	out := Resolved{Ref: ref}
	if ref == "" {
		return out
	}

	if l.KJV != nil {
		if t := l.KJV.RangeText(ref); t != "" {
			out.Text, out.Source = t, SourceKJV
			return out
		}
	}
	if l.Deutero != nil {
		if t := l.Deutero.RangeText(ref); t != "" {
			out.Text, out.Source = t, SourceDeutero
			return out
		}
	}
	if l.NonCanonical != nil {
		if parsed, ok := l.NonCanonical.ParseReference(ref); ok {
			if t := l.NonCanonical.VerseText(ctx, ref); t != "" {
				out.Text, out.Source = t, Source(parsed.Kind)
			}
		}
	}
	return out
}

// Chapter lists a chapter from the canonical text, falling back to the
// deuterocanonical collection for books the KJV does not carry.
func (l *Library) Chapter(book string, chapter int) ([]Verse, error) {
	if l.KJV != nil && l.KJV.Loaded() {
		if b, ok := bible.DefaultRegistry().ByName(book); ok && b.Canon == bible.CanonCanonical {
			return l.KJV.Chapter(book, chapter)
		}
	}
	if l.Deutero != nil && l.Deutero.Loaded() {
		abbrev := DeuteroAbbrev(book)
		if b, ok := libraryBooks().Lookup(book); ok {
			abbrev = b.Abbrev
		}
		if verses := l.Deutero.ChapterVerses(abbrev, chapter); len(verses) > 0 {
			return verses, nil
		}
	}
	if l.KJV == nil || !l.KJV.Loaded() {
		return nil, ErrNotLoaded
	}
	return l.KJV.Chapter(book, chapter)
}
