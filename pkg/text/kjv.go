package text

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/ringmast4r/project147/pkg/bible"
	"github.com/ringmast4r/project147/pkg/loader"
	"github.com/ringmast4r/project147/pkg/logger"
)

const kjvTextLimit = 200

// BibleText serves KJV verse text keyed "Genesis 1:1".
type BibleText struct {
	file loader.DataFile

	mu     sync.RWMutex
	verses map[string]string
}

func NewBibleText(file loader.DataFile) *BibleText {
	return &BibleText{file: file}
}

// NewBibleTextFromMap wraps an already decoded verse map.
func NewBibleTextFromMap(verses map[string]string) *BibleText {
	return &BibleText{verses: verses}
}

func (b *BibleText) Load(ctx context.Context) error {
	content, err := b.file.Read(ctx)
	if err != nil {
		return fmt.Errorf("load bible text: %w", err)
	}
	var verses map[string]string
	if err := json.Unmarshal(content, &verses); err != nil {
		return fmt.Errorf("decode bible text %s: %w", b.file.Path, err)
	}

	b.mu.Lock()
	b.verses = verses
	b.mu.Unlock()

	logger.Info("[Text] Loaded Bible text", "verses", len(verses))
	return nil
}

func (b *BibleText) Loaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.verses != nil
}

// Verses exposes the raw verse map. Callers must not modify it.
func (b *BibleText) Verses() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.verses
}

func (b *BibleText) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.verses)
}

// VerseText returns the text for a reference, truncated to 200
// characters, or "" when it is unknown. Both verse keys ("Genesis 1:1")
// and OSIS references ("Gen.1.1") are accepted; only the first verse of a
// range is used.
func (b *BibleText) VerseText(ref string) string {
	first, _ := bible.FirstOfRange(strings.TrimSpace(ref))
	if first == "" {
		return ""
	}

	b.mu.RLock()
	text, ok := b.verses[first]
	if !ok {
		if key := bible.Normalize(first); key != "" {
			text = b.verses[key]
		}
	}
	b.mu.RUnlock()

	if text == "" {
		return ""
	}
	return Truncate(text, kjvTextLimit)
}

// RangeText is VerseText with a continuation marker for ranges.
func (b *BibleText) RangeText(ref string) string {
	if ref == "" {
		return ""
	}
	text := b.VerseText(ref)
	if text != "" && isRange(ref) {
		return text + continuedSuffix
	}
	return text
}

// Chapter lists every verse of a chapter in verse order.
func (b *BibleText) Chapter(book string, chapter int) ([]Verse, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.verses == nil {
		return nil, ErrNotLoaded
	}

	var verses []Verse
	for key, text := range b.verses {
		refBook, ch, v, ok := bible.SplitVerseKey(key)
		if !ok || refBook != book || ch != chapter {
			continue
		}
		verses = append(verses, Verse{Verse: v, Text: text})
	}
	slices.SortFunc(verses, func(a, b Verse) int { return a.Verse - b.Verse })
	return verses, nil
}
