// Package text resolves cross-reference endpoints to displayable verse text
// for the canonical (KJV), deuterocanonical and non-canonical libraries.
package text

import (
	"errors"
	"strings"
)

// ErrNotLoaded is returned by loaders queried before their data arrived.
var ErrNotLoaded = errors.New("text source not loaded")

const continuedSuffix = " [continued...]"

// Verse is one verse of a chapter listing.
type Verse struct {
	Verse int    `json:"verse"`
	Text  string `json:"text"`
}

// Truncate caps s at max runes, replacing the tail with "...".
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func isRange(ref string) bool {
	return strings.Contains(ref, "-")
}
