package bible

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidReference = errors.New("invalid reference")

// Reference is a parsed OSIS style verse reference such as "Gen.1.1".
type Reference struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
	Range   bool   `json:"range,omitempty"`
}

func (r Reference) String() string {
	if r.Verse == 0 {
		return fmt.Sprintf("%s.%d", r.Book, r.Chapter)
	}
	return fmt.Sprintf("%s.%d.%d", r.Book, r.Chapter, r.Verse)
}

// FirstOfRange returns the start of a range reference ("Ps.89.11-Ps.89.12"
// gives "Ps.89.11") and whether ref was a range.
func FirstOfRange(ref string) (string, bool) {
	first, _, isRange := strings.Cut(ref, "-")
	return first, isRange
}

// ParseOSIS parses "Book.Chapter[.Verse]". Ranges resolve to their first
// verse with Range set.
func ParseOSIS(ref string) (Reference, error) {
	first, isRange := FirstOfRange(strings.TrimSpace(ref))
	parts := strings.Split(first, ".")
	if len(parts) < 2 || parts[0] == "" {
		return Reference{}, fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}

	chapter, err := strconv.Atoi(parts[1])
	if err != nil || chapter < 1 {
		return Reference{}, fmt.Errorf("%w: bad chapter in %q", ErrInvalidReference, ref)
	}

	verse := 0
	if len(parts) > 2 {
		verse, err = strconv.Atoi(parts[2])
		if err != nil || verse < 0 {
			return Reference{}, fmt.Errorf("%w: bad verse in %q", ErrInvalidReference, ref)
		}
	}

	return Reference{
		Book:    parts[0],
		Chapter: chapter,
		Verse:   verse,
		Range:   isRange,
	}, nil
}

var osisPattern = regexp.MustCompile(`^([A-Za-z0-9]+)\.(.+)$`)

// textKeyNames are the non-canonical books verse text files key by full
// name. Other supplement abbreviations stay as written.
var textKeyNames = map[string]string{
	"Tob":    "Tobit",
	"Jdt":    "Judith",
	"Wis":    "Wisdom",
	"Sir":    "Sirach",
	"Bar":    "Baruch",
	"1Macc":  "1 Maccabees",
	"2Macc":  "2 Maccabees",
	"3Macc":  "3 Maccabees",
	"4Macc":  "4 Maccabees",
	"1En":    "1 Enoch",
	"2En":    "2 Enoch",
	"3En":    "3 Enoch",
	"Jub":    "Jubilees",
	"4Ezra":  "4 Ezra",
	"PsSol":  "Psalms of Solomon",
	"T12Pat": "Testament of Twelve Patriarchs",
}

// Normalize converts "Gen.1.1" into the verse text key "Genesis 1:1". Only
// the first verse of a range is used. The 66 canon books and the names in
// textKeyNames are expanded; any other abbreviation is kept as written. An
// unparseable reference yields "".
func Normalize(ref string) string {
	if ref == "" {
		return ""
	}
	first, _ := FirstOfRange(ref)
	m := osisPattern.FindStringSubmatch(first)
	if m == nil {
		return ""
	}

	book := m[1]
	if name, ok := textKeyNames[book]; ok {
		book = name
	} else if b, ok := defaultRegistry.ByAbbrev(book); ok && b.Canon == CanonCanonical {
		book = b.Name
	}
	return book + " " + strings.ReplaceAll(m[2], ".", ":")
}

// ConvertStrict converts "Book.Chapter.Verse" into "Full Name C:V" for the
// 66 canon books only. It returns "" for short references and for
// abbreviations outside the canon.
func ConvertStrict(ref string) string {
	if ref == "" {
		return ""
	}
	first, _ := FirstOfRange(ref)
	parts := strings.Split(first, ".")
	if len(parts) < 3 {
		return ""
	}
	b, ok := defaultRegistry.ByAbbrev(parts[0])
	if !ok || b.Canon != CanonCanonical {
		return ""
	}
	return fmt.Sprintf("%s %s:%s", b.Name, parts[1], parts[2])
}

var versePattern = regexp.MustCompile(`^(.+)\s+(\d+):(\d+)$`)

// SplitVerseKey splits a verse text key "1 Samuel 3:10" into its parts.
func SplitVerseKey(key string) (book string, chapter, verse int, ok bool) {
	m := versePattern.FindStringSubmatch(key)
	if m == nil {
		return "", 0, 0, false
	}
	chapter, _ = strconv.Atoi(m[2])
	verse, _ = strconv.Atoi(m[3])
	return m[1], chapter, verse, true
}
