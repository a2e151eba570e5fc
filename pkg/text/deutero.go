package text

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"sync"

	"github.com/ringmast4r/project147/pkg/bible"
	"github.com/ringmast4r/project147/pkg/loader"
	"github.com/ringmast4r/project147/pkg/logger"
)

const deuteroTextLimit = 300

// deuteroAliases maps the spellings found in cross-reference files to the
// abbreviations used as keys of the deuterocanonical text document.
var deuteroAliases = map[string]string{
	"Wis": "Wis", "Wisdom": "Wis",
	"Sir": "Sir", "Sirach": "Sir", "Ecclesiasticus": "Sir",
	"Tob": "Tob", "Tobit": "Tob",
	"Jdt": "Jdt", "Judith": "Jdt",
	"Bar": "Bar", "Baruch": "Bar", "1Bar": "Bar",
	"1Macc": "1Macc", "1 Maccabees": "1Macc", "1Mac": "1Macc",
	"2Macc": "2Macc", "2 Maccabees": "2Macc", "2Mac": "2Macc",
	"1En": "1En", "1 Enoch": "1En", "1Enoch": "1En",
	"2En": "2En", "2 Enoch": "2En", "2Enoch": "2En",
	"3En": "3En", "3 Enoch": "3En", "3Enoch": "3En",
	"Jub": "Jub", "Jubilees": "Jub",
	"1Esd": "1Esd", "1 Esdras": "1Esd",
	"2Esd": "2Esd", "2 Esdras": "2Esd", "4Ezra": "2Esd",
	"2Bar": "2Bar", "2 Baruch": "2Bar",
	"3Bar": "3Bar", "3 Baruch": "3Bar",
	"4Bar": "4Bar", "4 Baruch": "4Bar",
	"Sus": "Sus", "Susanna": "Sus",
	"Bel": "Bel", "Bel and the Dragon": "Bel",
	"PrAzar": "PrAzar", "Prayer of Azariah": "PrAzar",
	"PrMan": "PrMan", "Prayer of Manasseh": "PrMan",
	"GkEsth": "GkEsth", "Greek Esther": "GkEsth",
	"Jasher": "Jasher", "Book of Jasher": "Jasher",
	"LAE": "LAE", "Life of Adam and Eve": "LAE",
	"AscIsa": "AscIsa", "Ascension of Isaiah": "AscIsa",
	"ApocPet": "ApocPet", "Apocalypse of Peter": "ApocPet",
	"TSol": "TSol", "Testament of Solomon": "TSol",
	"T12Pat": "T12Pat", "Testament of 12 Patriarchs": "T12Pat", "Testaments of the Twelve Patriarchs": "T12Pat",
	"Hermas": "Hermas", "Shepherd of Hermas": "Hermas",
	"Sedrach": "Sedrach", "Apocalypse of Sedrach": "Sedrach",
	"4Macc": "4Macc", "4 Maccabees": "4Macc",
	"3Macc": "3Macc", "3 Maccabees": "3Macc",
}

// DeuteroAbbrev resolves an alias to its document key. Unknown names are
// returned unchanged.
func DeuteroAbbrev(name string) string {
	if abbrev, ok := deuteroAliases[name]; ok {
		return abbrev
	}
	return name
}

// DeuteroBook is one book of the deuterocanonical text document. Verses are
// keyed "chapter:verse".
type DeuteroBook struct {
	Name       string            `json:"name"`
	Abbrev     string            `json:"abbrev"`
	Verses     map[string]string `json:"verses"`
	VerseCount int               `json:"verse_count"`
}

// DeuteroDocument is the on-disk format produced by ConvertScrollmapper.
type DeuteroDocument struct {
	Generated string                 `json:"generated,omitempty"`
	BookCount int                    `json:"book_count"`
	Books     map[string]DeuteroBook `json:"books"`
}

type DeuteroText struct {
	file loader.DataFile

	mu    sync.RWMutex
	books map[string]DeuteroBook
}

func NewDeuteroText(file loader.DataFile) *DeuteroText {
	return &DeuteroText{file: file}
}

func NewDeuteroTextFromDocument(doc DeuteroDocument) *DeuteroText {
	return &DeuteroText{books: doc.Books}
}

func (d *DeuteroText) Load(ctx context.Context) error {
	var doc DeuteroDocument
	if err := d.file.ReadJSON(ctx, &doc); err != nil {
		return fmt.Errorf("load deuterocanonical texts: %w", err)
	}
	if doc.Books == nil {
		doc.Books = map[string]DeuteroBook{}
	}

	d.mu.Lock()
	d.books = doc.Books
	d.mu.Unlock()

	logger.Info("[Text] Loaded deuterocanonical books", "books", doc.BookCount)
	return nil
}

func (d *DeuteroText) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.books != nil
}

var deuteroPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(\d?[A-Za-z]+)\.(\d+)\.(\d+)$`),  // Wis.2.18
	regexp.MustCompile(`^(\d?[A-Za-z]+)\s+(\d+):(\d+)$`), // Wisdom 2:18
	regexp.MustCompile(`^(\d?[A-Za-z]+)\.(\d+):(\d+)$`),  // Wis.2:18
}

// ParseDeuteroReference accepts "Wis.2.18", "Wisdom 2:18" and "Wis.2:18".
// Ranges resolve to their first verse.
func ParseDeuteroReference(ref string) (bible.Reference, bool) {
	if ref == "" {
		return bible.Reference{}, false
	}
	first, isRange := bible.FirstOfRange(ref)
	for _, p := range deuteroPatterns {
		m := p.FindStringSubmatch(first)
		if m == nil {
			continue
		}
		ch, _ := strconv.Atoi(m[2])
		v, _ := strconv.Atoi(m[3])
		return bible.Reference{Book: m[1], Chapter: ch, Verse: v, Range: isRange}, true
	}
	return bible.Reference{}, false
}

func (d *DeuteroText) book(name string) (DeuteroBook, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.books[DeuteroAbbrev(name)]
	return b, ok
}

// VerseText returns the verse text truncated to 300 characters or "".
func (d *DeuteroText) VerseText(ref string) string {
	parsed, ok := ParseDeuteroReference(ref)
	if !ok {
		return ""
	}
	book, ok := d.book(parsed.Book)
	if !ok {
		return ""
	}
	text := book.Verses[fmt.Sprintf("%d:%d", parsed.Chapter, parsed.Verse)]
	if text == "" {
		return ""
	}
	return Truncate(text, deuteroTextLimit)
}

func (d *DeuteroText) RangeText(ref string) string {
	if ref == "" {
		return ""
	}
	text := d.VerseText(ref)
	if text != "" && isRange(ref) {
		return text + continuedSuffix
	}
	return text
}

// BookName returns the display name of a book or abbrev itself.
func (d *DeuteroText) BookName(abbrev string) string {
	if b, ok := d.book(abbrev); ok {
		return b.Name
	}
	return abbrev
}

var chapterVersePattern = regexp.MustCompile(`^(\d+):(\d+)$`)

func (d *DeuteroText) ChapterVerses(abbrev string, chapter int) []Verse {
	book, ok := d.book(abbrev)
	if !ok {
		return nil
	}

	var verses []Verse
	for key, text := range book.Verses {
		m := chapterVersePattern.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		ch, _ := strconv.Atoi(m[1])
		if ch != chapter {
			continue
		}
		v, _ := strconv.Atoi(m[2])
		verses = append(verses, Verse{Verse: v, Text: text})
	}
	slices.SortFunc(verses, func(a, b Verse) int { return a.Verse - b.Verse })
	return verses
}
