package text

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ringmast4r/project147/pkg/logger"
)

// ScrollmapperBook maps a scrollmapper folder to its display name and
// abbreviation.
type ScrollmapperBook struct {
	Folder string
	Name   string
	Abbrev string
}

var ScrollmapperBooks = []ScrollmapperBook{
	{"wisdom", "Wisdom of Solomon", "Wis"},
	{"sirach", "Sirach", "Sir"},
	{"tobit", "Tobit", "Tob"},
	{"judith", "Judith", "Jdt"},
	{"1-baruch", "Baruch", "Bar"},
	{"1-mac", "1 Maccabees", "1Macc"},
	{"2-mac", "2 Maccabees", "2Macc"},
	{"1-enoch", "1 Enoch", "1En"},
	{"2-enoch", "2 Enoch", "2En"},
	{"3-enoch", "3 Enoch", "3En"},
	{"jubilees", "Jubilees", "Jub"},
	{"1-esdras", "1 Esdras", "1Esd"},
	{"2-esdras", "2 Esdras", "2Esd"},
	{"2-baruch", "2 Baruch", "2Bar"},
	{"3-baruch", "3 Baruch", "3Bar"},
	{"4-baruch", "4 Baruch", "4Bar"},
	{"susanna", "Susanna", "Sus"},
	{"bel", "Bel and the Dragon", "Bel"},
	{"azar", "Prayer of Azariah", "PrAzar"},
	{"man", "Prayer of Manasseh", "PrMan"},
	{"gkesther", "Greek Esther", "GkEsth"},
	{"jasher", "Book of Jasher", "Jasher"},
	{"adam-and-eve", "Life of Adam and Eve", "LAE"},
	{"ascension-of-isaiah", "Ascension of Isaiah", "AscIsa"},
	{"apocalypse-of-peter", "Apocalypse of Peter", "ApocPet"},
	{"testament-of-solomon", "Testament of Solomon", "TSol"},
	{"the-testaments-of-the-twelve-patriarchs", "Testaments of the Twelve Patriarchs", "T12Pat"},
	{"hermas", "Shepherd of Hermas", "Hermas"},
	{"sedrach", "Apocalypse of Sedrach", "Sedrach"},
}

var verseMarker = regexp.MustCompile(`\[(\d+):(\d+)\]`)

// ParseVerseMarkedText splits "[1:1] text [1:2] text" into verses keyed
// "chapter:verse". Empty verses are dropped.
func ParseVerseMarkedText(content string) map[string]string {
	verses := make(map[string]string)
	marks := verseMarker.FindAllStringSubmatchIndex(content, -1)
	for i, m := range marks {
		end := len(content)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		text := strings.TrimSpace(content[m[1]:end])
		if text == "" {
			continue
		}
		verses[content[m[2]:m[3]]+":"+content[m[4]:m[5]]] = text
	}
	return verses
}

// ConvertScrollmapper builds the deuterocanonical text document from a
// scrollmapper "txt" directory: one folder per book holding a .txt file.
// Missing folders are skipped.
func ConvertScrollmapper(dir string) (DeuteroDocument, error) {
	if _, err := os.Stat(dir); err != nil {
		return DeuteroDocument{}, fmt.Errorf("scrollmapper directory: %w", err)
	}

	doc := DeuteroDocument{
		Generated: "Deuterocanonical Text Database",
		Books:     make(map[string]DeuteroBook),
	}

	for _, b := range ScrollmapperBooks {
		folder := filepath.Join(dir, b.Folder)
		entries, err := os.ReadDir(folder)
		if err != nil {
			logger.Info("[Convert] Skipping book, folder not found", "folder", b.Folder)
			continue
		}

		var txtFiles []string
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
				txtFiles = append(txtFiles, e.Name())
			}
		}
		if len(txtFiles) == 0 {
			logger.Info("[Convert] Skipping book, no txt file found", "folder", b.Folder)
			continue
		}
		sort.Strings(txtFiles)

		raw, err := os.ReadFile(filepath.Join(folder, txtFiles[0]))
		if err != nil {
			return DeuteroDocument{}, fmt.Errorf("read %s: %w", b.Folder, err)
		}

		verses := ParseVerseMarkedText(string(raw))
		if len(verses) == 0 {
			continue
		}
		doc.Books[b.Abbrev] = DeuteroBook{
			Name:       b.Name,
			Abbrev:     b.Abbrev,
			Verses:     verses,
			VerseCount: len(verses),
		}
		logger.Info("[Convert] Converted book", "book", b.Name, "verses", len(verses))
	}

	doc.BookCount = len(doc.Books)
	return doc, nil
}
