package bible

import "strings"

type Testament string

const (
	TestamentOT      Testament = "OT"
	TestamentNT      Testament = "NT"
	TestamentDSS     Testament = "DSS"
	TestamentGnostic Testament = "Gnostic"
	TestamentLost    Testament = "Lost"
)

// Label is the display name used for hierarchy nodes.
func (t Testament) Label() string {
	switch t {
	case TestamentOT:
		return "Old Testament"
	case TestamentNT:
		return "New Testament"
	case TestamentDSS:
		return "Dead Sea Scrolls"
	case TestamentGnostic:
		return "Gnostic & Early Christian"
	case TestamentLost:
		return "Lost Books"
	}
	return string(t)
}

type Canon string

const (
	CanonCanonical        Canon = "Canonical"
	CanonDeuterocanonical Canon = "Deuterocanonical"
	CanonEthiopian        Canon = "Ethiopian"
	CanonDeadSeaScrolls   Canon = "Dead Sea Scrolls"
	CanonGnostic          Canon = "Gnostic"
	CanonLost             Canon = "Lost"
)

// Canons lists every category in display order.
var Canons = []Canon{
	CanonCanonical,
	CanonDeuterocanonical,
	CanonEthiopian,
	CanonDeadSeaScrolls,
	CanonGnostic,
	CanonLost,
}

// ParseCanon matches a category name case-insensitively.
func ParseCanon(s string) (Canon, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Canons {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

type Book struct {
	Name      string    `json:"name"`
	Abbrev    string    `json:"abbrev"`
	Chapters  int       `json:"chapters"`
	Testament Testament `json:"testament"`
	Canon     Canon     `json:"canon"`
}

func ot(name, abbrev string, chapters int) Book {
	return Book{Name: name, Abbrev: abbrev, Chapters: chapters, Testament: TestamentOT, Canon: CanonCanonical}
}

func nt(name, abbrev string, chapters int) Book {
	return Book{Name: name, Abbrev: abbrev, Chapters: chapters, Testament: TestamentNT, Canon: CanonCanonical}
}

func deutero(name, abbrev string, chapters int) Book {
	return Book{Name: name, Abbrev: abbrev, Chapters: chapters, Testament: TestamentOT, Canon: CanonDeuterocanonical}
}

func ethiopian(name, abbrev string, chapters int) Book {
	return Book{Name: name, Abbrev: abbrev, Chapters: chapters, Testament: TestamentOT, Canon: CanonEthiopian}
}

// baseLibrary is the 88 book library the cross-reference graph is built on:
// the Protestant canon in canonical order followed by the deuterocanon and
// the Ethiopian/pseudepigraphal books.
var baseLibrary = []Book{
	ot("Genesis", "Gen", 50),
	ot("Exodus", "Exod", 40),
	ot("Leviticus", "Lev", 27),
	ot("Numbers", "Num", 36),
	ot("Deuteronomy", "Deut", 34),
	ot("Joshua", "Josh", 24),
	ot("Judges", "Judg", 21),
	ot("Ruth", "Ruth", 4),
	ot("1 Samuel", "1Sam", 31),
	ot("2 Samuel", "2Sam", 24),
	ot("1 Kings", "1Kgs", 22),
	ot("2 Kings", "2Kgs", 25),
	ot("1 Chronicles", "1Chr", 29),
	ot("2 Chronicles", "2Chr", 36),
	ot("Ezra", "Ezra", 10),
	ot("Nehemiah", "Neh", 13),
	ot("Esther", "Esth", 10),
	ot("Job", "Job", 42),
	ot("Psalms", "Ps", 150),
	ot("Proverbs", "Prov", 31),
	ot("Ecclesiastes", "Eccl", 12),
	ot("Song of Solomon", "Song", 8),
	ot("Isaiah", "Isa", 66),
	ot("Jeremiah", "Jer", 52),
	ot("Lamentations", "Lam", 5),
	ot("Ezekiel", "Ezek", 48),
	ot("Daniel", "Dan", 12),
	ot("Hosea", "Hos", 14),
	ot("Joel", "Joel", 3),
	ot("Amos", "Amos", 9),
	ot("Obadiah", "Obad", 1),
	ot("Jonah", "Jonah", 4),
	ot("Micah", "Mic", 7),
	ot("Nahum", "Nah", 3),
	ot("Habakkuk", "Hab", 3),
	ot("Zephaniah", "Zeph", 3),
	ot("Haggai", "Hag", 2),
	ot("Zechariah", "Zech", 14),
	ot("Malachi", "Mal", 4),

	nt("Matthew", "Matt", 28),
	nt("Mark", "Mark", 16),
	nt("Luke", "Luke", 24),
	nt("John", "John", 21),
	nt("Acts", "Acts", 28),
	nt("Romans", "Rom", 16),
	nt("1 Corinthians", "1Cor", 16),
	nt("2 Corinthians", "2Cor", 13),
	nt("Galatians", "Gal", 6),
	nt("Ephesians", "Eph", 6),
	nt("Philippians", "Phil", 4),
	nt("Colossians", "Col", 4),
	nt("1 Thessalonians", "1Thess", 5),
	nt("2 Thessalonians", "2Thess", 3),
	nt("1 Timothy", "1Tim", 6),
	nt("2 Timothy", "2Tim", 4),
	nt("Titus", "Titus", 3),
	nt("Philemon", "Phlm", 1),
	nt("Hebrews", "Heb", 13),
	nt("James", "Jas", 5),
	nt("1 Peter", "1Pet", 5),
	nt("2 Peter", "2Pet", 3),
	nt("1 John", "1John", 5),
	nt("2 John", "2John", 1),
	nt("3 John", "3John", 1),
	nt("Jude", "Jude", 1),
	nt("Revelation", "Rev", 22),

	deutero("Tobit", "Tob", 14),
	deutero("Judith", "Jdt", 16),
	deutero("Wisdom", "Wis", 19),
	deutero("Sirach", "Sir", 51),
	deutero("Baruch", "Bar", 6),
	deutero("1 Maccabees", "1Macc", 16),
	deutero("2 Maccabees", "2Macc", 15),

	ethiopian("1 Enoch", "1En", 108),
	ethiopian("Jubilees", "Jub", 50),
	ethiopian("1 Meqabyan", "1Meq", 36),
	ethiopian("2 Meqabyan", "2Meq", 21),
	ethiopian("3 Meqabyan", "3Meq", 10),
	ethiopian("3 Maccabees", "3Macc", 7),
	ethiopian("4 Maccabees", "4Macc", 18),
	ethiopian("4 Ezra", "4Ezra", 16),
	ethiopian("4 Baruch", "4Bar", 9),
	ethiopian("Psalms of Solomon", "PsSol", 18),
	ethiopian("Testament of the Twelve Patriarchs", "T12Pat", 12),
	ethiopian("Odes", "Odes", 14),
	ethiopian("Prayer of Manasseh", "PrMan", 1),
	ethiopian("Psalm 151", "Ps151", 1),
	ethiopian("Ascension of Isaiah", "AscIsa", 11),
}

// CanonicalOTBooks is the number of Old Testament books in the Protestant
// canon. Book matrices built from the base library place them first.
const CanonicalOTBooks = 39

var (
	GospelBooks  = []string{"Matthew", "Mark", "Luke", "John"}
	TorahBooks   = []string{"Genesis", "Exodus", "Leviticus", "Numbers", "Deuteronomy"}
	PaulineBooks = []string{
		"Romans", "1 Corinthians", "2 Corinthians", "Galatians", "Ephesians",
		"Philippians", "Colossians", "1 Thessalonians", "2 Thessalonians",
		"1 Timothy", "2 Timothy", "Titus", "Philemon",
	}
)
