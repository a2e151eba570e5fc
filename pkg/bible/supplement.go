package bible

func dss(name, abbrev string) Book {
	return Book{Name: name, Abbrev: abbrev, Chapters: 1, Testament: TestamentDSS, Canon: CanonDeadSeaScrolls}
}

func gnostic(name, abbrev string, chapters int) Book {
	return Book{Name: name, Abbrev: abbrev, Chapters: chapters, Testament: TestamentGnostic, Canon: CanonGnostic}
}

func lost(name, abbrev string) Book {
	return Book{Name: name, Abbrev: abbrev, Chapters: 1, Testament: TestamentLost, Canon: CanonLost}
}

// SupplementGroup is one category of books appended by the augmenter.
type SupplementGroup struct {
	Category string
	Books    []Book
}

// Supplement lists the books that extend the base library to the complete
// library, in the order they are appended.
var Supplement = []SupplementGroup{
	{Category: "deuterocanonical", Books: []Book{
		deutero("Susanna", "Sus", 1),
		deutero("Bel and the Dragon", "Bel", 1),
		deutero("Prayer of Azariah", "PrAzar", 1),
		deutero("Greek Esther", "GkEsth", 6),
		deutero("1 Esdras", "1Esd", 9),
		deutero("2 Esdras", "2Esd", 16),
	}},
	{Category: "ethiopian", Books: []Book{
		ethiopian("2 Enoch", "2En", 68),
		ethiopian("3 Enoch", "3En", 48),
		ethiopian("2 Baruch", "2Bar", 87),
		ethiopian("3 Baruch", "3Bar", 17),
		ethiopian("Life of Adam and Eve", "LAE", 51),
		ethiopian("Book of Jasher", "Jasher", 91),
		ethiopian("Testament of Solomon", "TSol", 26),
		ethiopian("Martyrdom of Isaiah", "MartIsa", 11),
		ethiopian("Assumption of Moses", "AssMos", 12),
		ethiopian("Testament of Abraham", "TAb", 20),
		ethiopian("Testament of Job", "TJob", 53),
		ethiopian("Apocalypse of Abraham", "ApocAb", 32),
		ethiopian("Apocalypse of Sedrach", "ApocSed", 1),
	}},
	{Category: "deadSeaScrolls", Books: []Book{
		dss("Community Rule", "1QS"),
		dss("War Scroll", "1QM"),
		dss("Temple Scroll", "11QT"),
		dss("Damascus Document", "CD"),
		dss("Thanksgiving Hymns", "1QH"),
		dss("Pesher Habakkuk", "1QpHab"),
		dss("Book of Giants", "Giants"),
		dss("Copper Scroll", "3Q15"),
		dss("Genesis Apocryphon", "1QapGen"),
		dss("Songs of Sabbath Sacrifice", "4Q400"),
	}},
	{Category: "gnostic", Books: []Book{
		gnostic("Gospel of Thomas", "GThom", 1),
		gnostic("Gospel of Judas", "GJud", 1),
		gnostic("Gospel of Mary", "GMary", 1),
		gnostic("Gospel of Peter", "GPet", 1),
		gnostic("Gospel of Philip", "GPhil", 1),
		gnostic("Gospel of the Hebrews", "GHeb", 1),
		gnostic("Gospel of the Egyptians", "GEgy", 1),
		gnostic("Gospel of Truth", "GTruth", 1),
		gnostic("Gospel of Nicodemus", "GNic", 1),
		gnostic("Infancy Gospel of Thomas", "InfThom", 1),
		gnostic("Protoevangelium of James", "ProtJas", 1),
		gnostic("Secret Gospel of Mark", "SecMark", 1),
		gnostic("Apocryphon of John", "ApocJohn", 1),
		gnostic("Sophia of Jesus Christ", "SophJC", 1),
		gnostic("Pistis Sophia", "PistSoph", 4),
		gnostic("Dialogue of the Savior", "DialSav", 1),
		gnostic("Book of Thomas", "BkThom", 1),
		gnostic("Didache", "Did", 16),
		gnostic("Shepherd of Hermas", "Hermas", 114),
		gnostic("Epistle of Barnabas", "Barn", 21),
		gnostic("Acts of Paul and Thecla", "ActsPT", 1),
		gnostic("Apocalypse of Peter", "ApocPet", 1),
	}},
	{Category: "lost", Books: []Book{
		lost("Book of the Wars of the Lord", "WarsLord"),
		lost("Book of Jasher (Lost)", "JasherL"),
		lost("Annals of Solomon", "AnnSol"),
		lost("Annals of Kings of Israel", "AnnIsr"),
		lost("Annals of Kings of Judah", "AnnJud"),
		lost("Book of Samuel the Seer", "SamSeer"),
		lost("Book of Nathan the Prophet", "Nathan"),
		lost("Book of Gad the Seer", "GadSeer"),
		lost("Prophecy of Ahijah", "Ahijah"),
		lost("Visions of Iddo the Seer", "Iddo"),
		lost("Book of Shemaiah", "Shemaiah"),
		lost("Book of Jehu", "Jehu"),
		lost("Sayings of the Seers", "SaySeers"),
		lost("Epistle to Laodiceans", "EpLaod"),
		lost("Earlier Epistle to Corinthians", "EarlierCor"),
	}},
}

// ChapterLink is a hand-authored chapter level association between a
// canonical book and a non-canonical one.
type ChapterLink struct {
	SourceBook    string
	SourceChapter int
	TargetBook    string
	TargetChapter int
	Weight        int
	Type          string
}

// NonCanonicalLinks are the documented New Testament allusions to
// non-canonical books.
var NonCanonicalLinks = []ChapterLink{
	{"Jude", 1, "1 Enoch", 1, 100, "Direct Quote"},
	{"Jude", 1, "1 Enoch", 10, 100, "Angels in Chains"},
	{"2 Peter", 2, "1 Enoch", 10, 100, "Angels in Tartarus"},
	{"Hebrews", 11, "4 Maccabees", 6, 100, "Refusing Deliverance"},

	{"Matthew", 22, "1 Enoch", 15, 50, "Angels Don't Marry"},
	{"Matthew", 25, "1 Enoch", 62, 50, "Son of Man with Angels"},
	{"Luke", 16, "1 Enoch", 22, 50, "Afterlife Compartments"},
	{"Revelation", 4, "1 Enoch", 14, 50, "Heavenly Throne Vision"},

	{"Matthew", 19, "Testament of the Twelve Patriarchs", 1, 25, "Twelve Thrones"},
	{"John", 5, "1 Enoch", 69, 25, "Judgment to Son of Man"},
	{"Romans", 8, "Testament of the Twelve Patriarchs", 1, 25, "Powers & Principalities"},
}

// CompleteLibrary returns the base library followed by every supplement
// book not already present.
func CompleteLibrary() *Registry {
	books := defaultRegistry.Books()
	seen := make(map[string]bool, len(books))
	for _, b := range books {
		seen[b.Name] = true
	}
	for _, group := range Supplement {
		for _, b := range group.Books {
			if seen[b.Name] {
				continue
			}
			seen[b.Name] = true
			books = append(books, b)
		}
	}
	return NewRegistry(books)
}
