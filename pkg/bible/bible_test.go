package bible

import (
	"errors"
	"testing"
)

func TestRegistryCounts(t *testing.T) {
	r := DefaultRegistry()
	if r.Len() != 88 {
		t.Fatalf("expected 88 base books, got %d", r.Len())
	}

	var otCanon, ntCanon, otChapters, ntChapters int
	for _, b := range r.Books() {
		if b.Canon != CanonCanonical {
			continue
		}
		switch b.Testament {
		case TestamentOT:
			otCanon++
			otChapters += b.Chapters
		case TestamentNT:
			ntCanon++
			ntChapters += b.Chapters
		}
	}
	if otCanon != CanonicalOTBooks || ntCanon != 27 {
		t.Fatalf("unexpected canon split OT=%d NT=%d", otCanon, ntCanon)
	}
	if otChapters != 929 || ntChapters != 260 {
		t.Fatalf("unexpected chapter totals OT=%d NT=%d", otChapters, ntChapters)
	}

	if b, ok := r.Lookup("Ps"); !ok || b.Name != "Psalms" || b.Chapters != 150 {
		t.Fatalf("Lookup(Ps) = %+v, %v", b, ok)
	}
	if b, ok := r.Lookup("Song of Solomon"); !ok || b.Abbrev != "Song" {
		t.Fatalf("Lookup(Song of Solomon) = %+v, %v", b, ok)
	}
	if r.Index("Matthew") != CanonicalOTBooks {
		t.Fatalf("Matthew should follow the Old Testament, got index %d", r.Index("Matthew"))
	}
}

func TestCompleteLibrary(t *testing.T) {
	r := CompleteLibrary()
	if r.Len() != 88+66 {
		t.Fatalf("expected %d books, got %d", 88+66, r.Len())
	}
	if b, ok := r.ByAbbrev("Hermas"); !ok || b.Chapters != 114 || b.Testament != TestamentGnostic {
		t.Fatalf("unexpected Hermas entry %+v", b)
	}
	if DefaultRegistry().Len() != 88 {
		t.Fatal("CompleteLibrary mutated the base registry")
	}
}

func TestClassifyReference(t *testing.T) {
	tests := []struct {
		ref  string
		want Canon
	}{
		{"Gen.1.1", CanonCanonical},
		{"1En.1.9", CanonEthiopian},
		{"Book of Enoch 3", CanonEthiopian},
		{"Jub.2.1", CanonEthiopian},
		{"1Meq.3.4", CanonEthiopian},
		{"4Macc.6.1", CanonEthiopian},
		{"3Macc.2.2", CanonEthiopian},
		{"4Bar.1.1", CanonEthiopian},
		{"Testament of Levi 2", CanonEthiopian},
		{"Psalm 151 1", CanonEthiopian},
		{"Tob.4.15", CanonDeuterocanonical},
		{"Wis.2.18", CanonDeuterocanonical},
		{"Sir.5.11", CanonDeuterocanonical},
		{"Bar.3.9", CanonDeuterocanonical},
		{"2Bar.3.9", CanonDeuterocanonical},
		{"1Macc.4.59", CanonDeuterocanonical},
		{"Gospel of Thomas 54", CanonGnostic},
		{"Gospel of Mary 1", CanonGnostic},
		{"Rev.22.21", CanonCanonical},
		{"", CanonCanonical},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			if got := ClassifyReference(tt.ref); got != tt.want {
				t.Fatalf("ClassifyReference(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"Gen.1.1", "Genesis 1:1"},
		{"1Sam.3.10", "1 Samuel 3:10"},
		{"Ps.89.11-Ps.89.12", "Psalms 89:11"},
		{"Wis.2.18", "Wisdom 2:18"},
		{"Foo.1.2", "Foo 1:2"},
		{"T12Pat.1.1", "Testament of Twelve Patriarchs 1:1"},
		{"PsSol.17.21", "Psalms of Solomon 17:21"},
		{"4Bar.1.1", "4Bar 1:1"},
		{"1Meq.3.4", "1Meq 3:4"},
		{"Genesis", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			if got := Normalize(tt.ref); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestConvertStrict(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"Gen.1.1", "Genesis 1:1"},
		{"Ps.89.11-Ps.89.12", "Psalms 89:11"},
		{"Rev.22.21", "Revelation 22:21"},
		{"Gen.1", ""},
		{"Wis.2.18", ""},
		{"Foo.1.2", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			if got := ConvertStrict(tt.ref); got != tt.want {
				t.Fatalf("ConvertStrict(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestParseOSIS(t *testing.T) {
	ref, err := ParseOSIS("Ps.89.11-Ps.89.12")
	if err != nil {
		t.Fatalf("ParseOSIS: %v", err)
	}
	if ref.Book != "Ps" || ref.Chapter != 89 || ref.Verse != 11 || !ref.Range {
		t.Fatalf("unexpected reference %+v", ref)
	}
	if ref.String() != "Ps.89.11" {
		t.Fatalf("String() = %q", ref.String())
	}

	if ref, err := ParseOSIS("Jude.1"); err != nil || ref.Chapter != 1 || ref.Verse != 0 {
		t.Fatalf("ParseOSIS(Jude.1) = %+v, %v", ref, err)
	}

	for _, bad := range []string{"", "Gen", "Gen.x.1", "Gen.0.1", ".1.1"} {
		if _, err := ParseOSIS(bad); !errors.Is(err, ErrInvalidReference) {
			t.Fatalf("ParseOSIS(%q) error = %v, want ErrInvalidReference", bad, err)
		}
	}
}

func TestSplitVerseKey(t *testing.T) {
	book, ch, v, ok := SplitVerseKey("1 Samuel 3:10")
	if !ok || book != "1 Samuel" || ch != 3 || v != 10 {
		t.Fatalf("SplitVerseKey = %q %d %d %v", book, ch, v, ok)
	}
	if _, _, _, ok := SplitVerseKey("Genesis"); ok {
		t.Fatal("expected no match")
	}
}

func TestParseCanon(t *testing.T) {
	if c, ok := ParseCanon(" dead sea scrolls "); !ok || c != CanonDeadSeaScrolls {
		t.Fatalf("ParseCanon = %q, %v", c, ok)
	}
	if _, ok := ParseCanon("Apocrypha"); ok {
		t.Fatal("expected unknown canon")
	}
}
