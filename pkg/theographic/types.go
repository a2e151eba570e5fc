// Package theographic loads the Theographic Bible metadata (people, places,
// events, periods, people groups, Easton's dictionary) and answers the
// lookups the geographic, timeline and people charts are built from.
package theographic

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
)

// Record is the {id, fields} envelope every Theographic export uses.
type Record[F any] struct {
	ID     string `json:"id"`
	Fields F      `json:"fields"`
}

type PersonFields struct {
	Name         string      `json:"name"`
	DisplayTitle string      `json:"displayTitle,omitempty"`
	Gender       string      `json:"gender,omitempty"`
	BirthYear    FlexFloat   `json:"birthYear"`
	DeathYear    FlexFloat   `json:"deathYear"`
	BirthPlace   FlexStrings `json:"birthPlace,omitempty"`
	DeathPlace   FlexStrings `json:"deathPlace,omitempty"`
	Father       FlexStrings `json:"father,omitempty"`
	Mother       FlexStrings `json:"mother,omitempty"`
	Siblings     FlexStrings `json:"siblings,omitempty"`
	Children     FlexStrings `json:"children,omitempty"`
	Partners     FlexStrings `json:"partners,omitempty"`
	VerseCount   FlexFloat   `json:"verseCount"`
}

type PlaceFields struct {
	KJVName      string    `json:"kjvName,omitempty"`
	ESVName      string    `json:"esvName,omitempty"`
	DisplayTitle string    `json:"displayTitle,omitempty"`
	Latitude     FlexFloat `json:"latitude"`
	Longitude    FlexFloat `json:"longitude"`
	FeatureType  string    `json:"featureType,omitempty"`
	VerseCount   FlexFloat `json:"verseCount"`
}

// Title is the first non-empty of the display title, KJV and ESV names.
func (p PlaceFields) Title() string {
	switch {
	case p.DisplayTitle != "":
		return p.DisplayTitle
	case p.KJVName != "":
		return p.KJVName
	default:
		return p.ESVName
	}
}

type EventFields struct {
	Name        string      `json:"name"`
	Period      FlexStrings `json:"period,omitempty"`
	Description string      `json:"description,omitempty"`
	VerseCount  FlexFloat   `json:"verseCount"`
}

type PeriodFields struct {
	Name        string    `json:"name"`
	YearNum     FlexFloat `json:"yearNum"`
	Description string    `json:"description,omitempty"`
}

type PeopleGroupFields struct {
	Name    string      `json:"name"`
	Members FlexStrings `json:"members,omitempty"`
}

type DictionaryFields struct {
	TermLabel string `json:"termLabel"`
	DictText  string `json:"dictText,omitempty"`
}

type BookFields struct {
	BookName     string    `json:"bookName"`
	OSISName     string    `json:"osisName,omitempty"`
	BookOrder    FlexFloat `json:"bookOrder"`
	ChapterCount FlexFloat `json:"chapterCount"`
}

type ChapterFields struct {
	OSISRef    string      `json:"osisRef"`
	Book       FlexStrings `json:"book,omitempty"`
	ChapterNum FlexFloat   `json:"chapterNum"`
	Writer     FlexStrings `json:"writer,omitempty"`
}

type (
	Person          = Record[PersonFields]
	Place           = Record[PlaceFields]
	Event           = Record[EventFields]
	Period          = Record[PeriodFields]
	PeopleGroup     = Record[PeopleGroupFields]
	DictionaryEntry = Record[DictionaryFields]
	BookInfo        = Record[BookFields]
	ChapterInfo     = Record[ChapterFields]
)

var leadingFloat = regexp.MustCompile(`^\s*[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`)

// FlexFloat decodes numbers that arrive either as JSON numbers or as
// strings ("31.77", "-1000 BC"). Valid is false for null, missing and
// non-numeric values.
type FlexFloat struct {
	Value float64
	Valid bool
}

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	*f = FlexFloat{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		m := leadingFloat.FindString(s)
		if m == "" {
			return nil
		}
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return nil
		}
		*f = FlexFloat{Value: v, Valid: true}
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		// booleans and objects are treated as absent
		return nil
	}
	*f = FlexFloat{Value: v, Valid: true}
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// FlexStrings accepts a single string or a list of strings.
type FlexStrings []string

func (s *FlexStrings) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = nil
		return nil
	}
	if b[0] == '"' {
		var one string
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		if one == "" {
			*s = nil
		} else {
			*s = FlexStrings{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*s = many
	return nil
}
