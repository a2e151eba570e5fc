package crossref

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ringmast4r/project147/pkg/bible"
)

// HighConfidenceVotes is the vote count from which a reference counts as
// high confidence.
const HighConfidenceVotes = 100

// Record is one verse level cross-reference.
type Record struct {
	From        string      `json:"from"`
	To          string      `json:"to"`
	Votes       int         `json:"votes"`
	Type        bible.Canon `json:"type"`
	Description string      `json:"desc"`
}

func (r Record) key() string {
	return r.From + "\t" + r.To
}

// Describe returns the tooltip description for a reference of the given
// category.
func Describe(canon bible.Canon) string {
	if canon == bible.CanonEthiopian || canon == bible.CanonDeuterocanonical {
		return fmt.Sprintf("Cross-reference to %s book", canon)
	}
	return "Cross-reference"
}

// Parse reads a tab-delimited cross-reference dump. The first line is a
// header and always skipped. Blank lines, "#" comments and lines with fewer
// than three fields are ignored. An optional fourth column naming a canon
// category overrides the classified type.
func Parse(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var records []Record
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			continue
		}

		to := strings.TrimSpace(parts[1])
		canon := bible.ClassifyReference(to)
		if len(parts) > 3 {
			if c, ok := bible.ParseCanon(parts[3]); ok {
				canon = c
			}
		}

		records = append(records, Record{
			From:        strings.TrimSpace(parts[0]),
			To:          to,
			Votes:       parseLeadingInt(parts[2]),
			Type:        canon,
			Description: Describe(canon),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cross-references: %w", err)
	}
	return records, nil
}

func ParseBytes(content []byte) ([]Record, error) {
	return Parse(bytes.NewReader(content))
}

// parseLeadingInt reads an optionally signed integer prefix ("12abc" is 12).
// Anything without leading digits is 0.
func parseLeadingInt(s string) int {
	s = strings.TrimLeft(s, " \t")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n, digits := 0, 0
	for _, c := range []byte(s) {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
		digits++
	}
	if digits == 0 {
		return 0
	}
	if neg {
		return -n
	}
	return n
}

// Merge concatenates record sets. A (from, to) pair seen more than once is
// kept at its first position with the highest vote count.
func Merge(sets ...[]Record) []Record {
	total := 0
	for _, set := range sets {
		total += len(set)
	}

	out := make([]Record, 0, total)
	index := make(map[string]int, total)
	for _, set := range sets {
		for _, rec := range set {
			k := rec.key()
			if i, ok := index[k]; ok {
				if rec.Votes > out[i].Votes {
					out[i].Votes = rec.Votes
				}
				continue
			}
			index[k] = len(out)
			out = append(out, rec)
		}
	}
	return out
}

type Stats struct {
	Total            int `json:"total"`
	Ethiopian        int `json:"ethiopian"`
	Deuterocanonical int `json:"deuterocanonical"`
	Gnostic          int `json:"gnostic"`
	Canonical        int `json:"canonical"`
	HighConfidence   int `json:"highConfidence"`
}

func ComputeStats(records []Record) Stats {
	s := Stats{Total: len(records)}
	for _, r := range records {
		switch r.Type {
		case bible.CanonEthiopian:
			s.Ethiopian++
		case bible.CanonDeuterocanonical:
			s.Deuterocanonical++
		case bible.CanonGnostic:
			s.Gnostic++
		case bible.CanonCanonical:
			s.Canonical++
		}
		if r.Votes >= HighConfidenceVotes {
			s.HighConfidence++
		}
	}
	return s
}
