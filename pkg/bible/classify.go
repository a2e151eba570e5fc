package bible

import "strings"

type classifyRule struct {
	canon   Canon
	needles []string
}

// Rules are evaluated top to bottom and the first hit wins, so the Ethiopian
// entries must stay ahead of the Deuterocanonical ones ("4Macc" before
// "1Macc", "4Bar" before "Bar.").
var classifyRules = []classifyRule{
	{CanonEthiopian, []string{"1En.", "Enoch"}},
	{CanonEthiopian, []string{"Jub.", "Jubilees"}},
	{CanonEthiopian, []string{"Meq"}},
	{CanonEthiopian, []string{"4Macc"}},
	{CanonEthiopian, []string{"3Macc"}},
	{CanonEthiopian, []string{"PsSol", "Psalms of Solomon"}},
	{CanonEthiopian, []string{"4Ezra"}},
	{CanonEthiopian, []string{"4Bar"}},
	{CanonEthiopian, []string{"T12Pat", "Testament"}},
	{CanonEthiopian, []string{"Odes"}},
	{CanonEthiopian, []string{"Prayer of Manasseh"}},
	{CanonEthiopian, []string{"Psalm 151"}},

	{CanonDeuterocanonical, []string{"Tob.", "Tobit"}},
	{CanonDeuterocanonical, []string{"Jdt.", "Judith"}},
	{CanonDeuterocanonical, []string{"Wis.", "Wisdom"}},
	{CanonDeuterocanonical, []string{"Sir.", "Sirach"}},
	{CanonDeuterocanonical, []string{"Bar.", "Baruch"}},
	{CanonDeuterocanonical, []string{"1Macc", "2Macc"}},

	{CanonGnostic, []string{"Gospel of Judas"}},
	{CanonGnostic, []string{"Gospel of Thomas"}},
	{CanonGnostic, []string{"Gospel of Philip"}},
	{CanonGnostic, []string{"Gospel of Mary"}},
}

// ClassifyReference maps a raw reference string ("1En.1.9", "Wis.2.18",
// "Gospel of Thomas 54") to its canon category by substring matching.
// Anything unmatched is Canonical.
func ClassifyReference(ref string) Canon {
	for _, rule := range classifyRules {
		for _, needle := range rule.needles {
			if strings.Contains(ref, needle) {
				return rule.canon
			}
		}
	}
	return CanonCanonical
}
