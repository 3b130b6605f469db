package slip

import (
	"regexp"
	"strings"
)

// The slip PDF collapses column spacing, so names arrive as concatenated
// words ("Abigale,EloquentFirst-Year"). AddSpaces reinserts the spacing with
// an ordered pass pipeline; each pass assumes the previous ones already ran.

var (
	commaSpacing = respaceRule{regexp.MustCompile(`,([^\s])`), ", $1"}
	colonSpacing = respaceRule{regexp.MustCompile(`:([A-Za-z])`), ": $1"}

	// Word endings that are known to precede a glued "of"/"to". The cluster
	// table trades recall for precision: "sof" alone would split "Sofia".
	gluedOf  = respaceRule{regexp.MustCompile(`(?i)(ion|ter|ler|ant|ent|int|ard|ack|ock|uck|ime|ame|ome|ple|tle|nce|ise|ose|use|ine|one|ure|ire|are|ore|ide|ade|ude|ive|ave|ove|all|ell|ill|ull|ath|eth|ith|oth|uth|lic|ric|sic|tic|nic|pic)of`), "$1 of"}
	pluralOf = respaceRule{regexp.MustCompile(`(?i)([^o])sof`), "${1}s of"}
	gluedTo  = respaceRule{regexp.MustCompile(`(?i)(ack|ome|urn)to`), "$1 to"}

	phraseRules = []respaceRule{
		{regexp.MustCompile(`(?i)\bof ?the\b`), "of the"},
		{regexp.MustCompile(`(?i)\bto ?the\b`), "to the"},
		{regexp.MustCompile(`(?i)\bat ?the\b`), "at the"},
		{regexp.MustCompile(`(?i)\bin ?the\b`), "in the"},
		{regexp.MustCompile(`(?i)\bfor ?the\b`), "for the"},
		{regexp.MustCompile(`(?i)\bfrom ?the\b`), "from the"},
		{regexp.MustCompile(`(?i)\bon ?the\b`), "on the"},
		{regexp.MustCompile(`(?i)\band ?the\b`), "and the"},
	}

	theBeforeCapital = respaceRule{regexp.MustCompile(`\bthe([A-Z])`), "the $1"}
	spaceRuns        = regexp.MustCompile(`\s+`)
)

type respaceRule struct {
	pattern     *regexp.Regexp
	replacement string
}

func (r respaceRule) apply(s string) string {
	return r.pattern.ReplaceAllString(s, r.replacement)
}

// AddSpaces is a pure transform: same input, same output, and running it on
// its own output changes nothing.
func AddSpaces(name string) string {
	if name == "" {
		return name
	}

	name = splitCamelCase(name)
	name = commaSpacing.apply(name)
	name = colonSpacing.apply(name)
	name = gluedOf.apply(name)
	name = pluralOf.apply(name)
	name = gluedTo.apply(name)
	for _, rule := range phraseRules {
		name = rule.apply(name)
	}
	name = theBeforeCapital.apply(name)
	name = spaceRuns.ReplaceAllString(name, " ")

	return strings.TrimSpace(name)
}

// splitCamelCase inserts a space at each lowercase-to-uppercase boundary,
// except after an apostrophe and except when the uppercase letter is the
// second character of a hyphenated segment ("First-Year" stays one word).
func splitCamelCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 8)

	for i, r := range runes {
		if i > 0 {
			prev := runes[i-1]
			if isLowerLetter(prev) && isUpperLetter(r) && prev != '\'' && (i < 2 || runes[i-2] != '-') {
				b.WriteRune(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isLowerLetter(r rune) bool { return r >= 'a' && r <= 'z' }

func isUpperLetter(r rune) bool { return r >= 'A' && r <= 'Z' }

// setNameFixups are literal corrections for set names whose official spelling
// the generic respacing cannot reproduce. Static data, applied after
// AddSpaces by FormatSetName.
var setNameFixups = []struct{ old, new string }{
	{"FINALFANTASY", "FINAL FANTASY"},
	{"Phyrexia:All Will Be One", "Phyrexia: All Will Be One"},
	{"Avatar:The Last Airbender", "Avatar: The Last Airbender"},
	{"Tarkir:Dragonstorm", "Tarkir: Dragonstorm"},
	{"Commander:", "Commander: "},
	{"Promo Pack:", "Promo Pack: "},
	{"From the Vault:", "From the Vault: "},
}

// FormatSetName produces the display spelling of a raw set name.
func FormatSetName(setRaw string) string {
	name := AddSpaces(setRaw)
	for _, f := range setNameFixups {
		name = strings.ReplaceAll(name, f.old, f.new)
	}
	name = spaceRuns.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}
