package slip

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// UnknownSet is the sentinel set name when no split strategy applies.
const UnknownSet = "Unknown"

// knownSetPrefixes lists set-name spellings exactly as they appear in the
// slip's collapsed text. Names containing hyphens or colons would defeat the
// hyphen-based fallback, so matching them up front resolves the ambiguity.
var knownSetPrefixes = []string{
	"LorwynEclipsed",
	"Avatar:TheLastAirbender:Eternal-Legal",
	"Avatar:TheLastAirbender",
	"MarvelUniverseEternal-Legal",
	"Marvel'sSpider-Man",
	"EdgeofEternities",
	"Commander:EdgeofEternities",
	"FINALFANTASY",
	"Commander:FINALFANTASY",
	"Tarkir:Dragonstorm",
	"Commander:Tarkir:Dragonstorm",
	"Aetherdrift",
	"Phyrexia:AllWillBeOne",
	"WaroftheSpark",
	"Foundations",
	"CommanderLegends:BattleforBaldur'sGate",
	"Commander:OutlawsofThunderJunction",
	"Commander:StreetsofNewCapenna",
	"Commander2016",
	"ModernHorizons3",
	"RavnicaRemastered",
	"TimeSpiral:Remastered",
	"TheListReprints",
	"MysteryBooster2",
	"SecretLairDropSeries",
	"SecretLairCountdownKit",
	"Urza'sLegacy",
	"FromtheVault:Lore",
	"PromoPack:OutlawsofThunderJunction",
	"PromoPack:MarchoftheMachine",
	"PromoPack:Kamigawa:NeonDynasty",
	"CommanderMasters",
	"Innistrad:MidnightHunt",
	"OutlawsofThunderJunction",
	"MurdersatKarlovManor",
}

// setContinuationWords are hyphen parts that belong to the set side even
// though they start with a capital. The list is a heuristic and incomplete by
// construction: new set naming conventions need new entries here or, better,
// in the prefix table.
var setContinuationWords = []string{"Commander", "Eternal", "Legal", "Remastered", "Promo"}

var collectorAnchorPattern = regexp.MustCompile(`-#\d+`)

// PrefixTable holds known set-name variants ordered longest first. It is
// read-only after construction and safe to share across concurrent parses.
type PrefixTable struct {
	prefixes []string
}

// NewPrefixTable builds the table from the built-in list plus any extra
// variants (for example names learned from a set sync).
func NewPrefixTable(extra ...string) *PrefixTable {
	seen := make(map[string]struct{}, len(knownSetPrefixes)+len(extra))
	prefixes := make([]string, 0, len(knownSetPrefixes)+len(extra))
	add := func(p string) {
		p = strings.TrimSpace(p)
		if p == "" {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		prefixes = append(prefixes, p)
	}
	for _, p := range knownSetPrefixes {
		add(p)
	}
	for _, p := range extra {
		add(p)
	}

	// Longest first so the most specific variant wins.
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
	return &PrefixTable{prefixes: prefixes}
}

// SplitSetAndCard separates the leading set name from the rest of a merged
// entry description (quantity and "Magic-" marker already stripped). It never
// fails: strategies run in strict precedence and the last one always yields a
// result, falling back to the UnknownSet sentinel.
func (t *PrefixTable) SplitSetAndCard(desc string) (setRaw, remainder string) {
	// 1. Known prefix, longest first.
	for _, prefix := range t.prefixes {
		if strings.HasPrefix(desc, prefix+"-") {
			return prefix, desc[len(prefix)+1:]
		}
	}

	// 2. Anchor on the collector number and walk the hyphen parts before it:
	// parts stay on the set side until one starts a card name.
	if loc := collectorAnchorPattern.FindStringIndex(desc); loc != nil {
		before := desc[:loc[0]]
		parts := strings.Split(before, "-")
		if len(parts) >= 2 {
			var setParts, cardParts []string
			found := false
			for j, part := range parts {
				if !found && j > 0 && startsCardName(part) {
					found = true
				}
				if found {
					cardParts = append(cardParts, part)
				} else {
					setParts = append(setParts, part)
				}
			}
			if len(setParts) > 0 && len(cardParts) > 0 {
				return strings.Join(setParts, "-"), strings.Join(cardParts, "-") + desc[loc[0]:]
			}
		}
	}

	// 3. First hyphen.
	if i := strings.Index(desc, "-"); i > 0 {
		return desc[:i], desc[i+1:]
	}

	return UnknownSet, desc
}

func startsCardName(part string) bool {
	if part == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(part)
	if !unicode.IsUpper(r) {
		return false
	}
	for _, w := range setContinuationWords {
		if strings.HasPrefix(part, w) {
			return false
		}
	}
	return true
}
