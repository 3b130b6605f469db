package slip

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ascreamingweas/tcgplayer-order-parser/internal"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/util"
)

// Fields is everything the extractor recovers from one merged entry besides
// the set/card split itself.
type Fields struct {
	Quantity        int
	Price           float64
	TotalPrice      float64
	CollectorNumber string
	Rarity          internal.Rarity
	IsFoil          bool
	Condition       internal.Condition
	Language        *string
	NameSpan        string
	VariantRaw      *string
}

var (
	quantityPattern = regexp.MustCompile(`^(\d+)\s+`)
	pricePattern    = regexp.MustCompile(`\$(\d+\.?\d*)`)
	numberPattern   = regexp.MustCompile(`#(\d+)`)

	// Rarity search order: flanked by hyphens, then at the end or glued to a
	// condition/foil keyword, then displaced past a price by a line wrap.
	rarityFlanked    = regexp.MustCompile(`-([MRUCS])-`)
	rarityTrailing   = regexp.MustCompile(`-([MRUCS])(?:$|-?Near|-?Lightly|-?Moderately|-?Heavily|-?Foil)`)
	rarityAfterPrice = regexp.MustCompile(`\$\d+\.?\d*([MRUCS])-`)

	variantPattern = regexp.MustCompile(`\(([^)]+)\)`)
)

// conditionChecks run in order from worst to best; the default stays Near
// Mint when none match. Keywords are checked with and without the internal
// space because the PDF collapses spacing unpredictably.
var conditionChecks = []struct {
	needles   []string
	condition internal.Condition
}{
	{[]string{"LightlyPlayed", "Lightly Played"}, internal.ConditionLightlyPlayed},
	{[]string{"ModeratelyPlayed", "Moderately Played"}, internal.ConditionModeratelyPlayed},
	{[]string{"HeavilyPlayed", "Heavily Played"}, internal.ConditionHeavilyPlayed},
}

// languagePatterns require hyphen/space/edge bounds so that a language name
// embedded in an unrelated word ("RetroFrame", "Titan") does not match.
var languagePatterns = []struct {
	pattern *regexp.Regexp
	name    string
}{
	{regexp.MustCompile(`[-\s]Japanese[-\s]|Japanese$`), "Japanese"},
	{regexp.MustCompile(`[-\s]German[-\s]|German$`), "German"},
	{regexp.MustCompile(`[-\s]French[-\s]|French$`), "French"},
	{regexp.MustCompile(`[-\s]Italian[-\s]|Italian$`), "Italian"},
	{regexp.MustCompile(`[-\s]Spanish[-\s]|Spanish$`), "Spanish"},
	{regexp.MustCompile(`[-\s]Portuguese[-\s]|Portuguese$`), "Portuguese"},
	{regexp.MustCompile(`[-\s]Russian[-\s]|Russian$`), "Russian"},
	{regexp.MustCompile(`[-\s]Korean[-\s]|Korean$`), "Korean"},
	{regexp.MustCompile(`ChineseSimplified|SimplifiedChinese`), "Chinese (Simplified)"},
	{regexp.MustCompile(`ChineseTraditional|TraditionalChinese`), "Chinese (Traditional)"},
	{regexp.MustCompile(`[-\s]Phyrexian[-\s]|Phyrexian$`), "Phyrexian"},
}

// ExtractQuantity reads the leading quantity of a merged entry line.
func ExtractQuantity(line string) (int, bool) {
	m := quantityPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	qty, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return qty, true
}

// ExtractPrices returns (unit, total) from the dollar amounts in the line.
// A line wrap can push the amounts into a trailing segment, so all amounts
// are collected and the last two win; fewer than two means both are zero.
func ExtractPrices(line string) (float64, float64) {
	matches := pricePattern.FindAllStringSubmatch(line, -1)
	if len(matches) < 2 {
		return 0, 0
	}
	unit, err1 := strconv.ParseFloat(matches[len(matches)-2][1], 64)
	total, err2 := strconv.ParseFloat(matches[len(matches)-1][1], 64)
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return unit, total
}

// StripPrices removes dollar amounts so that fields displaced behind them by
// a line wrap rejoin the description.
func StripPrices(line string) string {
	return pricePattern.ReplaceAllString(line, "")
}

// ExtractFields pulls the position-independent fields from the original
// merged line and the anchored fields from the post-split remainder.
func ExtractFields(line, remainder string) Fields {
	f := Fields{
		Rarity:    internal.RarityRare,
		Condition: internal.ConditionNearMint,
	}

	if qty, ok := ExtractQuantity(line); ok {
		f.Quantity = qty
	}
	f.Price, f.TotalPrice = ExtractPrices(line)

	if m := numberPattern.FindStringSubmatch(remainder); m != nil {
		f.CollectorNumber = m[1]
	}

	rarityIdx := -1
	if m := rarityFlanked.FindStringSubmatchIndex(remainder); m != nil {
		f.Rarity = internal.Rarity(remainder[m[2]:m[3]])
		rarityIdx = m[0]
	} else if m := rarityTrailing.FindStringSubmatchIndex(remainder); m != nil {
		f.Rarity = internal.Rarity(remainder[m[2]:m[3]])
		rarityIdx = m[0]
	} else if m := rarityAfterPrice.FindStringSubmatch(line); m != nil {
		f.Rarity = internal.Rarity(m[1])
	}

	// Foil and condition can land anywhere after a wrap, including outside
	// the remainder, so they are checked against the full original line.
	f.IsFoil = strings.Contains(line, "Foil")
	for _, check := range conditionChecks {
		for _, needle := range check.needles {
			if strings.Contains(line, needle) {
				f.Condition = check.condition
				break
			}
		}
		if f.Condition != internal.ConditionNearMint {
			break
		}
	}

	for _, lp := range languagePatterns {
		if lp.pattern.MatchString(line) {
			f.Language = util.StringPtr(lp.name)
			break
		}
	}

	f.NameSpan, f.VariantRaw = extractNameSpan(remainder, f.CollectorNumber, rarityIdx)
	return f
}

// extractNameSpan isolates the card-name portion of the remainder: the text
// before the collector anchor, else before the rarity match, else the first
// hyphen token. A parenthesized segment inside the span is the variant.
func extractNameSpan(remainder, collectorNumber string, rarityIdx int) (string, *string) {
	var span string
	switch {
	case collectorNumber != "":
		if pos := strings.Index(remainder, "#"+collectorNumber); pos >= 0 {
			span = remainder[:pos]
		}
	case rarityIdx >= 0:
		span = remainder[:rarityIdx]
	default:
		span = strings.SplitN(remainder, "-", 2)[0]
	}
	span = strings.TrimRight(span, "-")

	if m := variantPattern.FindStringSubmatchIndex(span); m != nil {
		variant := span[m[2]:m[3]]
		name := strings.TrimSpace(span[:m[0]])
		return name, util.StringPtr(variant)
	}
	return span, nil
}
