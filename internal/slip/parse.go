package slip

import (
	"regexp"
	"strings"

	"github.com/ascreamingweas/tcgplayer-order-parser/internal"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/util"
)

// UnparsedLine records a merged entry the assembler could not turn into a
// card. Kept for diagnostics; never fatal.
type UnparsedLine struct {
	Text     string
	Position int
}

// ParseOutcome is the result of parsing one document's lines: cards in page
// order plus whatever failed to parse.
type ParseOutcome struct {
	Cards    []internal.Card
	Unparsed []UnparsedLine
}

var afterMarkerPattern = regexp.MustCompile(`Magic-(.+)`)

// Parser turns raw slip lines into cards. It holds only read-only tables and
// may be shared across goroutines parsing different documents.
type Parser struct {
	prefixes *PrefixTable
}

func NewParser(prefixes *PrefixTable) *Parser {
	if prefixes == nil {
		prefixes = NewPrefixTable()
	}
	return &Parser{prefixes: prefixes}
}

// ParseLines runs the full pipeline: merge continuations, split set from
// card, extract fields, respace names.
func (p *Parser) ParseLines(lines []string) ParseOutcome {
	entries := MergeContinuationLines(lines)
	outcome := ParseOutcome{Cards: make([]internal.Card, 0, len(entries))}

	for _, entry := range entries {
		card, ok := p.ParseEntry(entry.Text)
		if !ok {
			outcome.Unparsed = append(outcome.Unparsed, UnparsedLine{Text: entry.Text, Position: entry.StartLine})
			continue
		}
		outcome.Cards = append(outcome.Cards, card)
	}

	return outcome
}

// ParseEntry assembles one card from a merged entry line. Returns ok=false
// when the line lacks the minimal entry shape; missing fields inside a valid
// entry resolve to defaults instead.
func (p *Parser) ParseEntry(line string) (internal.Card, bool) {
	line = strings.TrimSpace(line)
	if !entryStartPattern.MatchString(line) {
		return internal.Card{}, false
	}

	// Prices are stripped before locating the description so that fields a
	// line wrap pushed behind them rejoin the searchable text.
	marker := afterMarkerPattern.FindStringSubmatch(StripPrices(line))
	if marker == nil {
		return internal.Card{}, false
	}
	desc := strings.TrimSpace(marker[1])

	setRaw, remainder := p.prefixes.SplitSetAndCard(desc)
	fields := ExtractFields(line, remainder)

	card := internal.Card{
		Quantity:        fields.Quantity,
		SetName:         FormatSetName(setRaw),
		CardName:        AddSpaces(fields.NameSpan),
		CollectorNumber: fields.CollectorNumber,
		Rarity:          fields.Rarity,
		Condition:       fields.Condition,
		IsFoil:          fields.IsFoil,
		Language:        fields.Language,
		Price:           fields.Price,
		TotalPrice:      fields.TotalPrice,
		Color:           "Colorless",
	}
	if fields.VariantRaw != nil {
		card.Variant = util.StringPtr(AddSpaces(*fields.VariantRaw))
	}

	return card, true
}
