package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ascreamingweas/tcgplayer-order-parser/internal"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/scryfall"
)

// CardLookup is the card API surface the enricher needs.
type CardLookup interface {
	CardBySetNumber(ctx context.Context, setCode, number string) (*scryfall.CardData, error)
	CardByName(ctx context.Context, name string) (*scryfall.CardData, error)
}

// LookupCache persists successful lookups across runs. Optional.
type LookupCache interface {
	GetCachedLookup(kind, key string) (*string, error)
	PutCachedLookup(kind, key, valueJSON string) error
}

const cacheKind = "scryfall.card"

// artifactPatterns strip variant fragments a line wrap can leave glued to the
// end of a card name. They would make every name lookup miss.
var artifactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\(Extended$`),
	regexp.MustCompile(`\(Borderless$`),
	regexp.MustCompile(`\(Showcase$`),
	regexp.MustCompile(`\(Retro Frame$`),
	regexp.MustCompile(`\(Foil Etched$`),
	regexp.MustCompile(`\(White Border$`),
	regexp.MustCompile(`\(Future Sight$`),
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// SearchName reduces a display card name to the form the card API can match.
func SearchName(cardName string) string {
	name := strings.TrimSpace(cardName)
	for _, p := range artifactPatterns {
		name = strings.TrimSpace(p.ReplaceAllString(name, ""))
	}
	return whitespaceRun.ReplaceAllString(name, " ")
}

// Stats summarizes one enrichment pass.
type Stats struct {
	Total       int
	Cached      int
	Found       int
	Failed      int
	FailedNames []string
}

// Enricher fills Color and ImageURL on parsed cards. Colors are cached per
// card name since they are constant across printings; images are cached per
// set and collector number so variants keep their own art.
type Enricher struct {
	lookup CardLookup
	sets   *scryfall.SetMap
	cache  LookupCache

	colorByName      map[string]string
	imageBySetNumber map[string]*string
}

// NewEnricher builds an enricher. cache may be nil to skip persistence; sets
// may be nil when no set mapping is available, disabling exact lookups.
func NewEnricher(lookup CardLookup, sets *scryfall.SetMap, cache LookupCache) *Enricher {
	return &Enricher{
		lookup:           lookup,
		sets:             sets,
		cache:            cache,
		colorByName:      make(map[string]string),
		imageBySetNumber: make(map[string]*string),
	}
}

// EnrichCards resolves color and image for every card in place. A lookup
// failure is never fatal: the card keeps Colorless and no image, and the
// failure is counted.
func (e *Enricher) EnrichCards(ctx context.Context, cards []internal.Card) (Stats, error) {
	stats := Stats{Total: len(cards)}

	for i := range cards {
		card := &cards[i]
		searchName := SearchName(card.CardName)
		colorKey := strings.ToLower(searchName)
		imageKey := card.SetName + "|" + card.CollectorNumber

		if color, okColor := e.colorByName[colorKey]; okColor {
			if image, okImage := e.imageBySetNumber[imageKey]; okImage {
				card.Color = color
				card.ImageURL = image
				stats.Cached++
				continue
			}
		}

		data, err := e.resolve(ctx, searchName, card.SetName, card.CollectorNumber)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			card.Color = "Colorless"
			card.ImageURL = nil
			stats.Failed++
			stats.FailedNames = append(stats.FailedNames, fmt.Sprintf("%s (searched: %s)", card.CardName, searchName))
		} else {
			card.Color = scryfall.ColorCategory(data)
			card.ImageURL = scryfall.ImageURL(data)
			stats.Found++
		}

		e.colorByName[colorKey] = card.Color
		e.imageBySetNumber[imageKey] = card.ImageURL
	}

	return stats, nil
}

// resolve finds the card: exact printing by set code and collector number
// when possible, name search otherwise. Successful lookups go through the
// persistent cache.
func (e *Enricher) resolve(ctx context.Context, searchName, setName, collectorNumber string) (*scryfall.CardData, error) {
	key := cacheKey(searchName, setName, collectorNumber)

	if e.cache != nil {
		if cached, err := e.cache.GetCachedLookup(cacheKind, key); err == nil && cached != nil {
			var data scryfall.CardData
			if err := json.Unmarshal([]byte(*cached), &data); err == nil {
				return &data, nil
			}
		}
	}

	data, err := e.fetch(ctx, searchName, setName, collectorNumber)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if blob, err := json.Marshal(data); err == nil {
			_ = e.cache.PutCachedLookup(cacheKind, key, string(blob))
		}
	}
	return data, nil
}

func (e *Enricher) fetch(ctx context.Context, searchName, setName, collectorNumber string) (*scryfall.CardData, error) {
	if e.sets != nil && setName != "" && collectorNumber != "" {
		if code, ok := e.sets.Code(setName); ok {
			data, err := e.lookup.CardBySetNumber(ctx, code, collectorNumber)
			if err == nil {
				return data, nil
			}
			if !errors.Is(err, scryfall.ErrNotFound) {
				return nil, err
			}
		}
	}

	if searchName == "" {
		return nil, scryfall.ErrNotFound
	}
	return e.lookup.CardByName(ctx, searchName)
}

func cacheKey(searchName, setName, collectorNumber string) string {
	if setName != "" && collectorNumber != "" {
		return strings.ToLower(setName) + "/" + collectorNumber
	}
	return "name:" + strings.ToLower(searchName)
}
