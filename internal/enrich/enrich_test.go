package enrich

import (
	"context"
	"testing"

	"github.com/ascreamingweas/tcgplayer-order-parser/internal"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/scryfall"
)

type fakeLookup struct {
	bySetNumber map[string]*scryfall.CardData
	byName      map[string]*scryfall.CardData
	calls       int
}

func (f *fakeLookup) CardBySetNumber(_ context.Context, setCode, number string) (*scryfall.CardData, error) {
	f.calls++
	if data, ok := f.bySetNumber[setCode+"/"+number]; ok {
		return data, nil
	}
	return nil, scryfall.ErrNotFound
}

func (f *fakeLookup) CardByName(_ context.Context, name string) (*scryfall.CardData, error) {
	f.calls++
	if data, ok := f.byName[name]; ok {
		return data, nil
	}
	return nil, scryfall.ErrNotFound
}

type memoryCache struct {
	values map[string]string
	puts   int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}}
}

func (m *memoryCache) GetCachedLookup(kind, key string) (*string, error) {
	if v, ok := m.values[kind+"|"+key]; ok {
		return &v, nil
	}
	return nil, nil
}

func (m *memoryCache) PutCachedLookup(kind, key, valueJSON string) error {
	m.values[kind+"|"+key] = valueJSON
	m.puts++
	return nil
}

func testSetMap() *scryfall.SetMap {
	return scryfall.BuildSetMap([]scryfall.SetData{
		{Code: "fdn", Name: "Foundations", SetType: "core"},
	})
}

func TestEnrichCardsExactPrinting(t *testing.T) {
	lookup := &fakeLookup{
		bySetNumber: map[string]*scryfall.CardData{
			"fdn/123": {
				Name:      "Llanowar Elves",
				TypeLine:  "Creature — Elf Druid",
				Colors:    []string{"G"},
				ImageURIs: map[string]string{"normal": "https://img.example/elves.jpg"},
			},
		},
	}
	e := NewEnricher(lookup, testSetMap(), nil)

	cards := []internal.Card{
		{CardName: "Llanowar Elves", SetName: "Foundations", CollectorNumber: "123", Color: "Colorless"},
	}
	stats, err := e.EnrichCards(context.Background(), cards)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Found != 1 || stats.Failed != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if cards[0].Color != "Green" {
		t.Fatalf("color = %q", cards[0].Color)
	}
	if cards[0].ImageURL == nil || *cards[0].ImageURL != "https://img.example/elves.jpg" {
		t.Fatalf("image = %v", cards[0].ImageURL)
	}
}

func TestEnrichCardsNameFallback(t *testing.T) {
	lookup := &fakeLookup{
		byName: map[string]*scryfall.CardData{
			"Counterspell": {Name: "Counterspell", TypeLine: "Instant", Colors: []string{"U"}},
		},
	}
	e := NewEnricher(lookup, testSetMap(), nil)

	// The set is unknown to the mapping, so resolution falls through to the
	// name search.
	cards := []internal.Card{
		{CardName: "Counterspell", SetName: "Some Unknown Set", CollectorNumber: "5", Color: "Colorless"},
	}
	stats, err := e.EnrichCards(context.Background(), cards)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Found != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if cards[0].Color != "Blue" {
		t.Fatalf("color = %q", cards[0].Color)
	}
}

func TestEnrichCardsFailureDefaults(t *testing.T) {
	e := NewEnricher(&fakeLookup{}, testSetMap(), nil)

	cards := []internal.Card{
		{CardName: "No Such Card", SetName: "Foundations", CollectorNumber: "999", Color: "Colorless"},
	}
	stats, err := e.EnrichCards(context.Background(), cards)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Failed != 1 || stats.Found != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if cards[0].Color != "Colorless" || cards[0].ImageURL != nil {
		t.Fatalf("card = %+v", cards[0])
	}
	if len(stats.FailedNames) != 1 {
		t.Fatalf("failed names = %v", stats.FailedNames)
	}
}

func TestEnrichCardsMemoryCache(t *testing.T) {
	lookup := &fakeLookup{
		bySetNumber: map[string]*scryfall.CardData{
			"fdn/123": {Name: "Llanowar Elves", TypeLine: "Creature", Colors: []string{"G"}},
		},
	}
	e := NewEnricher(lookup, testSetMap(), nil)

	cards := []internal.Card{
		{CardName: "Llanowar Elves", SetName: "Foundations", CollectorNumber: "123"},
		{CardName: "Llanowar Elves", SetName: "Foundations", CollectorNumber: "123"},
	}
	stats, err := e.EnrichCards(context.Background(), cards)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Cached != 1 || stats.Found != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if lookup.calls != 1 {
		t.Fatalf("lookup calls = %d, want 1", lookup.calls)
	}
	if cards[1].Color != "Green" {
		t.Fatalf("second color = %q", cards[1].Color)
	}
}

func TestEnrichCardsPersistentCache(t *testing.T) {
	lookup := &fakeLookup{
		bySetNumber: map[string]*scryfall.CardData{
			"fdn/123": {Name: "Llanowar Elves", TypeLine: "Creature", Colors: []string{"G"}},
		},
	}
	cache := newMemoryCache()

	first := NewEnricher(lookup, testSetMap(), cache)
	cards := []internal.Card{{CardName: "Llanowar Elves", SetName: "Foundations", CollectorNumber: "123"}}
	if _, err := first.EnrichCards(context.Background(), cards); err != nil {
		t.Fatal(err)
	}
	if cache.puts != 1 {
		t.Fatalf("cache puts = %d, want 1", cache.puts)
	}

	// A fresh enricher with the same cache resolves without any API call.
	second := NewEnricher(&fakeLookup{}, testSetMap(), cache)
	cards = []internal.Card{{CardName: "Llanowar Elves", SetName: "Foundations", CollectorNumber: "123"}}
	stats, err := second.EnrichCards(context.Background(), cards)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Found != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if cards[0].Color != "Green" {
		t.Fatalf("color = %q", cards[0].Color)
	}
}

func TestSearchName(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Llanowar Elves", "Llanowar Elves"},
		{"Sheoldred (Extended", "Sheoldred"},
		{"Counterspell (Retro Frame", "Counterspell"},
		{"  spaced   out  ", "spaced out"},
	}
	for _, tc := range cases {
		if got := SearchName(tc.input); got != tc.want {
			t.Errorf("SearchName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
