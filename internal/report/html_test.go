package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/ascreamingweas/tcgplayer-order-parser/internal"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/util"
)

func renderDoc(t *testing.T, cards []internal.Card, orderNumber string) *goquery.Document {
	t.Helper()
	blob, err := RenderHTML(cards, orderNumber)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(blob))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestRenderHTMLGroupsAndOrders(t *testing.T) {
	cards := []internal.Card{
		{Quantity: 1, CardName: "Sol Ring", SetName: "Commander Masters", Rarity: internal.RarityUncommon, Condition: internal.ConditionNearMint, Color: "Colorless", TotalPrice: 2.50},
		{Quantity: 2, CardName: "Counterspell", SetName: "Foundations", Rarity: internal.RarityCommon, Condition: internal.ConditionNearMint, Color: "Blue", TotalPrice: 1.00},
		{Quantity: 4, CardName: "Plains", SetName: "Foundations", Rarity: internal.RarityCommon, Condition: internal.ConditionNearMint, Color: "Land", TotalPrice: 0.40},
		{Quantity: 1, CardName: "Swords to Plowshares", SetName: "Foundations", Rarity: internal.RarityUncommon, Condition: internal.ConditionNearMint, Color: "White", TotalPrice: 1.25},
	}

	doc := renderDoc(t, cards, "TCG-123")

	sections := doc.Find(".color-section")
	if sections.Length() != 4 {
		t.Fatalf("color sections = %d, want 4", sections.Length())
	}

	var order []string
	sections.Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		order = append(order, id)
	})
	want := []string{"White", "Blue", "Colorless", "Land"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("section order = %v, want %v", order, want)
		}
	}

	if got := doc.Find(".order-info").Text(); !strings.Contains(got, "TCG-123") {
		t.Fatalf("order info = %q", got)
	}
	if got := doc.Find(".summary-item .number").First().Text(); got != "8" {
		t.Fatalf("total cards = %q, want 8", got)
	}
	if got := doc.Find(".nav-link").Length(); got != 4 {
		t.Fatalf("nav links = %d, want 4", got)
	}
}

func TestRenderHTMLRaritySections(t *testing.T) {
	cards := []internal.Card{
		{Quantity: 1, CardName: "Common Card", Rarity: internal.RarityCommon, Condition: internal.ConditionNearMint, Color: "Red"},
		{Quantity: 1, CardName: "Mythic Card", Rarity: internal.RarityMythic, Condition: internal.ConditionNearMint, Color: "Red"},
		{Quantity: 1, CardName: "Rare Card", Rarity: internal.RarityRare, Condition: internal.ConditionNearMint, Color: "Red"},
	}

	doc := renderDoc(t, cards, "")

	var headers []string
	doc.Find(".rarity-header").Each(func(_ int, s *goquery.Selection) {
		headers = append(headers, strings.TrimSpace(s.Text()))
	})
	want := []string{"Mythic Rare (1)", "Rare (1)", "Common (1)"}
	if len(headers) != len(want) {
		t.Fatalf("rarity headers = %v", headers)
	}
	for i := range want {
		if headers[i] != want[i] {
			t.Fatalf("rarity headers = %v, want %v", headers, want)
		}
	}
}

func TestRenderHTMLSectionHeaderTints(t *testing.T) {
	cards := []internal.Card{
		{Quantity: 1, CardName: "Counterspell", Rarity: internal.RarityCommon, Condition: internal.ConditionNearMint, Color: "Blue"},
		{Quantity: 1, CardName: "Plains", Rarity: internal.RarityCommon, Condition: internal.ConditionNearMint, Color: "Land"},
	}

	doc := renderDoc(t, cards, "")

	css := doc.Find("style").Text()
	doc.Find(".color-header").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		for _, name := range strings.Fields(class) {
			if !strings.HasPrefix(name, "header-") {
				continue
			}
			if !strings.Contains(css, "."+name+" {") {
				t.Errorf("stylesheet has no rule for %q", name)
			}
		}
	})
	if doc.Find(".color-header.header-Blue").Length() != 1 {
		t.Fatal("blue section header missing its tint class")
	}
}

func TestRenderHTMLVariantsSortFirst(t *testing.T) {
	cards := []internal.Card{
		{Quantity: 1, CardName: "Aardwolf", Rarity: internal.RarityRare, Condition: internal.ConditionNearMint, Color: "Green"},
		{Quantity: 1, CardName: "Zealous Hunter", Variant: util.StringPtr("Extended Art"), Rarity: internal.RarityRare, Condition: internal.ConditionNearMint, Color: "Green"},
	}

	doc := renderDoc(t, cards, "")

	first := doc.Find(".card-name").First().Text()
	if !strings.Contains(first, "Zealous Hunter") {
		t.Fatalf("first card = %q, want the variant printing", first)
	}
	if !strings.Contains(first, "(Extended Art)") {
		t.Fatalf("variant text missing: %q", first)
	}
}

func TestRenderHTMLBadges(t *testing.T) {
	cards := []internal.Card{
		{
			Quantity:        2,
			CardName:        "Shivan Dragon",
			SetName:         "Foundations",
			CollectorNumber: "149",
			Rarity:          internal.RarityRare,
			Condition:       internal.ConditionLightlyPlayed,
			IsFoil:          true,
			Language:        util.StringPtr("Japanese"),
			Color:           "Red",
			ImageURL:        util.StringPtr("https://img.example/dragon.jpg"),
			TotalPrice:      5.00,
		},
	}

	doc := renderDoc(t, cards, "")

	if doc.Find(".card-foil").Length() != 1 {
		t.Fatal("foil badge missing")
	}
	if got := doc.Find(".card-language").Text(); !strings.Contains(got, "Japanese") {
		t.Fatalf("language badge = %q", got)
	}
	if got := doc.Find(".card-details").Text(); !strings.Contains(got, "Foundations #149 - Lightly Played") {
		t.Fatalf("details = %q", got)
	}
	item := doc.Find(".card-item").First()
	if img, _ := item.Attr("data-image"); img != "https://img.example/dragon.jpg" {
		t.Fatalf("data-image = %q", img)
	}
}

func TestWriteHTMLReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "pullsheet.html")

	cards := []internal.Card{
		{Quantity: 1, CardName: "Island", Rarity: internal.RarityCommon, Condition: internal.ConditionNearMint, Color: "Land"},
	}
	if err := WriteHTMLReport(cards, "TCG-9", path); err != nil {
		t.Fatal(err)
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(blob), "Island") {
		t.Fatal("report does not mention the card")
	}
}
