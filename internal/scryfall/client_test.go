package scryfall

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/ascreamingweas/tcgplayer-order-parser/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testConfig() config.Config {
	cfg, _ := config.Load()
	cfg.ScryfallAPIBaseURL = "https://example.test/api"
	cfg.ScryfallRateLimitRPS = 1000
	return cfg
}

func jsonResponse(status int, payload any) *http.Response {
	blob, _ := json.Marshal(payload)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(string(blob))),
		Header:     make(http.Header),
	}
}

func TestCardBySetNumberWithRetry(t *testing.T) {
	attempt := 0

	client := NewClient(testConfig())
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Path != "/api/cards/fdn/123" {
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
			attempt++
			if attempt == 1 {
				return jsonResponse(http.StatusTooManyRequests, map[string]any{"details": "slow down"}), nil
			}
			return jsonResponse(http.StatusOK, map[string]any{
				"name":      "Llanowar Elves",
				"type_line": "Creature — Elf Druid",
				"colors":    []string{"G"},
				"image_uris": map[string]string{
					"normal": "https://img.example/elves.jpg",
				},
				"set":              "fdn",
				"collector_number": "123",
			}), nil
		}),
	}

	card, err := client.CardBySetNumber(context.Background(), "FDN", "123")
	if err != nil {
		t.Fatal(err)
	}
	if attempt != 2 {
		t.Fatalf("attempts = %d, want 2", attempt)
	}
	if card.Name != "Llanowar Elves" {
		t.Fatalf("name = %q", card.Name)
	}
}

func TestCardBySetNumberNotFound(t *testing.T) {
	client := NewClient(testConfig())
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusNotFound, map[string]any{"details": "no card"}), nil
		}),
	}

	_, err := client.CardBySetNumber(context.Background(), "xyz", "1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCardByNameFallbackChain(t *testing.T) {
	var queries []string

	client := NewClient(testConfig())
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			q := r.URL.Query()
			switch {
			case q.Get("fuzzy") == "Krenko, Mob Boss Extra":
				queries = append(queries, "fuzzy-full")
				return jsonResponse(http.StatusNotFound, nil), nil
			case q.Get("exact") == "Krenko, Mob Boss Extra":
				queries = append(queries, "exact")
				return jsonResponse(http.StatusNotFound, nil), nil
			case q.Get("fuzzy") == "Krenko":
				queries = append(queries, "fuzzy-truncated")
				return jsonResponse(http.StatusOK, map[string]any{"name": "Krenko, Mob Boss"}), nil
			default:
				t.Fatalf("unexpected query %v", r.URL.RawQuery)
				return nil, nil
			}
		}),
	}

	card, err := client.CardByName(context.Background(), "Krenko, Mob Boss Extra")
	if err != nil {
		t.Fatal(err)
	}
	if card.Name != "Krenko, Mob Boss" {
		t.Fatalf("name = %q", card.Name)
	}
	want := []string{"fuzzy-full", "exact", "fuzzy-truncated"}
	if len(queries) != len(want) {
		t.Fatalf("queries = %v", queries)
	}
	for i := range want {
		if queries[i] != want[i] {
			t.Fatalf("queries = %v, want %v", queries, want)
		}
	}
}

func TestListSetsPagination(t *testing.T) {
	client := NewClient(testConfig())
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Host == "next.example.test" {
				return jsonResponse(http.StatusOK, map[string]any{
					"data":     []map[string]any{{"code": "dft", "name": "Aetherdrift", "set_type": "expansion"}},
					"has_more": false,
				}), nil
			}
			return jsonResponse(http.StatusOK, map[string]any{
				"data":      []map[string]any{{"code": "fdn", "name": "Foundations", "set_type": "core"}},
				"has_more":  true,
				"next_page": "https://next.example.test/sets?page=2",
			}), nil
		}),
	}

	sets, err := client.ListSets(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 2 {
		t.Fatalf("len = %d, want 2", len(sets))
	}
	if sets[1].Code != "dft" {
		t.Fatalf("second code = %q", sets[1].Code)
	}
}

func TestColorCategory(t *testing.T) {
	cases := []struct {
		name string
		card CardData
		want string
	}{
		{"mono green", CardData{TypeLine: "Creature — Elf", Colors: []string{"G"}}, "Green"},
		{"multicolor", CardData{TypeLine: "Creature — Human", Colors: []string{"W", "U"}}, "Multicolor"},
		{"colorless artifact", CardData{TypeLine: "Artifact", Colors: []string{}}, "Colorless"},
		{"land beats colors", CardData{TypeLine: "Land — Forest", Colors: []string{"G"}}, "Land"},
		{
			"dfc follows front face",
			CardData{CardFaces: []CardFace{
				{TypeLine: "Creature — Werewolf", Colors: []string{"R"}},
				{TypeLine: "Creature — Werewolf", Colors: []string{}},
			}},
			"Red",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ColorCategory(&tc.card); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestImageURLPrefersFrontFace(t *testing.T) {
	card := CardData{
		CardFaces: []CardFace{
			{ImageURIs: map[string]string{"normal": "https://img.example/front.jpg"}},
			{ImageURIs: map[string]string{"normal": "https://img.example/back.jpg"}},
		},
	}
	got := ImageURL(&card)
	if got == nil || *got != "https://img.example/front.jpg" {
		t.Fatalf("image = %v", got)
	}
	if ImageURL(&CardData{}) != nil {
		t.Fatal("expected nil image for card without uris")
	}
}

func TestBuildSetMap(t *testing.T) {
	sets := []SetData{
		{Code: "fdn", Name: "Foundations", SetType: "core"},
		{Code: "tdm", Name: "Tarkir: Dragonstorm", SetType: "expansion"},
		{Code: "tfdn", Name: "Foundations Tokens", SetType: "token"},
	}
	m := BuildSetMap(sets)

	cases := []struct {
		name string
		want string
	}{
		{"Foundations", "fdn"},
		{"Tarkir: Dragonstorm", "tdm"},
		{"Tarkir:Dragonstorm", "tdm"},
		{"TarkirDragonstorm", "tdm"},
		{"foundations", "fdn"},
		{"The List Reprints", "plst"},
		{"TimeSpiral:Remastered", "tsr"},
	}
	for _, tc := range cases {
		code, ok := m.Code(tc.name)
		if !ok || code != tc.want {
			t.Errorf("Code(%q) = (%q, %v), want %q", tc.name, code, ok, tc.want)
		}
	}

	if _, ok := m.Code("Foundations Tokens"); ok {
		t.Error("token set should not be mapped")
	}
}
