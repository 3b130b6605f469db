package scryfall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ascreamingweas/tcgplayer-order-parser/internal/config"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/util"
)

// ErrNotFound reports a 404 from the card API. Callers treat it as "card
// unknown", not as a transport failure.
var ErrNotFound = errors.New("scryfall: not found")

type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

// CardData is the subset of the card object the enricher needs.
type CardData struct {
	Name            string            `json:"name"`
	TypeLine        string            `json:"type_line"`
	Colors          []string          `json:"colors"`
	ImageURIs       map[string]string `json:"image_uris"`
	CardFaces       []CardFace        `json:"card_faces"`
	SetCode         string            `json:"set"`
	CollectorNumber string            `json:"collector_number"`
}

type CardFace struct {
	Name      string            `json:"name"`
	TypeLine  string            `json:"type_line"`
	Colors    []string          `json:"colors"`
	ImageURIs map[string]string `json:"image_uris"`
}

// SetData is one entry from the sets listing.
type SetData struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	SetType    string `json:"set_type"`
	ReleasedAt string `json:"released_at"`
}

type setListPayload struct {
	Data     []SetData `json:"data"`
	HasMore  bool      `json:"has_more"`
	NextPage string    `json:"next_page"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.ScryfallTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.ScryfallRateLimitRPS),
	}
}

// CardBySetNumber looks a card up by set code and collector number, the most
// precise lookup the API offers.
func (c *Client) CardBySetNumber(ctx context.Context, setCode, number string) (*CardData, error) {
	path := fmt.Sprintf("cards/%s/%s", url.PathEscape(strings.ToLower(setCode)), url.PathEscape(number))
	body, err := c.fetchJSON(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	var card CardData
	if err := json.Unmarshal(body, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// CardByName resolves a card by name: fuzzy first, then exact, then fuzzy
// again with everything after the first comma dropped. Respaced names carry
// occasional artifacts, and the fallbacks recover most of them.
func (c *Client) CardByName(ctx context.Context, name string) (*CardData, error) {
	card, err := c.cardNamed(ctx, "fuzzy", name)
	if err == nil {
		return card, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	card, err = c.cardNamed(ctx, "exact", name)
	if err == nil {
		return card, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if i := strings.Index(name, ","); i > 0 {
		return c.cardNamed(ctx, "fuzzy", name[:i])
	}
	return nil, ErrNotFound
}

// ListSets downloads the full sets listing, following pagination.
func (c *Client) ListSets(ctx context.Context) ([]SetData, error) {
	sets := make([]SetData, 0, 512)
	next := "sets"

	for next != "" {
		body, err := c.fetchJSON(ctx, next, nil)
		if err != nil {
			return nil, err
		}
		var payload setListPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, err
		}
		sets = append(sets, payload.Data...)
		next = ""
		if payload.HasMore && payload.NextPage != "" {
			next = payload.NextPage
		}
	}

	return sets, nil
}

func (c *Client) cardNamed(ctx context.Context, mode, name string) (*CardData, error) {
	body, err := c.fetchJSON(ctx, "cards/named", map[string]string{mode: name})
	if err != nil {
		return nil, err
	}
	var card CardData
	if err := json.Unmarshal(body, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func (c *Client) fetchJSON(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	var u *url.URL
	var err error
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		u, err = url.Parse(endpoint)
	} else {
		u, err = url.Parse(strings.TrimRight(c.cfg.ScryfallAPIBaseURL, "/") + "/" + endpoint)
	}
	if err != nil {
		return nil, err
	}

	q := u.Query()
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		if err := c.limiter.WaitTurn(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.cfg.ScryfallUserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("scryfall status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("scryfall api error: status=%d body=%s", resp.StatusCode, string(body))
		}

		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("scryfall request failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// ColorCategory buckets a card for the pull sheet. Lands sort as Land no
// matter what they produce; double-faced cards follow their front face.
func ColorCategory(card *CardData) string {
	typeLine := card.TypeLine
	colors := card.Colors
	if len(card.CardFaces) > 0 {
		front := card.CardFaces[0]
		if front.TypeLine != "" {
			typeLine = front.TypeLine
		}
		if colors == nil {
			colors = front.Colors
		}
	}

	if strings.Contains(typeLine, "Land") {
		return "Land"
	}
	switch len(colors) {
	case 0:
		return "Colorless"
	case 1:
		switch colors[0] {
		case "W":
			return "White"
		case "U":
			return "Blue"
		case "B":
			return "Black"
		case "R":
			return "Red"
		case "G":
			return "Green"
		}
		return "Colorless"
	default:
		return "Multicolor"
	}
}

// ImageURL picks the normal-size image, preferring the front face for cards
// whose images live on the faces.
func ImageURL(card *CardData) *string {
	if uri, ok := card.ImageURIs["normal"]; ok && uri != "" {
		return util.StringPtr(uri)
	}
	if len(card.CardFaces) > 0 {
		if uri, ok := card.CardFaces[0].ImageURIs["normal"]; ok && uri != "" {
			return util.StringPtr(uri)
		}
	}
	return nil
}
