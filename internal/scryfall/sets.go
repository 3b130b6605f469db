package scryfall

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ascreamingweas/tcgplayer-order-parser/internal/config"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/storage"
)

// manualOverrides patch naming quirks where the slips use a different set
// name than the API. Keyed both with and without spaces.
var manualOverrides = map[string]string{
	"SecretLairDropSeries":                      "sld",
	"Secret Lair Drop Series":                   "sld",
	"SecretLairCountdownKit":                    "slc",
	"Secret Lair Countdown Kit":                 "slc",
	"Avatar:TheLastAirbender:Eternal-Legal":     "tle",
	"Avatar: The Last Airbender: Eternal-Legal": "tle",
	"MarvelUniverseEternal-Legal":               "mar",
	"Marvel Universe Eternal-Legal":             "mar",
	"TheListReprints":                           "plst",
	"The List Reprints":                         "plst",
	"TimeSpiral:Remastered":                     "tsr",
	"Time Spiral: Remastered":                   "tsr",
}

// skippedSetTypes have collector numbering schemes that clash with the main
// sets, so they stay out of the mapping.
var skippedSetTypes = map[string]struct{}{
	"token":       {},
	"memorabilia": {},
	"promo":       {},
	"alchemy":     {},
}

// SetMap resolves display set names to API set codes. Exported fields keep it
// round-trippable through the JSON cache file.
type SetMap struct {
	Codes map[string]string `json:"codes"`
	Names []string          `json:"names"`
}

// BuildSetMap indexes the sets listing under every spelling the slips use:
// exact, collapsed spaces, collapsed colons, and fully collapsed.
func BuildSetMap(sets []SetData) *SetMap {
	m := &SetMap{
		Codes: make(map[string]string, len(sets)*4),
		Names: make([]string, 0, len(sets)),
	}

	for _, set := range sets {
		if set.Code == "" || set.Name == "" {
			continue
		}
		if _, skip := skippedSetTypes[set.SetType]; skip {
			continue
		}

		m.Names = append(m.Names, set.Name)
		m.Codes[set.Name] = set.Code
		m.Codes[strings.ReplaceAll(set.Name, " ", "")] = set.Code
		m.Codes[strings.ReplaceAll(set.Name, ": ", ":")] = set.Code

		allCollapsed := strings.ReplaceAll(strings.ReplaceAll(set.Name, " ", ""), ":", "")
		if _, exists := m.Codes[allCollapsed]; !exists {
			m.Codes[allCollapsed] = set.Code
		}
	}

	for name, code := range manualOverrides {
		m.Codes[name] = code
	}

	return m
}

// Code looks a display name up: exact, then with spaces removed, then a
// case-insensitive scan.
func (m *SetMap) Code(name string) (string, bool) {
	if code, ok := m.Codes[name]; ok {
		return code, true
	}
	if code, ok := m.Codes[strings.ReplaceAll(name, " ", "")]; ok {
		return code, true
	}
	lower := strings.ToLower(name)
	for key, code := range m.Codes {
		if strings.ToLower(key) == lower {
			return code, true
		}
	}
	return "", false
}

// CollapsedNames returns the set names with spaces removed, the spelling the
// slip PDFs use. Feed these to the parser's prefix table.
func (m *SetMap) CollapsedNames() []string {
	out := make([]string, 0, len(m.Names))
	for _, name := range m.Names {
		out = append(out, strings.ReplaceAll(name, " ", ""))
	}
	return out
}

// SyncService keeps a local copy of the sets listing fresh. The mapping is
// cached as a JSON file next to the other outputs, with the sync time in the
// metadata table.
type SyncService struct {
	db     *storage.DB
	client *Client
	cfg    config.Config
}

func NewSyncService(db *storage.DB, cfg config.Config) *SyncService {
	return &SyncService{db: db, client: NewClient(cfg), cfg: cfg}
}

const setSyncMetadataKey = "scryfall.last_set_sync"

// LoadSetMap returns the cached mapping when it is fresh enough, otherwise
// re-syncs from the API. force skips the freshness check.
func (s *SyncService) LoadSetMap(ctx context.Context, force bool) (*SetMap, error) {
	if !force {
		if m := s.cachedSetMap(); m != nil {
			return m, nil
		}
	}
	return s.Sync(ctx)
}

// Sync downloads the sets listing and rewrites the cache file.
func (s *SyncService) Sync(ctx context.Context) (*SetMap, error) {
	sets, err := s.client.ListSets(ctx)
	if err != nil {
		return nil, err
	}
	m := BuildSetMap(sets)

	blob, _ := json.MarshalIndent(m, "", "  ")
	path := s.setMapPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return nil, err
	}
	if err := s.db.SetMetadata(setSyncMetadataKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}

	return m, nil
}

func (s *SyncService) cachedSetMap() *SetMap {
	last, err := s.db.GetMetadata(setSyncMetadataKey)
	if err != nil || last == nil {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, *last)
	if err != nil {
		return nil
	}
	maxAge := time.Duration(s.cfg.SetSyncMaxAgeHours) * time.Hour
	if time.Since(parsed) >= maxAge {
		return nil
	}

	blob, err := os.ReadFile(s.setMapPath())
	if err != nil {
		return nil
	}
	var m SetMap
	if err := json.Unmarshal(blob, &m); err != nil {
		return nil
	}
	return &m
}

func (s *SyncService) setMapPath() string {
	return filepath.Join(s.cfg.OutputDir, "scryfall-sets.json")
}
