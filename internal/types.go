package internal

// Rarity is the single-letter rarity code printed on TCGplayer packing slips.
type Rarity string

const (
	RarityMythic   Rarity = "M"
	RarityRare     Rarity = "R"
	RarityUncommon Rarity = "U"
	RarityCommon   Rarity = "C"
	RaritySpecial  Rarity = "S"
)

// RarityOrder sorts mythics first, specials last.
var RarityOrder = map[Rarity]int{
	RarityMythic:   0,
	RarityRare:     1,
	RarityUncommon: 2,
	RarityCommon:   3,
	RaritySpecial:  4,
}

var RarityNames = map[Rarity]string{
	RarityMythic:   "Mythic Rare",
	RarityRare:     "Rare",
	RarityUncommon: "Uncommon",
	RarityCommon:   "Common",
	RaritySpecial:  "Special",
}

type Condition string

const (
	ConditionNearMint         Condition = "Near Mint"
	ConditionLightlyPlayed    Condition = "Lightly Played"
	ConditionModeratelyPlayed Condition = "Moderately Played"
	ConditionHeavilyPlayed    Condition = "Heavily Played"
)

// ColorOrder follows WUBRG, then multicolor, colorless and lands.
var ColorOrder = map[string]int{
	"White":      0,
	"Blue":       1,
	"Black":      2,
	"Red":        3,
	"Green":      4,
	"Multicolor": 5,
	"Colorless":  6,
	"Land":       7,
}

// Card is one parsed packing-slip line item. Parsed fields are fixed once the
// line is assembled; enrichment fills Color and ImageURL only. An empty
// CollectorNumber means the slip line carried none.
type Card struct {
	Quantity        int
	SetName         string
	CardName        string
	Variant         *string
	CollectorNumber string
	Rarity          Rarity
	Condition       Condition
	IsFoil          bool
	Language        *string
	Price           float64
	TotalPrice      float64

	Color    string
	ImageURL *string
}

type OrderRow struct {
	ID          int
	SourceRef   string
	OrderNumber string
	Hash        string
	Status      string
}

type EmailRow struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

type CardExportRow struct {
	LineNo          int
	Quantity        int
	SetName         string
	CardName        string
	Variant         *string
	CollectorNumber string
	Rarity          string
	Condition       string
	IsFoil          bool
	Language        *string
	Price           float64
	TotalPrice      float64
	Color           string
	ImageURL        *string
}
