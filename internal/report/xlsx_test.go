package report

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ascreamingweas/tcgplayer-order-parser/internal"
	"github.com/ascreamingweas/tcgplayer-order-parser/internal/util"
)

func TestExportRowsToXLSX(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export", "order.xlsx")

	rows := []internal.CardExportRow{
		{
			LineNo:          1,
			Quantity:        4,
			SetName:         "Foundations",
			CardName:        "Llanowar Elves",
			CollectorNumber: "123",
			Rarity:          "C",
			Condition:       "Near Mint",
			Price:           0.25,
			TotalPrice:      1.00,
			Color:           "Green",
		},
		{
			LineNo:     2,
			Quantity:   1,
			SetName:    "Aetherdrift",
			CardName:   "Some Card",
			Variant:    util.StringPtr("Extended Art"),
			Rarity:     "M",
			Condition:  "Near Mint",
			IsFoil:     true,
			Language:   util.StringPtr("Japanese"),
			Price:      1.70,
			TotalPrice: 1.70,
			Color:      "Red",
		},
	}

	if err := ExportRowsToXLSX(rows, path); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	sheet := f.GetSheetName(0)

	if got, _ := f.GetCellValue(sheet, "D1"); got != "card_name" {
		t.Fatalf("D1 = %q", got)
	}
	if got, _ := f.GetCellValue(sheet, "D2"); got != "Llanowar Elves" {
		t.Fatalf("D2 = %q", got)
	}
	if got, _ := f.GetCellValue(sheet, "E3"); got != "Extended Art" {
		t.Fatalf("E3 = %q", got)
	}
	if got, _ := f.GetCellValue(sheet, "I3"); got != "FOIL" {
		t.Fatalf("I3 = %q", got)
	}
}
