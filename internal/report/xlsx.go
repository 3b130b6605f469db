package report

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ascreamingweas/tcgplayer-order-parser/internal"
)

// ExportRowsToXLSX writes the card rows of one order as a spreadsheet, one
// line item per row in slip order.
func ExportRowsToXLSX(rows []internal.CardExportRow, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"line_no", "quantity", "set_name", "card_name", "variant", "collector_number",
		"rarity", "condition", "foil", "language", "price", "total_price",
		"color", "image_url",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		foil := ""
		if row.IsFoil {
			foil = "FOIL"
		}

		set(1, row.LineNo)
		set(2, row.Quantity)
		set(3, row.SetName)
		set(4, row.CardName)
		set(5, derefString(row.Variant))
		set(6, row.CollectorNumber)
		set(7, row.Rarity)
		set(8, row.Condition)
		set(9, foil)
		set(10, derefString(row.Language))
		set(11, row.Price)
		set(12, row.TotalPrice)
		set(13, row.Color)
		set(14, derefString(row.ImageURL))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
