package sheets

import (
	"context"

	"sheet_geocoder/internal/geo"

	"github.com/rs/zerolog/log"
)

const DefaultReadRange = "A2:I"

// QualifiedRange prefixes a range with its sheet name when one is given
func QualifiedRange(sheetName, cells string) string {
	if sheetName == "" {
		return cells
	}
	return sheetName + "!" + cells
}

// ReadLocationRows reads the location rows in order. Row i of the result has
// Index i; the write-back relies on that order.
func ReadLocationRows(ctx context.Context, sheetsClient *Client, spreadsheetID, readRange string) ([]geo.InputRow, error) {
	log.Debug().
		Str("spreadsheet_id", spreadsheetID).
		Str("range", readRange).
		Msg("Reading location rows")

	values, err := sheetsClient.ReadSheet(ctx, spreadsheetID, readRange)
	if err != nil {
		return nil, err
	}

	rows := make([]geo.InputRow, 0, len(values))
	for i, raw := range values {
		row := geo.NewInputRow(i, raw)
		if row.Query().Incomplete() {
			log.Debug().
				Int("row", i).
				Int("columns", len(raw)).
				Msg("Row is missing city or country")
		}
		rows = append(rows, row)
	}

	log.Debug().Int("rows", len(rows)).Msg("Retrieved location rows")
	return rows, nil
}
