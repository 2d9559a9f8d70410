package sheets

import (
	"context"
	"fmt"

	"sheet_geocoder/internal/geo"

	"github.com/rs/zerolog/log"
)

// Coordinates are written to columns H (lat) and I (lng) starting at row 2
const (
	latColumn      = "H"
	lngColumn      = "I"
	firstResultRow = 2
)

// WriteRange returns the target range for n coordinate pairs. The end row is
// n+2, matching the range the sheet has always been written with.
func WriteRange(sheetName string, n int) string {
	return QualifiedRange(sheetName, fmt.Sprintf("%s%d:%s%d", latColumn, firstResultRow, lngColumn, n+firstResultRow))
}

// CoordinateValues converts coordinates into [lat, lng] rows
func CoordinateValues(coords []geo.Coordinate) [][]interface{} {
	values := make([][]interface{}, 0, len(coords))
	for _, c := range coords {
		values = append(values, []interface{}{c.Lat, c.Lng})
	}
	return values
}

// WriteCoordinates overwrites the coordinate columns with coords, in order
func WriteCoordinates(ctx context.Context, sheetsClient *Client, spreadsheetID, sheetName string, coords []geo.Coordinate) error {
	if len(coords) == 0 {
		log.Info().Msg("No coordinates to write, skipping sheet update")
		return nil
	}

	writeRange := WriteRange(sheetName, len(coords))
	log.Debug().
		Str("range", writeRange).
		Int("rows", len(coords)).
		Msg("Writing coordinates")

	if err := sheetsClient.UpdateRange(ctx, spreadsheetID, writeRange, CoordinateValues(coords)); err != nil {
		return err
	}

	log.Info().
		Str("range", writeRange).
		Int("rows", len(coords)).
		Msg("Sheet update complete")
	return nil
}
