package geo

import (
	"fmt"
	"strings"
)

// Column offsets of the location fields within a spreadsheet row
const (
	CountryColumn = 1
	CityColumn    = 2
)

// Coordinate is a resolved latitude/longitude pair
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Sentinel is substituted for rows whose lookup failed
var Sentinel = Coordinate{Lat: 0, Lng: 0}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%v, %v)", c.Lat, c.Lng)
}

// Query is a free-text place lookup
type Query struct {
	City    string
	Country string
}

// String renders the query the way the geocoding API expects it: "<city>,<country>"
func (q Query) String() string {
	return q.City + "," + q.Country
}

// Incomplete reports whether either field is empty
func (q Query) Incomplete() bool {
	return q.City == "" || q.Country == ""
}

// InputRow is one spreadsheet record. Index is its position in the read
// result and is the key used to align the write-back.
type InputRow struct {
	Index int
	Cells []string
}

// NewInputRow converts a raw sheet row into an InputRow
func NewInputRow(index int, raw []interface{}) InputRow {
	cells := make([]string, len(raw))
	for i, v := range raw {
		if v != nil {
			cells[i] = strings.TrimSpace(fmt.Sprintf("%v", v))
		}
	}
	return InputRow{Index: index, Cells: cells}
}

func (r InputRow) cell(i int) string {
	if i < len(r.Cells) {
		return r.Cells[i]
	}
	return ""
}

func (r InputRow) Country() string { return r.cell(CountryColumn) }

func (r InputRow) City() string { return r.cell(CityColumn) }

func (r InputRow) Query() Query {
	return Query{City: r.City(), Country: r.Country()}
}
