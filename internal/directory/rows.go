package directory

import (
	"errors"
	"fmt"
	"math"
	"provider-finder/internal/models"
	"strconv"
	"strings"
)

type columns struct {
	name, address, specialty, lat, lon int
}

// headerAliases maps a lowercased header cell to the field it fills.
var headerAliases = map[string]string{
	"providers": "name",
	"provider":  "name",
	"address":   "address",
	"specialty": "specialty",
	"latitude":  "lat",
	"longitude": "lon",
}

func mapHeader(header []string) columns {
	cols := columns{-1, -1, -1, -1, -1}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		field, ok := headerAliases[h]
		if !ok {
			continue
		}
		// first matching column wins
		switch field {
		case "name":
			if cols.name < 0 {
				cols.name = i
			}
		case "address":
			if cols.address < 0 {
				cols.address = i
			}
		case "specialty":
			if cols.specialty < 0 {
				cols.specialty = i
			}
		case "lat":
			if cols.lat < 0 {
				cols.lat = i
			}
		case "lon":
			if cols.lon < 0 {
				cols.lon = i
			}
		}
	}
	return cols
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

var errEmptyCoord = errors.New("empty")

func parseCoord(val string) (float64, error) {
	// Accept a decimal comma as well
	val = strings.TrimSpace(strings.ReplaceAll(val, ",", "."))
	if val == "" {
		return 0, errEmptyCoord
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not finite: %s", val)
	}
	return f, nil
}

// parseRows turns a header row plus data rows into providers. Rows never
// fail: missing text becomes "" and bad coordinates become 0, so a row of
// empty cells is still a record. Only rows with no cells at all are
// skipped. lines[i] is the source line of rows[i]; when lines is nil the
// row index is the line, as for worksheets. It also reports how many
// records ended up at (0,0).
func parseRows(rows [][]string, lines []int) ([]models.Provider, int) {
	if len(rows) == 0 {
		return []models.Provider{}, 0
	}
	cols := mapHeader(rows[0])

	providers := make([]models.Provider, 0, len(rows)-1)
	zeroed := 0
	for i, row := range rows {
		if i == 0 {
			continue // Skip header
		}
		if len(row) == 0 {
			continue
		}

		// A blank cell is 0 on its own; garbage in either cell zeroes both.
		lat, err1 := parseCoord(cell(row, cols.lat))
		lon, err2 := parseCoord(cell(row, cols.lon))
		if isGarbage(err1) || isGarbage(err2) {
			lat, lon = 0, 0
		}

		p := models.Provider{
			Name:      cell(row, cols.name),
			Address:   cell(row, cols.address),
			Specialty: cell(row, cols.specialty),
			Latitude:  lat,
			Longitude: lon,
			Row:       sourceLine(lines, i),
		}
		if !p.HasLocation() {
			zeroed++
		}
		providers = append(providers, p)
	}
	return providers, zeroed
}

func isGarbage(err error) bool {
	return err != nil && !errors.Is(err, errEmptyCoord)
}

func sourceLine(lines []int, i int) int {
	if i < len(lines) && lines[i] > 0 {
		return lines[i]
	}
	return i + 1
}
