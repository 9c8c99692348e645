package excel

import (
	"fmt"
	"io"
	"provider-finder/internal/models"
	"strings"

	"github.com/xuri/excelize/v2"
)

const ResultSheet = "Results"

func OpenFile(filename string) (*excelize.File, error) {
	return excelize.OpenFile(filename)
}

// ReadRows returns every row of sheetName, header included. An empty
// sheetName selects the first sheet of the workbook.
func ReadRows(f *excelize.File, sheetName string) ([][]string, error) {
	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheetName = sheets[0]
	}
	return f.GetRows(sheetName)
}

// WriteResults streams rs into a new workbook and writes it to w.
func WriteResults(w io.Writer, rs *models.ResultSet) error {
	f := excelize.NewFile()
	defer f.Close()

	// The default workbook starts with a single "Sheet1".
	if err := f.SetSheetName(f.GetSheetName(0), ResultSheet); err != nil {
		return err
	}

	// Use Stream Writer for performance
	sw, err := f.NewStreamWriter(ResultSheet)
	if err != nil {
		return err
	}

	headers := []interface{}{
		"#", "Provider", "Address", "Specialty", "Groups",
		"Latitude", "Longitude", "Distance (mi)",
	}
	if err := sw.SetRow("A1", headers); err != nil {
		return err
	}

	if rs != nil {
		for i, r := range rs.Results {
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			var dist interface{} = ""
			if r.DistanceMiles != nil {
				dist = *r.DistanceMiles
			}
			row := []interface{}{
				i + 1, r.Name, r.Address, r.Specialty, strings.Join(r.Groups, " / "),
				r.Latitude, r.Longitude, dist,
			}
			if err := sw.SetRow(cell, row); err != nil {
				return err
			}
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}
