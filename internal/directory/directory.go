// Package directory loads the provider directory from a CSV or XLSX file and
// holds it read-only for the life of the process.
package directory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"provider-finder/internal/excel"
	"provider-finder/internal/models"
	"strings"
)

// ErrUnreadable means the directory source could not be read at all.
// Individual bad rows never produce it.
var ErrUnreadable = errors.New("directory source unreadable")

type Options struct {
	// Sheet selects the worksheet of an .xlsx source. Empty means the first.
	Sheet  string
	Logger *slog.Logger
}

// Directory is the loaded provider set. It is safe for concurrent readers.
type Directory struct {
	source  string
	records []models.Provider
}

// New wraps records that were loaded elsewhere. The slice is copied.
func New(source string, records []models.Provider) *Directory {
	cp := make([]models.Provider, len(records))
	copy(cp, records)
	return &Directory{source: source, records: cp}
}

func Load(path string, opts Options) (*Directory, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	var (
		rows  [][]string
		lines []int
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		rows, lines, err = readCSV(path, log)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path, opts.Sheet)
	default:
		err = fmt.Errorf("unsupported file type %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	records, zeroed := parseRows(rows, lines)
	log.Info("directory loaded",
		"source", path,
		"providers", len(records),
		"zero_coordinates", zeroed,
	)
	if zeroed > 0 {
		log.Warn("providers without usable coordinates default to 0,0", "count", zeroed)
	}

	return &Directory{source: path, records: records}, nil
}

// Records returns a copy of the loaded providers.
func (d *Directory) Records() []models.Provider {
	out := make([]models.Provider, len(d.records))
	copy(out, d.records)
	return out
}

func (d *Directory) Len() int {
	return len(d.records)
}

func (d *Directory) Source() string {
	return d.source
}

// readCSV returns the records and, for each, the source line it starts on.
// Empty lines never produce a record. A record the reader cannot tokenize
// has no fields to keep, so it is logged and dropped.
func readCSV(path string, log *slog.Logger) ([][]string, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var (
		rows  [][]string
		lines []int
	)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				log.Warn("skipping malformed csv row", "line", perr.Line, "err", perr.Err)
				continue
			}
			return nil, nil, err
		}
		line, _ := r.FieldPos(0)
		rows = append(rows, rec)
		lines = append(lines, line)
	}
	return rows, lines, nil
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excel.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return excel.ReadRows(f, sheet)
}
