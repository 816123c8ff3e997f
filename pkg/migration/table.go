package migration

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
)

// notApplicable marks a pair that has no value, such as the diagonal.
const notApplicable = "N/A"

// Table is a parsed migration matrix. Values[i] of a row is the flow from
// Sources[i] into the row's target; cells without a positive number are 0.
type Table struct {
	Sources []string
	Rows    []Row
}

// Row is one destination of the matrix.
type Row struct {
	Target string
	Values []float64
}

// ReadTable parses a migration matrix in CSV form. The first column holds
// the destination name and every other header names an origin.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ferrors.New(ferrors.ErrCodeInvalidDataset, "empty dataset")
	}
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidDataset, err, "read header")
	}
	if len(header) < 2 {
		return nil, ferrors.New(ferrors.ErrCodeInvalidDataset, "header needs a name column and at least one origin")
	}

	t := &Table{Sources: make([]string, len(header)-1)}
	seen := make(map[string]bool, len(header))
	for i, h := range header[1:] {
		h = strings.TrimSpace(h)
		if h == "" || seen[h] {
			return nil, ferrors.New(ferrors.ErrCodeInvalidDataset, "origin column %d: empty or duplicate name %q", i+2, h)
		}
		seen[h] = true
		t.Sources[i] = h
	}

	targets := make(map[string]bool)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ferrors.Wrap(ferrors.ErrCodeInvalidDataset, err, "read row %d", len(t.Rows)+2)
		}
		name := strings.TrimSpace(rec[0])
		if name == "" {
			continue
		}
		if targets[name] {
			return nil, ferrors.New(ferrors.ErrCodeInvalidDataset, "duplicate row %q", name)
		}
		targets[name] = true

		row := Row{Target: name, Values: make([]float64, len(t.Sources))}
		for i := range t.Sources {
			if i+1 < len(rec) {
				row.Values[i] = parseCount(rec[i+1])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadTableFile parses the migration matrix stored at path.
func ReadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "dataset %s", path)
		}
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return ReadTable(f)
}

// parseCount returns the positive value of a cell, or 0 when the cell is
// the N/A sentinel, blank, non-numeric, non-finite or not positive.
// Thousands separators are accepted.
func parseCount(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == notApplicable {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return v
}
