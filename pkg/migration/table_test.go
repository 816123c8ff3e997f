package migration

import (
	"strings"
	"testing"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		cell string
		want float64
	}{
		{"123", 123},
		{" 1,234 ", 1234},
		{"N/A", 0},
		{"", 0},
		{"0", 0},
		{"-7", 0},
		{"abc", 0},
		{"NaN", 0},
		{"+Inf", 0},
		{"2.5", 2.5},
	}
	for _, tt := range tests {
		if got := parseCount(tt.cell); got != tt.want {
			t.Errorf("parseCount(%q) = %v, want %v", tt.cell, got, tt.want)
		}
	}
}

func TestReadTableErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"empty", ""},
		{"no origins", "name\nCalifornia\n"},
		{"duplicate column", "name,Texas,Texas\nCalifornia,1,2\n"},
		{"duplicate row", "name,Texas\nCalifornia,1\nCalifornia,2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTable(strings.NewReader(tt.csv))
			if !ferrors.Is(err, ferrors.ErrCodeInvalidDataset) {
				t.Errorf("ReadTable() error = %v, want INVALID_DATASET", err)
			}
		})
	}
}

func TestReadTableShortRows(t *testing.T) {
	table, err := ReadTable(strings.NewReader("name,Texas,Nevada\nCalifornia,10\n"))
	if err != nil {
		t.Fatalf("ReadTable() error: %v", err)
	}
	if got := table.Rows[0].Values; len(got) != 2 || got[0] != 10 || got[1] != 0 {
		t.Errorf("Values = %v, want [10 0]", got)
	}
}

func TestReadTableFileMissing(t *testing.T) {
	_, err := ReadTableFile(t.TempDir() + "/none.csv")
	if !ferrors.Is(err, ferrors.ErrCodeFileNotFound) {
		t.Errorf("ReadTableFile() error = %v, want FILE_NOT_FOUND", err)
	}
}
