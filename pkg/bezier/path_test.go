package bezier

import (
	"strings"
	"testing"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{-0.0001, "0"},
		{1.5, "1.5"},
		{12.34567, "12.346"},
		{-7.1, "-7.1"},
		{100, "100"},
	}
	for _, tt := range tests {
		if got := FormatFloat(tt.in); got != tt.want {
			t.Errorf("FormatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPathString(t *testing.T) {
	a := Cubic{Pt(0, 0), Pt(1, 2), Pt(3, 4), Pt(5, 6)}
	b := Cubic{Pt(5, 6), Pt(7, 8), Pt(9, 10), Pt(11, 12)}

	got := PathString(a, b)
	want := "M 0 0 C 1 2 3 4 5 6 C 7 8 9 10 11 12"
	if got != want {
		t.Errorf("PathString() = %q, want %q", got, want)
	}
	if strings.Count(got, "M") != 1 {
		t.Errorf("PathString() should emit a single moveto: %q", got)
	}
}

func TestPathStringDeterministic(t *testing.T) {
	c := Cubic{Pt(0.1234567, 9.87654321), Pt(1, 2), Pt(3, 4), Pt(5, 6)}
	if PathString(c) != PathString(c) {
		t.Error("PathString() should be deterministic")
	}
}
