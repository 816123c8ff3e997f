package flow

import (
	"strings"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
)

// Direction selects which edges of the focal location are drawn.
type Direction string

// Supported directions.
const (
	Outbound Direction = "outbound"
	Inbound  Direction = "inbound"
	Both     Direction = "both"
)

// Directions lists every direction in control order.
var Directions = []Direction{Inbound, Outbound, Both}

// DirectionNames returns [Directions] as strings.
func DirectionNames() []string {
	out := make([]string, len(Directions))
	for i, d := range Directions {
		out[i] = string(d)
	}
	return out
}

// ParseDirection parses a direction name, case-insensitively.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Outbound, Inbound, Both:
		return d, nil
	}
	return "", ferrors.New(ferrors.ErrCodeInvalidDirection, "unknown direction %q (want outbound, inbound or both)", s)
}

// Display caps the number of drawn edges.
type Display string

// Supported display modes.
const (
	Top10 Display = "top10"
	All   Display = "all"
)

// TopN is the number of edges kept by [Top10].
const TopN = 10

// Displays lists every display mode in control order.
var Displays = []Display{Top10, All}

// DisplayNames returns [Displays] as strings.
func DisplayNames() []string {
	out := make([]string, len(Displays))
	for i, d := range Displays {
		out[i] = string(d)
	}
	return out
}

// ParseDisplay parses a display mode name, case-insensitively.
func ParseDisplay(s string) (Display, error) {
	d := Display(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case Top10, All:
		return d, nil
	}
	return "", ferrors.New(ferrors.ErrCodeInvalidDisplay, "unknown display %q (want top10 or all)", s)
}

// Selection is the state driven by the three controls.
type Selection struct {
	Location  string    `json:"location"`
	Direction Direction `json:"direction"`
	Display   Display   `json:"display"`
}

// DefaultSelection shows California's ten largest outbound flows.
func DefaultSelection() Selection {
	return Selection{Location: "06", Direction: Outbound, Display: Top10}
}

// Validate checks the direction and display. The location is checked
// against a graph by [Select].
func (s Selection) Validate() error {
	if _, err := ParseDirection(string(s.Direction)); err != nil {
		return err
	}
	if _, err := ParseDisplay(string(s.Display)); err != nil {
		return err
	}
	if strings.TrimSpace(s.Location) == "" {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "no location selected")
	}
	return nil
}

// Key returns a stable string identifying the selection.
func (s Selection) Key() string {
	return s.Location + "/" + string(s.Direction) + "/" + string(s.Display)
}
