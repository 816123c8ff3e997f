package scene

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// TooltipGap is the distance between the pointer and the tooltip.
const TooltipGap = 8

// Tooltip is the content shown while a flow is hovered.
type Tooltip struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Value  string `json:"value"`

	// OutboundShare is the flow's share of everything leaving the source,
	// InboundShare its share of everything arriving at the target. Both lie
	// in [0, 1].
	OutboundShare float64 `json:"outboundShare"`
	InboundShare  float64 `json:"inboundShare"`
	OutboundText  string  `json:"outboundText"`
	InboundText   string  `json:"inboundText"`
}

// NewTooltip returns the tooltip content of f.
func NewTooltip(f Flow) Tooltip {
	t := Tooltip{Value: FormatValue(f.Value)}
	if f.Source != nil {
		t.Source = f.Source.Name
		t.OutboundShare = Share(f.Value, f.Source.OutboundTotal)
	}
	if f.Target != nil {
		t.Target = f.Target.Name
		t.InboundShare = Share(f.Value, f.Target.InboundTotal)
	}
	t.OutboundText = FormatShare(t.OutboundShare)
	t.InboundText = FormatShare(t.InboundShare)
	return t
}

// FormatValue prints a magnitude with thousands separators.
func FormatValue(v float64) string {
	return humanize.Commaf(v)
}

// Share returns value/total clamped to [0, 1]; a zero total gives 0.
func Share(value, total float64) float64 {
	if total <= 0 || math.IsNaN(value) {
		return 0
	}
	return math.Max(0, math.Min(1, value/total))
}

// FormatShare prints a share as a percentage: "0%" for zero, "<0.1%" below
// one in a thousand, one optional decimal below 10% and whole percents
// otherwise.
func FormatShare(v float64) string {
	switch {
	case v == 0:
		return "0%"
	case v < 0.001:
		return "<0.1%"
	case v < 0.1:
		s := strconv.FormatFloat(v*100, 'f', 1, 64)
		return strings.TrimSuffix(s, ".0") + "%"
	}
	return strconv.FormatFloat(v*100, 'f', 0, 64) + "%"
}

// Box is the size of a rectangle.
type Box struct {
	Width, Height float64
}

// Place returns the top-left corner of a tooltip of the given size for a
// pointer at (px, py) in a container of the given width. The tooltip is
// centred above the pointer, kept inside the container horizontally and
// moved below the pointer when it would leave the top edge.
func Place(px, py float64, tip Box, containerWidth float64) (x, y float64) {
	x = px - tip.Width/2
	if x < 0 {
		x = 0
	} else if x+tip.Width > containerWidth {
		x = containerWidth - tip.Width
	}

	y = py - tip.Height - TooltipGap
	if y < 0 {
		y = py + TooltipGap
	}
	return x, y
}
