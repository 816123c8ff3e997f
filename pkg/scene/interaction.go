package scene

// DimOpacity is the opacity of the flows that are not hovered.
const DimOpacity = 0.1

// Highlight returns the opacity of every flow while the flow with the given
// key is hovered: 1 for that flow, [DimOpacity] for all others. Ribbons and
// arrows of a flow share its opacity.
func Highlight(s *Scene, key string) map[string]float64 {
	out := make(map[string]float64, len(s.Flows))
	for _, f := range s.Flows {
		if f.Key == key {
			out[f.Key] = 1
		} else {
			out[f.Key] = DimOpacity
		}
	}
	return out
}

// Reset returns full opacity for every flow.
func Reset(s *Scene) map[string]float64 {
	out := make(map[string]float64, len(s.Flows))
	for _, f := range s.Flows {
		out[f.Key] = 1
	}
	return out
}
