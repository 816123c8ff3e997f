package scene

// Patch lists how to turn one set of keyed elements into another.
type Patch struct {
	Enter  []string `json:"enter"`  // keys only in the new set, in new order
	Update []string `json:"update"` // keys in both sets, in new order
	Exit   []string `json:"exit"`   // keys only in the old set, in old order
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return len(p.Enter) == 0 && len(p.Exit) == 0
}

// Diff compares two key lists. Keys are expected to be unique within each
// list.
func Diff(prev, next []string) Patch {
	old := make(map[string]bool, len(prev))
	for _, k := range prev {
		old[k] = true
	}
	kept := make(map[string]bool, len(next))

	var p Patch
	for _, k := range next {
		kept[k] = true
		if old[k] {
			p.Update = append(p.Update, k)
		} else {
			p.Enter = append(p.Enter, k)
		}
	}
	for _, k := range prev {
		if !kept[k] {
			p.Exit = append(p.Exit, k)
		}
	}
	return p
}

// DiffScenes compares the flows of two scenes. A nil previous scene makes
// every flow enter.
func DiffScenes(prev, next *Scene) Patch {
	var before []string
	if prev != nil {
		before = prev.Keys()
	}
	return Diff(before, next.Keys())
}
