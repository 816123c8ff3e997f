package cache

// Keyer derives cache keys.
type Keyer interface {
	// SceneKey identifies a rendered artifact of one dataset.
	SceneKey(datasetHash string, opts SceneKeyOpts) string

	// TopologyKey identifies a downloaded topology.
	TopologyKey(source string) string
}

// SceneKeyOpts holds everything that changes a rendered artifact.
type SceneKeyOpts struct {
	Location  string  `json:"location"`
	Direction string  `json:"direction"`
	Display   string  `json:"display"`
	Width     float64 `json:"width"`
	Format    string  `json:"format"`
	Taper     bool    `json:"taper,omitempty"`
	Tooltips  bool    `json:"tooltips,omitempty"`
	Legend    bool    `json:"legend,omitempty"`
	Outbound  string  `json:"outbound,omitempty"`
	Inbound   string  `json:"inbound,omitempty"`
	Scale     float64 `json:"scale,omitempty"`
	Highlight string  `json:"highlight,omitempty"`

	// Entering lists the flows that fade in, for renders that animate a
	// selection change.
	Entering []string `json:"entering,omitempty"`
}

// DefaultKeyer hashes the key components.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SceneKey implements [Keyer].
func (DefaultKeyer) SceneKey(datasetHash string, opts SceneKeyOpts) string {
	return hashKey("scene", datasetHash, opts)
}

// TopologyKey implements [Keyer].
func (DefaultKeyer) TopologyKey(source string) string {
	return "topology:" + source
}
