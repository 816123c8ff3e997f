package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/internal/config"
	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/pipeline"
)

// inputFlags are the flags shared by every command that draws flows. They
// override the config file when set.
type inputFlags struct {
	data      string
	topology  string
	object    string
	simplify  float64
	location  string
	direction string
	display   string
	width     float64
	taper     bool
	noCache   bool
	refresh   bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.data, "data", "", "migration CSV (rows are destinations, columns are sources)")
	fs.StringVar(&f.topology, "topology", "", "TopoJSON file or http(s) URL")
	fs.StringVar(&f.object, "object", "", "topology object holding the location polygons")
	fs.Float64Var(&f.simplify, "simplify", 0, "fraction of boundary vertices kept, in (0, 1]")
	fs.StringVarP(&f.location, "location", "l", "", "focal location: FIPS id, abbreviation or name")
	fs.StringVarP(&f.direction, "direction", "d", "", "flow direction: outbound, inbound, both")
	fs.StringVar(&f.display, "display", "", "flows shown: top10, all")
	fs.Float64Var(&f.width, "width", 0, "viewport width in pixels")
	fs.BoolVar(&f.taper, "taper", false, "taper ribbons from the source to the target")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable the render cache")
	fs.BoolVar(&f.refresh, "refresh", false, "bypass cached downloads and renders")
}

// apply writes the flags the user set onto a copy of cfg and returns it
// validated.
func (f *inputFlags) apply(cmd *cobra.Command, base *config.Config) (*config.Config, error) {
	cfg := *base
	fs := cmd.Flags()
	if fs.Changed("data") {
		cfg.Data = f.data
	}
	if fs.Changed("topology") {
		cfg.Topology = f.topology
	}
	if fs.Changed("object") {
		cfg.Object = f.object
	}
	if fs.Changed("simplify") {
		cfg.Simplify = f.simplify
	}
	if fs.Changed("location") {
		cfg.Location = f.location
	}
	if fs.Changed("direction") {
		cfg.Direction = f.direction
	}
	if fs.Changed("display") {
		cfg.Display = f.display
	}
	if fs.Changed("width") {
		cfg.Width = f.width
	}
	if fs.Changed("taper") {
		cfg.Taper = f.taper
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// options returns the pipeline options for cmd's flags over the loaded config.
func (c *CLI) options(cmd *cobra.Command, f *inputFlags) (pipeline.Options, *config.Config, error) {
	cfg, err := f.apply(cmd, c.cfg())
	if err != nil {
		return pipeline.Options{}, nil, err
	}
	opts := cfg.PipelineOptions()
	opts.Refresh = f.refresh
	opts.Logger = c.Logger
	return opts, cfg, nil
}

// selectionChanged reports whether any selection flag was given.
func selectionChanged(cmd *cobra.Command) bool {
	fs := cmd.Flags()
	return fs.Changed("location") || fs.Changed("direction") || fs.Changed("display")
}

// cycleDirection returns the direction after d in control order.
func cycleDirection(d flow.Direction) flow.Direction {
	for i, v := range flow.Directions {
		if v == d {
			return flow.Directions[(i+1)%len(flow.Directions)]
		}
	}
	return flow.Outbound
}

// toggleDisplay switches between top10 and all.
func toggleDisplay(d flow.Display) flow.Display {
	if d == flow.Top10 {
		return flow.All
	}
	return flow.Top10
}
