package cli

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/internal/config"
	"github.com/matzehuels/flowmap/pkg/flow"
)

func parsedCommand(t *testing.T, f *inputFlags, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v) error: %v", args, err)
	}
	return cmd
}

func TestInputFlagsApply(t *testing.T) {
	base := config.Default()
	var f inputFlags
	cmd := parsedCommand(t, &f, "--data", "x.csv", "-l", "TX", "-d", "both", "--width", "600", "--taper")

	cfg, err := f.apply(cmd, base)
	if err != nil {
		t.Fatalf("apply() error: %v", err)
	}
	if cfg.Data != "x.csv" || cfg.Location != "TX" || cfg.Direction != "both" || cfg.Width != 600 || !cfg.Taper {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.Display != base.Display || cfg.Topology != base.Topology {
		t.Error("unset flags must keep the config values")
	}
	if base.Location != "06" {
		t.Error("apply() modified the base config")
	}
}

func TestInputFlagsApplyInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"direction", []string{"-d", "up"}},
		{"display", []string{"--display", "top3"}},
		{"width", []string{"--width", "0"}},
		{"simplify", []string{"--simplify", "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f inputFlags
			cmd := parsedCommand(t, &f, tt.args...)
			if _, err := f.apply(cmd, config.Default()); err == nil {
				t.Errorf("apply(%v) succeeded", tt.args)
			}
		})
	}
}

func TestSelectionChanged(t *testing.T) {
	var f inputFlags
	if selectionChanged(parsedCommand(t, &f, "--width", "300")) {
		t.Error("width is not a selection flag")
	}
	var g inputFlags
	if !selectionChanged(parsedCommand(t, &g, "--display", "all")) {
		t.Error("display is a selection flag")
	}
}

func TestCycleDirection(t *testing.T) {
	tests := []struct {
		in, want flow.Direction
	}{
		{flow.Inbound, flow.Outbound},
		{flow.Outbound, flow.Both},
		{flow.Both, flow.Inbound},
		{"", flow.Outbound},
	}
	for _, tt := range tests {
		if got := cycleDirection(tt.in); got != tt.want {
			t.Errorf("cycleDirection(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToggleDisplay(t *testing.T) {
	if toggleDisplay(flow.Top10) != flow.All || toggleDisplay(flow.All) != flow.Top10 {
		t.Error("toggleDisplay should switch between top10 and all")
	}
}
