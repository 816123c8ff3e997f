package cli

import (
	"bytes"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestCompleteFrom(t *testing.T) {
	complete := completeFrom([]string{"svg", "png", "json"})
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"svg", "png", "json"}},
		{"p", []string{"png"}},
		{"S", []string{"svg"}},
		{"svg,", []string{"svg,svg", "svg,png", "svg,json"}},
		{"svg,j", []string{"svg,json"}},
		{"x", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, dir := complete(nil, nil, tt.in)
			if !slices.Equal(got, tt.want) {
				t.Errorf("complete(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if dir != cobra.ShellCompDirectiveNoFileComp {
				t.Errorf("directive = %v, want NoFileComp", dir)
			}
		})
	}
}

func TestCompletionScripts(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			root := New(io.Discard, LogInfo).RootCommand()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs([]string{"completion", shell})
			if err := root.Execute(); err != nil {
				t.Fatalf("completion %s: %v", shell, err)
			}
			if !strings.Contains(out.String(), "flowmap") {
				t.Errorf("%s script does not mention flowmap", shell)
			}
		})
	}
}

func TestDirectionFlagCompletes(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{cobra.ShellCompRequestCmd, "render", "--direction", "in"})
	if err := root.Execute(); err != nil {
		t.Fatalf("__complete: %v", err)
	}
	if !strings.Contains(out.String(), "inbound") || strings.Contains(out.String(), "outbound") {
		t.Errorf("completions = %q, want only inbound", out.String())
	}
}
