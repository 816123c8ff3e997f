package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/pipeline"
	"github.com/matzehuels/flowmap/pkg/scene"
	"github.com/matzehuels/flowmap/pkg/session"
)

// exploreCommand creates the explore command. Without selection flags it
// resumes the selection the explorer last exited with.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		opts  inputFlags
		reset bool
	)

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Browse selections interactively in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			popts, _, err := c.options(cmd, &opts)
			if err != nil {
				return err
			}
			return c.runExplore(cmd.Context(), popts, opts.noCache, reset || selectionChanged(cmd))
		},
	}
	opts.register(cmd)
	cmd.Flags().BoolVar(&reset, "reset", false, "ignore the remembered selection")
	return cmd
}

func (c *CLI) runExplore(ctx context.Context, popts pipeline.Options, noCache, fresh bool) error {
	logger := loggerFromContext(ctx)
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	ds, err := loadDataset(ctx, runner, popts)
	if err != nil {
		return err
	}

	store := openCLIStore(ctx)
	sel := popts.Selection
	if store != nil && !fresh {
		if sel, err = store.LastSelection(ctx, sel); err != nil {
			logger.Debug("read last selection", "error", err)
		}
	}
	// The model lists locations by id.
	if loc, err := ds.Graph.Resolve(sel.Location); err == nil {
		sel.Location = loc.ID
	} else {
		sel = flow.DefaultSelection()
	}

	compose := func(sel flow.Selection) (*scene.Scene, error) {
		o := popts
		o.Selection = sel
		o.Formats = nil
		return runner.Compose(ctx, ds, o)
	}
	m := NewExploreModel(ds.Graph, sel, compose)

	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if store != nil {
		last := final.(ExploreModel).Selection
		if err := store.SaveSelection(ctx, last); err != nil {
			logger.Warn("remember selection", "error", err)
		}
	}
	return nil
}

// openCLIStore returns the explorer's selection store, or nil when the
// state directory is unusable.
func openCLIStore(ctx context.Context) *session.CLIStore {
	logger := loggerFromContext(ctx)
	dir, err := stateDir()
	if err != nil {
		logger.Debug("no state directory", "error", err)
		return nil
	}
	store, err := session.NewCLIStore(dir)
	if err != nil {
		logger.Debug("open selection store", "error", err)
		return nil
	}
	return store
}
