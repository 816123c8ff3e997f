package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/pipeline"
	"github.com/matzehuels/flowmap/pkg/scene"
)

// shareBarWidth is the number of cells in a share gauge.
const shareBarWidth = 10

// flowsCommand creates the flows command, which prints the selected flows
// with the numbers the map's tooltip shows.
func (c *CLI) flowsCommand() *cobra.Command {
	var opts inputFlags

	cmd := &cobra.Command{
		Use:   "flows",
		Short: "Print the selected flows as a table",
		Example: `  flowmap flows -l CA
  flowmap flows -l Texas -d both --display all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			popts, _, err := c.options(cmd, &opts)
			if err != nil {
				return err
			}
			return c.runFlows(cmd.Context(), popts, opts.noCache)
		},
	}
	opts.register(cmd)
	return cmd
}

func (c *CLI) runFlows(ctx context.Context, popts pipeline.Options, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	ds, err := loadDataset(ctx, runner, popts)
	if err != nil {
		return err
	}

	s, err := runner.Compose(ctx, ds, popts)
	if err != nil {
		return err
	}

	loc, _ := ds.Graph.Location(s.Selection.Location)
	fmt.Fprintln(stdout, StyleTitle.Render(loc.Name) + " " + StyleDim.Render(string(s.Selection.Direction)+" · "+string(s.Selection.Display)))
	fmt.Fprintln(stdout, flowsTable(s, -1))
	for _, sk := range s.Skipped {
		printWarning("%s not drawn: %s", sk.Key, sk.Reason)
	}
	printNextStep("Draw it", "flowmap render -l "+loc.Abbr+" -d "+string(s.Selection.Direction))
	return nil
}

// flowsTable renders the scene's flows in selection order, largest first.
// The row at cursor (if any) is emphasised.
func flowsTable(s *scene.Scene, cursor int) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, 0, len(s.Flows))
	for i, f := range s.Flows {
		tip := scene.NewTooltip(f)
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			tip.Source,
			tip.Target,
			tip.Value,
			shareBar(tip.OutboundShare, StyleOutbound) + " " + tip.OutboundText,
			shareBar(tip.InboundShare, StyleInbound) + " " + tip.InboundText,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "From", "To", "People", "Of outbound", "Of inbound").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case row == cursor:
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorDim)
			case col == 3:
				return StyleNumber
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

// shareBar draws share as a gauge of filled and empty cells.
func shareBar(share float64, style lipgloss.Style) string {
	filled := int(share*shareBarWidth + 0.5)
	if share > 0 && filled == 0 {
		filled = 1
	}
	filled = min(max(filled, 0), shareBarWidth)
	return style.Render(strings.Repeat("█", filled)) + StyleDim.Render(strings.Repeat("░", shareBarWidth-filled))
}

// loadDataset loads the inputs behind a spinner.
func loadDataset(ctx context.Context, runner *pipeline.Runner, popts pipeline.Options) (*pipeline.Dataset, error) {
	if err := popts.ValidateForLoad(); err != nil {
		return nil, err
	}
	var ds *pipeline.Dataset
	err := withSpinner(ctx, "Loading dataset...", func(ctx context.Context) error {
		var err error
		ds, err = runner.Load(ctx, popts)
		return err
	})
	return ds, err
}
