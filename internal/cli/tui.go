package cli

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/migration"
	"github.com/matzehuels/flowmap/pkg/scene"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	paneStyle         = lipgloss.NewStyle().PaddingRight(2)
)

// =============================================================================
// ExploreModel - Interactive selection explorer
// =============================================================================

// focus is the pane the arrow keys move in.
type focus int

const (
	focusLocations focus = iota
	focusFlows
)

// composeFunc builds the scene of a selection.
type composeFunc func(flow.Selection) (*scene.Scene, error)

// ExploreModel is the bubbletea model of the terminal explorer. The
// location list, the direction toggle and the display toggle drive the
// same Selection State as the map's controls.
type ExploreModel struct {
	Locations []*migration.Location
	Selection flow.Selection
	Scene     *scene.Scene
	Err       error

	Cursor int // location list cursor
	Offset int
	Height int

	FlowCursor int // hovered flow, -1 for none
	focus      focus
	compose    composeFunc
}

// NewExploreModel creates an explorer over g starting at sel. compose
// builds a scene for every selection change.
func NewExploreModel(g *migration.Graph, sel flow.Selection, compose composeFunc) ExploreModel {
	locs := slices.Clone(g.Locations())
	slices.SortFunc(locs, func(a, b *migration.Location) int { return strings.Compare(a.Name, b.Name) })

	m := ExploreModel{
		Locations:  locs,
		Selection:  sel,
		Height:     15,
		FlowCursor: -1,
		compose:    compose,
	}
	for i, l := range locs {
		if l.ID == sel.Location {
			m.Cursor = i
		}
	}
	m.scrollToCursor()
	m.recompose()
	return m
}

func (m ExploreModel) Init() tea.Cmd {
	return nil
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.toggleFocus()
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "d":
			m.Selection.Direction = cycleDirection(m.Selection.Direction)
			m.recompose()
		case "t":
			m.Selection.Display = toggleDisplay(m.Selection.Display)
			m.recompose()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		m.scrollToCursor()
	}
	return m, nil
}

func (m *ExploreModel) toggleFocus() {
	if m.focus == focusFlows {
		m.focus = focusLocations
		m.FlowCursor = -1
		return
	}
	if m.Scene != nil && len(m.Scene.Flows) > 0 {
		m.focus = focusFlows
		m.FlowCursor = 0
	}
}

func (m *ExploreModel) move(delta int) {
	if m.focus == focusFlows {
		m.FlowCursor = min(max(m.FlowCursor+delta, 0), len(m.Scene.Flows)-1)
		return
	}
	next := min(max(m.Cursor+delta, 0), len(m.Locations)-1)
	if next == m.Cursor {
		return
	}
	m.Cursor = next
	m.scrollToCursor()
	m.Selection.Location = m.Locations[m.Cursor].ID
	m.recompose()
}

func (m *ExploreModel) scrollToCursor() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// recompose rebuilds the scene; a failed selection keeps the error for
// display and clears the scene.
func (m *ExploreModel) recompose() {
	m.Scene, m.Err = m.compose(m.Selection)
	if m.Err != nil {
		m.Scene = nil
	}
	if m.Scene == nil || len(m.Scene.Flows) == 0 {
		m.focus = focusLocations
		m.FlowCursor = -1
		return
	}
	if m.FlowCursor >= len(m.Scene.Flows) {
		m.FlowCursor = len(m.Scene.Flows) - 1
	}
}

func (m ExploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Migration Flows"))
	b.WriteString("  ")
	b.WriteString(m.controls())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  tab flows  d direction  t top10/all  q quit"))
	b.WriteString("\n\n")

	right := ""
	switch {
	case m.Err != nil:
		right = StyleWarning.Render(m.Err.Error())
	case m.Scene != nil && len(m.Scene.Flows) == 0:
		right = listDimStyle.Render("no flows")
	case m.Scene != nil:
		right = flowsTable(m.Scene, m.FlowCursor)
		if f, ok := m.hovered(); ok {
			right += "\n" + tooltipView(f)
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, paneStyle.Render(m.locationList()), right))
	b.WriteString("\n")
	return b.String()
}

func (m ExploreModel) controls() string {
	var parts []string
	for _, d := range flow.Directions {
		parts = append(parts, toggle(string(d), d == m.Selection.Direction))
	}
	parts = append(parts, listDimStyle.Render("|"))
	for _, d := range flow.Displays {
		parts = append(parts, toggle(string(d), d == m.Selection.Display))
	}
	return strings.Join(parts, " ")
}

func toggle(label string, on bool) string {
	if on {
		return listSelectedStyle.Render("[" + label + "]")
	}
	return listDimStyle.Render(" " + label + " ")
}

func (m ExploreModel) locationList() string {
	var b strings.Builder
	end := min(m.Offset+m.Height, len(m.Locations))
	for i := m.Offset; i < end; i++ {
		l := m.Locations[i]
		line := fmt.Sprintf("%-2s %s", l.Abbr, l.Name)
		if i == m.Cursor {
			style := listSelectedStyle
			if m.focus == focusFlows {
				style = listNormalStyle
			}
			b.WriteString(style.Render("▸ " + line))
		} else {
			b.WriteString(listDimStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Locations))))
	return b.String()
}

func (m ExploreModel) hovered() (scene.Flow, bool) {
	if m.Scene == nil || m.FlowCursor < 0 || m.FlowCursor >= len(m.Scene.Flows) {
		return scene.Flow{}, false
	}
	return m.Scene.Flows[m.FlowCursor], true
}

// tooltipView shows the hovered flow the way the map's tooltip does.
func tooltipView(f scene.Flow) string {
	tip := scene.NewTooltip(f)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorDim).
		Padding(0, 1).
		Render(fmt.Sprintf("%s → %s\n%s\n%s %s of %s's outbound\n%s %s of %s's inbound",
			StyleValue.Render(tip.Source), StyleValue.Render(tip.Target),
			StyleNumber.Render(tip.Value),
			shareBar(tip.OutboundShare, StyleOutbound), tip.OutboundText, tip.Source,
			shareBar(tip.InboundShare, StyleInbound), tip.InboundText, tip.Target))
}
