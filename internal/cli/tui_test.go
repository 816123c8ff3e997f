package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/scene"
)

func newTestExplorer(t *testing.T) ExploreModel {
	t.Helper()
	runner, ds, opts := testDataset(t)
	compose := func(sel flow.Selection) (*scene.Scene, error) {
		o := opts
		o.Selection = sel
		return runner.Compose(context.Background(), ds, o)
	}
	return NewExploreModel(ds.Graph, flow.DefaultSelection(), compose)
}

func press(m ExploreModel, keys ...tea.KeyMsg) (ExploreModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(ExploreModel)
	}
	return m, cmd
}

var (
	keyUp   = tea.KeyMsg{Type: tea.KeyUp}
	keyDown = tea.KeyMsg{Type: tea.KeyDown}
	keyTab  = tea.KeyMsg{Type: tea.KeyTab}
)

func keyRune(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }

func TestExploreInitialState(t *testing.T) {
	m := newTestExplorer(t)

	names := make([]string, len(m.Locations))
	for i, l := range m.Locations {
		names[i] = l.Name
	}
	if got := strings.Join(names, ","); got != "California,Nevada,New York,Texas" {
		t.Errorf("locations = %s, want sorted by name", got)
	}
	if m.Cursor != 0 || m.Scene == nil || len(m.Scene.Flows) != 3 {
		t.Fatalf("initial model: cursor %d, scene %v", m.Cursor, m.Scene)
	}
	if !strings.Contains(m.View(), "[outbound]") {
		t.Error("view should mark the outbound toggle")
	}
}

func TestExploreSelectionKeys(t *testing.T) {
	m := newTestExplorer(t)

	m, _ = press(m, keyDown)
	if m.Selection.Location != "32" || m.Scene.Selection.Location != "32" {
		t.Errorf("down should select Nevada, got %s", m.Selection.Location)
	}
	m, _ = press(m, keyUp, keyUp)
	if m.Selection.Location != "06" || m.Cursor != 0 {
		t.Errorf("up should stop at the first location, got %s", m.Selection.Location)
	}

	m, _ = press(m, keyRune('d'))
	if m.Selection.Direction != flow.Both || len(m.Scene.Flows) != 6 {
		t.Errorf("d should switch to both: %s with %d flows", m.Selection.Direction, len(m.Scene.Flows))
	}
	m, _ = press(m, keyRune('t'))
	if m.Selection.Display != flow.All {
		t.Errorf("t should switch to all, got %s", m.Selection.Display)
	}
}

func TestExploreHoverFlow(t *testing.T) {
	m := newTestExplorer(t)

	m, _ = press(m, keyTab, keyDown)
	if m.FlowCursor != 1 {
		t.Fatalf("flow cursor = %d, want 1", m.FlowCursor)
	}
	if m.Selection.Location != "06" {
		t.Error("moving in the flow table must not change the location")
	}
	view := m.View()
	if !strings.Contains(view, "California → Nevada") {
		t.Errorf("view lacks the hovered flow tooltip:\n%s", view)
	}

	m, _ = press(m, keyDown, keyDown, keyDown)
	if m.FlowCursor != 2 {
		t.Errorf("flow cursor = %d, want clamped to 2", m.FlowCursor)
	}
	m, _ = press(m, keyTab)
	if m.FlowCursor != -1 {
		t.Error("tab back to the list should clear the hover")
	}
}

func TestExploreComposeError(t *testing.T) {
	_, ds, _ := testDataset(t)
	boom := errors.New("no such place")
	m := NewExploreModel(ds.Graph, flow.DefaultSelection(), func(flow.Selection) (*scene.Scene, error) {
		return nil, boom
	})
	if !errors.Is(m.Err, boom) || m.Scene != nil {
		t.Fatalf("model should keep the compose error, got %v", m.Err)
	}
	if !strings.Contains(m.View(), "no such place") {
		t.Error("view should show the error")
	}
	m, _ = press(m, keyTab)
	if m.FlowCursor != -1 {
		t.Error("tab without flows must not focus the table")
	}
}

func TestExploreQuit(t *testing.T) {
	m := newTestExplorer(t)
	for _, k := range []tea.KeyMsg{keyRune('q'), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		if _, cmd := press(m, k); cmd == nil {
			t.Errorf("%s should quit", k.String())
		}
	}
}

func TestExploreWindowSize(t *testing.T) {
	m := newTestExplorer(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	if got := next.(ExploreModel).Height; got != 5 {
		t.Errorf("height = %d, want the minimum 5", got)
	}
}
