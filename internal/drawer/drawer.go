// Package drawer is the terminal test drawer: a movable, collapsible panel
// that cycles through the canned scenarios, or shows a loaded topology
// dataset, lays each one out with the force-directed engine and draws the
// result on a character canvas.
//
// Keys:
//
//	n / p        next / previous scenario (wraps around)
//	r            run the layout again
//	c            collapse or expand the panel
//	arrows       move the panel
//	tab          select the next edge and show its details
//	shift+tab    select the previous edge
//	esc          clear the edge selection
//	q            quit
package drawer

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"topoview/internal/domain"
	"topoview/internal/layout"
	"topoview/internal/scenario"
	"topoview/internal/service"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	edgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	selectedEdgeStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FF00FF"))

	detailStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#FF00FF")).
			Padding(0, 1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// Layouter lays out a scenario. *service.LayoutService satisfies it.
type Layouter interface {
	Scenario(sc *scenario.Scenario) *domain.LayoutResult
}

// Engine lays scenarios out by calling the engine directly, with no metrics
// or persistence behind it
type Engine layout.Options

// Scenario implements Layouter
func (e Engine) Scenario(sc *scenario.Scenario) *domain.LayoutResult {
	topo := sc.Topology()
	result := service.LayoutTopology(topo, sc.Options(layout.Options(e)))
	result.TopologyID = topo.ID
	return result
}

type keyMap struct {
	Next     key.Binding
	Prev     key.Binding
	Relayout key.Binding
	Collapse key.Binding
	Edge     key.Binding
	PrevEdge key.Binding
	Clear    key.Binding
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Next: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "next scenario"),
	),
	Prev: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "prev scenario"),
	),
	Relayout: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "relayout"),
	),
	Collapse: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "collapse"),
	),
	Edge: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next edge"),
	),
	PrevEdge: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev edge"),
	),
	Clear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "clear"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "move down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "move left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "move right"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Relayout, k.Collapse, k.Edge, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Relayout, k.Collapse},
		{k.Edge, k.PrevEdge, k.Clear},
		{k.Up, k.Down, k.Left, k.Right},
		{k.Quit},
	}
}

// Model is the bubbletea model of the drawer
type Model struct {
	scenarios *scenario.Registry
	layouter  Layouter

	current *scenario.Scenario
	topo    *domain.Topology
	result  *domain.LayoutResult
	runs    int

	selected  int // index into topo.Edges, -1 when nothing is selected
	collapsed bool
	offsetX   int
	offsetY   int

	canvasWidth  int
	canvasHeight int
	termWidth    int
	termHeight   int

	keys keyMap
	help help.Model
}

// New creates a drawer showing the first scenario of reg on a
// width x height canvas
func New(reg *scenario.Registry, l Layouter, width, height int) Model {
	m := Model{
		scenarios:    reg,
		layouter:     l,
		selected:     -1,
		canvasWidth:  width,
		canvasHeight: height,
		keys:         keys,
		help:         help.New(),
	}
	m.show(reg.First())
	return m
}

// Dataset builds the single-entry registry the drawer uses to show a loaded
// topology
func Dataset(topo *domain.Topology) (*scenario.Registry, error) {
	sc := scenario.FromTopology(topo)
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return scenario.New([]scenario.Scenario{sc})
}

// Run starts the drawer full screen and blocks until the user quits
func Run(reg *scenario.Registry, l Layouter, width, height int) error {
	if reg.Len() == 0 {
		return fmt.Errorf("no scenarios to show")
	}
	p := tea.NewProgram(New(reg, l, width, height), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *Model) show(sc *scenario.Scenario) {
	m.current = sc
	m.selected = -1
	m.runs = 0
	if sc == nil {
		m.topo, m.result = nil, nil
		return
	}
	m.topo = sc.Topology()
	m.relayout()
}

func (m *Model) relayout() {
	if m.current == nil {
		return
	}
	m.result = m.layouter.Scenario(m.current)
	m.runs++
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height
		m.help.Width = msg.Width
		m.clampOffset()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			if m.current != nil {
				m.show(m.scenarios.Next(m.current.Name))
			}
		case key.Matches(msg, m.keys.Prev):
			if m.current != nil {
				m.show(m.scenarios.Prev(m.current.Name))
			}
		case key.Matches(msg, m.keys.Relayout):
			m.relayout()
		case key.Matches(msg, m.keys.Collapse):
			m.collapsed = !m.collapsed
			m.clampOffset()
		case key.Matches(msg, m.keys.Edge):
			m.stepEdge(1)
		case key.Matches(msg, m.keys.PrevEdge):
			m.stepEdge(-1)
		case key.Matches(msg, m.keys.Clear):
			m.selected = -1
		case key.Matches(msg, m.keys.Up):
			m.offsetY--
			m.clampOffset()
		case key.Matches(msg, m.keys.Down):
			m.offsetY++
			m.clampOffset()
		case key.Matches(msg, m.keys.Left):
			m.offsetX -= 2
			m.clampOffset()
		case key.Matches(msg, m.keys.Right):
			m.offsetX += 2
			m.clampOffset()
		}
	}
	return m, nil
}

func (m *Model) stepEdge(delta int) {
	if m.topo == nil || len(m.topo.Edges) == 0 {
		m.selected = -1
		return
	}
	n := len(m.topo.Edges)
	if m.selected < 0 {
		if delta > 0 {
			m.selected = 0
		} else {
			m.selected = n - 1
		}
		return
	}
	m.selected = ((m.selected+delta)%n + n) % n
}

// clampOffset keeps the panel on screen once the terminal size is known
func (m *Model) clampOffset() {
	if m.offsetX < 0 {
		m.offsetX = 0
	}
	if m.offsetY < 0 {
		m.offsetY = 0
	}
	if m.termWidth == 0 || m.termHeight == 0 {
		return
	}
	panel := m.panel()
	if maxX := m.termWidth - lipgloss.Width(panel); m.offsetX > maxX {
		m.offsetX = max(maxX, 0)
	}
	if maxY := m.termHeight - lipgloss.Height(panel) - 1; m.offsetY > maxY {
		m.offsetY = max(maxY, 0)
	}
}

// SelectedEdge returns the details of the selected edge, if any
func (m Model) SelectedEdge() (domain.EdgeDetail, bool) {
	if m.topo == nil || m.selected < 0 || m.selected >= len(m.topo.Edges) {
		return domain.EdgeDetail{}, false
	}
	return edgeDetail(m.topo, m.result, m.topo.Edges[m.selected]), true
}

// Current returns the scenario on display
func (m Model) Current() *scenario.Scenario {
	return m.current
}

func edgeDetail(topo *domain.Topology, result *domain.LayoutResult, e domain.Edge) domain.EdgeDetail {
	detail := domain.EdgeDetail{Edge: e}
	var severities []domain.Severity
	if n, ok := topo.Node(e.From); ok {
		detail.Source = n
		severities = append(severities, n.Severity)
	}
	if n, ok := topo.Node(e.To); ok {
		detail.Target = n
		severities = append(severities, n.Severity)
	}
	detail.Severity = domain.Worst(severities...)

	if result != nil {
		from, okFrom := result.Position(e.From)
		to, okTo := result.Position(e.To)
		if okFrom && okTo {
			detail.Length = layout.Distance(
				layout.Position{X: from.X, Y: from.Y},
				layout.Position{X: to.X, Y: to.Y},
			)
		}
	}
	return detail
}

func (m Model) View() string {
	view := lipgloss.NewStyle().
		MarginLeft(m.offsetX).
		MarginTop(m.offsetY).
		Render(m.panel())
	return view + "\n" + dimStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}

func (m Model) panel() string {
	if m.current == nil {
		return panelStyle.Render(titleStyle.Render("topoview drawer") + "\n" + dimStyle.Render("no scenarios"))
	}

	index := 0
	for i, name := range m.scenarios.Names() {
		if name == m.current.Name {
			index = i + 1
			break
		}
	}
	title := titleStyle.Render(fmt.Sprintf("▤ %s", m.current.Title)) +
		dimStyle.Render(fmt.Sprintf("  %d/%d", index, m.scenarios.Len()))

	if m.collapsed {
		return panelStyle.Render(title + dimStyle.Render("  [collapsed]"))
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	if m.current.Description != "" {
		b.WriteString(dimStyle.Render(m.current.Description))
		b.WriteString("\n")
	}

	selectedID := ""
	if detail, ok := m.SelectedEdge(); ok {
		selectedID = detail.Edge.ID
	}
	canvas := NewCanvas(m.canvasWidth, m.canvasHeight)
	if m.result != nil {
		canvas.Plot(m.topo, m.result, selectedID)
	}
	b.WriteString(canvas.Render())
	b.WriteString("\n")
	b.WriteString(m.status())
	b.WriteString("\n")
	b.WriteString(renderLegend())

	if detail, ok := m.SelectedEdge(); ok {
		b.WriteString("\n")
		b.WriteString(renderEdgeDetail(detail))
	}
	return panelStyle.Render(b.String())
}

func (m Model) status() string {
	if m.result == nil {
		return ""
	}
	return dimStyle.Render(fmt.Sprintf("%d nodes  %d edges  %d iterations  run #%d in %s",
		len(m.topo.Nodes), len(m.topo.Edges), m.result.Params.Iterations, m.runs,
		m.result.Duration.Round(time.Microsecond)))
}

func renderLegend() string {
	entries := domain.Legend()
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, severityStyle(e.Severity).Render(string(nodeGlyph))+" "+e.Label)
	}
	return strings.Join(parts, "  ")
}

func renderEdgeDetail(d domain.EdgeDetail) string {
	name := func(n *domain.Node, id string) string {
		if n == nil {
			return id + " (missing)"
		}
		return n.DisplayLabel()
	}

	lines := []string{
		selectedEdgeStyle.Render("Edge " + d.Edge.ID),
		fmt.Sprintf("%s ↔ %s", name(d.Source, d.Edge.From), name(d.Target, d.Edge.To)),
	}
	if d.Edge.Type != "" {
		lines = append(lines, "Type:     "+string(d.Edge.Type))
	}
	if d.Edge.Label != "" {
		lines = append(lines, "Label:    "+d.Edge.Label)
	}
	lines = append(lines,
		fmt.Sprintf("Length:   %.1f", d.Length),
		"Severity: "+severityStyle(d.Severity).Render(d.Severity.Label()),
	)
	return detailStyle.Render(strings.Join(lines, "\n"))
}
