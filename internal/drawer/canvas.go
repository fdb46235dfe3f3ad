package drawer

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"topoview/internal/domain"
	"topoview/internal/layout"
)

const (
	nodeGlyph     = '●'
	edgeGlyph     = '·'
	selectedGlyph = '*'
)

type cellKind int

const (
	cellEmpty cellKind = iota
	cellEdge
	cellSelected
	cellNode
	cellLabel
)

type cell struct {
	r        rune
	kind     cellKind
	severity domain.Severity
}

// Canvas is a character grid the laid-out graph is rasterized onto
type Canvas struct {
	width, height int
	cells         [][]cell
}

// NewCanvas allocates a blank width x height canvas
func NewCanvas(width, height int) *Canvas {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	cells := make([][]cell, height)
	for y := range cells {
		cells[y] = make([]cell, width)
		for x := range cells[y] {
			cells[y][x] = cell{r: ' '}
		}
	}
	return &Canvas{width: width, height: height, cells: cells}
}

// Plot fits the layout onto the canvas and draws edges, nodes and labels.
// Edges go first so nodes always stay visible where lines cross them.
func (c *Canvas) Plot(topo *domain.Topology, result *domain.LayoutResult, selectedEdge string) map[string][2]int {
	raw := make(map[string]layout.Position, len(result.Positions))
	for _, p := range result.Positions {
		raw[p.NodeID] = layout.Position{X: p.X, Y: p.Y}
	}
	fitted := layout.Fit(raw, float64(c.width-1), float64(c.height-1), 1)

	points := make(map[string][2]int, len(fitted))
	for id, p := range fitted {
		points[id] = [2]int{int(p.X + 0.5), int(p.Y + 0.5)}
	}

	for _, e := range topo.Edges {
		from, okFrom := points[e.From]
		to, okTo := points[e.To]
		if !okFrom || !okTo || e.From == e.To {
			continue
		}
		kind, glyph := cellEdge, edgeGlyph
		if e.ID == selectedEdge {
			kind, glyph = cellSelected, selectedGlyph
		}
		c.line(from, to, glyph, kind)
	}

	for _, n := range topo.Nodes {
		pt, ok := points[n.ID]
		if !ok {
			continue
		}
		c.set(pt[0], pt[1], cell{r: nodeGlyph, kind: cellNode, severity: n.Severity})
	}

	// Labels last, without overwriting nodes
	for _, n := range topo.Nodes {
		pt, ok := points[n.ID]
		if !ok {
			continue
		}
		x := pt[0] + 1
		for _, r := range n.DisplayLabel() {
			if x >= c.width || c.at(x, pt[1]).kind == cellNode {
				break
			}
			c.set(x, pt[1], cell{r: r, kind: cellLabel})
			x++
		}
	}
	return points
}

// line draws a Bresenham segment between two points, leaving the endpoints
// for the nodes themselves
func (c *Canvas) line(from, to [2]int, glyph rune, kind cellKind) {
	x0, y0 := from[0], from[1]
	x1, y1 := to[0], to[1]
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	errAcc := dx + dy

	for {
		if (x0 != from[0] || y0 != from[1]) && (x0 != x1 || y0 != y1) {
			if existing := c.at(x0, y0); existing.kind <= kind {
				c.set(x0, y0, cell{r: glyph, kind: kind})
			}
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * errAcc
		if e2 >= dy {
			errAcc += dy
			x0 += sx
		}
		if e2 <= dx {
			errAcc += dx
			y0 += sy
		}
	}
}

func (c *Canvas) at(x, y int) cell {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return cell{}
	}
	return c.cells[y][x]
}

func (c *Canvas) set(x, y int, v cell) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	c.cells[y][x] = v
}

// Plain returns the canvas without styling, one line per row
func (c *Canvas) Plain() string {
	var b strings.Builder
	for y, row := range c.cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		for _, v := range row {
			b.WriteRune(v.r)
		}
	}
	return b.String()
}

// Render returns the canvas with severity colors applied to nodes
func (c *Canvas) Render() string {
	var b strings.Builder
	for y, row := range c.cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		for _, v := range row {
			switch v.kind {
			case cellNode:
				b.WriteString(severityStyle(v.severity).Render(string(v.r)))
			case cellSelected:
				b.WriteString(selectedEdgeStyle.Render(string(v.r)))
			case cellEdge:
				b.WriteString(edgeStyle.Render(string(v.r)))
			default:
				b.WriteRune(v.r)
			}
		}
	}
	return b.String()
}

func severityStyle(s domain.Severity) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(s.Color()))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
