package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/thiagokokada/gitk-graph/internal/history"
)

// Each lane is two cells wide: the lane itself and a gap used by horizontal
// runs.
const laneCells = 2

const dotGlyph = '●'

type direction uint8

const (
	up direction = 1 << iota
	down
	left
	right
)

var glyphs = map[direction]rune{
	up:                       '│',
	down:                     '│',
	up | down:                '│',
	left:                     '─',
	right:                    '─',
	left | right:             '─',
	up | left:                '╯',
	up | right:               '╰',
	down | left:              '╮',
	down | right:             '╭',
	up | down | left:         '┤',
	up | down | right:        '├',
	up | left | right:        '┴',
	down | left | right:      '┬',
	up | down | left | right: '┼',
}

// Cell is one terminal column of a graph row. Blank cells carry no colour.
type Cell struct {
	Glyph rune
	Color uint
	Blank bool
}

type canvas struct {
	dirs   []direction
	colors []uint
	used   []bool
}

func (c *canvas) grow(n int) {
	for len(c.dirs) < n {
		c.dirs = append(c.dirs, 0)
		c.colors = append(c.colors, 0)
		c.used = append(c.used, false)
	}
}

func (c *canvas) set(i int, d direction, color uint) {
	c.grow(i + 1)
	c.dirs[i] |= d
	c.colors[i] = color
	c.used[i] = true
}

// run draws a horizontal segment between cells from and to, exclusive, and
// the matching stubs on both ends.
func (c *canvas) run(from, to int, color uint) {
	if from == to {
		return
	}
	towards, back := right, left
	if to < from {
		towards, back = left, right
	}
	c.set(from, towards, color)
	lo, hi := min(from, to), max(from, to)
	for i := lo + 1; i < hi; i++ {
		c.set(i, left|right, color)
	}
	c.set(to, back, color)
}

// Cells lays out the glyphs of a row. Lines are drawn in order and a cell
// takes the colour of the last line crossing it; the dot overrides
// everything in its cell.
func Cells(row history.Row) []Cell {
	var c canvas
	dotCell := -1
	if row.HasDot && row.Dot.Lane.Valid() {
		dotCell = int(row.Dot.Lane) * laneCells
		c.grow(dotCell + 1)
	}
	for _, l := range row.Lines {
		top := int(l.ChildLane) * laneCells
		bottom := int(l.ParentLane) * laneCells
		switch {
		case l.ChildLane.Valid() && l.ParentLane.Valid():
			c.set(top, up, l.Color)
			c.set(bottom, down, l.Color)
			c.run(top, bottom, l.Color)
		case l.ParentLane.Valid() && dotCell >= 0:
			c.set(bottom, down, l.Color)
			c.run(dotCell, bottom, l.Color)
		case l.ChildLane.Valid() && dotCell >= 0:
			c.set(top, up, l.Color)
			c.run(top, dotCell, l.Color)
		}
	}

	cells := make([]Cell, len(c.dirs))
	for i := range cells {
		switch {
		case i == dotCell:
			cells[i] = Cell{Glyph: dotGlyph, Color: row.Dot.Color}
		case c.used[i]:
			cells[i] = Cell{Glyph: glyphs[c.dirs[i]], Color: c.colors[i]}
		default:
			cells[i] = Cell{Glyph: ' ', Blank: true}
		}
	}
	return trimBlank(cells)
}

func trimBlank(cells []Cell) []Cell {
	end := len(cells)
	for end > 0 && cells[end-1].Blank {
		end--
	}
	return cells[:end]
}

// Glyphs returns the row's graph without colours.
func Glyphs(row history.Row) string {
	var b strings.Builder
	for _, cell := range Cells(row) {
		b.WriteRune(cell.Glyph)
	}
	return b.String()
}

// Width returns the number of cells the widest of rows needs.
func Width(rows []history.Row) int {
	w := 0
	for _, row := range rows {
		w = max(w, len(Cells(row)))
	}
	return w
}

// Row renders the row's graph in the palette's lane colours, padded to
// width cells. A graph wider than width is cut and ends in "…". A width of
// zero or less keeps the natural width.
func Row(row history.Row, p Palette, width int) string {
	cells := Cells(row)
	truncated := false
	if width > 0 && len(cells) > width {
		cells = cells[:width-1]
		truncated = true
	}
	var b strings.Builder
	for _, cell := range cells {
		if cell.Blank {
			b.WriteRune(' ')
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(p.Lane(cell.Color)).Render(string(cell.Glyph)))
	}
	n := len(cells)
	if truncated {
		b.WriteString(lipgloss.NewStyle().Foreground(p.Dim).Render("…"))
		n++
	}
	if width > n {
		b.WriteString(strings.Repeat(" ", width-n))
	}
	return b.String()
}
