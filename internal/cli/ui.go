package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/pivotframe/pkg/core/frame"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleLink      = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleRigid    = lipgloss.NewStyle().Foreground(colorGreen)
	styleLocked   = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// ui prints styled status lines to w.
type ui struct {
	w io.Writer
}

func (c *CLI) ui() ui { return ui{w: c.Out} }

func (u ui) success(format string, args ...any) {
	fmt.Fprintln(u.w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func (u ui) failure(format string, args ...any) {
	fmt.Fprintln(u.w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func (u ui) info(format string, args ...any) {
	fmt.Fprintln(u.w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

func (u ui) detail(format string, args ...any) {
	fmt.Fprintln(u.w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func (u ui) file(path string) {
	fmt.Fprintln(u.w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func (u ui) keyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(u.w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// stats prints frame counts and the cache status on one line.
func (u ui) stats(pivots, shapes, groups int, cached bool) {
	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}
	parts := []string{
		StyleDim.Render(plural(pivots, "pivot")),
		StyleDim.Render(plural(shapes, "shape")),
		StyleDim.Render(plural(groups, "group")),
		statusStyle.Render(status),
	}
	fmt.Fprintln(u.w, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

func (u ui) nextStep(description, cmd string) {
	fmt.Fprintln(u.w, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

// =============================================================================
// Frame Tables
// =============================================================================

// pivotTable renders the pivots of f with their flags and group.
func pivotTable(f *frame.Frame, cursor int) string {
	group := groupIndex(f)
	pivots := f.Pivots()
	rows := make([][]string, 0, len(pivots))
	for i, p := range pivots {
		mark := "  "
		if i == cursor {
			mark = "▸ "
		}
		rows = append(rows, []string{
			mark + strconv.Itoa(i),
			coord(p.Pos.X),
			coord(p.Pos.Y),
			flagCell(p.Rigid, "rigid"),
			flagCell(p.Locked, "locked"),
			group[i],
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Pivot", "X", "Y", "Rigid", "Locked", "Group").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader
			case row == cursor:
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			case col == 3 && pivots[row].Rigid:
				return styleRigid
			case col == 4 && pivots[row].Locked:
				return styleLocked
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// shapeTable renders the shapes of f.
func shapeTable(f *frame.Frame) string {
	rows := make([][]string, 0, f.ShapeCount())
	for i, s := range f.Shapes() {
		thickness := "—"
		if t, ok := s.Thickness(); ok {
			thickness = coord(t)
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			s.Kind.String(),
			fmt.Sprintf("%d–%d", s.P1, s.P2),
			coord(s.RestLength),
			thickness,
			s.Color,
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Shape", "Kind", "Pivots", "Rest", "Thickness", "Color").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// groupIndex labels every pivot with the rigid groups containing it.
func groupIndex(f *frame.Frame) []string {
	labels := make([][]string, f.PivotCount())
	for gi, g := range f.Groups() {
		for _, m := range g.Members {
			labels[m] = append(labels[m], strconv.Itoa(gi))
		}
	}
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = "—"
		if len(l) > 0 {
			out[i] = strings.Join(l, ",")
		}
	}
	return out
}

func flagCell(on bool, label string) string {
	if on {
		return label
	}
	return ""
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
