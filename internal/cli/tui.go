package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pivotframe/pkg/core/frame"
	"github.com/matzehuels/pivotframe/pkg/core/solver"
	"github.com/matzehuels/pivotframe/pkg/scene"
)

// Browser styles
var (
	browseHelpStyle   = lipgloss.NewStyle().Foreground(colorDim)
	browseStatusStyle = lipgloss.NewStyle().Foreground(colorGray)
)

// Ticks run by the "T" key.
const browseBurst = 10

// =============================================================================
// FrameModel - Interactive pivot browser
// =============================================================================

// FrameModel is the bubbletea model for browsing and toggling the pivots of
// a frame.
type FrameModel struct {
	Frame  *frame.Frame
	Name   string
	Cursor int

	// Save is set when the user quit with "s".
	Save bool

	status string
	ticks  int
}

// NewFrameModel creates a browser on f.
func NewFrameModel(f *frame.Frame, name string) FrameModel {
	return FrameModel{Frame: f, Name: name}
}

func (m FrameModel) Init() tea.Cmd {
	return nil
}

func (m FrameModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	n := m.Frame.PivotCount()

	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "s":
		m.Save = true
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < n-1 {
			m.Cursor++
		}
	case "r":
		m.toggle(true)
	case "l":
		m.toggle(false)
	case "x":
		if n == 0 {
			break
		}
		if err := m.Frame.DeletePivot(m.Cursor); err != nil {
			m.status = err.Error()
			break
		}
		m.status = fmt.Sprintf("deleted pivot %d", m.Cursor)
		if m.Cursor >= m.Frame.PivotCount() && m.Cursor > 0 {
			m.Cursor--
		}
	case "t":
		m.tick(1)
	case "T":
		m.tick(browseBurst)
	}
	return m, nil
}

// toggle flips the rigid (or locked) flag of the pivot under the cursor.
func (m *FrameModel) toggle(rigid bool) {
	p, ok := m.Frame.Pivot(m.Cursor)
	if !ok {
		return
	}
	var err error
	if rigid {
		err = m.Frame.SetRigid(m.Cursor, !p.Rigid)
		m.status = fmt.Sprintf("pivot %d rigid=%t", m.Cursor, !p.Rigid)
	} else {
		err = m.Frame.SetLocked(m.Cursor, !p.Locked)
		m.status = fmt.Sprintf("pivot %d locked=%t", m.Cursor, !p.Locked)
	}
	if err != nil {
		m.status = err.Error()
	}
}

func (m *FrameModel) tick(n int) {
	st := solver.Run(m.Frame, n)
	m.ticks += st.Ticks
	m.status = fmt.Sprintf("%s run: %d aligned, %d relaxed", plural(st.Ticks, "tick"), st.GroupsAligned, st.ShapesRelaxed)
}

func (m FrameModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(nameOr(m.Name, "frame")))
	b.WriteString("\n")
	b.WriteString(browseHelpStyle.Render("↑/↓ navigate  r rigid  l lock  x delete  t tick  T ×10  s save  q quit"))
	b.WriteString("\n\n")

	if m.Frame.PivotCount() == 0 {
		b.WriteString(browseHelpStyle.Render("no pivots"))
	} else {
		b.WriteString(pivotTable(m.Frame, m.Cursor))
	}
	b.WriteString("\n")

	summary := fmt.Sprintf("%s · %s · %s · %d ticks",
		plural(m.Frame.PivotCount(), "pivot"),
		plural(m.Frame.ShapeCount(), "shape"),
		plural(len(m.Frame.Groups()), "group"),
		m.ticks)
	b.WriteString(browseStatusStyle.Render(summary))
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(StyleHighlight.Render(m.status))
	}
	b.WriteString("\n")
	return b.String()
}

// =============================================================================
// Command
// =============================================================================

func (c *CLI) browseCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "browse [input]",
		Short: "Browse a frame's pivots and toggle their flags",
		Long: `Browse a frame in a terminal UI.

Press s to quit and keep the changes: the frame is written to -o (a .json or
.toml scene file, otherwise packed text) or printed packed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := c.readInput(args[0])
			if err != nil {
				return err
			}
			final, err := tea.NewProgram(NewFrameModel(in.Frame, in.Name), tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return err
			}
			m, ok := final.(FrameModel)
			if !ok || !m.Save {
				return nil
			}
			if isSceneFile(output) {
				if err := scene.Save(output, scene.FromFrame(m.Frame, m.Name)); err != nil {
					return err
				}
				c.ui().success("Saved %s", plural(m.Frame.PivotCount(), "pivot"))
				c.ui().file(output)
				return nil
			}
			in.Frame, in.Packed = m.Frame, ""
			packed, err := in.packed()
			if err != nil {
				return err
			}
			return c.emit(output, []byte(packed+"\n"))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "where to write the frame on save")
	return cmd
}
