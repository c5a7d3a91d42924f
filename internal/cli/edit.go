package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pivotframe/pkg/codec"
	"github.com/matzehuels/pivotframe/pkg/core/frame"
	"github.com/matzehuels/pivotframe/pkg/core/solver"
	pferrors "github.com/matzehuels/pivotframe/pkg/errors"
	"github.com/matzehuels/pivotframe/pkg/pipeline"
	"github.com/matzehuels/pivotframe/pkg/scene"
	"github.com/matzehuels/pivotframe/pkg/session"
)

// errQuit ends the edit loop.
var errQuit = errors.New("quit")

const editHelp = `Pointer
  hover X Y            highlight the pivot closest to X,Y
  press X Y            grab the pivot closest to X,Y
  drag X Y [anchor]    move the grabbed pivot; anchor reshapes without pulling
  release              let go

Editing
  add X Y              add a pivot
  circle P1 P2 [COLOR]           add a circle spanning P1 and P2
  line P1 P2 [THICKNESS] [COLOR] add a line
  rigid ID [on|off]    toggle the rigid flag
  lock ID [on|off]     toggle the locked flag
  delete ID            delete a pivot and its shapes
  rest SHAPE LENGTH    set a shape's rest length
  rebuild              recompute rigid groups

Solver
  tick [N]             run N solver ticks (default 1)

Output
  list | shapes        show pivots or shapes
  pack | url [BASE]    print the packed frame or a share URL
  export PATH          write a .json or .toml scene file
  svg PATH             render the frame to SVG
  save                 store the session
  quit`

// =============================================================================
// Command
// =============================================================================

func (c *CLI) editCommand() *cobra.Command {
	var (
		resume       string
		name         string
		ticksPerDrag int
		noSave       bool
		listSessions bool
	)
	cmd := &cobra.Command{
		Use:   "edit [input]",
		Short: "Edit a frame interactively",
		Long: `Edit a frame in an interactive shell.

The shell replays the editor's pointer protocol (hover, press, drag,
release) and its editing commands. Sessions are stored on quit and can be
resumed with --session. Type "help" inside the shell for the command list.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := session.NewFileStore(c.Config.Editor.SessionDir)
			if err != nil {
				return err
			}
			if listSessions {
				return c.listSessions(ctx, store)
			}

			sess, err := c.openSession(ctx, store, resume, args)
			if err != nil {
				return err
			}
			if name != "" {
				sess.Name = name
			}
			switch {
			case ticksPerDrag > 0:
				sess.TicksPerDrag = ticksPerDrag
			case resume == "":
				sess.TicksPerDrag = c.Config.Editor.TicksPerDrag
			}

			ed := newEditor(c, sess)
			if !noSave {
				ed.store = store
			}
			if err := ed.run(ctx); err != nil {
				return err
			}
			if ed.store != nil {
				if err := ed.save(ctx); err != nil {
					return err
				}
				c.ui().success("Saved session %s", sess.ID)
				c.ui().nextStep("Resume", appName+" edit --session "+sess.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&resume, "session", "", "resume a stored session")
	cmd.Flags().StringVar(&name, "name", "", "session name")
	cmd.Flags().IntVar(&ticksPerDrag, "ticks-per-drag", 0, "solver ticks per drag step (default from config)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the session")
	cmd.Flags().BoolVar(&listSessions, "list", false, "list stored sessions")
	return cmd
}

func (c *CLI) openSession(ctx context.Context, store session.Store, id string, args []string) (*session.Session, error) {
	if id != "" {
		rec, err := store.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", id, err)
		}
		return session.Restore(rec)
	}
	if len(args) == 0 {
		return session.New(frame.New()), nil
	}
	in, err := c.readInput(args[0])
	if err != nil {
		return nil, err
	}
	sess := session.New(in.Frame)
	sess.Name = in.Name
	return sess, nil
}

func (c *CLI) listSessions(ctx context.Context, store session.Store) error {
	if err := store.Cleanup(ctx); err != nil {
		c.Logger.Warn("session cleanup", "error", err)
	}
	recs, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		c.ui().info("No stored sessions")
		return nil
	}
	for _, r := range recs {
		fmt.Fprintf(c.Out, "%s  %s  %s  %s\n", StyleValue.Render(r.ID),
			nameOr(r.Name, "untitled"),
			plural(len(r.Scene.Pivots), "pivot"),
			StyleDim.Render(r.UpdatedAt.Local().Format("2006-01-02 15:04")))
	}
	return nil
}

// =============================================================================
// Editor
// =============================================================================

// editor executes shell lines against a session.
type editor struct {
	cli   *CLI
	sess  *session.Session
	store session.Store // nil disables save
}

func newEditor(c *CLI, sess *session.Session) *editor {
	return &editor{cli: c, sess: sess}
}

func (e *editor) run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            appName + "> ",
		HistoryFile:       filepath.Join(os.TempDir(), appName+"-history"),
		AutoComplete:      editCompleter(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "quit",
		HistorySearchFold: true,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintln(rl.Stdout(), StyleDim.Render(`Type "help" for commands.`))
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if err == io.EOF {
			return nil
		}

		out, err := e.exec(ctx, line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			ui{w: rl.Stderr()}.failure("%s", pferrors.UserMessage(err))
			continue
		}
		if out != "" {
			fmt.Fprintln(rl.Stdout(), out)
		}
	}
}

// exec runs one shell line and returns what it prints.
func (e *editor) exec(ctx context.Context, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	f := e.sess.Frame
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help", "?":
		return editHelp, nil

	case "quit", "exit", "q":
		return "", errQuit

	case "list", "ls", "pivots":
		if f.PivotCount() == 0 {
			return "no pivots", nil
		}
		cursor := -1
		if h, ok := e.sess.Highlighted(); ok {
			cursor = h.ID
		}
		return pivotTable(f, cursor), nil

	case "shapes":
		if f.ShapeCount() == 0 {
			return "no shapes", nil
		}
		return shapeTable(f), nil

	case "add":
		x, y, err := point(args)
		if err != nil {
			return "", err
		}
		id, err := f.AddPivot(x, y)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("pivot %d", id), nil

	case "circle":
		p1, p2, err := endpoints(args)
		if err != nil {
			return "", err
		}
		id, err := f.AddCircle(p1, p2, optional(args, 2))
		if err != nil {
			return "", err
		}
		f.Rebuild()
		return fmt.Sprintf("shape %d", id), nil

	case "line":
		p1, p2, err := endpoints(args)
		if err != nil {
			return "", err
		}
		thickness := 1.0
		if s := optional(args, 2); s != "" {
			if thickness, err = number(s); err != nil {
				return "", err
			}
		}
		id, err := f.AddLine(p1, p2, optional(args, 3), thickness)
		if err != nil {
			return "", err
		}
		f.Rebuild()
		return fmt.Sprintf("shape %d", id), nil

	case "rigid", "lock":
		id, on, err := toggle(f, args, cmd)
		if err != nil {
			return "", err
		}
		if cmd == "rigid" {
			err = f.SetRigid(id, on)
		} else {
			err = f.SetLocked(id, on)
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("pivot %d %s=%t", id, cmd, on), nil

	case "delete", "rm":
		id, err := index(args, 0, "pivot")
		if err != nil {
			return "", err
		}
		if err := f.DeletePivot(id); err != nil {
			return "", err
		}
		return fmt.Sprintf("deleted pivot %d", id), nil

	case "rest":
		id, err := index(args, 0, "shape")
		if err != nil {
			return "", err
		}
		if len(args) < 2 {
			return "", usage("rest SHAPE LENGTH")
		}
		length, err := number(args[1])
		if err != nil {
			return "", err
		}
		if err := f.SetRestLength(id, length); err != nil {
			return "", err
		}
		return fmt.Sprintf("shape %d rest=%s", id, coord(length)), nil

	case "rebuild":
		f.Rebuild()
		return plural(len(f.Groups()), "group"), nil

	case "hover", "press":
		x, y, err := point(args)
		if err != nil {
			return "", err
		}
		var hit frame.Closest
		var ok bool
		if cmd == "press" {
			hit, ok = e.sess.Press(x, y)
		} else {
			hit, ok = e.sess.Hover(x, y)
		}
		if !ok {
			return "no pivots", nil
		}
		return fmt.Sprintf("pivot %d at %s,%s (%s away)", hit.ID,
			coord(hit.Position.X), coord(hit.Position.Y), coord(hit.Distance)), nil

	case "drag":
		x, y, err := point(args)
		if err != nil {
			return "", err
		}
		mode := session.ModeSimulate
		if optional(args, 2) == "anchor" {
			mode = session.ModeAnchor
		}
		st, err := e.sess.Drag(x, y, mode)
		if err != nil {
			return "", err
		}
		id, _ := e.sess.Dragging()
		p := f.Position(id)
		return fmt.Sprintf("pivot %d at %s,%s %s", id, coord(p.X), coord(p.Y), describeStats(st)), nil

	case "release":
		if !e.sess.Release() {
			return "nothing held", nil
		}
		return "released", nil

	case "tick":
		n := 1
		if s := optional(args, 0); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return "", usage("tick [N]")
			}
			n = v
		}
		if err := pferrors.ValidateTicks(n); err != nil {
			return "", err
		}
		return describeStats(e.sess.Simulate(n)), nil

	case "pack":
		return codec.Pack(f)

	case "url":
		base := optional(args, 0)
		if base == "" {
			base = e.cli.Config.Server.ShareBase
		}
		if base == "" {
			return "", usage("url BASE (or set server.share_base)")
		}
		return codec.ShareURL(base, f)

	case "export":
		path := optional(args, 0)
		if path == "" {
			return "", usage("export PATH")
		}
		if err := scene.Save(path, scene.FromFrame(f, e.sess.Name)); err != nil {
			return "", err
		}
		return "wrote " + path, nil

	case "svg":
		path := optional(args, 0)
		if path == "" {
			return "", usage("svg PATH")
		}
		opts := pipeline.Options{Formats: []string{pipeline.FormatSVG}, Pivots: true}
		if h, ok := e.sess.Highlighted(); ok {
			opts.Highlight = &h.ID
		}
		artifacts, err := pipeline.Render(ctx, f, opts)
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(path, artifacts[pipeline.FormatSVG], 0o644); err != nil {
			return "", err
		}
		return "wrote " + path, nil

	case "save":
		if e.store == nil {
			return "", pferrors.New(pferrors.ErrCodeUnsupported, "saving is disabled")
		}
		if err := e.save(ctx); err != nil {
			return "", err
		}
		return "saved " + e.sess.ID, nil
	}
	return "", pferrors.New(pferrors.ErrCodeInvalidInput, "unknown command %q", cmd)
}

func (e *editor) save(ctx context.Context) error {
	return e.store.Set(ctx, e.sess.Record())
}

func editCompleter() *readline.PrefixCompleter {
	names := []string{
		"help", "quit", "list", "shapes", "add", "circle", "line", "rigid",
		"lock", "delete", "rest", "rebuild", "hover", "press", "drag",
		"release", "tick", "pack", "url", "export", "svg", "save",
	}
	items := make([]readline.PrefixCompleterInterface, len(names))
	for i, n := range names {
		items[i] = readline.PcItem(n)
	}
	return readline.NewPrefixCompleter(items...)
}

// =============================================================================
// Argument parsing
// =============================================================================

func usage(form string) error {
	return pferrors.New(pferrors.ErrCodeInvalidInput, "usage: %s", form)
}

func number(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, pferrors.New(pferrors.ErrCodeInvalidInput, "not a number: %q", s)
	}
	return v, nil
}

func point(args []string) (float64, float64, error) {
	if len(args) < 2 {
		return 0, 0, usage("X Y")
	}
	x, err := number(args[0])
	if err != nil {
		return 0, 0, err
	}
	y, err := number(args[1])
	return x, y, err
}

func index(args []string, i int, what string) (int, error) {
	s := optional(args, i)
	if s == "" {
		return 0, pferrors.New(pferrors.ErrCodeInvalidInput, "missing %s id", what)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, pferrors.New(pferrors.ErrCodeInvalidInput, "bad %s id %q", what, s)
	}
	return v, nil
}

func endpoints(args []string) (int, int, error) {
	p1, err := index(args, 0, "pivot")
	if err != nil {
		return 0, 0, err
	}
	p2, err := index(args, 1, "pivot")
	return p1, p2, err
}

// toggle parses "ID [on|off]". Without a state the current flag is flipped.
func toggle(f *frame.Frame, args []string, flag string) (int, bool, error) {
	id, err := index(args, 0, "pivot")
	if err != nil {
		return 0, false, err
	}
	p, ok := f.Pivot(id)
	if !ok {
		return 0, false, pferrors.New(pferrors.ErrCodeInvalidInput, "no pivot %d", id)
	}
	switch optional(args, 1) {
	case "on", "true":
		return id, true, nil
	case "off", "false":
		return id, false, nil
	case "":
		if flag == "rigid" {
			return id, !p.Rigid, nil
		}
		return id, !p.Locked, nil
	}
	return 0, false, usage(flag + " ID [on|off]")
}

func optional(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func describeStats(st solver.Stats) string {
	return StyleDim.Render(fmt.Sprintf("(%s, %d aligned, %d relaxed)",
		plural(st.Ticks, "tick"), st.GroupsAligned, st.ShapesRelaxed))
}
