package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pivotframe/pkg/scene"
	"github.com/matzehuels/pivotframe/pkg/storage"
)

// libraryCommand creates the library management command.
func (c *CLI) libraryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "library",
		Aliases: []string{"lib"},
		Short:   "Save, list and load frames in the library",
		Long: `Manage the frame library.

The library lives in a local directory by default. Set storage.backend to
"mongo" in the config file to share it through MongoDB.`,
	}

	cmd.AddCommand(c.librarySaveCommand())
	cmd.AddCommand(c.libraryListCommand())
	cmd.AddCommand(c.libraryGetCommand())
	cmd.AddCommand(c.libraryDeleteCommand())

	return cmd
}

func (c *CLI) librarySaveCommand() *cobra.Command {
	var name, id string
	cmd := &cobra.Command{
		Use:   "save [input]",
		Short: "Save a frame to the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := c.readInput(args[0])
			if err != nil {
				return err
			}
			doc := scene.FromFrame(in.Frame, nameOr(name, in.Name))
			doc.ID = id
			return c.withLibrary(cmd.Context(), func(lib storage.Store) error {
				saved, err := lib.Save(cmd.Context(), doc)
				if err != nil {
					return err
				}
				c.ui().success("Saved %s", StyleValue.Render(saved.Name))
				c.ui().keyValue("ID", saved.ID)
				c.ui().nextStep("Render it", appName+" library get "+saved.ID+" -o "+saved.Name+".json")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "document name (default: input name)")
	cmd.Flags().StringVar(&id, "id", "", "replace the document with this ID")
	return cmd
}

func (c *CLI) libraryListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List library frames",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLibrary(cmd.Context(), func(lib storage.Store) error {
				summaries, err := lib.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(summaries) == 0 {
					c.ui().info("Library is empty")
					return nil
				}
				fmt.Fprintln(c.Out, summaryTable(summaries))
				return nil
			})
		},
	}
}

func (c *CLI) libraryGetCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Write a library frame as a scene document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLibrary(cmd.Context(), func(lib storage.Store) error {
				doc, err := lib.Get(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("get %s: %w", args[0], err)
				}
				if output == "" {
					data, err := scene.Marshal(doc, scene.FormatJSON)
					if err != nil {
						return err
					}
					_, err = c.Out.Write(data)
					return err
				}
				if err := scene.Save(output, doc); err != nil {
					return err
				}
				c.ui().success("Loaded %s", StyleValue.Render(doc.Name))
				c.ui().file(output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "scene file to write (.json or .toml)")
	return cmd
}

func (c *CLI) libraryDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete [id]",
		Aliases: []string{"rm"},
		Short:   "Delete a library frame",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLibrary(cmd.Context(), func(lib storage.Store) error {
				if err := lib.Delete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("delete %s: %w", args[0], err)
				}
				c.ui().success("Deleted %s", args[0])
				return nil
			})
		},
	}
}

// withLibrary opens the configured library, runs fn and closes it.
func (c *CLI) withLibrary(ctx context.Context, fn func(storage.Store) error) error {
	lib, err := c.openLibrary(ctx)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer func() {
		if err := lib.Close(context.WithoutCancel(ctx)); err != nil {
			c.Logger.Warn("close library", "error", err)
		}
	}()
	return fn(lib)
}

func summaryTable(summaries []storage.Summary) string {
	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{
			s.ID,
			s.Name,
			strconv.Itoa(s.Pivots),
			strconv.Itoa(s.Shapes),
			s.Updated.Local().Format("2006-01-02 15:04"),
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "NAME", "PIVOTS", "SHAPES", "UPDATED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if col == 0 {
				return StyleDim
			}
			return StyleValue
		}).
		Render()
}
