package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	apperr "github.com/matzehuels/worldmap/pkg/errors"
	"github.com/matzehuels/worldmap/pkg/graph"
	"github.com/matzehuels/worldmap/pkg/store"
)

// overridesCommand creates the command group for stored layout documents.
func (c *CLI) overridesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "overrides",
		Aliases: []string{"ov"},
		Short:   "Manage stored locked positions",
		Long: `Manage the layout documents in the layout store. A document holds the
locked positions and dirty flags of one world; everything else is recomputed.`,
	}

	cmd.AddCommand(c.overridesListCommand())
	cmd.AddCommand(c.overridesShowCommand())
	cmd.AddCommand(c.overridesImportCommand())
	cmd.AddCommand(c.overridesExportCommand())
	cmd.AddCommand(c.overridesDeleteCommand())

	return cmd
}

// withStore opens the configured store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	st, err := c.newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func (c *CLI) overridesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List worlds with a stored layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				list, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(list) == 0 {
					printInfo("No stored layouts")
					return nil
				}
				fmt.Fprintln(uiOut, summaryTable(list))
				return nil
			})
		},
	}
}

// summaryTable renders store summaries as a bordered table.
func summaryTable(list []store.Summary) string {
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{s.World, strconv.Itoa(s.Locked), formatRelativeTime(s.UpdatedAt), s.ID})
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("World", "Locked", "Updated", "ID").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 1:
				return lipgloss.NewStyle().Foreground(colorCyan)
			case col >= 2:
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})
	return t.Render()
}

func (c *CLI) overridesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <world>",
		Short: "Print the locked positions of a world",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				doc, err := getDocument(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				printKeyValue("World", doc.World)
				printKeyValue("ID", doc.ID)
				if doc.Engine != "" {
					printKeyValue("Engine", doc.Engine)
				}
				printKeyValue("Updated", doc.UpdatedAt.Format(time.RFC3339))
				printKeyValue("Locked", strconv.Itoa(len(doc.Overrides)))
				if len(doc.Dirty) > 0 {
					printKeyValue("Dirty", strconv.Itoa(len(doc.Dirty)))
				}
				printLockedPositions(doc.Overrides, doc.Dirty)
				return nil
			})
		},
	}
}

func (c *CLI) overridesImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <world> <overrides.json>",
		Short: "Store locked positions from an overrides file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("read overrides %s: %w", path, err)
			}
			o, err := graph.ReadOverridesFile(path)
			if err != nil {
				return fmt.Errorf("read overrides %s: %w", path, err)
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				doc, err := getDocument(cmd.Context(), st, name)
				if apperr.Is(err, apperr.ErrCodeNotFound) {
					doc, err = store.NewDocument(name), nil
				}
				if err != nil {
					return err
				}
				doc.SetSnapshot(o.Snapshot())
				if err := st.Save(cmd.Context(), doc); err != nil {
					return err
				}
				printSuccess("Stored %d locked positions for %s", len(doc.Overrides), StyleHighlight.Render(name))
				return nil
			})
		},
	}
}

func (c *CLI) overridesExportCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <world>",
		Short: "Write the stored locked positions to an overrides file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				doc, err := getDocument(cmd.Context(), st, args[0])
				if err != nil {
					return err
				}
				o := graph.NewOverrides(doc.World, doc.Snapshot())
				o.UpdatedAt = doc.UpdatedAt
				if output == "" {
					return graph.WriteOverrides(o, uiOut)
				}
				if err := graph.WriteOverridesFile(o, output); err != nil {
					return err
				}
				printSuccess("Exported %d locked positions", len(doc.Overrides))
				printFile(output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func (c *CLI) overridesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <world>",
		Aliases: []string{"rm"},
		Short:   "Delete the stored layout of a world",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				err := st.Delete(cmd.Context(), args[0])
				if errors.Is(err, store.ErrNotFound) {
					printInfo("No stored layout for %s", args[0])
					return nil
				}
				if err != nil {
					return err
				}
				printSuccess("Deleted layout for %s", StyleHighlight.Render(args[0]))
				return nil
			})
		},
	}
}

// getDocument codes a missing document as NOT_FOUND.
func getDocument(ctx context.Context, st store.Store, name string) (*store.Document, error) {
	doc, err := st.Get(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Wrap(apperr.ErrCodeNotFound, err, "no stored layout for %q", name)
	}
	return doc, err
}

// formatRelativeTime renders t relative to now for recent times.
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	diff := time.Since(t)
	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
