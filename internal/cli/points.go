package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/keyplate/pkg/pipeline"
	"github.com/matzehuels/keyplate/pkg/points"
)

type pointsOpts struct {
	output string // JSON file, "-" for stdout
	json   bool
}

func (c *CLI) pointsCommand() *cobra.Command {
	var opts pointsOpts

	cmd := &cobra.Command{
		Use:   "points CONFIG",
		Short: "Lay out the keys of a keyboard description",
		Long: `Lay out the keys of a keyboard description and print them as a table.

With --json or --output the points are written as JSON in layout order,
for use by other tools.`,
		ValidArgsFunction: completeConfig,
		Args:              cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPoints(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write points JSON to file")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print points JSON instead of a table")

	return cmd
}

func (c *CLI) runPoints(ctx context.Context, w io.Writer, input string, opts pointsOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := pipeline.LoadConfig(input)
	if err != nil {
		return err
	}
	res, err := pipeline.NewRunner(nil, nil, logger).Execute(ctx, cfg, pipeline.Options{PointsOnly: true})
	if err != nil {
		return err
	}

	switch {
	case opts.output != "":
		if err := writeFileWith(opts.output, func(f io.Writer) error { return points.WriteJSON(f, res.Points) }); err != nil {
			return err
		}
		printSuccess("Laid out %s", plural(res.Points.Len(), "key"))
		printFile(opts.output)
	case opts.json:
		return points.WriteJSON(w, res.Points)
	default:
		fmt.Fprintln(w, pointsTable(res.Points))
		printStats(res.Points.Len(), 0, 0, false)
	}
	return nil
}

// pointsTable renders the keys with their placement and grid position.
func pointsTable(t *points.Table) string {
	var rows [][]string
	for _, k := range t.Keys() {
		name := k.Name
		if k.Mirrored {
			name += " ⇋"
		}
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%.2f", k.X),
			fmt.Sprintf("%.2f", k.Y),
			fmt.Sprintf("%.1f", k.R),
			k.Zone.Name,
			k.Col,
			k.Row,
			strings.Join(k.Tags, ","),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Key", "X", "Y", "R", "Zone", "Col", "Row", "Tags").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader
			case col >= 1 && col <= 3:
				return StyleNumber
			case col >= 4:
				return StyleDim
			}
			return StyleValue
		}).
		Render()
}

// writeFileWith creates path ("-" meaning stdout) and fills it with write.
func writeFileWith(path string, write func(io.Writer) error) (err error) {
	if path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
