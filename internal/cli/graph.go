package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/keyplate/pkg/errors"
	"github.com/matzehuels/keyplate/pkg/outline"
	"github.com/matzehuels/keyplate/pkg/pipeline"
	"github.com/matzehuels/keyplate/pkg/render/nodelink"
)

type graphOpts struct {
	output   string // output file, "-" for stdout
	dot      bool   // write DOT source instead of SVG
	detailed bool   // build every outline and label nodes with ring counts and sizes
}

func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph CONFIG",
		Short: "Draw which outlines use which",
		Long: `Draw the outline dependency graph of a keyboard description as SVG.

Each outline is a box with an arrow to every outline it refers to. Outlines
that are referenced but never declared are drawn dashed.`,
		ValidArgsFunction: completeConfig,
		Args:              cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: CONFIG name with .svg or .dot)")
	cmd.Flags().BoolVar(&opts.dot, "dot", false, "write Graphviz DOT instead of SVG")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label outlines with ring counts and sizes")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, input string, opts graphOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := pipeline.LoadConfig(input)
	if err != nil {
		return err
	}
	table, ev, err := pipeline.Layout(ctx, cfg)
	if err != nil {
		return err
	}
	b, err := outline.New(cfg, table, ev)
	if err != nil {
		return err
	}
	g, err := nodelink.FromSource(b)
	if err != nil {
		return err
	}

	if opts.detailed {
		for _, n := range g.Nodes() {
			if n.Missing {
				continue
			}
			r, err := pipeline.BuildOutline(ctx, b, n.ID)
			if err != nil {
				logger.Warn("outline failed", "outline", n.ID, "err", err)
				g.SetMeta(n.ID, "error", pipelineErrorLabel(err))
				continue
			}
			g.SetMeta(n.ID, "rings", len(r.Pos)+len(r.Neg))
			if !r.IsEmpty() {
				bb := r.BBox()
				g.SetMeta(n.ID, "size", fmt.Sprintf("%.1f x %.1f", bb.Width(), bb.Height()))
			}
		}
	}

	dot := nodelink.ToDOT(g, nodelink.Options{Detailed: opts.detailed})
	data := []byte(dot)
	ext := ".dot"
	if !opts.dot {
		if data, err = nodelink.RenderSVG(ctx, dot); err != nil {
			return err
		}
		ext = ".svg"
	}

	out := opts.output
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + ext
	}
	if out == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	if missing := countMissing(g); missing > 0 {
		printWarning("%s referenced but not declared", plural(missing, "outline"))
	}
	printSuccess("Drew %s", plural(len(g.Nodes()), "outline"))
	printFile(out)
	return nil
}

func countMissing(g *nodelink.Graph) int {
	n := 0
	for _, node := range g.Nodes() {
		if node.Missing {
			n++
		}
	}
	return n
}

// pipelineErrorLabel shortens an error for a node label.
func pipelineErrorLabel(err error) string {
	if code := errors.GetCode(err); code != "" {
		return string(code)
	}
	msg := err.Error()
	if len(msg) > 40 {
		msg = msg[:37] + "..."
	}
	return msg
}
