package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/keyplate/pkg/config"
	"github.com/matzehuels/keyplate/pkg/outline"
	"github.com/matzehuels/keyplate/pkg/pipeline"
)

// outlineOpts holds the command-line flags for the outline command.
type outlineOpts struct {
	dir       string   // output directory
	formats   []string // artifact formats: dxf, json
	linearEps float64  // coordinate rounding step, 0 keeps full precision
	pick      bool     // choose outlines interactively
	refresh   bool     // rebuild even when cached
	cache     cacheFlags
}

func (c *CLI) outlineCommand() *cobra.Command {
	var formatsStr string
	opts := outlineOpts{dir: "."}

	cmd := &cobra.Command{
		Use:   "outline CONFIG [NAME...]",
		Short: "Build outlines and write them as DXF",
		Long: `Build the named outlines of a keyboard description (all of them when no
name is given) and write one NAME.FORMAT file per outline and format.

Results are cached by configuration content, so rebuilding an unchanged
description is instant. Use --cache-url to share the cache through Redis or
MongoDB.`,
		ValidArgsFunction: completeConfigThenOutlines,
		Args:              cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runOutline(cmd.Context(), args[0], args[1:], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.dir, "output", "o", opts.dir, "output directory")
	cmd.Flags().StringVarP(&formatsStr, "formats", "f", "", "output format(s): dxf (default), json (comma-separated)")
	cmd.Flags().Float64Var(&opts.linearEps, "linear-eps", 0, "round exported coordinates to this step")
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "choose outlines interactively")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "rebuild even when the result is cached")
	opts.cache.register(cmd)

	return cmd
}

func (c *CLI) runOutline(ctx context.Context, input string, names []string, opts outlineOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := pipeline.LoadConfig(input)
	if err != nil {
		return err
	}

	if opts.pick {
		items, err := outlineItems(ctx, cfg)
		if err != nil {
			return err
		}
		if names, err = pickOutlines(items); err != nil {
			return err
		}
		if names == nil {
			printInfo("Nothing selected")
			return nil
		}
	}

	runner, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	var spin *Spinner
	if !c.verbose {
		spin = newSpinner(ctx, "Building outlines...")
		spin.Start()
	}
	prog := newProgress(logger)
	res, err := runner.Execute(ctx, cfg, pipeline.Options{
		Outlines:  names,
		Formats:   opts.formats,
		LinearEps: opts.linearEps,
		Refresh:   opts.refresh,
	})
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Built %s", plural(len(res.Outlines), "outline")), "config", res.ConfigHash[:12])

	if err := os.MkdirAll(opts.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	var written []string
	for _, name := range res.Outlines {
		for _, format := range opts.formats {
			artifact := pipeline.ArtifactName(name, format)
			path := filepath.Join(opts.dir, artifact)
			if err := os.WriteFile(path, res.Artifacts[artifact], 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			written = append(written, path)
		}
	}

	if len(res.Outlines) == 0 {
		printWarning("No outlines declared in %s", input)
		return nil
	}
	printSuccess("Wrote %s", plural(len(written), "file"))
	printStats(res.Stats.KeyCount, len(res.Outlines), res.Stats.RingCount, res.CacheInfo.AllHit)
	for _, p := range written {
		printFile(p)
	}
	printNextStep("See how outlines depend on each other", appName+" graph "+input)
	return nil
}

// outlineItems lists the declared outlines with the outlines they use.
func outlineItems(ctx context.Context, cfg config.Value) ([]OutlineItem, error) {
	table, ev, err := pipeline.Layout(ctx, cfg)
	if err != nil {
		return nil, err
	}
	b, err := outline.New(cfg, table, ev)
	if err != nil {
		return nil, err
	}
	var items []OutlineItem
	for _, name := range b.Names() {
		deps, err := b.Dependencies(name)
		if err != nil {
			return nil, err
		}
		items = append(items, OutlineItem{Name: name, Deps: deps})
	}
	return items, nil
}
