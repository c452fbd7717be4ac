package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/keyplate/pkg/config"
	"github.com/matzehuels/keyplate/pkg/geom"
	"github.com/matzehuels/keyplate/pkg/observability"
	"github.com/matzehuels/keyplate/pkg/outline"
	"github.com/matzehuels/keyplate/pkg/points"
	"github.com/matzehuels/keyplate/pkg/units"
)

// Layout evaluates the units table and lays out the points of cfg.
func Layout(ctx context.Context, cfg config.Value) (*points.Table, *units.Table, error) {
	hooks := observability.Pipeline()
	hooks.OnPointsStart(ctx)
	start := time.Now()

	table, ev, err := layout(cfg)
	keys := 0
	if table != nil {
		keys = table.Len()
	}
	hooks.OnPointsComplete(ctx, keys, time.Since(start), err)
	return table, ev, err
}

func layout(cfg config.Value) (*points.Table, *units.Table, error) {
	ev, err := units.Parse(cfg)
	if err != nil {
		return nil, nil, err
	}
	table, err := points.Parse(cfg, ev)
	if err != nil {
		return nil, nil, err
	}
	return table, ev, nil
}

// BuildOutline builds one outline with b, reporting to the pipeline hooks.
func BuildOutline(ctx context.Context, b *outline.Builder, name string) (geom.Region, error) {
	hooks := observability.Pipeline()
	hooks.OnOutlineStart(ctx, name)
	start := time.Now()

	r, err := b.Build(name)
	hooks.OnOutlineComplete(ctx, name, len(r.Pos)+len(r.Neg), time.Since(start), err)
	return r, err
}
