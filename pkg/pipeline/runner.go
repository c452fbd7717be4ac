package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/keyplate/pkg/cache"
	"github.com/matzehuels/keyplate/pkg/config"
	"github.com/matzehuels/keyplate/pkg/errors"
	"github.com/matzehuels/keyplate/pkg/geom"
	"github.com/matzehuels/keyplate/pkg/observability"
	"github.com/matzehuels/keyplate/pkg/outline"
)

// Cache key kinds reported to the cache hooks.
const keyTypeArtifact = "artifact"

// Runner executes the pipeline with caching.
//
// The Runner is stateless except for the cache and logger; it does not
// keep results between runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner returns a runner. A nil keyer means the default one, a nil
// cache disables caching and a nil logger means the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs points → outlines → export for cfg.
func (r *Runner) Execute(ctx context.Context, cfg config.Value, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	hash, err := HashConfig(cfg)
	if err != nil {
		return nil, err
	}
	result := &Result{
		RunID:      uuid.NewString(),
		ConfigHash: hash,
		Artifacts:  make(map[string][]byte),
	}
	logger := opts.Logger.With("run", result.RunID[:8])

	names := opts.Outlines
	if len(names) == 0 && !opts.PointsOnly {
		names = OutlineNames(cfg)
	}
	declared := map[string]bool{}
	for _, n := range OutlineNames(cfg) {
		declared[n] = true
	}
	for _, n := range names {
		if !declared[n] {
			return nil, errors.New(errors.ErrCodeUnknownOutline, "unknown outline %q", n)
		}
		if err := errors.ValidateOutlineName(n); err != nil {
			return nil, err
		}
	}
	result.Outlines = names

	// Serve everything from the cache when possible.
	if !opts.PointsOnly && len(names) > 0 && !opts.Refresh {
		if r.lookupAll(ctx, hash, names, opts, result) {
			result.CacheInfo.AllHit = true
			logger.Info("outlines served from cache", "outlines", len(names))
			return result, nil
		}
		clear(result.Artifacts)
		result.CacheInfo.Hits = 0
	}

	// Stage 1: Points
	pointsStart := time.Now()
	table, ev, err := Layout(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("points: %w", err)
	}
	result.Points = table
	result.Stats.KeyCount = table.Len()
	result.Stats.PointsTime = time.Since(pointsStart)
	logger.Info("laid out points", "keys", table.Len(), "duration", result.Stats.PointsTime)

	if opts.PointsOnly {
		return result, nil
	}

	// Stage 2: Outlines
	outlineStart := time.Now()
	b, err := outline.New(cfg, table, ev)
	if err != nil {
		return nil, fmt.Errorf("outlines: %w", err)
	}
	result.Regions = make(map[string]geom.Region, len(names))
	for _, name := range names {
		region, err := BuildOutline(ctx, b, name)
		if err != nil {
			return nil, fmt.Errorf("outline %s: %w", name, err)
		}
		result.Regions[name] = region
		result.Stats.RingCount += len(region.Pos) + len(region.Neg)
		logger.Debug("built outline", "outline", name, "size", describe(region))
	}
	result.Stats.OutlineTime = time.Since(outlineStart)
	logger.Info("built outlines", "outlines", len(names), "rings", result.Stats.RingCount, "duration", result.Stats.OutlineTime)

	// Stage 3: Export
	exportStart := time.Now()
	for _, name := range names {
		for _, format := range opts.Formats {
			data, err := Export(ctx, name, result.Regions[name], format, opts.LinearEps)
			if err != nil {
				return nil, fmt.Errorf("export %s: %w", ArtifactName(name, format), err)
			}
			result.Artifacts[ArtifactName(name, format)] = data
			result.CacheInfo.Misses++
			r.store(ctx, r.artifactKey(hash, name, format, opts), data)
		}
	}
	result.Stats.ExportTime = time.Since(exportStart)
	logger.Info("exported outlines", "formats", opts.Formats, "duration", result.Stats.ExportTime)

	return result, nil
}

// lookupAll fills result with cached artifacts and reports whether every
// one was found.
func (r *Runner) lookupAll(ctx context.Context, hash string, names []string, opts Options, result *Result) bool {
	hooks := observability.Cache()
	for _, name := range names {
		for _, format := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, r.artifactKey(hash, name, format, opts))
			if err != nil {
				r.Logger.Warn("cache lookup failed", "err", err)
			}
			if err != nil || !hit {
				hooks.OnCacheMiss(ctx, keyTypeArtifact)
				return false
			}
			hooks.OnCacheHit(ctx, keyTypeArtifact)
			result.Artifacts[ArtifactName(name, format)] = data
			result.CacheInfo.Hits++
		}
	}
	return true
}

func (r *Runner) store(ctx context.Context, key string, data []byte) {
	if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
		r.Logger.Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyTypeArtifact, len(data))
}

func (r *Runner) artifactKey(hash, name, format string, opts Options) string {
	source := r.Keyer.OutlineKey(hash, cache.OutlineKeyOpts{Name: name})
	return r.Keyer.ArtifactKey(source, opts.ArtifactKeyOpts(format))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
