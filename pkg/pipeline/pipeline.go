// Package pipeline runs the keyplate pipeline: load a keyboard description,
// lay out its points, build its outlines and export them.
//
// The CLI and tests share this package so caching, logging and defaults
// behave the same wherever the pipeline runs.
//
// # Architecture
//
// The pipeline has three stages:
//
//  1. Points: evaluate units and lay out zones into a point table
//  2. Outlines: build each requested outline into a region
//  3. Export: serialize regions as DXF (and optionally JSON)
//
// Exported artifacts are cached under keys derived from the configuration
// hash, the outline name and the export options. When every requested
// artifact is cached, the geometry stages are skipped.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	cfg, _ := pipeline.LoadConfig("board.toml")
//	result, err := runner.Execute(ctx, cfg, pipeline.Options{Outlines: []string{"plate"}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	dxf := result.Artifacts[pipeline.ArtifactName("plate", pipeline.FormatDXF)]
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/keyplate/pkg/cache"
	"github.com/matzehuels/keyplate/pkg/errors"
	"github.com/matzehuels/keyplate/pkg/geom"
	"github.com/matzehuels/keyplate/pkg/points"
)

// =============================================================================
// Default Values
// =============================================================================

// Format constants for exported artifacts.
const (
	FormatDXF  = "dxf"
	FormatJSON = "json"
)

// DefaultLinearEps is the grid DXF coordinates are rounded to on export.
// Zero disables rounding.
const DefaultLinearEps = 0.0

// ValidFormats is the set of supported export formats.
var ValidFormats = map[string]bool{
	FormatDXF:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	// Outlines to build and export. Empty means every outline.
	Outlines []string `json:"outlines,omitempty"`

	// Formats to export each outline in. Defaults to DXF.
	Formats []string `json:"formats,omitempty"`

	// LinearEps rounds exported coordinates to a grid when positive.
	LinearEps float64 `json:"linear_eps,omitempty"`

	// PointsOnly stops after the points stage.
	PointsOnly bool `json:"points_only,omitempty"`

	// Refresh ignores cached artifacts and overwrites them.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool `json:"-"`
}

// Result holds the outputs of a pipeline run. Points and Regions are nil
// when every artifact came from the cache.
type Result struct {
	// RunID identifies the run in logs.
	RunID string

	// ConfigHash is the content hash of the configuration.
	ConfigHash string

	// Points is the laid out point table.
	Points *points.Table

	// Regions holds each built outline by name.
	Regions map[string]geom.Region

	// Outlines lists the exported outline names in order.
	Outlines []string

	// Artifacts holds exported files keyed by ArtifactName.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which artifacts came from the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	KeyCount    int
	RingCount   int
	PointsTime  time.Duration
	OutlineTime time.Duration
	ExportTime  time.Duration
}

// CacheInfo tracks cache use for a run.
type CacheInfo struct {
	Hits   int  // Artifacts served from the cache
	Misses int  // Artifacts computed
	AllHit bool // Whether the geometry stages were skipped
}

// ArtifactName returns the key of an artifact in Result.Artifacts, which is
// also its file name.
func ArtifactName(outline, format string) string {
	return outline + "." + format
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: dxf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatDXF}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.LinearEps < 0 {
		return fmt.Errorf("linear_eps must not be negative, got %v", o.LinearEps)
	}
	if o.LinearEps > 0 {
		if err := errors.ValidateEpsilon("linear_eps", o.LinearEps); err != nil {
			return err
		}
	}
	seen := map[string]bool{}
	for _, name := range o.Outlines {
		if err := errors.ValidateOutlineName(name); err != nil {
			return err
		}
		if seen[name] {
			return fmt.Errorf("outline %q requested twice", name)
		}
		seen[name] = true
	}
	o.Formats = slices.Compact(slices.Sorted(slices.Values(o.Formats)))
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ArtifactKeyOpts returns cache key options for one export format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format, LinearEps: o.LinearEps}
}
