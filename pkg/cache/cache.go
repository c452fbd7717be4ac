// Package cache stores pipeline results between runs.
//
// Three backends implement [Cache]: a [FileCache] under the user's cache
// directory for local use, a [RedisCache] and a [MongoCache] for caches
// shared between machines. [Open] picks one from a URL. A [NullCache]
// disables caching.
//
// Keys come from a [Keyer], so what identifies a cached value lives in one
// place:
//
//	k := cache.NewDefaultKeyer()
//	key := k.OutlineKey(cache.Hash(config), cache.OutlineKeyOpts{Name: "plate"})
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/keyplate/pkg/buildinfo"
)

// Default time-to-live per kind of cached value.
const (
	TTLArtifact = 30 * 24 * time.Hour
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases connections held by the cache.
	Close() error
}

// OutlineKeyOpts are the settings that change a built outline region.
type OutlineKeyOpts struct {
	Name string `json:"name"`
}

// ArtifactKeyOpts are the settings that change an exported artifact.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	LinearEps float64 `json:"linear_eps,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// OutlineKey identifies one built outline.
	OutlineKey(configHash string, opts OutlineKeyOpts) string
	// ArtifactKey identifies an artifact exported from the value another key
	// names, usually an outline key.
	ArtifactKey(source string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the inputs of each key into a fixed-length suffix.
// Version is mixed into every key so that a new build never reads
// geometry cached by an older one.
type DefaultKeyer struct {
	Version string
}

// NewDefaultKeyer returns the default keyer for the running build.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{Version: buildinfo.Resolve().Key()}
}

func (k DefaultKeyer) OutlineKey(configHash string, opts OutlineKeyOpts) string {
	return hashKey("outline", k.Version, configHash, opts)
}

func (k DefaultKeyer) ArtifactKey(source string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", k.Version, source, opts)
}

var _ Keyer = DefaultKeyer{}
