package pipeline

import (
	"fmt"

	"github.com/matzehuels/keyplate/pkg/cache"
	"github.com/matzehuels/keyplate/pkg/config"
)

// LoadConfig reads a keyboard description (.toml or .json).
func LoadConfig(path string) (config.Value, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return config.Value{}, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

// HashConfig returns the content hash used in cache keys. Maps hash in
// declaration order, which matters for layout.
func HashConfig(cfg config.Value) (string, error) {
	data, err := cfg.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("hash config: %w", err)
	}
	return cache.Hash(data), nil
}

// OutlineNames returns the outlines declared in cfg, in order.
func OutlineNames(cfg config.Value) []string {
	section, ok := cfg.Get("outlines")
	if !ok || !section.IsMap() {
		return nil
	}
	return section.Keys()
}
