package cache

import (
	"context"
	"fmt"
	"strings"
)

// Open returns the cache named by url:
//
//	""                      file cache in dir (DefaultDir when dir is empty)
//	"none"                  no caching
//	"file:///path"          file cache at /path
//	"redis://host:6379/0"   Redis (also rediss://)
//	"mongodb://host/db"     MongoDB (also mongodb+srv://)
func Open(ctx context.Context, url, dir string) (Cache, error) {
	scheme, rest, _ := strings.Cut(url, "://")
	switch {
	case url == "":
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, fmt.Errorf("cache directory: %w", err)
			}
			dir = d
		}
		return fileCache(dir)
	case url == "none":
		return NewNullCache(), nil
	case scheme == "file" && rest != "":
		return fileCache(rest)
	case scheme == "redis" || scheme == "rediss":
		c, err := NewRedisCache(ctx, url)
		if err != nil {
			return nil, err
		}
		return c, nil
	case scheme == "mongodb" || scheme == "mongodb+srv":
		c, err := NewMongoCache(ctx, url)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, url)
}

func fileCache(dir string) (Cache, error) {
	c, err := NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return c, nil
}
