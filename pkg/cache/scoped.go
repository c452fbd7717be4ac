package cache

// ScopedKeyer prefixes every key of an inner keyer, so several projects or
// tool versions can share one Redis or Mongo cache without colliding.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "keyplate:v1:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer returns a keyer that prepends prefix. A nil inner keyer
// means the default one.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) OutlineKey(configHash string, opts OutlineKeyOpts) string {
	return k.prefix + k.inner.OutlineKey(configHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(source string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(source, opts)
}
