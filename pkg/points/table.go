package points

import (
	"github.com/matzehuels/keyplate/pkg/errors"
	"github.com/matzehuels/keyplate/pkg/geom"
)

// Table is an insertion-ordered set of keys addressed by name.
type Table struct {
	keys  map[string]*Key
	order []string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{keys: make(map[string]*Key)}
}

// Add inserts a key. Names must be unique.
func (t *Table) Add(k *Key) error {
	if _, ok := t.keys[k.Name]; ok {
		return errors.New(errors.ErrCodeDuplicateKey, "key %q is defined more than once", k.Name)
	}
	t.keys[k.Name] = k
	t.order = append(t.order, k.Name)
	return nil
}

// Get returns the key with the given name.
func (t *Table) Get(name string) (*Key, bool) {
	k, ok := t.keys[name]
	return k, ok
}

// Point returns the placement of a key, which makes the table usable as an
// anchor lookup.
func (t *Table) Point(name string) (geom.Point, bool) {
	k, ok := t.keys[name]
	if !ok {
		return geom.Point{}, false
	}
	return k.Point, true
}

// Keys returns the keys in insertion order.
func (t *Table) Keys() []*Key {
	out := make([]*Key, len(t.order))
	for i, n := range t.order {
		out[i] = t.keys[n]
	}
	return out
}

// Names returns the key names in insertion order.
func (t *Table) Names() []string {
	return append([]string(nil), t.order...)
}

// Len returns the number of keys.
func (t *Table) Len() int { return len(t.order) }

// filter returns a table holding the keys for which keep is true.
func (t *Table) filter(keep func(*Key) bool) *Table {
	out := NewTable()
	for _, n := range t.order {
		if k := t.keys[n]; keep(k) {
			out.keys[n] = k
			out.order = append(out.order, n)
		}
	}
	return out
}
