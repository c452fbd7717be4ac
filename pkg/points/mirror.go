package points

import (
	"math"

	"github.com/matzehuels/keyplate/pkg/anchor"
	"github.com/matzehuels/keyplate/pkg/config"
	"github.com/matzehuels/keyplate/pkg/geom"
	"github.com/matzehuels/keyplate/pkg/units"
)

// parseAxis reads a mirror specification. A number is the X coordinate of
// the axis; a map is an anchor whose X, plus half of its optional
// "distance", is the axis.
func parseAxis(v config.Value, name string, table *Table, ev units.Evaluator) (float64, error) {
	if !v.IsMap() {
		return units.Number(ev, v, name)
	}
	distance := 0.0
	if d, ok := v.Get("distance"); ok && !d.IsNull() {
		n, err := units.Number(ev, d, name+".distance")
		if err != nil {
			return 0, err
		}
		distance = n
	}
	p, err := anchor.Resolve(v.Without("distance"), name, table, geom.Point{}, false, ev)
	if err != nil {
		return 0, err
	}
	return p.X + distance/2, nil
}

// mirrorKeys mirrors keys across axis and adds the copies to table.
func mirrorKeys(table *Table, keys []*Key, axis float64, ev units.Evaluator) error {
	for _, k := range keys {
		m, err := mirrorKey(k, axis, ev)
		if err != nil {
			return err
		}
		if m == nil {
			continue
		}
		if err := table.Add(m); err != nil {
			return err
		}
	}
	return nil
}

// mirrorKey marks k as visited and returns its mirror image, or nil when k
// stays on its own side. Cloning-only keys are marked to be skipped.
func mirrorKey(k *Key, axis float64, ev units.Evaluator) (*Key, error) {
	k.visited = true
	if k.Asym == AsymSource {
		return nil, nil
	}

	m := k.Clone()
	m.Point = k.Point.Mirror(axis)
	m.Name = anchor.MirrorPrefix + k.Name
	m.ColRow = anchor.MirrorPrefix + k.ColRow
	m.Bind[Right], m.Bind[Left] = k.Bind[Left], k.Bind[Right]

	if k.Mirror.IsMap() && k.Mirror.Len() > 0 {
		over := config.Extend(k.Meta, k.Mirror)
		decoded := &Key{Name: m.Name}
		if err := decoded.decode(ev, over); err != nil {
			return nil, err
		}
		m.Width, m.Height = decoded.Width, decoded.Height
		m.Padding, m.Autobind = decoded.Padding, decoded.Autobind
		m.Skip, m.Tags = decoded.Skip, decoded.Tags
		m.Meta = decoded.Meta
		if k.Mirror.Has("bind") {
			m.Bind = decoded.Bind
		}
	}

	if k.Asym == AsymClone {
		k.Skip = true
	}
	return m, nil
}

// autobind fills the unset bind directions of every key from the extent of
// its own and the neighbouring columns. Mirrored keys are bounded against
// the mirrored columns; their left and right neighbours are swapped since
// mirroring reverses the column order on the page.
func autobind(t *Table) {
	type span struct{ min, max float64 }
	bounds := map[string]map[string]span{}
	side := func(k *Key) string {
		if k.Mirrored {
			return anchor.MirrorPrefix + k.Zone.Name
		}
		return k.Zone.Name
	}

	for _, k := range t.Keys() {
		z := side(k)
		if bounds[z] == nil {
			bounds[z] = map[string]span{}
		}
		s, ok := bounds[z][k.Col]
		if !ok {
			s = span{math.Inf(1), math.Inf(-1)}
		}
		s.min = math.Min(s.min, k.Y)
		s.max = math.Max(s.max, k.Y)
		bounds[z][k.Col] = s
	}

	within := func(z, col string, y float64) bool {
		s, ok := bounds[z][col]
		return ok && y >= s.min && y <= s.max
	}

	for _, k := range t.Keys() {
		if k.Autobind == 0 {
			continue
		}
		z := side(k)
		own := bounds[z][k.Col]

		prev, next := "", ""
		for i, c := range k.Zone.Columns {
			if c != k.Col {
				continue
			}
			if i > 0 {
				prev = k.Zone.Columns[i-1]
			}
			if i+1 < len(k.Zone.Columns) {
				next = k.Zone.Columns[i+1]
			}
			break
		}
		if k.Mirrored {
			prev, next = next, prev
		}

		reach := func(cond bool) float64 {
			if cond {
				return k.Autobind
			}
			return 0
		}
		if k.Bind[Top] == Unbound {
			k.Bind[Top] = reach(k.Y < own.max)
		}
		if k.Bind[Bottom] == Unbound {
			k.Bind[Bottom] = reach(k.Y > own.min)
		}
		if k.Bind[Left] == Unbound {
			k.Bind[Left] = reach(prev != "" && within(z, prev, k.Y))
		}
		if k.Bind[Right] == Unbound {
			k.Bind[Right] = reach(next != "" && within(z, next, k.Y))
		}
	}
}

func bindOrZero(b float64) float64 {
	if b == Unbound {
		return 0
	}
	return b
}

// EffectiveBind returns the bind reach of k with unset directions as zero.
func (k *Key) EffectiveBind() [4]float64 {
	var out [4]float64
	for i, b := range k.Bind {
		out[i] = bindOrZero(b)
	}
	return out
}
