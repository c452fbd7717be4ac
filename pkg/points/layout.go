// Package points lays out named key positions from a keyboard description.
//
// A description is a set of zones, laid out in declaration order. Each zone
// is a grid of columns and rows placed from the zone's anchor: columns
// advance along X by their spread and along Y by their stagger, splay turns
// every following column around an origin, and rows stack along each
// column's local Y axis by padding. Key attributes merge through five
// levels (global key, zone key, column key, zone row, column row) over the
// built-in defaults.
//
// After each zone is placed it may be mirrored; once all zones are done the
// whole layout is rotated, mirrored globally, stripped of skipped keys, and
// autobound so every key knows how far its outline should reach toward its
// neighbours.
package points

import (
	"strings"

	"github.com/matzehuels/keyplate/pkg/anchor"
	"github.com/matzehuels/keyplate/pkg/config"
	"github.com/matzehuels/keyplate/pkg/errors"
	"github.com/matzehuels/keyplate/pkg/geom"
	"github.com/matzehuels/keyplate/pkg/units"
)

var (
	pointsFields = []string{"zones", "key", "rotate", "mirror"}
	zoneFields   = []string{"anchor", "columns", "rows", "key", "rotate", "mirror"}
	columnFields = []string{"rows", "key"}
)

// Parse lays out the "points" section of cfg.
func Parse(cfg config.Value, ev units.Evaluator) (*Table, error) {
	section, ok := cfg.Get("points")
	if !ok || section.IsNull() {
		return nil, errors.New(errors.ErrCodeMissingPoints, "no points section in config")
	}
	if err := expectMap(section, "points", pointsFields); err != nil {
		return nil, err
	}
	zones, _ := section.Get("zones")
	if !zones.IsMap() {
		return nil, errors.New(errors.ErrCodeZonesNotMap, "points.zones should be a map, got %s", zones.Kind())
	}
	globalKey, err := optionalMap(section, "key", "points.key")
	if err != nil {
		return nil, err
	}
	globalRotate, err := optionalNumber(ev, section, "rotate", "points.rotate")
	if err != nil {
		return nil, err
	}

	table := NewTable()
	for _, z := range zones.Entries() {
		if err := layoutZone(table, z.Key, z.Value, globalKey, ev); err != nil {
			return nil, err
		}
	}

	for _, k := range table.Keys() {
		k.Point = k.Point.Rotate(globalRotate, geom.Vec{}, true)
	}

	if m, _ := section.Get("mirror"); !m.IsNull() {
		axis, err := parseAxis(m, "points.mirror", table, ev)
		if err != nil {
			return nil, err
		}
		var pending []*Key
		for _, k := range table.Keys() {
			if !k.visited {
				pending = append(pending, k)
			}
		}
		if err := mirrorKeys(table, pending, axis, ev); err != nil {
			return nil, err
		}
	}

	table = table.filter(func(k *Key) bool { return !k.Skip })
	autobind(table)
	return table, nil
}

func layoutZone(table *Table, name string, zone, globalKey config.Value, ev units.Evaluator) error {
	path := "points.zones." + name
	if zone.IsNull() {
		zone = config.EmptyMap()
	}
	if err := expectMap(zone, path, zoneFields); err != nil {
		return err
	}

	anchorSpec, _ := zone.Get("anchor")
	start, err := anchor.Resolve(anchorSpec, path+".anchor", table, geom.Point{}, false, ev)
	if err != nil {
		return err
	}
	rotate, err := optionalNumber(ev, zone, "rotate", path+".rotate")
	if err != nil {
		return err
	}

	keys, err := renderZone(name, zone, start, globalKey, ev)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if rotate != 0 {
			k.Point = k.Point.Rotate(rotate, geom.Vec{}, false)
		}
		if err := table.Add(k); err != nil {
			return err
		}
	}

	if m, _ := zone.Get("mirror"); !m.IsNull() {
		axis, err := parseAxis(m, path+".mirror", table, ev)
		if err != nil {
			return err
		}
		return mirrorKeys(table, keys, axis, ev)
	}
	return nil
}

// renderZone places the keys of one zone relative to its anchor.
func renderZone(zoneName string, zone config.Value, zoneAnchor geom.Point, globalKey config.Value, ev units.Evaluator) ([]*Key, error) {
	path := "points.zones." + zoneName
	cols, err := optionalMap(zone, "columns", path+".columns")
	if err != nil {
		return nil, err
	}
	if cols.Len() == 0 {
		cols = config.MapOf(config.P("default", config.EmptyMap()))
	}
	zoneRows, err := rowMaps(zone, path)
	if err != nil {
		return nil, err
	}
	zoneKey, err := optionalMap(zone, "key", path+".key")
	if err != nil {
		return nil, err
	}
	info := Zone{Name: zoneName, Columns: cols.Keys()}
	zoneValue := config.MapOf(
		config.P("name", config.String(zoneName)),
		config.P("columns", config.Seq(stringValues(info.Columns)...)),
	)

	var frames geom.Frames
	frames = frames.Push(zoneAnchor.R, zoneAnchor.Pos())
	zoneAnchor.R = 0

	var out []*Key
	for ci, c := range cols.Entries() {
		colPath := path + ".columns." + c.Key
		col := c.Value
		if col.IsNull() {
			col = config.EmptyMap()
		}
		if err := expectMap(col, colPath, columnFields); err != nil {
			return nil, err
		}
		colRows, err := rowMaps(col, colPath)
		if err != nil {
			return nil, err
		}
		colKey, err := optionalMap(col, "key", colPath+".key")
		if err != nil {
			return nil, err
		}

		rows := config.Extend(zoneRows, colRows).Keys()
		if len(rows) == 0 {
			rows = []string{"default"}
		}

		keys := make([]*Key, 0, len(rows))
		for _, row := range rows {
			zr, _ := zoneRows.Get(row)
			cr, _ := colRows.Get(row)
			merged := config.Extend(defaultKey(), globalKey, zoneKey, colKey, zr, cr)
			merged = merged.
				With("zone", zoneValue).
				With("col", config.MapOf(config.P("name", config.String(c.Key)))).
				With("row", config.String(row))
			merged = expandTemplates(merged)

			name, _ := merged.Get("name")
			colrow, _ := merged.Get("colrow")
			k := &Key{Zone: info, Col: c.Key, Row: row}
			if k.Name, err = units.String(name, colPath+".name"); err != nil {
				return nil, err
			}
			if k.ColRow, err = units.String(colrow, colPath+".colrow"); err != nil {
				return nil, err
			}
			k.Name = stripDefault(k.Name)
			k.ColRow = stripDefault(k.ColRow)
			if err := k.decode(ev, merged); err != nil {
				return nil, err
			}
			keys = append(keys, k)
		}

		if ci > 0 {
			zoneAnchor.X += keys[0].Spread
		}
		zoneAnchor.Y += keys[0].Stagger
		colAnchor := zoneAnchor
		if keys[0].Splay != 0 {
			frames = frames.Push(keys[0].Splay, colAnchor.Shift(keys[0].Origin, false, false).Pos())
		}

		running := frames.Apply(colAnchor)
		for _, k := range keys {
			p := running
			p.R += k.Orient
			p = p.Shift(k.Shift, true, false)
			p.R += k.Rotate
			running = p

			adjusted, err := anchor.Resolve(k.Adjust, k.Name+".adjust", nil, p, false, ev)
			if err != nil {
				return nil, err
			}
			k.Point = adjusted
			out = append(out, k)

			running = running.Shift(geom.V(0, k.Padding), true, false)
		}
	}
	return out, nil
}

// stripDefault removes trailing "_default" segments, so a zone with a
// single implicit column and row is named after the zone alone.
func stripDefault(name string) string {
	for {
		s, ok := strings.CutSuffix(name, "_default")
		if !ok {
			return name
		}
		name = s
	}
}

// rowMaps returns the rows map of a zone or column with null rows replaced
// by empty maps.
func rowMaps(v config.Value, path string) (config.Value, error) {
	rows, err := optionalMap(v, "rows", path+".rows")
	if err != nil {
		return config.Value{}, err
	}
	out := config.EmptyMap()
	for _, r := range rows.Entries() {
		switch {
		case r.Value.IsNull():
			out = out.With(r.Key, config.EmptyMap())
		case r.Value.IsMap():
			out = out.With(r.Key, r.Value)
		default:
			return config.Value{}, errors.New(errors.ErrCodeInvalidInput, "%s.rows.%s should be a map, got %s", path, r.Key, r.Value.Kind())
		}
	}
	return out, nil
}

func expectMap(v config.Value, path string, allowed []string) error {
	if !v.IsMap() {
		return errors.New(errors.ErrCodeInvalidInput, "%s should be a map, got %s", path, v.Kind())
	}
	for _, k := range v.Keys() {
		ok := false
		for _, a := range allowed {
			if k == a {
				ok = true
				break
			}
		}
		if !ok {
			return errors.New(errors.ErrCodeInvalidInput, "unexpected key %q in %s", k, path)
		}
	}
	return nil
}

func optionalMap(v config.Value, key, path string) (config.Value, error) {
	m, ok := v.Get(key)
	if !ok || m.IsNull() {
		return config.EmptyMap(), nil
	}
	if !m.IsMap() {
		return config.Value{}, errors.New(errors.ErrCodeInvalidInput, "%s should be a map, got %s", path, m.Kind())
	}
	return m, nil
}

func optionalNumber(ev units.Evaluator, v config.Value, key, path string) (float64, error) {
	n, ok := v.Get(key)
	if !ok || n.IsNull() {
		return 0, nil
	}
	return units.Number(ev, n, path)
}

func stringValues(ss []string) []config.Value {
	out := make([]config.Value, len(ss))
	for i, s := range ss {
		out[i] = config.String(s)
	}
	return out
}
