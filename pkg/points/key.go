package points

import (
	"github.com/matzehuels/keyplate/pkg/config"
	"github.com/matzehuels/keyplate/pkg/errors"
	"github.com/matzehuels/keyplate/pkg/geom"
	"github.com/matzehuels/keyplate/pkg/units"
)

// Asym controls which side of a mirror a key appears on.
type Asym int

const (
	// AsymBoth keeps the key and its mirror image.
	AsymBoth Asym = iota
	// AsymSource keeps only the original key.
	AsymSource
	// AsymClone keeps only the mirror image.
	AsymClone
)

func (a Asym) String() string {
	switch a {
	case AsymSource:
		return "source"
	case AsymClone:
		return "clone"
	}
	return "both"
}

// ParseAsym reads an asym value. "left" and "right" are accepted as aliases
// for source and clone.
func ParseAsym(v config.Value, name string) (Asym, error) {
	s, err := units.String(v, name)
	if err != nil {
		return 0, err
	}
	switch s {
	case "both":
		return AsymBoth, nil
	case "source", "left":
		return AsymSource, nil
	case "clone", "right":
		return AsymClone, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidString, "field %q should be one of both, source or clone, got %q", name, s)
}

// Zone identifies the zone a key was laid out in.
type Zone struct {
	Name    string
	Columns []string
}

// Bind indexes.
const (
	Top = iota
	Right
	Bottom
	Left
)

// Unbound marks a bind direction that autobind may fill.
const Unbound = -1

// Key is a placed point together with the attributes it was laid out with.
type Key struct {
	geom.Point

	Name   string
	ColRow string
	Zone   Zone
	Col    string
	Row    string

	Stagger float64
	Spread  float64
	Splay   float64
	Origin  geom.Vec
	Orient  float64
	Shift   geom.Vec
	Rotate  float64
	Adjust  config.Value

	Width    float64
	Height   float64
	Padding  float64
	Autobind float64
	Bind     [4]float64
	Skip     bool
	Asym     Asym
	Tags     []string

	// Mirror holds overrides applied to the mirrored copy of this key.
	Mirror config.Value
	// Meta is the fully merged attribute map the key was decoded from.
	Meta config.Value

	visited bool
}

// Clone returns a copy that shares no slices with k.
func (k *Key) Clone() *Key {
	out := *k
	out.Tags = append([]string(nil), k.Tags...)
	out.Zone.Columns = append([]string(nil), k.Zone.Columns...)
	return &out
}

// HasTag reports whether the key carries tag.
func (k *Key) HasTag(tag string) bool {
	for _, t := range k.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// defaultKey is the lowest level of the attribute chain. Numeric defaults
// are unit names so that config-level unit overrides reach them.
func defaultKey() config.Value {
	return config.MapOf(
		config.P("stagger", config.String(units.DefaultStagger)),
		config.P("spread", config.String(units.DefaultSpread)),
		config.P("splay", config.String(units.DefaultSplay)),
		config.P("origin", config.Numbers(0, 0)),
		config.P("orient", config.Number(0)),
		config.P("shift", config.Numbers(0, 0)),
		config.P("rotate", config.Number(0)),
		config.P("adjust", config.EmptyMap()),
		config.P("width", config.String(units.DefaultWidth)),
		config.P("height", config.String(units.DefaultHeight)),
		config.P("padding", config.String(units.DefaultPadding)),
		config.P("autobind", config.String(units.DefaultAutobind)),
		config.P("skip", config.Bool(false)),
		config.P("asym", config.String("both")),
		config.P("colrow", config.String("{{col.name}}_{{row}}")),
		config.P("name", config.String("{{zone.name}}_{{colrow}}")),
	)
}

// numericFields are decoded through the units evaluator and never templated.
var numericFields = map[string]bool{
	"stagger": true, "spread": true, "splay": true, "orient": true,
	"rotate": true, "width": true, "height": true, "padding": true,
	"autobind": true,
}

// decode fills the typed attributes of k from its merged map.
func (k *Key) decode(ev units.Evaluator, m config.Value) error {
	name := k.Name
	num := func(field string, dst *float64) error {
		v, _ := m.Get(field)
		n, err := units.Number(ev, v, name+"."+field)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
	for _, f := range []struct {
		field string
		dst   *float64
	}{
		{"stagger", &k.Stagger}, {"spread", &k.Spread}, {"splay", &k.Splay},
		{"orient", &k.Orient}, {"rotate", &k.Rotate}, {"width", &k.Width},
		{"height", &k.Height}, {"padding", &k.Padding}, {"autobind", &k.Autobind},
	} {
		if err := num(f.field, f.dst); err != nil {
			return err
		}
	}

	xy := func(field string) (geom.Vec, error) {
		v, _ := m.Get(field)
		p, err := units.XY(ev, v, name+"."+field)
		return geom.V(p[0], p[1]), err
	}
	var err error
	if k.Origin, err = xy("origin"); err != nil {
		return err
	}
	if k.Shift, err = xy("shift"); err != nil {
		return err
	}

	skip, _ := m.Get("skip")
	if k.Skip, err = units.Bool(skip, name+".skip"); err != nil {
		return err
	}
	asym, _ := m.Get("asym")
	if k.Asym, err = ParseAsym(asym, name+".asym"); err != nil {
		return err
	}
	bind, _ := m.Get("bind")
	if k.Bind, err = units.TRBL(ev, bind, name+".bind", Unbound); err != nil {
		return err
	}
	tags, _ := m.Get("tags")
	if k.Tags, err = parseTags(tags, name+".tags"); err != nil {
		return err
	}
	k.Adjust, _ = m.Get("adjust")
	k.Mirror, _ = m.Get("mirror")
	k.Meta = m
	return nil
}

func parseTags(v config.Value, name string) ([]string, error) {
	switch v.Kind() {
	case config.KindNull:
		return nil, nil
	case config.KindString:
		s, _ := v.AsString()
		return []string{s}, nil
	case config.KindSeq:
		out := make([]string, 0, v.Len())
		for _, item := range v.Items() {
			s, err := units.String(item, name)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidString, "field %q should be a string or a list of strings, got %s", name, v.Kind())
}
