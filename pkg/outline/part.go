package outline

import (
	"strconv"

	"github.com/matzehuels/keyplate/pkg/clip"
	"github.com/matzehuels/keyplate/pkg/config"
	"github.com/matzehuels/keyplate/pkg/errors"
	"github.com/matzehuels/keyplate/pkg/points"
)

type operation int

const (
	opAdd operation = iota
	opSubtract
	opIntersect
	opStack
)

var operations = map[string]operation{
	"add":       opAdd,
	"subtract":  opSubtract,
	"intersect": opIntersect,
	"stack":     opStack,
}

var prefixes = map[byte]operation{
	'+': opAdd,
	'-': opSubtract,
	'~': opIntersect,
	'^': opStack,
}

type kind int

const (
	kindRectangle kind = iota
	kindCircle
	kindPolygon
	kindHull
	kindPath
	kindOutline
)

var kinds = map[string]kind{
	"rectangle": kindRectangle,
	"circle":    kindCircle,
	"polygon":   kindPolygon,
	"hull":      kindHull,
	"path":      kindPath,
	"outline":   kindOutline,
}

func (k kind) String() string {
	for name, v := range kinds {
		if v == k {
			return name
		}
	}
	return "unknown"
}

type joints int

const (
	jointRound joints = iota
	jointPointy
	jointBeveled
)

func (j joints) String() string {
	switch j {
	case jointPointy:
		return "pointy"
	case jointBeveled:
		return "beveled"
	}
	return "round"
}

func (j joints) join() clip.Join {
	switch j {
	case jointPointy:
		return clip.Miter
	case jointBeveled:
		return clip.Bevel
	}
	return clip.Round
}

var commonFields = []string{"what", "where", "operation", "asym", "adjust", "scale", "expand", "joints", "fillet", "bound"}

var kindFields = map[kind][]string{
	kindRectangle: {"size", "corner", "bevel"},
	kindCircle:    {"radius"},
	kindPolygon:   {"points"},
	kindHull:      {"points", "concavity", "extend"},
	kindPath:      {"segments"},
	kindOutline:   {"name"},
}

// part is one entry of an outline body. Numeric post-processing fields are
// evaluated when the part is parsed; shape fields stay raw until the shape
// is generated.
type part struct {
	path string
	op   operation
	kind kind
	ref  string
	spec config.Value

	where  config.Value
	asym   points.Asym
	adjust config.Value
	bound  bool

	scale  float64
	expand float64
	joints joints
	fillet float64
}

// parseParts reads an outline body, which is a list of parts or a map whose
// values are parts.
func parseParts(name string, body config.Value) ([]*part, error) {
	var entries []config.Pair
	switch body.Kind() {
	case config.KindSeq:
		for i, v := range body.Items() {
			entries = append(entries, config.P(strconv.Itoa(i+1), v))
		}
	case config.KindMap:
		entries = body.Entries()
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "outline %q should be a list or map of parts, got %s", name, body.Kind())
	}

	out := make([]*part, 0, len(entries))
	for _, e := range entries {
		p, err := parsePart("outlines."+name+"."+e.Key, e.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func parsePart(path string, v config.Value) (*part, error) {
	if s, ok := v.AsString(); ok {
		p := &part{path: path, op: opAdd, kind: kindOutline, scale: 1, asym: points.AsymSource}
		if s != "" {
			if op, ok := prefixes[s[0]]; ok {
				p.op = op
				s = s[1:]
			}
		}
		if s == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s: empty outline reference", path)
		}
		p.ref = s
		return p, nil
	}
	if !v.IsMap() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s should be a string or map, got %s", path, v.Kind())
	}

	what, err := stringField(v, "what", path, "")
	if err != nil {
		return nil, err
	}
	if what == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s.what is required", path)
	}
	k, ok := kinds[what]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "%s.what: unknown shape %q", path, what)
	}
	if err := expectFields(v, path, commonFields, kindFields[k]); err != nil {
		return nil, err
	}

	p := &part{path: path, kind: k, spec: v, scale: 1}
	opName, err := stringField(v, "operation", path, "add")
	if err != nil {
		return nil, err
	}
	if p.op, ok = operations[opName]; !ok {
		return nil, errors.New(errors.ErrCodeInvalidString, "%s.operation should be add, subtract, intersect or stack, got %q", path, opName)
	}

	p.where, _ = v.Get("where")
	p.adjust, _ = v.Get("adjust")
	p.asym = points.AsymSource
	if a, ok := v.Get("asym"); ok && !a.IsNull() {
		if p.asym, err = points.ParseAsym(a, path+".asym"); err != nil {
			return nil, err
		}
	}
	if p.bound, err = boolField(v, "bound", path, false); err != nil {
		return nil, err
	}

	jointName, err := stringField(v, "joints", path, "round")
	if err != nil {
		return nil, err
	}
	switch jointName {
	case "round":
		p.joints = jointRound
	case "pointy":
		p.joints = jointPointy
	case "beveled":
		p.joints = jointBeveled
	default:
		return nil, errors.New(errors.ErrCodeInvalidString, "%s.joints should be round, pointy or beveled, got %q", path, jointName)
	}

	if k == kindOutline {
		if p.ref, err = stringField(v, "name", path, ""); err != nil {
			return nil, err
		}
		if p.ref == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s.name is required", path)
		}
	}
	return p, nil
}

// evalPost evaluates the scale, expand and fillet fields of a map part.
func (p *part) evalPost(b *Builder) error {
	if !p.spec.IsMap() {
		return nil
	}
	var err error
	if p.scale, err = numberField(b.ev, p.spec, "scale", p.path, 1); err != nil {
		return err
	}
	if p.expand, err = numberField(b.ev, p.spec, "expand", p.path, 0); err != nil {
		return err
	}
	if p.fillet, err = numberField(b.ev, p.spec, "fillet", p.path, 0); err != nil {
		return err
	}
	return nil
}

func expectFields(v config.Value, path string, sets ...[]string) error {
	allowed := map[string]bool{}
	for _, set := range sets {
		for _, f := range set {
			allowed[f] = true
		}
	}
	for _, k := range v.Keys() {
		if !allowed[k] {
			return errors.New(errors.ErrCodeInvalidInput, "unexpected key %q in %s", k, path)
		}
	}
	return nil
}
