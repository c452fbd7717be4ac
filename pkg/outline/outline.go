// Package outline builds filled 2D regions from a keyboard description.
//
// An outline is an ordered list of parts. Each part generates a shape
// (rectangle, circle, polygon, hull, path or a reference to another
// outline) at every placement selected by its "where" filter, optionally
// scales, expands and fillets the result, and combines it with the parts
// before it:
//
//	outlines:
//	  plate:
//	    - what: rectangle
//	      where: true
//	      size: [18, 17]
//	      bound: true
//	    - what: circle
//	      where: /thumb/
//	      radius: 3
//	      operation: subtract
//
// A part may also be a bare outline name, prefixed with + (add), - (subtract),
// ~ (intersect) or ^ (stack). Stacked parts are held back and added after
// every other part, so later subtractions do not cut into them.
//
// Outlines may reference each other. References are resolved recursively
// and each outline is built once per [Builder]; a reference cycle is
// reported as an error rather than recursing.
package outline

import (
	"github.com/matzehuels/keyplate/pkg/clip"
	"github.com/matzehuels/keyplate/pkg/config"
	"github.com/matzehuels/keyplate/pkg/errors"
	"github.com/matzehuels/keyplate/pkg/geom"
	"github.com/matzehuels/keyplate/pkg/points"
	"github.com/matzehuels/keyplate/pkg/units"
)

// Builder builds the outlines of one keyboard description.
type Builder struct {
	outlines config.Value
	points   *points.Table
	ev       units.Evaluator

	built    map[string]geom.Region
	visiting map[string]bool
}

// New returns a builder over the "outlines" section of cfg and an already
// laid out point table. A missing section means no outlines.
func New(cfg config.Value, table *points.Table, ev units.Evaluator) (*Builder, error) {
	section, ok := cfg.Get("outlines")
	if !ok || section.IsNull() {
		section = config.EmptyMap()
	}
	if !section.IsMap() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "outlines should be a map, got %s", section.Kind())
	}
	if table == nil {
		table = points.NewTable()
	}
	return &Builder{
		outlines: section,
		points:   table,
		ev:       ev,
		built:    make(map[string]geom.Region),
		visiting: make(map[string]bool),
	}, nil
}

// Names returns the outline names in declaration order.
func (b *Builder) Names() []string {
	return b.outlines.Keys()
}

// Build returns the region of the named outline.
func (b *Builder) Build(name string) (geom.Region, error) {
	if r, ok := b.built[name]; ok {
		return r.Clone(), nil
	}
	body, ok := b.outlines.Get(name)
	if !ok {
		return geom.Region{}, errors.New(errors.ErrCodeUnknownOutline, "unknown outline %q", name)
	}
	if b.visiting[name] {
		return geom.Region{}, errors.New(errors.ErrCodeOutlineCycle, "outline %q refers to itself", name)
	}
	b.visiting[name] = true
	defer delete(b.visiting, name)

	parts, err := parseParts(name, body)
	if err != nil {
		return geom.Region{}, err
	}

	var result geom.Region
	var stacked []geom.Region
	for _, p := range parts {
		r, err := b.render(p)
		if err != nil {
			return geom.Region{}, err
		}
		switch p.op {
		case opAdd:
			result = clip.Add(result, r)
		case opSubtract:
			result = clip.Subtract(result, r)
		case opIntersect:
			result = clip.Intersect(result, r)
		case opStack:
			stacked = append(stacked, r)
		}
	}
	for _, r := range stacked {
		result = clip.Add(result, r)
	}

	b.built[name] = result
	return result.Clone(), nil
}

// Dependencies returns the outlines that name refers to directly, in part
// order and without repeats.
func (b *Builder) Dependencies(name string) ([]string, error) {
	body, ok := b.outlines.Get(name)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownOutline, "unknown outline %q", name)
	}
	parts, err := parseParts(name, body)
	if err != nil {
		return nil, err
	}
	var out []string
	seen := map[string]bool{}
	for _, p := range parts {
		if p.kind != kindOutline || seen[p.ref] {
			continue
		}
		seen[p.ref] = true
		out = append(out, p.ref)
	}
	return out, nil
}

// render generates one part in world coordinates with its scale, expand
// and fillet applied.
func (b *Builder) render(p *part) (geom.Region, error) {
	if err := p.evalPost(b); err != nil {
		return geom.Region{}, err
	}
	places, err := b.placements(p)
	if err != nil {
		return geom.Region{}, err
	}
	gen, err := b.generator(p)
	if err != nil {
		return geom.Region{}, err
	}

	// Pointy and beveled joints resize plain rectangles before placement,
	// every other shape is offset after the union.
	direct := false
	if rect, ok := gen.(*rectangle); ok && rect.plain() && !p.bound && p.joints != jointRound && p.expand != 0 {
		rect.grow(p.scale, p.expand, p.joints)
		direct = true
	}

	var out geom.Region
	for _, pl := range places {
		if direct {
			pl.X *= p.scale
			pl.Y *= p.scale
		}
		local, err := gen.local(pl)
		if err != nil {
			return geom.Region{}, err
		}
		if p.bound {
			bb, ok := gen.(bindable)
			if !ok {
				return geom.Region{}, errors.New(errors.ErrCodeUnsupported, "%s: %s shapes cannot be bound", p.path, p.kind)
			}
			local = bind(local, bb.bounds(local), pl.Bind)
		}
		out = clip.Add(out, local.Place(pl.Point))
	}

	if !direct {
		if p.scale != 1 {
			out = out.Scale(p.scale)
		}
		if p.expand != 0 {
			out = clip.Expand(out, p.expand, p.joints.join())
		}
	}
	if p.fillet != 0 {
		out = clip.Fillet(out, p.fillet)
	}
	return out, nil
}
