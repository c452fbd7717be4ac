package dxf

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/keyplate/pkg/errors"
	"github.com/matzehuels/keyplate/pkg/geom"
)

// pair is one group code and its value, with the 1-based line of the code.
type pair struct {
	code  int
	value string
	line  int
}

// Parse reads a DXF document and returns the entities of its ENTITIES
// section. Exactly one ENTITIES section must be present.
func Parse(r io.Reader) (*Document, error) {
	pairs, err := readPairs(r)
	if err != nil {
		return nil, err
	}

	var doc *Document
	for i := 0; i < len(pairs); i++ {
		if !pairs[i].is(0, "SECTION") || i+1 >= len(pairs) || !pairs[i+1].is(2, "ENTITIES") {
			continue
		}
		if doc != nil {
			return nil, errors.New(errors.ErrCodeMissingEntitiesSection,
				"line %d: second ENTITIES section, expected exactly one", pairs[i].line)
		}
		var next int
		doc, next, err = parseEntities(pairs, i+2)
		if err != nil {
			return nil, err
		}
		i = next
	}
	if doc == nil {
		return nil, errors.New(errors.ErrCodeMissingEntitiesSection, "no ENTITIES section")
	}
	return doc, nil
}

// ParseBytes is Parse over an in-memory document.
func ParseBytes(data []byte) (*Document, error) {
	return Parse(bytes.NewReader(data))
}

func readPairs(r io.Reader) ([]pair, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read dxf")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines)%2 != 0 {
		return nil, errors.New(errors.ErrCodeOddNumberOfLines, "%d lines, group codes and values must pair up", len(lines))
	}

	pairs := make([]pair, 0, len(lines)/2)
	for i := 0; i < len(lines); i += 2 {
		code, err := strconv.Atoi(lines[i])
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidGroupCode, "line %d: invalid group code %q", i+1, lines[i])
		}
		pairs = append(pairs, pair{code: code, value: lines[i+1], line: i + 1})
	}
	return pairs, nil
}

func (p pair) is(code int, value string) bool {
	return p.code == code && p.value == value
}

func (p pair) float() (float64, error) {
	v, err := strconv.ParseFloat(p.value, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidFloat, "line %d: group %d: invalid number %q", p.line+1, p.code, p.value)
	}
	return v, nil
}

// parseEntities reads entities from pairs[i:] up to ENDSEC and returns the
// index of the ENDSEC pair.
func parseEntities(pairs []pair, i int) (*Document, int, error) {
	doc := &Document{}
	for i < len(pairs) {
		p := pairs[i]
		if p.code != 0 {
			i++
			continue
		}
		if p.value == "ENDSEC" {
			return doc, i, nil
		}

		end := i + 1
		for end < len(pairs) && pairs[end].code != 0 {
			end++
		}
		groups := pairs[i+1 : end]

		switch p.value {
		case "POLYLINE":
			// Old-style polylines nest VERTEX entities up to SEQEND.
			for end < len(pairs) && !pairs[end].is(0, "SEQEND") {
				end++
			}
			if end == len(pairs) {
				return nil, 0, errors.New(errors.ErrCodeUnexpectedEOF, "line %d: POLYLINE without SEQEND", p.line)
			}
			end++
			for end < len(pairs) && pairs[end].code != 0 {
				end++
			}
			doc.Entities = append(doc.Entities, Unsupported{Kind: p.value})
		default:
			e, err := parseEntity(p, groups)
			if err != nil {
				return nil, 0, err
			}
			doc.Entities = append(doc.Entities, e)
		}
		i = end
	}
	return nil, 0, errors.New(errors.ErrCodeUnexpectedEOF, "ENTITIES section without ENDSEC")
}

func parseEntity(head pair, groups []pair) (Entity, error) {
	switch head.value {
	case "LINE":
		v, err := required(head, groups, 10, 20, 11, 21)
		if err != nil {
			return nil, err
		}
		return Line{A: geom.V(v[0], v[1]), B: geom.V(v[2], v[3])}, nil
	case "CIRCLE":
		v, err := required(head, groups, 10, 20, 40)
		if err != nil {
			return nil, err
		}
		return Circle{Center: geom.V(v[0], v[1]), Radius: v[2]}, nil
	case "ARC":
		v, err := required(head, groups, 10, 20, 40, 50, 51)
		if err != nil {
			return nil, err
		}
		return Arc{Center: geom.V(v[0], v[1]), Radius: v[2], Start: v[3], End: v[4]}, nil
	case "LWPOLYLINE":
		return parseLWPolyline(head, groups)
	}
	return Unsupported{Kind: head.value}, nil
}

// required returns the first value of each listed group code.
func required(head pair, groups []pair, codes ...int) ([]float64, error) {
	out := make([]float64, len(codes))
	for i, code := range codes {
		found := false
		for _, g := range groups {
			if g.code != code {
				continue
			}
			v, err := g.float()
			if err != nil {
				return nil, err
			}
			out[i], found = v, true
			break
		}
		if !found {
			return nil, errors.New(errors.ErrCodeMissingRequiredGroup,
				"line %d: %s is missing group %d", head.line, head.value, code)
		}
	}
	return out, nil
}

func parseLWPolyline(head pair, groups []pair) (Entity, error) {
	var pl geom.Polyline
	hasY := true
	for _, g := range groups {
		switch g.code {
		case 10, 20, 42:
			v, err := g.float()
			if err != nil {
				return nil, err
			}
			switch {
			case g.code == 10:
				if !hasY {
					return nil, errors.New(errors.ErrCodeMissingRequiredGroup, "line %d: vertex without group 20", g.line)
				}
				pl.Vertices = append(pl.Vertices, geom.Vertex{X: v})
				hasY = false
			case len(pl.Vertices) == 0:
				return nil, errors.New(errors.ErrCodeMissingRequiredGroup, "line %d: group %d before the first vertex", g.line, g.code)
			case g.code == 20:
				pl.Vertices[len(pl.Vertices)-1].Y = v
				hasY = true
			default:
				pl.Vertices[len(pl.Vertices)-1].Bulge = v
			}
		case 70:
			flags, err := strconv.Atoi(g.value)
			if err != nil {
				return nil, errors.New(errors.ErrCodeInvalidFloat, "line %d: invalid flags %q", g.line+1, g.value)
			}
			pl.Closed = flags&1 != 0
		}
	}
	if !hasY {
		return nil, errors.New(errors.ErrCodeMissingRequiredGroup, "line %d: LWPOLYLINE vertex without group 20", head.line)
	}
	if len(pl.Vertices) == 0 {
		return nil, errors.New(errors.ErrCodeMissingRequiredGroup, "line %d: LWPOLYLINE has no vertices", head.line)
	}
	return LWPolyline{Polyline: pl}, nil
}
