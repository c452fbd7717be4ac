package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/matzehuels/keyplate/pkg/dxf"
	"github.com/matzehuels/keyplate/pkg/geom"
	"github.com/matzehuels/keyplate/pkg/observability"
)

// Export serializes one outline region in the given format.
func Export(ctx context.Context, name string, r geom.Region, format string, linearEps float64) ([]byte, error) {
	hooks := observability.Pipeline()
	hooks.OnExportStart(ctx, name, format)
	start := time.Now()

	data, err := export(r, format, linearEps)
	hooks.OnExportComplete(ctx, name, format, len(data), time.Since(start), err)
	return data, err
}

func export(r geom.Region, format string, linearEps float64) ([]byte, error) {
	if linearEps > 0 {
		r = r.Map(func(v geom.Vec) geom.Vec {
			return geom.V(snap(v.X, linearEps), snap(v.Y, linearEps))
		})
	}
	switch format {
	case FormatDXF:
		var buf bytes.Buffer
		if err := dxf.Write(&buf, dxf.FromRegion(r)); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		return json.MarshalIndent(regionJSON(r), "", "  ")
	}
	return nil, ValidateFormat(format)
}

func snap(v, eps float64) float64 {
	s := math.Round(v/eps) * eps
	if s == 0 {
		return 0
	}
	return s
}

type ringJSON struct {
	Vertices [][3]float64 `json:"vertices"`
}

// regionJSON lays a region out as {"pos": [...], "neg": [...]} with each
// vertex as [x, y, bulge].
func regionJSON(r geom.Region) map[string][]ringJSON {
	conv := func(rings []geom.Polyline) []ringJSON {
		out := make([]ringJSON, 0, len(rings))
		for _, pl := range rings {
			var rj ringJSON
			for _, v := range pl.Vertices {
				rj.Vertices = append(rj.Vertices, [3]float64{v.X, v.Y, v.Bulge})
			}
			out = append(out, rj)
		}
		return out
	}
	return map[string][]ringJSON{"pos": conv(r.Pos), "neg": conv(r.Neg)}
}

// describe summarizes a region for log lines.
func describe(r geom.Region) string {
	if r.IsEmpty() {
		return "empty"
	}
	bb := r.BBox()
	return fmt.Sprintf("%.2f x %.2f", bb.Width(), bb.Height())
}
