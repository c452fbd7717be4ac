package pipeline

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/keyplate/pkg/cache"
	"github.com/matzehuels/keyplate/pkg/config"
	"github.com/matzehuels/keyplate/pkg/dxf"
	"github.com/matzehuels/keyplate/pkg/errors"
	"github.com/matzehuels/keyplate/pkg/observability"
)

const board = `{
	"points": {
		"zones": {
			"matrix": {
				"columns": {"pinky": {}, "ring": {"key": {"stagger": 5}}},
				"rows": {"bottom": {}, "top": {}}
			}
		}
	},
	"outlines": {
		"keys": [{"what": "rectangle", "where": true, "size": 14}],
		"plate": [{"what": "rectangle", "where": true, "size": 18, "bound": true}, "-keys"]
	}
}`

func mustConfig(t *testing.T, src string) config.Value {
	t.Helper()
	cfg, err := config.ParseJSON([]byte(src))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
	return cfg
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dxf", false},
		{"json", false},
		{"svg", true},
		{"DXF", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    []string
		wantErr bool
	}{
		{name: "defaults", opts: Options{}, want: []string{FormatDXF}},
		{name: "dedupe", opts: Options{Formats: []string{"json", "dxf", "json"}}, want: []string{"dxf", "json"}},
		{name: "bad format", opts: Options{Formats: []string{"png"}}, wantErr: true},
		{name: "negative eps", opts: Options{LinearEps: -1}, wantErr: true},
		{name: "path outline", opts: Options{Outlines: []string{"../plate"}}, wantErr: true},
		{name: "repeated outline", opts: Options{Outlines: []string{"a", "a"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			err := opts.ValidateAndSetDefaults()
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if diff := cmp.Diff(tt.want, opts.Formats); diff != "" {
				t.Errorf("Formats mismatch (-want +got):\n%s", diff)
			}
			if opts.Logger == nil {
				t.Error("Logger not defaulted")
			}
		})
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(ctx, mustConfig(t, board), Options{Formats: []string{"dxf", "json"}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if res.RunID == "" || res.ConfigHash == "" {
		t.Errorf("RunID = %q, ConfigHash = %q", res.RunID, res.ConfigHash)
	}
	if res.Stats.KeyCount != 4 {
		t.Errorf("KeyCount = %d, want 4", res.Stats.KeyCount)
	}
	if diff := cmp.Diff([]string{"keys", "plate"}, res.Outlines); diff != "" {
		t.Errorf("Outlines mismatch (-want +got):\n%s", diff)
	}
	if got := len(res.Artifacts); got != 4 {
		t.Errorf("got %d artifacts, want 4", got)
	}

	plate := res.Regions["plate"]
	if len(plate.Pos) != 1 || len(plate.Neg) != 4 {
		t.Errorf("plate has %d outer rings and %d holes, want 1 and 4", len(plate.Pos), len(plate.Neg))
	}

	doc, err := dxf.ParseBytes(res.Artifacts[ArtifactName("plate", FormatDXF)])
	if err != nil {
		t.Fatalf("exported DXF does not parse: %v", err)
	}
	m, err := dxf.Equivalent(doc, dxf.FromRegion(plate), dxf.DefaultOptions())
	if err != nil {
		t.Fatalf("Equivalent() error = %v", err)
	}
	if m != nil {
		t.Errorf("exported DXF differs from the region: %v", m)
	}

	var rings map[string][]struct {
		Vertices [][3]float64 `json:"vertices"`
	}
	if err := json.Unmarshal(res.Artifacts[ArtifactName("keys", FormatJSON)], &rings); err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if len(rings["pos"]) != 4 || len(rings["neg"]) != 0 {
		t.Errorf("keys json has %d/%d rings, want 4/0", len(rings["pos"]), len(rings["neg"]))
	}
}

func TestExecute_SelectedOutlines(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), mustConfig(t, board), Options{Outlines: []string{"keys"}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if _, ok := res.Regions["plate"]; ok {
		t.Error("unrequested outline was built")
	}
	if _, ok := res.Artifacts["keys.dxf"]; !ok {
		t.Error("keys.dxf missing")
	}
}

func TestExecute_PointsOnly(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Execute(context.Background(), mustConfig(t, board), Options{PointsOnly: true})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Points == nil || res.Points.Len() != 4 {
		t.Fatalf("Points = %v, want 4 keys", res.Points)
	}
	if res.Regions != nil || len(res.Artifacts) != 0 {
		t.Error("points-only run built outlines")
	}
}

func TestExecute_Cache(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	hooks := &countingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	r := NewRunner(c, nil, nil)
	cfg := mustConfig(t, board)

	first, err := r.Execute(ctx, cfg, Options{})
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if first.CacheInfo.AllHit || first.CacheInfo.Misses != 2 {
		t.Errorf("first run CacheInfo = %+v, want 2 misses", first.CacheInfo)
	}

	second, err := r.Execute(ctx, cfg, Options{})
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if !second.CacheInfo.AllHit || second.CacheInfo.Hits != 2 {
		t.Errorf("second run CacheInfo = %+v, want all hits", second.CacheInfo)
	}
	if second.Points != nil {
		t.Error("cached run laid out points")
	}
	if diff := cmp.Diff(first.Artifacts, second.Artifacts); diff != "" {
		t.Errorf("cached artifacts differ (-first +second):\n%s", diff)
	}

	refreshed, err := r.Execute(ctx, cfg, Options{Refresh: true})
	if err != nil {
		t.Fatalf("refresh Execute() error = %v", err)
	}
	if refreshed.CacheInfo.AllHit {
		t.Error("Refresh still served from cache")
	}

	other, err := r.Execute(ctx, cfg, Options{LinearEps: 0.01})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if other.CacheInfo.AllHit {
		t.Error("different export options hit the cache")
	}

	if hooks.sets == 0 || hooks.hits == 0 || hooks.misses == 0 {
		t.Errorf("cache hooks = %+v, want hits, misses and sets", hooks)
	}
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  string
		opts Options
		want errors.Code
	}{
		{"no points", `{"outlines": {}}`, Options{}, errors.ErrCodeMissingPoints},
		{"unknown outline", board, Options{Outlines: []string{"case"}}, errors.ErrCodeUnknownOutline},
		{"outline cycle", `{"points": {"zones": {"z": {}}}, "outlines": {"a": ["b"], "b": ["a"]}}`, Options{}, errors.ErrCodeOutlineCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(nil, nil, nil).Execute(context.Background(), mustConfig(t, tt.cfg), tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("Execute() error = %v, want code %s", err, tt.want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "board.toml")
	src := "[points.zones.matrix.columns.ring]\n[points.zones.matrix.columns.index]\n"
	if err := os.WriteFile(tomlPath, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(tomlPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	cols, ok := cfg.GetPath("points.zones.matrix.columns")
	if !ok {
		t.Fatal("columns missing")
	}
	if diff := cmp.Diff([]string{"ring", "index"}, cols.Keys()); diff != "" {
		t.Errorf("column order mismatch (-want +got):\n%s", diff)
	}

	_, err = LoadConfig(filepath.Join(dir, "missing.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("LoadConfig(missing) error = %v", err)
	}
}

func TestHashConfig_KeyOrder(t *testing.T) {
	a, _ := HashConfig(mustConfig(t, `{"x": 1, "y": 2}`))
	b, _ := HashConfig(mustConfig(t, `{"y": 2, "x": 1}`))
	if a == b {
		t.Error("key order does not change the config hash")
	}
}

func TestExport_LinearEps(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	cfg := mustConfig(t, `{"points": {"zones": {"z": {}}}, "outlines": {"o": [{"what": "rectangle", "size": 1.23456}]}}`)
	res, err := r.Execute(context.Background(), cfg, Options{LinearEps: 0.01})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	doc, err := dxf.ParseBytes(res.Artifacts["o.dxf"])
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if len(doc.Entities) != 1 {
		t.Fatalf("got %d entities, want 1", len(doc.Entities))
	}
	pl, ok := doc.Entities[0].(dxf.LWPolyline)
	if !ok {
		t.Fatalf("entity is %T, want LWPOLYLINE", doc.Entities[0])
	}
	for _, v := range pl.Vertices {
		for _, c := range []float64{v.X, v.Y} {
			if math.Abs(math.Abs(c)-0.62) > 1e-9 {
				t.Errorf("coordinate %v not rounded to 0.01", c)
			}
		}
	}
}

type countingHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets int
}

func (h *countingHooks) OnCacheHit(context.Context, string)      { h.hits++ }
func (h *countingHooks) OnCacheMiss(context.Context, string)     { h.misses++ }
func (h *countingHooks) OnCacheSet(context.Context, string, int) { h.sets++ }
