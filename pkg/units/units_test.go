package units

import (
	"fmt"
	"testing"

	"github.com/matzehuels/keyplate/pkg/config"
	"github.com/matzehuels/keyplate/pkg/errors"
)

func TestDefaults(t *testing.T) {
	tab := Default()
	tests := []struct {
		name string
		want float64
	}{
		{"U", 19.05},
		{"u", 19},
		{"cx", 18},
		{"cy", 17},
		{DefaultSpread, 19},
		{DefaultWidth, 18},
		{DefaultHeight, 18},
		{DefaultPadding, 19},
		{DefaultAutobind, 10},
		{DefaultStagger, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tab.Get(tt.name)
			if !ok || got != tt.want {
				t.Errorf("Get(%q) = %v, %v, want %v", tt.name, got, ok, tt.want)
			}
		})
	}
}

func TestEval(t *testing.T) {
	tab := Default().With(map[string]float64{"sx": 18, "sy": 17})
	tests := []struct {
		expr    string
		want    float64
		wantErr bool
	}{
		{"1", 1, false},
		{"u-1", 18, false},
		{"2 * cx + 0.5", 36.5, false},
		{"-(u + 1) / 2", -10, false},
		{"-(-3)", 3, false},
		{"7 / 2", 3.5, false},
		{"sqrt(cx * 2)", 6, false},
		{"1e2", 100, false},
		{"2.5E-1", 0.25, false},
		{"min(sx, sy) / 2", 8.5, false},
		{"max(1, 2, 3)", 3, false},
		{"abs(-4)", 4, false},
		{"$default_width", 18, false},

		{"", 0, true},
		{"u +", 0, true},
		{"(1 + 2", 0, true},
		{"nope + 1", 0, true},
		{"1 / 0", 0, true},
		{"foo(1)", 0, true},
		{"1 2", 0, true},
		{"sqrt(1, 2)", 0, true},
		{"u > 1", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := tab.Eval("test", tt.expr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Eval(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, errors.ErrCodeEval) {
					t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeEval)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	cfg := config.MapOf(
		config.P("units", config.MapOf(
			config.P("kx", config.String("cx + 1")),
			config.P("$default_height", config.Number(17)),
		)),
		config.P("variables", config.MapOf(
			config.P("gap", config.String("kx / 2")),
		)),
	)
	tab, err := Parse(cfg)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if v := tab.Must("kx"); v != 19 {
		t.Errorf("kx = %v, want 19", v)
	}
	if v := tab.Must("gap"); v != 9.5 {
		t.Errorf("gap = %v, want 9.5", v)
	}
	if v := tab.Must(DefaultHeight); v != 17 {
		t.Errorf("%s = %v, want 17", DefaultHeight, v)
	}

	bad := config.MapOf(config.P("units", config.MapOf(config.P("x", config.Bool(true)))))
	if _, err := Parse(bad); !errors.Is(err, errors.ErrCodeInvalidNumber) {
		t.Errorf("Parse(bool unit) error = %v, want %v", err, errors.ErrCodeInvalidNumber)
	}
}

func TestWithDoesNotMutate(t *testing.T) {
	base := Default()
	ext := base.With(map[string]float64{"sx": 5})
	if _, ok := base.Get("sx"); ok {
		t.Error("With() leaked into the receiver")
	}
	if v := ext.Must("u"); v != 19 {
		t.Errorf("extended u = %v, want 19", v)
	}
}

func TestXY(t *testing.T) {
	tab := Default()
	tests := []struct {
		name    string
		in      config.Value
		want    [2]float64
		wantErr bool
	}{
		{"pair", config.Numbers(1, 2), [2]float64{1, 2}, false},
		{"scalar", config.Number(3), [2]float64{3, 3}, false},
		{"expr", config.Seq(config.String("u"), config.Number(0)), [2]float64{19, 0}, false},
		{"triple", config.Numbers(1, 2, 3), [2]float64{}, true},
		{"map", config.EmptyMap(), [2]float64{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := XY(tab, tt.in, "shift")
			if (err != nil) != tt.wantErr {
				t.Fatalf("XY() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("XY() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTRBL(t *testing.T) {
	tab := Default()
	tests := []struct {
		name    string
		in      config.Value
		want    [4]float64
		wantErr bool
	}{
		{"null", config.Null(), [4]float64{-1, -1, -1, -1}, false},
		{"scalar", config.Number(5), [4]float64{5, 5, 5, 5}, false},
		{"pair", config.Numbers(1, 2), [4]float64{2, 1, 2, 1}, false},
		{"quad", config.Numbers(1, 2, 3, 4), [4]float64{1, 2, 3, 4}, false},
		{"partial", config.Seq(config.Number(1), config.Null(), config.Number(3), config.Null()), [4]float64{1, -1, 3, -1}, false},
		{"triple", config.Numbers(1, 2, 3), [4]float64{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TRBL(tab, tt.in, "bind", -1)
			if (err != nil) != tt.wantErr {
				t.Fatalf("TRBL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("TRBL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsNumeric(t *testing.T) {
	tab := Default()
	if !IsNumeric(tab, config.String("u/2")) {
		t.Error(`IsNumeric("u/2") = false`)
	}
	if IsNumeric(tab, config.String("matrix_index_home")) {
		t.Error("a point name must not be numeric")
	}
	if IsNumeric(tab, config.EmptyMap()) {
		t.Error("a map must not be numeric")
	}
}

func ExampleTable_Eval() {
	tab := Default()
	v, _ := tab.Eval("points.key.width", "u - 1")
	fmt.Println(v)
	// Output: 18
}
