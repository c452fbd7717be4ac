package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/keyplate/pkg/dxf"
	"github.com/matzehuels/keyplate/pkg/observability"
)

const boardJSON = `{
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

// runCLI executes the root command with args and returns what the command
// wrote to its output followed by the status lines.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	defer func(w io.Writer) { stdout = w }(stdout)
	var status bytes.Buffer
	stdout = &status
	defer observability.Reset()

	var out bytes.Buffer
	root := New(io.Discard, log.InfoLevel).RootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String() + status.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// polylineDXF is a minimal drawing holding one closed LWPOLYLINE.
func polylineDXF(pts ...[2]float64) string {
	var b strings.Builder
	b.WriteString("0\nSECTION\n2\nENTITIES\n0\nLWPOLYLINE\n")
	fmt.Fprintf(&b, "90\n%d\n70\n1\n", len(pts))
	for _, p := range pts {
		fmt.Fprintf(&b, "10\n%g\n20\n%g\n", p[0], p[1])
	}
	b.WriteString("0\nENDSEC\n0\nEOF\n")
	return b.String()
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	for _, name := range []string{"points", "outline", "graph", "dxf", "cache", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("Find(%q) = %v, %v", name, cmd, err)
		}
	}
	for _, path := range [][]string{{"dxf", "normalize"}, {"dxf", "compare"}, {"cache", "clear"}, {"cache", "path"}} {
		if cmd, _, err := root.Find(path); err != nil || cmd.Name() != path[1] {
			t.Errorf("Find(%v) = %v, %v", path, cmd, err)
		}
	}
	if root.PersistentFlags().Lookup("verbose") == nil {
		t.Error("missing --verbose flag")
	}
}

func TestPointsCommand_JSON(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "board.json", boardJSON)
	out, err := runCLI(t, "points", cfg, "--json")
	if err != nil {
		t.Fatalf("points error = %v", err)
	}

	var pts map[string]map[string]any
	if err := json.Unmarshal([]byte(out), &pts); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(pts) != 4 {
		t.Errorf("got %d points, want 4", len(pts))
	}
	if y := pts["matrix_ring_bottom"]["y"]; y != 5.0 {
		t.Errorf("matrix_ring_bottom y = %v, want 5", y)
	}
}

func TestPointsCommand_Table(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "board.json", boardJSON)
	out, err := runCLI(t, "points", cfg)
	if err != nil {
		t.Fatalf("points error = %v", err)
	}
	for _, want := range []string{"matrix_pinky_top", "19.00", "4 keys"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestOutlineCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "board.json", boardJSON)
	outDir := filepath.Join(dir, "out")

	out, err := runCLI(t, "outline", cfg, "plate", "-o", outDir, "--formats", "dxf,json", "--no-cache")
	if err != nil {
		t.Fatalf("outline error = %v", err)
	}
	if !strings.Contains(out, "Wrote 2 files") {
		t.Errorf("status output:\n%s", out)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	var files []string
	for _, e := range entries {
		files = append(files, e.Name())
	}
	if diff := cmp.Diff([]string{"plate.dxf", "plate.json"}, files); diff != "" {
		t.Errorf("written files mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "plate.dxf"))
	if err != nil {
		t.Fatal(err)
	}
	doc, err := dxf.ParseBytes(data)
	if err != nil {
		t.Fatalf("plate.dxf: %v", err)
	}
	if len(doc.Entities) != 5 {
		t.Errorf("plate.dxf has %d entities, want 5", len(doc.Entities))
	}
}

func TestOutlineCommand_FileCache(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "board.json", boardJSON)
	url := "file://" + filepath.Join(dir, "cache")

	if _, err := runCLI(t, "outline", cfg, "-o", dir, "--cache-url", url); err != nil {
		t.Fatalf("first run error = %v", err)
	}
	out, err := runCLI(t, "outline", cfg, "-o", dir, "--cache-url", url)
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}
	if !strings.Contains(out, iconCached) {
		t.Errorf("second run not served from cache:\n%s", out)
	}
}

func TestOutlineCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "board.json", boardJSON)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown outline", []string{"outline", cfg, "case", "--no-cache", "-o", dir}, "UNKNOWN_OUTLINE"},
		{"bad format", []string{"outline", cfg, "--formats", "svg", "--no-cache"}, "invalid format"},
		{"missing config", []string{"outline", filepath.Join(dir, "nope.json"), "--no-cache"}, "FILE_NOT_FOUND"},
		{"bad cache url", []string{"outline", cfg, "--cache-url", "ftp://host", "-o", dir}, "unsupported cache url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestGraphCommand_DOT(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "board.json", boardJSON)

	if _, err := runCLI(t, "graph", cfg, "--dot", "--detailed"); err != nil {
		t.Fatalf("graph error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "board.dot"))
	if err != nil {
		t.Fatalf("default output not written: %v", err)
	}
	for _, want := range []string{`"plate" -> "keys";`, `rings: 5`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("DOT missing %s:\n%s", want, data)
		}
	}
}

var (
	square = polylineDXF([2]float64{0, 0}, [2]float64{10, 0}, [2]float64{10, 10}, [2]float64{0, 10})
	// squareReversed is square traced clockwise from another corner.
	squareReversed = polylineDXF([2]float64{10, 10}, [2]float64{10, 0}, [2]float64{0, 0}, [2]float64{0, 10})
	// squareNudged moves one corner by 1.
	squareNudged = polylineDXF([2]float64{0, 0}, [2]float64{10, 0}, [2]float64{10, 11}, [2]float64{0, 10})
)

func TestDXFCompare(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.dxf", square)
	b := writeFile(t, dir, "b.dxf", squareReversed)
	c := writeFile(t, dir, "c.dxf", squareNudged)

	out, err := runCLI(t, "dxf", "compare", a, b)
	if err != nil {
		t.Fatalf("compare equivalent error = %v", err)
	}
	if !strings.Contains(out, "Equivalent (1 shape)") {
		t.Errorf("output:\n%s", out)
	}

	out, err = runCLI(t, "dxf", "compare", a, c)
	if !errors.Is(err, ErrNotEquivalent) {
		t.Errorf("compare different error = %v, want ErrNotEquivalent", err)
	}
	if !strings.Contains(out, "shape 0 differs") {
		t.Errorf("output:\n%s", out)
	}
}

func TestDXFNormalize(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.dxf", square)
	b := writeFile(t, dir, "b.dxf", squareReversed)

	outA, err := runCLI(t, "dxf", "normalize", a)
	if err != nil {
		t.Fatalf("normalize error = %v", err)
	}
	outB, err := runCLI(t, "dxf", "normalize", b)
	if err != nil {
		t.Fatalf("normalize error = %v", err)
	}
	if outA != outB {
		t.Errorf("normalized outputs differ:\n%s\n---\n%s", outA, outB)
	}

	list, err := runCLI(t, "dxf", "normalize", a, "--list")
	if err != nil {
		t.Fatalf("normalize --list error = %v", err)
	}
	if got := strings.Count(strings.TrimSpace(list), "\n") + 1; got != 1 {
		t.Errorf("--list printed %d lines, want 1:\n%s", got, list)
	}
}

func TestDXFNormalize_Unsupported(t *testing.T) {
	dir := t.TempDir()
	text := writeFile(t, dir, "t.dxf", "0\nSECTION\n2\nENTITIES\n0\nTEXT\n1\nhi\n0\nENDSEC\n0\nEOF\n")

	if _, err := runCLI(t, "dxf", "normalize", text); err == nil || !strings.Contains(err.Error(), "UNSUPPORTED_ENTITIES") {
		t.Errorf("error = %v, want UNSUPPORTED_ENTITIES", err)
	}
	if _, err := runCLI(t, "dxf", "normalize", text, "--allow-unsupported"); err != nil {
		t.Errorf("--allow-unsupported error = %v", err)
	}
}

func TestCompleteConfigThenOutlines(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "board.json", boardJSON)
	cmd := &cobra.Command{}

	tests := []struct {
		name       string
		args       []string
		toComplete string
		want       []string
		directive  cobra.ShellCompDirective
	}{
		{"config file", nil, "", configExtensions, cobra.ShellCompDirectiveFilterFileExt},
		{"all outlines", []string{cfg}, "", []string{"keys", "plate"}, cobra.ShellCompDirectiveNoFileComp},
		{"prefix", []string{cfg}, "p", []string{"plate"}, cobra.ShellCompDirectiveNoFileComp},
		{"no repeats", []string{cfg, "keys"}, "", []string{"plate"}, cobra.ShellCompDirectiveNoFileComp},
		{"bad config", []string{"missing.toml"}, "", nil, cobra.ShellCompDirectiveNoFileComp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, directive := completeConfigThenOutlines(cmd, tt.args, tt.toComplete)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("completions mismatch (-want +got):\n%s", diff)
			}
			if directive != tt.directive {
				t.Errorf("directive = %v, want %v", directive, tt.directive)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"dxf"}},
		{"json", []string{"json"}},
		{"dxf, json", []string{"dxf", "json"}},
		{"dxf,,", []string{"dxf"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, parseFormats(tt.in)); diff != "" {
			t.Errorf("parseFormats(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestPlural(t *testing.T) {
	if got := plural(1, "key"); got != "1 key" {
		t.Errorf("plural(1) = %q", got)
	}
	if got := plural(3, "key"); got != "3 keys" {
		t.Errorf("plural(3) = %q", got)
	}
}
