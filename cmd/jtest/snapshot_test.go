package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xplshn/jfront/pkg/config"
	"github.com/xplshn/jfront/pkg/extractor"
	"github.com/xplshn/jfront/pkg/util"
)

func quiet(t *testing.T) {
	t.Helper()
	prev := util.SetDefault(util.NewLogger(&strings.Builder{}, util.LevelError))
	t.Cleanup(func() { util.SetDefault(prev) })
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestTakeSnapshot(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	write(t, filepath.Join(dir, "main.j"), "imp lib\ndef main() end\n")
	write(t, filepath.Join(dir, "lib.j"), "def add(a, b) end\n")

	got := takeSnapshot(filepath.Join(dir, "main.j"), config.NewConfig())
	want := &Snapshot{
		Files: []FileTokens{
			{Path: "lib.j", Tokens: []string{
				"1:'def'", "1:symbol add", "1:'('", "1:symbol a", "1:','", "1:symbol b", "1:')'", "1:'end'", "1:newline",
			}},
			{Path: "main.j", Tokens: []string{
				"2:'def'", "2:symbol main", "2:'('", "2:')'", "2:'end'", "2:newline",
			}},
		},
		Functions: []extractor.Function{
			{Name: "add", File: "lib.j", Params: []string{"a", "b"}, Line: 1},
			{Name: "main", File: "main.j", Params: []string{}, Line: 2},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestTakeSnapshotRecordsErrorWithRelativePaths(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	write(t, filepath.Join(dir, "main.j"), "\nimp missing\n")

	got := takeSnapshot(filepath.Join(dir, "main.j"), config.NewConfig())
	if !strings.HasPrefix(got.Error, "main.j:2: could not import file missing.j") {
		t.Errorf("unexpected error text %q", got.Error)
	}
	if strings.Contains(got.Error, dir) {
		t.Errorf("error text leaks the temp dir: %q", got.Error)
	}
}

func TestCompareSnapshot(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "a.j")
	golden := goldenPath(src, "")
	write(t, src, "def f(x) end\n")
	cfg := config.NewConfig()

	if r := compareSnapshot(src, golden, takeSnapshot(src, cfg)); r.Status != "SKIP" {
		t.Fatalf("status without golden = %s, want SKIP", r.Status)
	}
	if err := writeGolden(golden, takeSnapshot(src, cfg)); err != nil {
		t.Fatal(err)
	}
	if r := compareSnapshot(src, golden, takeSnapshot(src, cfg)); r.Status != "PASS" {
		t.Fatalf("status = %s (%s), want PASS\n%s", r.Status, r.Message, r.Diff)
	}

	write(t, src, "def f(x, y) end\n")
	r := compareSnapshot(src, golden, takeSnapshot(src, cfg))
	if r.Status != "FAIL" || !strings.Contains(r.Diff, "y") {
		t.Errorf("status = %s, diff:\n%s", r.Status, r.Diff)
	}

	write(t, golden, "{not json")
	if r := compareSnapshot(src, golden, takeSnapshot(src, cfg)); r.Status != "ERROR" {
		t.Errorf("status with broken golden = %s, want ERROR", r.Status)
	}
}

func TestGoldenPath(t *testing.T) {
	if got, want := goldenPath("tests/x.j", ""), filepath.Join("tests", ".x.j.json"); got != want {
		t.Errorf("goldenPath = %s, want %s", got, want)
	}
	if got, want := goldenPath("tests/x.j", "golden"), filepath.Join("golden", ".x.j.json"); got != want {
		t.Errorf("goldenPath = %s, want %s", got, want)
	}
}

func TestExpandGlobPatternsAndHashing(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.j"), "def a() end\n")
	write(t, filepath.Join(dir, "nested", "deep", "b.j"), "def a() end\n")
	write(t, filepath.Join(dir, "nested", "c.txt"), "ignored")

	files, err := expandGlobPatterns(filepath.Join(dir, "**", "*.j"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.j"), filepath.Join(dir, "nested", "deep", "b.j")}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}

	h1, err := hashFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	h2, _ := hashFile(files[1])
	if h1 != h2 {
		t.Error("identical content hashed differently")
	}
}
