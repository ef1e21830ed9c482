package extractor_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xplshn/jfront/pkg/config"
	"github.com/xplshn/jfront/pkg/extractor"
	"github.com/xplshn/jfront/pkg/lexer"
	"github.com/xplshn/jfront/pkg/loader"
	"github.com/xplshn/jfront/pkg/token"
	"github.com/xplshn/jfront/pkg/util"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := util.SetDefault(util.NewLogger(&buf, util.LevelWarn))
	t.Cleanup(func() { util.SetDefault(prev) })
	return &buf
}

// table scans each (path, source) pair in order into one table.
func table(t *testing.T, files ...string) *token.Table {
	t.Helper()
	tbl := token.NewTable()
	for i := 0; i+1 < len(files); i += 2 {
		seq, err := lexer.Scan([]rune(files[i+1]), files[i], nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		tbl.Set(files[i], seq, uint64(i))
	}
	return tbl
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestExtractSignatures(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want extractor.Functions
	}{
		{
			name: "two params",
			src:  "def add(a, b) end",
			want: extractor.Functions{"add": {Name: "add", File: "m.j", Params: []string{"a", "b"}, Line: 1}},
		},
		{
			name: "no params",
			src:  "def g() end",
			want: extractor.Functions{"g": {Name: "g", File: "m.j", Params: []string{}, Line: 1}},
		},
		{
			name: "trailing comma",
			src:  "def h(x,) end",
			want: extractor.Functions{"h": {Name: "h", File: "m.j", Params: []string{"x"}, Line: 1}},
		},
		{
			name: "duplicate params kept",
			src:  "def d(x, x) end",
			want: extractor.Functions{"d": {Name: "d", File: "m.j", Params: []string{"x", "x"}, Line: 1}},
		},
		{
			name: "bodies ignored",
			src:  "\ndef f(n)\n  ret n * 2\nend\n\ndef main()\n  f(3)\nend\n",
			want: extractor.Functions{
				"f":    {Name: "f", File: "m.j", Params: []string{"n"}, Line: 2},
				"main": {Name: "main", File: "m.j", Params: []string{}, Line: 6},
			},
		},
		{
			name: "no functions",
			src:  "var x = 1\n",
			want: extractor.Functions{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractor.Extract(table(t, "m.j", tt.src), nil)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("functions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractGrammarErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		line     int
		expected string
		got      string
	}{
		{"unterminated params", "\n\ndef f(a", 3, "',' or ')'", "end of file"},
		{"missing name", "def (a) end", 1, "function name", "'('"},
		{"missing paren", "def f\n a) end", 1, "'('", "newline"},
		{"literal param", "def f(1) end", 1, "parameter name or ')'", "int 1"},
		{"missing comma", "def f(a b) end", 1, "',' or ')'", "symbol b"},
		{"def at end", "var x\ndef", 2, "function name", "end of file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractor.Extract(table(t, "m.j", tt.src), nil)
			if !errors.Is(err, util.ErrGrammar) {
				t.Fatalf("expected grammar error, got %v", err)
			}
			var se *util.SyntaxError
			errors.As(err, &se)
			got := [4]any{se.File, se.Line, se.Expected, se.Got}
			want := [4]any{"m.j", tt.line, tt.expected, tt.got}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("error mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractAbortsWithoutPartialResult(t *testing.T) {
	got, err := extractor.Extract(table(t, "a.j", "def ok() end", "b.j", "def bad("), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if got != nil {
		t.Errorf("partial result returned: %v", got)
	}
}

func TestLastCompletedFileWins(t *testing.T) {
	buf := captureLog(t)
	tbl := table(t, "first.j", "def f(a) end", "second.j", "\ndef f(b, c) end")
	got, err := extractor.Extract(tbl, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := &extractor.Function{Name: "f", File: "second.j", Params: []string{"b", "c"}, Line: 2}
	if diff := cmp.Diff(want, got["f"]); diff != "" {
		t.Errorf("f mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), "second.j:2: function f redefined") {
		t.Errorf("expected redefinition warning, log:\n%s", buf.String())
	}
}

func TestRejectRedefinition(t *testing.T) {
	cfg := config.NewConfig()
	cfg.MergePolicy = config.MergeReject
	_, err := extractor.Extract(table(t, "first.j", "def f() end", "second.j", "def f() end"), cfg)
	if !errors.Is(err, util.ErrRedefinition) {
		t.Fatalf("expected redefinition error, got %v", err)
	}
	if !strings.Contains(err.Error(), "first.j:1") {
		t.Errorf("error %q does not point at the previous definition", err)
	}
}

func TestImportedFunctionEndToEnd(t *testing.T) {
	captureLog(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"main.j": "imp foo\nfoo()\n",
		"foo.j":  "def g() end\n",
	})

	tbl, err := loader.New(nil).ScanFile(filepath.Join(dir, "main.j"))
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("table has %d entries, want 2", tbl.Len())
	}
	got, err := extractor.Extract(tbl, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := extractor.Functions{
		"g": {Name: "g", File: filepath.Join(dir, "foo.j"), Params: []string{}, Line: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("functions mismatch (-want +got):\n%s", diff)
	}
}

func TestImportOrderDecidesWinner(t *testing.T) {
	captureLog(t)
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"main.j": "imp one\nimp two\n",
		"one.j":  "def f(x) end\n",
		"two.j":  "def f(y) end\n",
	})

	tbl, err := loader.New(nil).ScanFile(filepath.Join(dir, "main.j"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := extractor.Extract(tbl, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got["f"] == nil {
		t.Fatalf("want exactly one f, got %v", got.Names())
	}
	if got["f"].File != filepath.Join(dir, "two.j") {
		t.Errorf("f taken from %s, want two.j", got["f"].File)
	}
}

func TestRescannedImportCompletesLast(t *testing.T) {
	tests := []struct {
		name    string
		memoize bool
		winner  string
		line    int
		params  []string
	}{
		{"rescanned", false, "b.j", 1, []string{"fromB"}},
		{"memoized", true, "a.j", 2, []string{"fromA"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureLog(t)
			dir := t.TempDir()
			writeFiles(t, dir, map[string]string{
				"main.j": "imp a\nimp b\n",
				"a.j":    "imp b\ndef f(fromA) end\n",
				"b.j":    "def f(fromB) end\n",
			})
			cfg := config.NewConfig()
			cfg.SetFeature(config.FeatMemoize, tt.memoize)

			tbl, err := loader.New(cfg).ScanFile(filepath.Join(dir, "main.j"))
			if err != nil {
				t.Fatal(err)
			}
			got, err := extractor.Extract(tbl, cfg)
			if err != nil {
				t.Fatal(err)
			}
			want := &extractor.Function{Name: "f", File: filepath.Join(dir, tt.winner), Params: tt.params, Line: tt.line}
			if diff := cmp.Diff(want, got["f"]); diff != "" {
				t.Errorf("f mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNames(t *testing.T) {
	fs := extractor.Functions{"b": {}, "a": {}, "c": {}}
	if diff := cmp.Diff([]string{"a", "b", "c"}, fs.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}
