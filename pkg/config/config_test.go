package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xplshn/jfront/pkg/cli"
)

func enabledWarnings(c *Config) map[string]bool {
	out := make(map[string]bool)
	for _, info := range c.Warnings {
		out[info.Name] = info.Enabled
	}
	return out
}

func TestDefaults(t *testing.T) {
	c := NewConfig()
	if c.Extension != ".j" || c.MaxImportDepth != 64 || c.MergePolicy != MergeOverwrite {
		t.Errorf("unexpected defaults: %+v", c)
	}
	for _, ft := range []Feature{FeatImports, FeatMemoize, FeatEOFFlush} {
		if !c.IsFeatureEnabled(ft) {
			t.Errorf("feature %s should default on", c.Features[ft].Name)
		}
	}
	if c.IsFeatureEnabled(FeatUnescape) {
		t.Error("unescape should default off")
	}
	if len(c.FeatureMap) != int(FeatCount) || len(c.WarningMap) != int(WarnCount) {
		t.Error("name maps incomplete")
	}
}

func TestApplyStd(t *testing.T) {
	c := NewConfig()
	if err := c.ApplyStd("compat"); err != nil {
		t.Fatal(err)
	}
	if c.IsFeatureEnabled(FeatMemoize) || c.IsFeatureEnabled(FeatEOFFlush) {
		t.Error("compat keeps memoize or eof-flush")
	}
	if c.IsWarningEnabled(WarnRedefinition) {
		t.Error("compat keeps redefinition warnings")
	}

	if err := c.ApplyStd("strict"); err != nil {
		t.Fatal(err)
	}
	if c.MergePolicy != MergeReject {
		t.Error("strict should reject")
	}
	for name, on := range enabledWarnings(c) {
		if !on {
			t.Errorf("strict leaves %s off", name)
		}
	}

	if err := c.ApplyStd("bogus"); err == nil {
		t.Error("unknown standard accepted")
	}
}

func TestProcessDirectiveFlags(t *testing.T) {
	c := NewConfig()
	c.ProcessDirectiveFlags("-Wno-all -Wreimport -Fno-memoize -Funescape -Wnot-a-warning")
	want := map[string]bool{
		"overflow": false, "unterminated-string": false, "keyword-prefix": false,
		"redefinition": false, "reimport": true,
	}
	if diff := cmp.Diff(want, enabledWarnings(c)); diff != "" {
		t.Errorf("warnings mismatch (-want +got):\n%s", diff)
	}
	if c.IsFeatureEnabled(FeatMemoize) || !c.IsFeatureEnabled(FeatUnescape) {
		t.Error("feature flags not applied")
	}
}

func TestParseMergePolicy(t *testing.T) {
	for in, want := range map[string]MergePolicy{"": MergeOverwrite, "Overwrite": MergeOverwrite, " reject ": MergeReject} {
		got, err := ParseMergePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseMergePolicy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMergePolicy("merge"); err == nil {
		t.Error("unknown policy accepted")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	yaml := `std: strict
extension: src
merge_policy: overwrite
max_import_depth: 8
log_level: debug
flags: -Fno-imports
features:
  unescape: true
warnings:
  keyword-prefix: false
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFromDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if c.StdName != "strict" || c.Extension != ".src" || c.MaxImportDepth != 8 || c.LogLevel != "debug" {
		t.Errorf("scalar settings not applied: %+v", c)
	}
	if c.MergePolicy != MergeOverwrite {
		t.Error("explicit merge_policy should override the profile")
	}
	if c.IsFeatureEnabled(FeatImports) || !c.IsFeatureEnabled(FeatUnescape) {
		t.Error("features not applied")
	}
	if c.IsWarningEnabled(WarnKeywordPrefix) || !c.IsWarningEnabled(WarnReimport) {
		t.Error("warnings not applied")
	}
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(NewConfig(), c); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := map[string]string{
		"unknown feature": "features:\n  turbo: true\n",
		"unknown warning": "warnings:\n  loud: true\n",
		"negative depth":  "max_import_depth: -1\n",
		"bad policy":      "merge_policy: maybe\n",
		"bad std":         "std: b\n",
		"bad yaml":        "features: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFlagGroups(t *testing.T) {
	c := NewConfig()
	fs := cli.NewFlagSet("test")
	wf, ff := c.SetupFlagGroups(fs)
	if err := fs.Parse([]string{"-Wreimport", "-Wno-overflow", "-Fno-memoize", "input.j"}); err != nil {
		t.Fatal(err)
	}

	target := NewConfig()
	target.SetWarning(WarnKeywordPrefix, false)
	target.ApplyFlagGroups(fs, wf, ff)

	if !target.IsWarningEnabled(WarnReimport) || target.IsWarningEnabled(WarnOverflow) {
		t.Error("warning flags not applied")
	}
	if target.IsFeatureEnabled(FeatMemoize) {
		t.Error("feature flag not applied")
	}
	if target.IsWarningEnabled(WarnKeywordPrefix) {
		t.Error("a flag that was not given overrode the target config")
	}
	if diff := cmp.Diff([]string{"input.j"}, fs.Args()); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}
