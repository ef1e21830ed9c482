package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/xplshn/jfront/pkg/config"
	"github.com/xplshn/jfront/pkg/extractor"
	"github.com/xplshn/jfront/pkg/loader"
)

// FileTokens is the rendered token stream of one scanned file.
type FileTokens struct {
	Path   string   `json:"path"`
	Tokens []string `json:"tokens"`
}

// Snapshot is what a golden file records for one entry file. Paths are
// relative to the entry's directory so goldens survive a move.
type Snapshot struct {
	Files     []FileTokens         `json:"files"`
	Functions []extractor.Function `json:"functions"`
	Error     string               `json:"error,omitempty"`
}

type FileTestResult struct {
	File     string    `json:"file"`
	Status   string    `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message  string    `json:"message,omitempty"`
	Diff     string    `json:"diff,omitempty"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

type TestSuiteResults map[string]*FileTestResult

func goldenPath(sourceFile, dir string) string {
	name := "." + filepath.Base(sourceFile) + ".json"
	if dir != "" {
		return filepath.Join(dir, name)
	}
	return filepath.Join(filepath.Dir(sourceFile), name)
}

// hashFile computes the xxhash of a file's content
func hashFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// takeSnapshot scans and extracts file in-process. A scan or extraction
// failure is part of the snapshot, not an error of the runner.
func takeSnapshot(file string, cfg *config.Config) *Snapshot {
	base := filepath.Dir(file)
	rel := func(p string) string {
		if r, err := filepath.Rel(base, p); err == nil {
			return filepath.ToSlash(r)
		}
		return filepath.ToSlash(p)
	}
	snap := &Snapshot{Files: []FileTokens{}, Functions: []extractor.Function{}}
	fail := func(err error) *Snapshot {
		msg := err.Error()
		if base != "." {
			msg = strings.ReplaceAll(msg, base+string(filepath.Separator), "")
		}
		snap.Error = filepath.ToSlash(msg)
		return snap
	}

	table, err := loader.New(cfg).ScanFile(file)
	if err != nil {
		return fail(err)
	}
	for _, path := range table.Paths() {
		seq, _ := table.Get(path)
		toks := make([]string, len(seq))
		for i, p := range seq {
			toks[i] = p.String()
		}
		snap.Files = append(snap.Files, FileTokens{Path: rel(path), Tokens: toks})
	}

	funcs, err := extractor.Extract(table, cfg)
	if err != nil {
		return fail(err)
	}
	for _, name := range funcs.Names() {
		fn := *funcs[name]
		fn.File = rel(fn.File)
		snap.Functions = append(snap.Functions, fn)
	}
	return snap
}

func readGolden(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("could not parse golden file %s: %w", path, err)
	}
	return &snap, nil
}

func writeGolden(path string, snap *Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// compareSnapshot checks got against the golden file for file.
func compareSnapshot(file, golden string, got *Snapshot) *FileTestResult {
	want, err := readGolden(golden)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileTestResult{File: file, Status: "SKIP", Message: "Cannot test without a corresponding .json golden file", Snapshot: got}
		}
		return &FileTestResult{File: file, Status: "ERROR", Message: err.Error(), Snapshot: got}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		return &FileTestResult{File: file, Status: "FAIL", Message: "Snapshot differs from golden file", Diff: diff, Snapshot: got}
	}
	return &FileTestResult{File: file, Status: "PASS", Message: "Snapshot matches golden file", Snapshot: got}
}
