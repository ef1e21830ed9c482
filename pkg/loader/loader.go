package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/xplshn/jfront/pkg/config"
	"github.com/xplshn/jfront/pkg/lexer"
	"github.com/xplshn/jfront/pkg/token"
	"github.com/xplshn/jfront/pkg/util"
)

// Reader supplies file contents. The default reads from the OS file system.
type Reader interface {
	ReadFile(name string) ([]byte, error)
}

type ReaderFunc func(name string) ([]byte, error)

func (f ReaderFunc) ReadFile(name string) ([]byte, error) { return f(name) }

type Option func(*Loader)

func WithReader(r Reader) Option { return func(ld *Loader) { ld.reader = r } }

type memoEntry struct {
	sum   uint64
	table *token.Table
}

// Loader scans an entry file and every file it imports, recursively, into one
// token table. A Loader is meant for a single run and is not safe for
// concurrent use.
type Loader struct {
	cfg     *config.Config
	reader  Reader
	sources map[string][]rune
	memo    map[string]memoEntry
	active  map[string]bool
	stack   []string
}

func New(cfg *config.Config, opts ...Option) *Loader {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	ld := &Loader{
		cfg:     cfg,
		reader:  ReaderFunc(os.ReadFile),
		sources: make(map[string][]rune),
		memo:    make(map[string]memoEntry),
		active:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Source returns the text of a file read during this run.
func (ld *Loader) Source(path string) ([]rune, bool) {
	src, ok := ld.sources[filepath.Clean(path)]
	return src, ok
}

// ScanFile reads the entry file at path and scans it.
func (ld *Loader) ScanFile(path string) (*token.Table, error) {
	path = filepath.Clean(path)
	data, err := ld.reader.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read file %s: %w", path, err)
	}
	return ld.scan([]rune(string(data)), path, xxhash.Sum64(data))
}

// Scan tokenizes source as the file at path. Imports are resolved relative
// to the directory of path. The returned table holds path and every file
// reached through its imports.
func (ld *Loader) Scan(source, path string) (*token.Table, error) {
	return ld.scan([]rune(source), filepath.Clean(path), xxhash.Sum64String(source))
}

// ResolveImport loads the module name imported at line of the file from and
// returns the table produced by scanning it.
func (ld *Loader) ResolveImport(name, from string, line int) (*token.Table, error) {
	if name == "" {
		return nil, util.NewImportReadError(from, line, "<empty>", errors.New("missing module name after imp"))
	}
	target := filepath.Join(filepath.Dir(from), name+ld.cfg.Extension)

	if ld.active[target] {
		start := slices.Index(ld.stack, target)
		chain := append(slices.Clone(ld.stack[start:]), target)
		return nil, util.NewImportCycleError(from, line, chain)
	}
	if limit := ld.cfg.MaxImportDepth; limit > 0 && len(ld.stack) >= limit {
		return nil, util.NewImportDepthError(from, line, limit)
	}

	data, err := ld.reader.ReadFile(target)
	if err != nil {
		return nil, util.NewImportReadError(from, line, target, err)
	}
	sum := xxhash.Sum64(data)

	if ld.cfg.IsFeatureEnabled(config.FeatMemoize) {
		if m, ok := ld.memo[target]; ok && m.sum == sum {
			util.Debug("Reusing tokens of %s", target)
			return m.table, nil
		}
	}

	util.Info("Importing file %s", target)
	return ld.scan([]rune(string(data)), target, sum)
}

func (ld *Loader) scan(src []rune, path string, sum uint64) (*token.Table, error) {
	ld.sources[path] = src
	ld.active[path] = true
	ld.stack = append(ld.stack, path)
	defer func() {
		delete(ld.active, path)
		ld.stack = ld.stack[:len(ld.stack)-1]
	}()

	table := token.NewTable()
	importer := lexer.ImporterFunc(func(name string, line int) error {
		sub, err := ld.ResolveImport(name, path, line)
		if err != nil {
			return err
		}
		return ld.merge(table, sub, path, line)
	})

	seq, err := lexer.NewLexer(src, path, ld.cfg, importer).Run()
	if err != nil {
		return nil, err
	}
	table.Set(path, seq, sum)

	if ld.cfg.IsFeatureEnabled(config.FeatMemoize) {
		ld.memo[path] = memoEntry{sum: sum, table: table}
	}
	return table, nil
}

// merge unions sub into dst in sub's completion order. An entry that came
// back from the memo carries the revision dst already holds and keeps its
// place; a rescan moves the path to the end.
func (ld *Loader) merge(dst, sub *token.Table, from string, line int) error {
	for _, path := range sub.Paths() {
		sum, _ := sub.Sum(path)
		if prev, ok := dst.Sum(path); ok {
			rev, _ := sub.Rev(path)
			if prevRev, _ := dst.Rev(path); prevRev == rev {
				continue
			}
			if prev != sum {
				if ld.cfg.MergePolicy == config.MergeReject {
					return util.NewMergeConflictError(from, line, path)
				}
				util.Warn(ld.cfg, config.WarnReimport, from, line, "%s was scanned again with different content; keeping the later tokens", path)
			}
		}
		dst.Adopt(sub, path)
	}
	return nil
}
