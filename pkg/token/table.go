package token

import (
	"slices"
	"sync/atomic"
)

// lastRev numbers every Set so a sequence can be told apart from a rescan of
// the same content.
var lastRev atomic.Uint64

// Table maps a cleaned file path to the token sequence scanned from it. Paths
// are kept in the order their scans completed; re-setting a path moves it to
// the end, so walking Paths gives last-writer-wins semantics downstream.
type Table struct {
	files map[string]Sequence
	sums  map[string]uint64
	revs  map[string]uint64
	order []string
}

func NewTable() *Table {
	return &Table{
		files: make(map[string]Sequence),
		sums:  make(map[string]uint64),
		revs:  make(map[string]uint64),
	}
}

// Set records seq as the final sequence for path. sum fingerprints the source
// content the sequence was scanned from. Each call gets a new revision.
func (t *Table) Set(path string, seq Sequence, sum uint64) {
	t.put(path, seq, sum, lastRev.Add(1))
}

// Adopt copies the entry for path from src, keeping its revision, and moves
// path to the end of the order.
func (t *Table) Adopt(src *Table, path string) bool {
	seq, ok := src.files[path]
	if !ok {
		return false
	}
	t.put(path, seq, src.sums[path], src.revs[path])
	return true
}

func (t *Table) put(path string, seq Sequence, sum, rev uint64) {
	if _, ok := t.files[path]; ok {
		t.order = slices.DeleteFunc(t.order, func(p string) bool { return p == path })
	}
	t.files[path] = seq
	t.sums[path] = sum
	t.revs[path] = rev
	t.order = append(t.order, path)
}

func (t *Table) Get(path string) (Sequence, bool) {
	seq, ok := t.files[path]
	return seq, ok
}

func (t *Table) Sum(path string) (uint64, bool) {
	sum, ok := t.sums[path]
	return sum, ok
}

// Rev identifies the Set call that produced the entry for path. Entries
// copied with Adopt share the revision of their source.
func (t *Table) Rev(path string) (uint64, bool) {
	rev, ok := t.revs[path]
	return rev, ok
}

func (t *Table) Has(path string) bool {
	_, ok := t.files[path]
	return ok
}

func (t *Table) Len() int { return len(t.order) }

// Paths returns the paths in completion order.
func (t *Table) Paths() []string { return slices.Clone(t.order) }

// Files returns a copy of the path to sequence mapping.
func (t *Table) Files() map[string]Sequence {
	files := make(map[string]Sequence, len(t.files))
	for path, seq := range t.files {
		files[path] = seq
	}
	return files
}
