package util

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies a SyntaxError. Every Kind is itself an error so callers can
// test for one with errors.Is(err, util.ErrGrammar).
type Kind int

const (
	ErrImportRead Kind = iota
	ErrGrammar
	ErrImportCycle
	ErrImportDepth
	ErrMergeConflict
	ErrRedefinition
)

var kindNames = [...]string{
	ErrImportRead:    "import read failure",
	ErrGrammar:       "grammar failure",
	ErrImportCycle:   "import cycle",
	ErrImportDepth:   "import depth exceeded",
	ErrMergeConflict: "merge conflict",
	ErrRedefinition:  "redefinition",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

func (k Kind) Error() string { return k.String() }

// SyntaxError is the single error shape of the scanner, the import resolver
// and the extractor. File and Line locate the fault; for import failures they
// are the importing file and the line of its imp directive.
type SyntaxError struct {
	Kind     Kind
	File     string
	Line     int
	Msg      string
	Expected string
	Got      string
	Err      error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

func (e *SyntaxError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func NewImportReadError(file string, line int, target string, cause error) *SyntaxError {
	return &SyntaxError{
		Kind: ErrImportRead, File: file, Line: line, Err: cause,
		Msg: fmt.Sprintf("could not import file %s: %v", target, cause),
	}
}

func NewGrammarError(file string, line int, expected, got string) *SyntaxError {
	return &SyntaxError{
		Kind: ErrGrammar, File: file, Line: line, Expected: expected, Got: got,
		Msg: fmt.Sprintf("expected %s, got %s", expected, got),
	}
}

func NewImportCycleError(file string, line int, chain []string) *SyntaxError {
	return &SyntaxError{
		Kind: ErrImportCycle, File: file, Line: line,
		Msg: "import cycle: " + strings.Join(chain, " -> "),
	}
}

func NewImportDepthError(file string, line int, limit int) *SyntaxError {
	return &SyntaxError{
		Kind: ErrImportDepth, File: file, Line: line,
		Msg: fmt.Sprintf("imports nested deeper than %d files", limit),
	}
}

func NewMergeConflictError(file string, line int, path string) *SyntaxError {
	return &SyntaxError{
		Kind: ErrMergeConflict, File: file, Line: line,
		Msg: fmt.Sprintf("%s was scanned twice with different content", path),
	}
}

func NewRedefinitionError(file string, line int, name, previous string, previousLine int) *SyntaxError {
	return &SyntaxError{
		Kind: ErrRedefinition, File: file, Line: line,
		Msg: fmt.Sprintf("function %s redefined (previous definition at %s:%d)", name, previous, previousLine),
	}
}
