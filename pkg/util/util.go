package util

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xplshn/jfront/pkg/config"
)

// SourceLookup gives access to the text of files read during a run so that
// diagnostics can quote the offending line.
type SourceLookup interface {
	Source(path string) ([]rune, bool)
}

// Warn reports a warning through the default logger if wt is enabled in cfg.
// It returns whether anything was reported.
func Warn(cfg *config.Config, wt config.Warning, file string, line int, format string, args ...any) bool {
	if cfg == nil || !cfg.IsWarningEnabled(wt) {
		return false
	}
	msg := fmt.Sprintf(format, args...)
	Default().Warnf("%s:%d: %s [-W%s]", file, line, msg, cfg.Warnings[wt].Name)
	return true
}

// Report prints err as "file:line: error: message" followed by the quoted
// source line when src knows the file. src may be nil.
func Report(w io.Writer, err error, src SourceLookup) {
	color := isTerminal(w)
	label := "error:"
	if color {
		label = cRed + label + cNone
	}

	var se *SyntaxError
	if !errors.As(err, &se) {
		fmt.Fprintf(w, "%s %v\n", label, err)
		return
	}
	fmt.Fprintf(w, "%s:%d: %s %s\n", se.File, se.Line, label, se.Msg)
	if src != nil {
		if content, ok := src.Source(se.File); ok {
			printErrorLine(w, content, se.Line, color)
		}
	}
}

// printErrorLine prints the source line and underlines its non-blank part
func printErrorLine(w io.Writer, content []rune, lineNum int, color bool) {
	if lineNum <= 0 {
		return
	}
	text, ok := sourceLine(content, lineNum)
	if !ok {
		return
	}
	trimmed := strings.TrimLeft(text, " \t")
	if strings.TrimSpace(trimmed) == "" {
		return
	}
	lead := text[:len(text)-len(trimmed)]
	width := len([]rune(strings.TrimRight(trimmed, " \t\r")))

	fmt.Fprintf(w, "  %s\n", strings.TrimRight(text, "\r"))
	marker := "^" + strings.Repeat("~", width-1)
	if color {
		marker = cGreen + marker + cNone
	}
	fmt.Fprintf(w, "  %s%s\n", lead, marker)
}

// sourceLine returns the 1-based line lineNum of content without its newline.
func sourceLine(content []rune, lineNum int) (string, bool) {
	lineStart := 0
	for i, r := range content {
		if lineNum <= 1 {
			break
		}
		if r == '\n' {
			lineNum--
			lineStart = i + 1
		}
	}
	if lineNum > 1 {
		return "", false
	}

	lineEnd := len(content)
	for i := lineStart; i < len(content); i++ {
		if content[i] == '\n' {
			lineEnd = i
			break
		}
	}
	return string(content[lineStart:lineEnd]), true
}
