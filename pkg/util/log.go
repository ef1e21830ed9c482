package util

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

const (
	cRed    = "\033[31m"
	cGreen  = "\033[32m"
	cYellow = "\033[33m"
	cBlue   = "\033[34m"
	cDim    = "\033[2m"
	cBold   = "\033[1m"
	cNone   = "\033[0m"
)

var levelStyles = [...]struct {
	label string
	color string
}{
	LevelDebug: {"Debug", cGreen},
	LevelInfo:  {"Info", cBlue},
	LevelWarn:  {"Warn", cYellow},
	LevelError: {"Error", cRed},
}

func (l Level) String() string { return strings.ToLower(levelStyles[l].label) }

func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level '%s'", s)
}

// Logger writes "Level: message" lines, colored when the destination is a
// terminal.
type Logger struct {
	mu    sync.Mutex
	w     io.Writer
	level Level
	color bool
}

func NewLogger(w io.Writer, level Level) *Logger {
	return &Logger{w: w, level: level, color: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) Enabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.level
}

func (l *Logger) Writer() io.Writer { return l.w }

func (l *Logger) style(s, color string) string {
	if !l.color {
		return s
	}
	return cBold + color + s + cNone
}

func (l *Logger) logf(level Level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}
	st := levelStyles[level]
	fmt.Fprintf(l.w, "%s: %s\n", l.style(st.label, st.color), fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

var (
	stdMu sync.RWMutex
	std   = NewLogger(os.Stderr, LevelInfo)
)

// Default returns the process-wide logger used by the scanner packages.
func Default() *Logger {
	stdMu.RLock()
	defer stdMu.RUnlock()
	return std
}

// SetDefault replaces the process-wide logger and returns the previous one.
func SetDefault(l *Logger) *Logger {
	stdMu.Lock()
	defer stdMu.Unlock()
	prev := std
	std = l
	return prev
}

func Debug(format string, args ...any) { Default().Debugf(format, args...) }
func Info(format string, args ...any)  { Default().Infof(format, args...) }
