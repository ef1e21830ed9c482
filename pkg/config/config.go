package config

import (
	"fmt"
	"strings"
)

type Feature int

const (
	FeatImports Feature = iota
	FeatMemoize
	FeatUnescape
	FeatEOFFlush
	FeatCount
)

type Warning int

const (
	WarnOverflow Warning = iota
	WarnUnterminatedString
	WarnKeywordPrefix
	WarnRedefinition
	WarnReimport
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

// MergePolicy decides what happens when a table entry or a function name is
// produced twice.
type MergePolicy int

const (
	MergeOverwrite MergePolicy = iota
	MergeReject
)

func (m MergePolicy) String() string {
	if m == MergeReject {
		return "reject"
	}
	return "overwrite"
}

func ParseMergePolicy(s string) (MergePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overwrite":
		return MergeOverwrite, nil
	case "reject":
		return MergeReject, nil
	}
	return MergeOverwrite, fmt.Errorf("unsupported merge policy '%s'. Supported: 'overwrite', 'reject'", s)
}

const (
	DefaultExtension      = ".j"
	DefaultMaxImportDepth = 64
	DefaultLogLevel       = "info"
)

type Config struct {
	Features       map[Feature]Info
	Warnings       map[Warning]Info
	FeatureMap     map[string]Feature
	WarningMap     map[string]Warning
	StdName        string
	Extension      string
	MergePolicy    MergePolicy
	MaxImportDepth int
	LogLevel       string
}

func NewConfig() *Config {
	cfg := &Config{
		Features:       make(map[Feature]Info),
		Warnings:       make(map[Warning]Info),
		FeatureMap:     make(map[string]Feature),
		WarningMap:     make(map[string]Warning),
		StdName:        "default",
		Extension:      DefaultExtension,
		MaxImportDepth: DefaultMaxImportDepth,
		LogLevel:       DefaultLogLevel,
	}

	features := map[Feature]Info{
		FeatImports:  {"imports", true, "Resolve `imp name` directives against sibling files."},
		FeatMemoize:  {"memoize", true, "Reuse the tokens of a file already scanned in this run when its content is unchanged."},
		FeatUnescape: {"unescape", false, "Decode \\\" \\\\ \\n \\t \\r inside string literals instead of keeping them verbatim."},
		FeatEOFFlush: {"eof-flush", true, "Emit a pending symbol or literal when the input ends without a trailing boundary."},
	}

	warnings := map[Warning]Info{
		WarnOverflow:           {"overflow", true, "Warn when an integer literal does not fit in 128 bits."},
		WarnUnterminatedString: {"unterminated-string", true, "Warn when the input ends inside a string literal."},
		WarnKeywordPrefix:      {"keyword-prefix", true, "Warn when a keyword is glued to the identifier that follows it (`define` scans as `def ine`)."},
		WarnRedefinition:       {"redefinition", true, "Warn when a function name is defined more than once."},
		WarnReimport:           {"reimport", false, "Warn when a file is scanned again with different content and replaces its earlier tokens."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// ApplyStd selects a behavior profile. "compat" reproduces the historical
// scanner: no memoization, no end-of-input flush, silent overwrites.
func (c *Config) ApplyStd(stdName string) error {
	c.StdName = stdName

	type stdSettings struct {
		feature Feature
		compat  bool
		def     bool
		strict  bool
	}

	settings := []stdSettings{
		{FeatMemoize, false, true, true},
		{FeatEOFFlush, false, true, true},
		{FeatImports, true, true, true},
	}

	switch stdName {
	case "compat":
		for _, s := range settings {
			c.SetFeature(s.feature, s.compat)
		}
		c.MergePolicy = MergeOverwrite
		c.SetWarning(WarnRedefinition, false)
		c.SetWarning(WarnKeywordPrefix, false)
	case "default", "":
		for _, s := range settings {
			c.SetFeature(s.feature, s.def)
		}
		c.MergePolicy = MergeOverwrite
	case "strict":
		for _, s := range settings {
			c.SetFeature(s.feature, s.strict)
		}
		c.MergePolicy = MergeReject
		for i := Warning(0); i < WarnCount; i++ {
			c.SetWarning(i, true)
		}
	default:
		return fmt.Errorf("unsupported standard '%s'. Supported: 'compat', 'default', 'strict'", stdName)
	}
	return nil
}

func (c *Config) applyFlag(flag string) {
	trimmed := strings.TrimPrefix(flag, "-")
	isNo := strings.HasPrefix(trimmed, "Wno-") || strings.HasPrefix(trimmed, "Fno-")
	enable := !isNo

	var name string
	var isWarning bool

	switch {
	case strings.HasPrefix(trimmed, "W"):
		name = strings.TrimPrefix(trimmed, "W")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
		isWarning = true
	case strings.HasPrefix(trimmed, "F"):
		name = strings.TrimPrefix(trimmed, "F")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
	default:
		name = trimmed
		isWarning = true
	}

	if name == "all" && isWarning {
		for i := Warning(0); i < WarnCount; i++ {
			c.SetWarning(i, enable)
		}
		return
	}

	if isWarning {
		if w, ok := c.WarningMap[name]; ok {
			c.SetWarning(w, enable)
		}
	} else {
		if f, ok := c.FeatureMap[name]; ok {
			c.SetFeature(f, enable)
		}
	}
}

// ProcessDirectiveFlags applies a whitespace separated list such as
// "-Wall -Fno-memoize".
func (c *Config) ProcessDirectiveFlags(flagStr string) {
	for _, flag := range strings.Fields(flagStr) {
		c.applyFlag(flag)
	}
}
