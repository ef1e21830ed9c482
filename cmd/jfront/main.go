package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goforj/godump"

	"github.com/xplshn/jfront/pkg/cli"
	"github.com/xplshn/jfront/pkg/config"
	"github.com/xplshn/jfront/pkg/extractor"
	"github.com/xplshn/jfront/pkg/loader"
	"github.com/xplshn/jfront/pkg/token"
	"github.com/xplshn/jfront/pkg/util"
)

// fileReport is the --json shape of one entry file.
type fileReport struct {
	File      string                `json:"file"`
	Files     []string              `json:"files,omitempty"`
	Functions []*extractor.Function `json:"functions"`
	Error     string                `json:"error,omitempty"`
}

func main() {
	app := cli.NewApp("jfront")
	app.Synopsis = "[options] <input.j|glob> ..."
	app.Description = "Scans source files, follows their imports and lists every function signature it finds."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/jfront>"
	app.Since = 2025

	var (
		configPath string
		std        string
		ext        string
		merge      string
		logLevel   string
		maxDepth   int
		dumpTokens bool
		jsonOut    bool
		wall       bool
	)

	fs := app.FlagSet
	fs.String(&configPath, "config", "c", config.FileName, "Read settings from <file>.", "file")
	fs.String(&std, "std", "", "default", "Select a behavior profile (compat, default, strict).", "std")
	fs.String(&ext, "ext", "e", config.DefaultExtension, "Extension appended to imported module names.", "ext")
	fs.String(&merge, "merge", "m", config.MergeOverwrite.String(), "How repeated files and functions are merged (overwrite, reject).", "policy")
	fs.String(&logLevel, "log-level", "", config.DefaultLogLevel, "Log verbosity (debug, info, warn, error).", "level")
	fs.Int(&maxDepth, "max-depth", "", config.DefaultMaxImportDepth, "Maximum nesting of imports.", "n")
	fs.Bool(&dumpTokens, "dump-tokens", "d", false, "Dump the token table of every entry file.")
	fs.Bool(&jsonOut, "json", "", false, "Print results as JSON.")
	fs.Bool(&wall, "Wall", "", false, "Enable every warning.")

	defaults := config.NewConfig()
	warningFlags, featureFlags := defaults.SetupFlagGroups(fs)

	app.Action = func(args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			util.Default().Errorf("%v", err)
			return err
		}

		// Command line overrides the file; the profile goes first.
		if fs.Changed("std") {
			if err := cfg.ApplyStd(std); err != nil {
				util.Default().Errorf("%v", err)
				return err
			}
		}
		if wall {
			cfg.ProcessDirectiveFlags("-Wall")
		}
		cfg.ApplyFlagGroups(fs, warningFlags, featureFlags)
		if fs.Changed("ext") {
			cfg.SetExtension(ext)
		}
		if fs.Changed("merge") {
			if cfg.MergePolicy, err = config.ParseMergePolicy(merge); err != nil {
				util.Default().Errorf("%v", err)
				return err
			}
		}
		if fs.Changed("max-depth") {
			cfg.MaxImportDepth = maxDepth
		}
		if fs.Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		level, err := util.ParseLevel(cfg.LogLevel)
		if err != nil {
			util.Default().Errorf("%v", err)
			return err
		}
		util.Default().SetLevel(level)

		inputs, err := expandInputs(args)
		if err != nil {
			util.Default().Errorf("%v", err)
			return err
		}

		var reports []fileReport
		failed := false
		for _, input := range inputs {
			report, ok := run(input, cfg, dumpTokens, jsonOut)
			failed = failed || !ok
			reports = append(reports, report)
		}

		if jsonOut {
			enc := json.NewEncoder(app.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(reports); err != nil {
				return err
			}
		}
		if failed {
			return fmt.Errorf("%d of %d file(s) failed", countFailed(reports), len(reports))
		}
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// expandInputs resolves glob patterns; plain paths are kept as given so a
// missing file is reported by the loader under the name the user typed.
func expandInputs(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no input files specified")
	}
	var inputs []string
	seen := make(map[string]bool)
	for _, arg := range args {
		matches := []string{arg}
		if strings.ContainsAny(arg, "*?[{") {
			var err error
			matches, err = doublestar.FilepathGlob(arg)
			if err != nil {
				return nil, fmt.Errorf("bad pattern '%s': %w", arg, err)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("pattern '%s' matched no files", arg)
			}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				inputs = append(inputs, m)
			}
		}
	}
	return inputs, nil
}

func run(input string, cfg *config.Config, dumpTokens, jsonOut bool) (fileReport, bool) {
	report := fileReport{File: input, Functions: []*extractor.Function{}}
	util.Info("Parsing %s", input)

	ld := loader.New(cfg)
	table, err := ld.ScanFile(input)
	if err != nil {
		return fail(report, err, ld, jsonOut), false
	}
	report.Files = table.Paths()
	if dumpTokens {
		godump.Dump(table.Files())
	}

	funcs, err := extractor.Extract(table, cfg)
	if err != nil {
		return fail(report, err, ld, jsonOut), false
	}
	for _, name := range funcs.Names() {
		report.Functions = append(report.Functions, funcs[name])
	}
	if !jsonOut {
		printFunctions(os.Stdout, input, table, report.Functions)
	}
	return report, true
}

func fail(report fileReport, err error, src util.SourceLookup, jsonOut bool) fileReport {
	report.Error = err.Error()
	if !jsonOut {
		util.Report(os.Stderr, err, src)
	}
	return report
}

func printFunctions(w io.Writer, input string, table *token.Table, funcs []*extractor.Function) {
	fmt.Fprintf(w, "%s (%d file(s), %d function(s))\n", input, table.Len(), len(funcs))
	width := 0
	sigs := make([]string, len(funcs))
	for i, fn := range funcs {
		sigs[i] = fmt.Sprintf("%s(%s)", fn.Name, strings.Join(fn.Params, ", "))
		width = max(width, len(sigs[i]))
	}
	for i, fn := range funcs {
		fmt.Fprintf(w, "  %-*s  %s:%d\n", width, sigs[i], fn.File, fn.Line)
	}
}

func countFailed(reports []fileReport) int {
	n := 0
	for _, r := range reports {
		if r.Error != "" {
			n++
		}
	}
	return n
}
