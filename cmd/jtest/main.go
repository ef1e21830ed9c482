package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"

	"github.com/xplshn/jfront/pkg/cli"
	"github.com/xplshn/jfront/pkg/config"
	"github.com/xplshn/jfront/pkg/util"
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

type options struct {
	testFiles      string
	skipFiles      string
	outputJSON     string
	goldenDir      string
	configPath     string
	std            string
	jobs           int
	verbose        bool
	generateGolden bool
}

func main() {
	app := cli.NewApp("jtest")
	app.Synopsis = "[options]"
	app.Description = "Runs the scanner and extractor over test sources and compares the results with golden snapshots."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/jfront>"
	app.Since = 2025

	var opts options
	fs := app.FlagSet
	fs.String(&opts.testFiles, "test-files", "t", "tests/**/*.j", "Glob pattern(s) for files to test (space-separated).", "patterns")
	fs.String(&opts.skipFiles, "skip-files", "s", "", "Files to skip (space-separated).", "files")
	fs.String(&opts.outputJSON, "output", "o", ".test_results.json", "Output file for the JSON test report.", "file")
	fs.String(&opts.goldenDir, "dir", "", "", "Directory to store/read golden JSON files (defaults to source file dir).", "dir")
	fs.String(&opts.configPath, "config", "c", config.FileName, "Read scanner settings from <file>.", "file")
	fs.String(&opts.std, "std", "", "", "Override the behavior profile (compat, default, strict).", "std")
	fs.Int(&opts.jobs, "jobs", "j", 4, "Number of parallel test jobs.", "n")
	fs.Bool(&opts.verbose, "verbose", "v", false, "Enable verbose logging.")
	fs.Bool(&opts.generateGolden, "generate-golden", "g", false, "Write golden files instead of comparing against them.")

	app.Action = func(args []string) error {
		cfg, err := config.Load(opts.configPath)
		if err != nil {
			util.Default().Errorf("%v", err)
			return err
		}
		if opts.std != "" {
			if err := cfg.ApplyStd(opts.std); err != nil {
				util.Default().Errorf("%v", err)
				return err
			}
		}
		// Per-file diagnostics would interleave across workers.
		level := util.LevelError
		if opts.verbose {
			level = util.LevelInfo
		}
		util.Default().SetLevel(level)

		if opts.jobs < 1 {
			opts.jobs = 1
		}
		patterns := opts.testFiles
		if len(args) > 0 {
			patterns = strings.Join(args, " ")
		}
		files, err := expandGlobPatterns(patterns)
		if err != nil {
			util.Default().Errorf("Invalid glob pattern(s): %v", err)
			return err
		}
		if len(files) == 0 {
			fmt.Println("No test files found matching the pattern(s).")
			return nil
		}

		if opts.generateGolden {
			return generateGoldens(files, cfg, &opts)
		}
		results := runTestSuite(files, cfg, &opts)
		printSummary(results, opts.verbose)
		resultsMap := writeJSONReport(results, &opts)
		if hasFailures(resultsMap) {
			return fmt.Errorf("test suite failed")
		}
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func generateGoldens(files []string, cfg *config.Config, opts *options) error {
	for _, file := range files {
		golden := goldenPath(file, opts.goldenDir)
		if err := writeGolden(golden, takeSnapshot(file, cfg)); err != nil {
			util.Default().Errorf("Failed to write golden file %s: %v", golden, err)
			return err
		}
		fmt.Printf("%s[SUCCESS]%s Golden file created at %s\n", cGreen, cNone, golden)
	}
	return nil
}

func runTestSuite(files []string, cfg *config.Config, opts *options) []*FileTestResult {
	skipList := make(map[string]bool)
	for _, f := range strings.Fields(opts.skipFiles) {
		if abs, err := filepath.Abs(f); err == nil {
			skipList[abs] = true
		}
	}

	tasks := make(chan string, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup

	for i := 0; i < opts.jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range tasks {
				resultsChan <- compareSnapshot(file, goldenPath(file, opts.goldenDir), takeSnapshot(file, cfg))
			}
		}()
	}

	// Feed the tasks channel, skipping files with identical content
	seenHashes := make(map[uint64]string)
	for _, file := range files {
		if skipList[file] {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		fileHash, err := hashFile(file)
		if err != nil {
			resultsChan <- &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to read file for hashing: %v", err)}
			continue
		}
		if originalFile, seen := seenHashes[fileHash]; seen {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: fmt.Sprintf("Content is identical to %s", originalFile)}
			continue
		}
		seenHashes[fileHash] = file
		tasks <- file
	}
	close(tasks)

	var bar *progressbar.ProgressBar
	if !opts.verbose {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Testing[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Println()
			}),
		)
	}

	allResults := make([]*FileTestResult, 0, len(files))
	for range files {
		allResults = append(allResults, <-resultsChan)
		if bar != nil {
			bar.Add(1)
		}
	}
	wg.Wait()

	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].File < allResults[j].File
	})
	return allResults
}

func printSummary(results []*FileTestResult, verbose bool) {
	var passed, failed, skipped, errored int
	for _, result := range results {
		quiet := result.Status == "PASS" && !verbose
		if !quiet {
			fmt.Println("----------------------------------------------------------------------")
			fmt.Printf("Testing %s%s%s...\n", cCyan, result.File, cNone)
		}

		switch result.Status {
		case "PASS":
			passed++
			if !quiet {
				fmt.Printf("  [%sPASS%s] %s\n", cGreen, cNone, result.Message)
			}
		case "FAIL":
			failed++
			fmt.Printf("  [%sFAIL%s] %s\n", cRed, cNone, result.Message)
			fmt.Println(formatDiff(result.Diff))
		case "SKIP":
			skipped++
			fmt.Printf("  [%sSKIP%s] %s\n", cYellow, cNone, result.Message)
		case "ERROR":
			errored++
			fmt.Printf("  [%sERROR%s] %s\n", cRed, cNone, result.Message)
		}
	}

	fmt.Println("----------------------------------------------------------------------")
	fmt.Printf("%sTest Summary:%s %s%d Passed%s, %s%d Failed%s, %s%d Skipped%s, %s%d Errored%s, %d Total\n",
		cBold, cNone, cGreen, passed, cNone, cRed, failed, cNone, cYellow, skipped, cNone, cRed, errored, cNone, len(results))
}

func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var builder strings.Builder
	builder.WriteString("    --- Diff ---\n")
	for _, line := range strings.Split(diff, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if strings.HasPrefix(trimmedLine, "-") {
			builder.WriteString(cRed)
		} else if strings.HasPrefix(trimmedLine, "+") {
			builder.WriteString(cGreen)
		}
		builder.WriteString("    " + line)
		builder.WriteString(cNone)
		builder.WriteString("\n")
	}
	return builder.String()
}

func writeJSONReport(results []*FileTestResult, opts *options) TestSuiteResults {
	resultsMap := make(TestSuiteResults, len(results))
	for _, r := range results {
		resultsMap[r.File] = r
	}

	jsonData, err := json.MarshalIndent(resultsMap, "", "  ")
	if err != nil {
		util.Default().Errorf("Failed to marshal results to JSON: %v", err)
		return resultsMap
	}

	outputFile := opts.outputJSON
	if opts.goldenDir != "" {
		if err := os.MkdirAll(opts.goldenDir, 0o755); err != nil {
			util.Default().Errorf("Failed to create dir %s: %v", opts.goldenDir, err)
		}
		outputFile = filepath.Join(opts.goldenDir, opts.outputJSON)
	}

	if err := os.WriteFile(outputFile, jsonData, 0o644); err != nil {
		util.Default().Errorf("Failed to write JSON report to %s: %v", outputFile, err)
	} else {
		fmt.Printf("Full test report saved to %s\n", outputFile)
	}
	return resultsMap
}

func hasFailures(results TestSuiteResults) bool {
	for _, result := range results {
		if result.Status == "FAIL" || result.Status == "ERROR" {
			return true
		}
	}
	return false
}

// expandGlobPatterns keeps only regular files and makes them absolute, so the
// dedup hash and golden lookup see one name per file. Unlike jfront, a pattern
// matching nothing is not an error.
func expandGlobPatterns(patterns string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		files, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, file := range files {
			absFile, err := filepath.Abs(file)
			if err != nil {
				continue // Skip files we can't resolve
			}
			if !seen[absFile] {
				if info, err := os.Stat(absFile); err == nil && info.Mode().IsRegular() {
					allFiles = append(allFiles, absFile)
					seen[absFile] = true
				}
			}
		}
	}
	return allFiles, nil
}
