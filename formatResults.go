package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

var (
	okColor      = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	dimColor     = color.New(color.Faint)
	bannerColor  = color.New(color.FgCyan, color.Bold)
	summaryColor = color.New(color.Bold)
)

// FormatFileResults prints one status line per file and a summary. It
// returns the number of failed files.
func FormatFileResults(w io.Writer, results []FileResult, cwd string, elapsed time.Duration) int {
	failed := 0
	for _, result := range results {
		path := DisplayPath(cwd, result.Path)
		switch {
		case result.Err != nil:
			failed++
			errorColor.Fprintf(w, "✗ %s", path)
			fmt.Fprintf(w, " %v\n", result.Err)
		case len(result.Problems) > 0:
			failed++
			errorColor.Fprintf(w, "✗ %s\n", path)
			for _, problem := range result.Problems {
				fmt.Fprintf(w, "    %s\n", problem)
				if problem.LineText != "" {
					dimColor.Fprintf(w, "      %s\n", problem.LineText)
				}
			}
		default:
			okColor.Fprintf(w, "✓ %s", path)
			if result.OutputPath != "" {
				dimColor.Fprintf(w, " → %s", DisplayPath(cwd, result.OutputPath))
			}
			fmt.Fprintln(w)
		}
		for _, line := range result.Report.CommentedLines {
			warnColor.Fprintf(w, "    commented out: %s\n", line)
		}
		if result.Report.Recovered != "" {
			warnColor.Fprintf(w, "    left unchanged: %s\n", result.Report.Recovered)
		}
	}

	fmt.Fprintln(w)
	summaryColor.Fprintf(w, "%d files transformed", len(results)-failed)
	if failed > 0 {
		errorColor.Fprintf(w, ", %d failed", failed)
	}
	dimColor.Fprintf(w, " (%s)\n", elapsed.Round(time.Millisecond))
	return failed
}

// PrintWatchBanner announces a rebuild after files changed.
func PrintWatchBanner(w io.Writer, changed []string, cwd string) {
	fmt.Fprintln(w)
	for _, path := range changed {
		bannerColor.Fprintf(w, "🔄 File changed: %s\n", DisplayPath(cwd, path))
	}
	bannerColor.Fprintln(w, "🚀 Transforming...")
	fmt.Fprintln(w)
}

type inspectOutput struct {
	File   string `json:"file" yaml:"file"`
	Report Report `json:"report" yaml:"report"`
}

// WriteReport encodes a transform report as json or yaml.
func WriteReport(w io.Writer, file string, report Report, format string) error {
	output := inspectOutput{File: file, Report: report}
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(output)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(output); err != nil {
			return err
		}
		return encoder.Close()
	}
	return fmt.Errorf("unsupported format '%s', use json or yaml", format)
}
