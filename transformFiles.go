package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
)

type TransformFilesOptions struct {
	// Root is the directory output paths are computed relative to.
	Root string
	// OutDir receives the transformed files. Empty keeps results in memory only.
	OutDir string
	Wrap   bool
	Verify bool
}

type FileResult struct {
	Path       string          `json:"path" yaml:"path"`
	OutputPath string          `json:"outputPath,omitempty" yaml:"outputPath,omitempty"`
	Code       string          `json:"-" yaml:"-"`
	Report     Report          `json:"report" yaml:"report"`
	Problems   []OutputProblem `json:"problems,omitempty" yaml:"problems,omitempty"`
	Err        error           `json:"-" yaml:"-"`
}

func (r FileResult) Failed() bool {
	return r.Err != nil || len(r.Problems) > 0
}

// TransformFiles transforms files concurrently and returns one result per
// file sorted by path, plus the number of files that could not be read or
// written. A file whose output path was already claimed by an earlier file
// fails without being transformed. Files not yet started when ctx is
// cancelled are skipped.
func TransformFiles(ctx context.Context, transformer *Transformer, files []string, opts TransformFilesOptions) ([]FileResult, int) {
	results := make([]FileResult, 0, len(files))
	var mu sync.Mutex
	var wg sync.WaitGroup

	errCount := 0

	maxConcurrency := runtime.GOMAXPROCS(0) * 2
	sem := make(chan struct{}, maxConcurrency)

	// first file mapped to each output path
	claimed := map[string]string{}

	for _, filePath := range files {
		if ctx.Err() != nil {
			break
		}
		if opts.OutDir != "" {
			if outputPath, err := OutputPath(opts.Root, opts.OutDir, filePath); err == nil {
				if first, taken := claimed[outputPath]; taken {
					err := fmt.Errorf("output path %s is already written by %s", outputPath, first)
					logger.Warnw("transform skipped", "file", filePath, "error", err)
					mu.Lock()
					errCount++
					results = append(results, FileResult{Path: filePath, Err: err})
					mu.Unlock()
					continue
				}
				claimed[outputPath] = filePath
			}
		}
		wg.Add(1)
		sem <- struct{}{}

		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()

			result := transformFile(transformer, path, opts)
			if result.Err != nil {
				logger.Warnw("transform failed", "file", path, "error", result.Err)
			}

			mu.Lock()
			if result.Err != nil {
				errCount++
			}
			results = append(results, result)
			mu.Unlock()
		}(filePath)
	}

	wg.Wait()
	slices.SortFunc(results, func(a, b FileResult) int {
		return strings.Compare(a.Path, b.Path)
	})
	return results, errCount
}

func transformFile(transformer *Transformer, path string, opts TransformFilesOptions) FileResult {
	result := FileResult{Path: path}

	content, err := os.ReadFile(filepath.FromSlash(path))
	if err != nil {
		result.Err = fmt.Errorf("failed to read %s: %w", path, err)
		return result
	}

	transformed := transformer.TransformWithReport(string(content), KindFromFilename(path))
	result.Report = transformed.Report
	result.Code = transformed.Code
	if opts.Wrap {
		result.Code = WrapModule(result.Code)
	}
	if opts.Verify {
		result.Problems = VerifyOutput(result.Code, path)
	}
	logger.Debugw("transformed file", "file", path, "kind", transformed.Report.Kind,
		"exports", len(transformed.Report.Exports), "dropped", transformed.Report.DroppedLines)

	if opts.OutDir == "" {
		return result
	}

	outputPath, err := OutputPath(opts.Root, opts.OutDir, path)
	if err != nil {
		result.Err = fmt.Errorf("failed to compute output path for %s: %w", path, err)
		return result
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		result.Err = fmt.Errorf("failed to create output directory: %w", err)
		return result
	}
	if err := os.WriteFile(outputPath, []byte(result.Code), 0644); err != nil {
		result.Err = fmt.Errorf("failed to write %s: %w", outputPath, err)
		return result
	}
	result.OutputPath = outputPath
	return result
}
