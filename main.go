package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var (
	currentDir, _ = os.Getwd()
	rootCmd       = &cobra.Command{
		Use:   "cjsify",
		Short: "Convert TypeScript and ES modules into CommonJS without a compiler",
		Long: `A line-based transformer that strips type syntax and rewrites import/export
statements into require calls and module.exports assignments.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger(verbose, logJSON)
		},
	}
)

var docsCmd = &cobra.Command{
	Use:   "doc-gen",
	Short: "Generate CLI documentation",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(docsDir, 0755); err != nil {
			return err
		}
		return doc.GenMarkdownTree(rootCmd, docsDir)
	},
}

// ---------------- global flags ----------------

var (
	verbose bool
	logJSON bool
	docsDir string
)

// ---------------- transform ----------------
var (
	transformCwd          string
	transformOutDir       string
	transformExclude      []string
	transformInclude      []string
	transformDeferExports bool
	transformWrap         bool
	transformVerify       bool
	transformWatch        bool
)

var transformCmd = &cobra.Command{
	Use:   "transform [files or directories...]",
	Short: "Transform source files into CommonJS",
	Long: `Transform .ts/.tsx/.mts/.cts and .js/.jsx/.mjs/.cjs files into CommonJS.
Directories are searched recursively, honoring .gitignore files. Without --out-dir
the transformed code is printed to stdout.`,
	Example: "cjsify transform src --out-dir dist --verify",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd := ResolveAbsoluteCwd(transformCwd)
		if len(args) == 0 {
			args = []string{"."}
		}
		job := transformJob{
			cwd:     cwd,
			paths:   args,
			include: transformInclude,
			exclude: transformExclude,
			options: Options{DeferExports: transformDeferExports},
			files: TransformFilesOptions{
				Root:   cwd,
				Wrap:   transformWrap,
				Verify: transformVerify,
			},
		}
		if transformOutDir != "" {
			job.files.OutDir = filepath.Join(cwd, transformOutDir)
		}

		failed, err := job.run(cmd.Context(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if transformWatch {
			return job.watch(cmd.Context(), cmd.OutOrStdout())
		}
		if failed > 0 {
			return fmt.Errorf("%d files failed", failed)
		}
		return nil
	},
}

// ---------------- inspect ----------------
var (
	inspectFile         string
	inspectFormat       string
	inspectDeferExports bool
)

var inspectCmd = &cobra.Command{
	Use:     "inspect",
	Short:   "Print what a transform pass does to a file",
	Long:    `Transform a single file and print its report: exported names, required modules, dropped and commented-out lines.`,
	Example: "cjsify inspect --file src/index.ts --format yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(inspectFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", inspectFile, err)
		}
		transformer := NewTransformer(Options{DeferExports: inspectDeferExports})
		result := transformer.TransformWithReport(string(content), KindFromFilename(inspectFile))
		return WriteReport(cmd.OutOrStdout(), inspectFile, result.Report, inspectFormat)
	},
}

// transformJob is one batch of files transformed with the same settings,
// from the command line or from a config rule.
type transformJob struct {
	cwd     string
	paths   []string
	include []string
	exclude []string
	options Options
	files   TransformFilesOptions

	transformer *Transformer
}

func (job *transformJob) collectFiles() ([]string, error) {
	excludeMatchers, err := CreateGlobMatchers(job.exclude, job.cwd)
	if err != nil {
		return nil, err
	}
	includeMatchers, err := CreateGlobMatchers(job.include, job.cwd)
	if err != nil {
		return nil, err
	}
	if job.files.OutDir != "" {
		// never pick up our own output on the next run
		excludeMatchers = append(excludeMatchers, DirectoryMatcher(job.files.OutDir))
	}
	excludeMatchers = append(excludeMatchers, FindAndProcessGitIgnoreFilesUpToRepoRoot(job.cwd)...)

	files := []string{}
	for _, path := range job.paths {
		if !filepath.IsAbs(path) {
			path = filepath.Join(job.cwd, path)
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", path, err)
		}
		if info.IsDir() {
			files = GetFiles(path, files, excludeMatchers)
		} else {
			files = append(files, NormalizePathForInternal(path))
		}
	}

	files = FilterIncluded(files, includeMatchers)
	slices.Sort(files)
	return slices.Compact(files), nil
}

func (job *transformJob) run(ctx context.Context, w io.Writer) (int, error) {
	files, err := job.collectFiles()
	if err != nil {
		return 0, err
	}
	return job.transform(ctx, w, files), nil
}

func (job *transformJob) transform(ctx context.Context, w io.Writer, files []string) int {
	if job.transformer == nil {
		job.transformer = NewTransformer(job.options)
	}
	logger.Debugw("transforming files", "count", len(files), "outDir", job.files.OutDir)

	start := time.Now()
	results, errCount := TransformFiles(ctx, job.transformer, files, job.files)
	if errCount > 0 {
		logger.Warnw("some files could not be transformed", "count", errCount)
	}

	if job.files.OutDir == "" {
		failed := 0
		for _, result := range results {
			if len(results) > 1 {
				fmt.Fprintf(w, "// %s\n", DisplayPath(job.cwd, result.Path))
			}
			if result.Err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", result.Path, result.Err)
			} else {
				fmt.Fprintln(w, result.Code)
			}
			for _, problem := range result.Problems {
				fmt.Fprintf(os.Stderr, "%s:%s\n", DisplayPath(job.cwd, result.Path), problem)
			}
			if result.Failed() {
				failed++
			}
		}
		return failed
	}
	return FormatFileResults(w, results, job.cwd, time.Since(start))
}

// watch re-runs the transform for changed files until ctx is done.
func (job *transformJob) watch(ctx context.Context, w io.Writer) error {
	files, err := job.collectFiles()
	if err != nil {
		return err
	}
	dirs := []string{}
	for _, file := range files {
		dirs = append(dirs, filepath.Dir(filepath.FromSlash(file)))
	}
	slices.Sort(dirs)
	dirs = slices.Compact(dirs)

	watched := map[string]bool{}
	for _, file := range files {
		watched[filepath.Clean(filepath.FromSlash(file))] = true
	}

	bannerColor.Fprintf(w, "👀 Watching %d files for changes...\n", len(files))
	return WatchFiles(ctx, dirs, func(changed []string) {
		selected := []string{}
		for _, path := range changed {
			if watched[path] {
				selected = append(selected, NormalizePathForInternal(path))
			}
		}
		if len(selected) == 0 {
			return
		}
		PrintWatchBanner(w, selected, job.cwd)
		job.transform(ctx, w, selected)
	})
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")

	// transform flags
	transformCmd.Flags().StringVarP(&transformCwd, "cwd", "c", currentDir,
		"Working directory for the command")
	transformCmd.Flags().StringVarP(&transformOutDir, "out-dir", "o", "",
		"Directory for transformed files, relative to cwd (default: print to stdout)")
	transformCmd.Flags().StringSliceVar(&transformExclude, "exclude", []string{},
		"Exclude files matching these glob patterns")
	transformCmd.Flags().StringSliceVar(&transformInclude, "include", []string{},
		"Only include files matching these glob patterns")
	transformCmd.Flags().BoolVar(&transformDeferExports, "defer-exports", false,
		"Leave export statements of typed files in place, only rewrite imports")
	transformCmd.Flags().BoolVar(&transformWrap, "wrap", false,
		"Wrap each output in a function providing module and exports")
	transformCmd.Flags().BoolVar(&transformVerify, "verify", false,
		"Parse the output and report syntax errors")
	transformCmd.Flags().BoolVarP(&transformWatch, "watch", "w", false,
		"Transform again whenever a source file changes")

	// inspect flags
	inspectCmd.Flags().StringVarP(&inspectFile, "file", "f", "",
		"File to inspect")
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "json",
		"Output format: json or yaml")
	inspectCmd.Flags().BoolVar(&inspectDeferExports, "defer-exports", false,
		"Leave export statements of typed files in place")
	inspectCmd.MarkFlagRequired("file")

	docsCmd.Flags().StringVar(&docsDir, "dir", "./docs", "Output directory")

	rootCmd.AddCommand(transformCmd, inspectCmd, configCmd, docsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}
