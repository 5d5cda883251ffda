package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// ---------------- config ----------------
var (
	configCwd string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create and execute cjsify configuration files",
	Long:  `Commands for creating and executing cjsify configuration files.`,
}

// ---------------- config run ----------------
var (
	runConfigCwd string
)

var configRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Transform files for every rule in (.)cjsify.config.json(c)",
	Long:  `Process (.)cjsify.config.json(c) and transform the sources of each rule into its outDir.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd := ResolveAbsoluteCwd(runConfigCwd)

		configs, err := LoadConfig(cwd)
		if err != nil {
			return fmt.Errorf("could not load configuration from %s: %w", cwd, err)
		}

		failed, err := runConfigs(cmd.Context(), cmd.OutOrStdout(), cwd, configs)
		if err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d files failed", failed)
		}
		return nil
	},
}

// runConfigs runs every rule of every config and returns the total number
// of failed files.
func runConfigs(ctx context.Context, w io.Writer, cwd string, configs []CjsifyConfig) (int, error) {
	failed := 0
	for _, config := range configs {
		for i, rule := range config.Rules {
			if len(config.Rules) > 1 {
				fmt.Fprintf(w, "=== Rule %d: %s ===\n", i+1, rule.Path)
			}

			ruleCwd := filepath.Join(cwd, rule.Path)
			job := transformJob{
				cwd:     ruleCwd,
				paths:   []string{"."},
				include: rule.Include,
				exclude: rule.Exclude,
				options: Options{DeferExports: rule.DeferExports},
				files: TransformFilesOptions{
					Root:   ruleCwd,
					OutDir: filepath.Join(cwd, rule.OutDir),
					Wrap:   rule.Wrap,
					Verify: rule.Verify,
				},
			}
			ruleFailed, err := job.run(ctx, w)
			if err != nil {
				return failed, fmt.Errorf("rules[%d]: %w", i, err)
			}
			failed += ruleFailed
		}
	}
	return failed, nil
}

// ---------------- config init ----------------
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new .cjsify.config.jsonc file",
	Long:  `Create a new .cjsify.config.jsonc configuration file in the current directory with default settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd := ResolveAbsoluteCwd(configCwd)
		configPath, err := initConfigFile(cwd)
		if err != nil {
			return err
		}
		okColor.Fprintf(cmd.OutOrStdout(), "✅ Created %s\n", configPath)
		fmt.Fprintln(cmd.OutOrStdout(), "Adjust rules to point at your sources and output directory.")
		return nil
	},
}

func init() {
	configRunCmd.Flags().StringVarP(&runConfigCwd, "cwd", "c", currentDir, "Working directory")
	configInitCmd.Flags().StringVarP(&configCwd, "cwd", "c", currentDir, "Working directory")

	configCmd.AddCommand(configRunCmd, configInitCmd)
}

// initConfigFile writes the default config into cwd. An existing config file
// is never overwritten.
func initConfigFile(cwd string) (string, error) {
	existing, err := FindConfigFile(cwd)
	if err == nil {
		return "", fmt.Errorf("config file already exists at %s", existing)
	}
	if !errors.Is(err, ErrConfigNotFound) {
		return "", err
	}

	config := DefaultConfig()
	if info, err := os.Stat(filepath.Join(cwd, "src")); err != nil || !info.IsDir() {
		config.Rules[0].Path = "."
	}

	configJSON, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(cwd, defaultConfigFileName)
	if err := os.WriteFile(configPath, append(configJSON, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return configPath, nil
}
