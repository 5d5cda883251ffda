package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/tidwall/jsonc"
)

const (
	currentConfigVersion    = "1.0"
	supportedConfigVersions = "~1.0"
	defaultConfigFileName   = ".cjsify.config.jsonc"
	defaultOutDir           = "dist"
)

var configFileNames = []string{
	"cjsify.config.json",
	"cjsify.config.jsonc",
	".cjsify.config.json",
	".cjsify.config.jsonc",
}

var ErrConfigNotFound = errors.New("config file not found")

type Rule struct {
	Path         string   `json:"path"` // Directory of sources, relative to the config file (default: ".")
	OutDir       string   `json:"outDir"`
	Include      []string `json:"include,omitempty"`
	Exclude      []string `json:"exclude,omitempty"`
	DeferExports bool     `json:"deferExports,omitempty"`
	Wrap         bool     `json:"wrap,omitempty"`
	Verify       bool     `json:"verify,omitempty"`
}

type CjsifyConfig struct {
	Schema        string `json:"$schema,omitempty"`
	ConfigVersion string `json:"configVersion"`
	Rules         []Rule `json:"rules"`
}

// ParseConfig parses JSONC config content. The result is a slice to leave
// room for files holding several configs.
func ParseConfig(content []byte) ([]CjsifyConfig, error) {
	var config CjsifyConfig
	if err := json.Unmarshal(jsonc.ToJSON(content), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := checkConfigVersion(config.ConfigVersion); err != nil {
		return nil, err
	}
	if len(config.Rules) == 0 {
		return nil, fmt.Errorf("config must define at least one rule")
	}

	for i := range config.Rules {
		rule := &config.Rules[i]
		if rule.Path == "" {
			rule.Path = "."
		}
		if rule.OutDir == "" {
			return nil, fmt.Errorf("rules[%d].outDir is required", i)
		}
		for j, p := range rule.Include {
			if err := validatePattern(p); err != nil {
				return nil, fmt.Errorf("rules[%d].include[%d]: %w", i, j, err)
			}
		}
		for j, p := range rule.Exclude {
			if err := validatePattern(p); err != nil {
				return nil, fmt.Errorf("rules[%d].exclude[%d]: %w", i, j, err)
			}
		}
	}

	return []CjsifyConfig{config}, nil
}

func checkConfigVersion(version string) error {
	if version == "" {
		return fmt.Errorf("configVersion is required")
	}
	constraint, err := semver.NewConstraint(supportedConfigVersions)
	if err != nil {
		return err
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("unsupported configVersion '%s': %w", version, err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("unsupported configVersion '%s', expected %s", version, supportedConfigVersions)
	}
	return nil
}

// FindConfigFile returns the config file in dir. Having more than one of the
// accepted names present is an error.
func FindConfigFile(dir string) (string, error) {
	found := []string{}
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			found = append(found, path)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w in %s", ErrConfigNotFound, dir)
	case 1:
		return found[0], nil
	}
	return "", fmt.Errorf("found multiple config files in %s: %v", dir, found)
}

// LoadConfig loads the config from a file path or from a directory holding
// one of the accepted config file names.
func LoadConfig(configPath string) ([]CjsifyConfig, error) {
	fileInfo, err := os.Stat(configPath)
	if err != nil {
		return nil, err
	}

	actualPath := configPath
	if fileInfo.IsDir() {
		actualPath, err = FindConfigFile(configPath)
		if err != nil {
			return nil, err
		}
	}

	content, err := os.ReadFile(actualPath)
	if err != nil {
		return nil, err
	}
	configs, err := ParseConfig(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", actualPath, err)
	}
	return configs, nil
}

func DefaultConfig() CjsifyConfig {
	return CjsifyConfig{
		ConfigVersion: currentConfigVersion,
		Rules: []Rule{
			{
				Path:    "src",
				OutDir:  defaultOutDir,
				Exclude: []string{"**/*.test.ts", "**/*.spec.ts"},
				Verify:  true,
			},
		},
	}
}

func validatePattern(pattern string) error {
	if len(pattern) >= 2 && pattern[0] == '.' && (pattern[1] == '/' || pattern[1] == '\\') {
		return fmt.Errorf("pattern '%s' starts with './' or '.\\', which is not allowed. Use paths that starts with file or directory name", pattern)
	}
	if len(pattern) >= 3 && pattern[0] == '.' && pattern[1] == '.' && (pattern[2] == '/' || pattern[2] == '\\') {
		return fmt.Errorf("pattern '%s' starts with '../' or '..\\', which is not allowed. Use paths that starts with file or directory name", pattern)
	}
	return nil
}
