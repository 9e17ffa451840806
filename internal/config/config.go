// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration management for prscan with
// support for multiple configuration sources and a well-defined precedence
// order.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration file
//  4. Built-in defaults
//
// The package supports YAML configuration files and provides automatic
// discovery of configuration in standard locations. It's designed to work
// seamlessly with GitHub Enterprise deployments.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// windowFormats are the accepted layouts for scan.window_start, tried in
// order.
var windowFormats = []string{"2006-01-02", time.RFC3339}

// LoadConfig loads configuration from multiple sources and applies them in
// the correct precedence order. If configPath is provided, it loads from
// that specific file. Otherwise, it searches standard locations:
//   - .prscan.yaml (current directory)
//   - .prscan.yml (current directory)
//   - ~/.prscan/config.yaml
//   - ~/.prscan/config.yml
//
// Environment variables are applied after loading the config file, allowing
// runtime overrides. Path expansion (~ and environment variables) is
// performed on directory paths.
//
// Returns an error if the specified config file cannot be loaded, but will
// succeed with defaults if no config file is found in standard locations.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		defaultPaths := []string{
			".prscan.yaml",
			".prscan.yml",
			filepath.Join(os.Getenv("HOME"), ".prscan", "config.yaml"),
			filepath.Join(os.Getenv("HOME"), ".prscan", "config.yml"),
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	applyEnvOverrides(cfg)

	cfg.Scan.CacheDir = expandPath(cfg.Scan.CacheDir)
	cfg.Scan.TablePath = expandPath(cfg.Scan.TablePath)
	cfg.Scan.AllowListPath = expandPath(cfg.Scan.AllowListPath)
	cfg.Output.Dir = expandPath(cfg.Output.Dir)

	return cfg, nil
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	if endpoint := os.Getenv("GITHUB_API_ENDPOINT"); endpoint != "" {
		cfg.GitHub.APIEndpoint = endpoint
	}
	if endpoint := os.Getenv("GITHUB_GRAPHQL_ENDPOINT"); endpoint != "" {
		cfg.GitHub.GraphQLEndpoint = endpoint
	}

	if dir := os.Getenv("PRSCAN_CACHE_DIR"); dir != "" {
		cfg.Scan.CacheDir = dir
	}
	if pageSize := os.Getenv("PRSCAN_PAGE_SIZE"); pageSize != "" {
		if size, err := parsePositiveInt(pageSize); err == nil {
			cfg.Scan.PageSize = size
		}
	}
	if policy := os.Getenv("PRSCAN_POLICY"); policy != "" {
		cfg.Scan.Policy = policy
	}
	if force := os.Getenv("PRSCAN_FORCE_UPDATE"); force != "" {
		cfg.Scan.ForceUpdate = parseBool(force)
	}
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			home = os.Getenv("USERPROFILE") // Windows
		}
		path = filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// parsePositiveInt parses a string to a positive integer
func parsePositiveInt(s string) (int, error) {
	var i int
	_, err := fmt.Sscanf(s, "%d", &i)
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

// parseBool parses various boolean representations
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}

// Window parses scan.window_start into a time. It accepts a bare date or
// a full RFC 3339 timestamp; a bare date means midnight UTC. Returns the
// zero time when no window is configured.
func (c *Config) Window() (time.Time, error) {
	if c.Scan.WindowStart == "" {
		return time.Time{}, nil
	}
	for _, layout := range windowFormats {
		if t, err := time.Parse(layout, c.Scan.WindowStart); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid window_start %q: want YYYY-MM-DD or RFC 3339", c.Scan.WindowStart)
}

// CallDelay returns the inter-call throttle as a duration.
func (c *Config) CallDelay() time.Duration {
	return time.Duration(c.Scan.CallDelay * float64(time.Second))
}

// Validate checks if the configuration contains valid values. It ensures
// page sizes are within GitHub's limits, endpoints and the repository are
// set, and the window parses. This should be called after loading
// configuration to catch invalid settings early.
func (c *Config) Validate() error {
	if c.Scan.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got: %d", c.Scan.PageSize)
	}
	if c.Scan.PageSize > 100 {
		return fmt.Errorf("page size %d exceeds GitHub API limit of 100", c.Scan.PageSize)
	}
	if c.Scan.CallDelay < 0 {
		return fmt.Errorf("call delay cannot be negative, got: %g", c.Scan.CallDelay)
	}
	if c.GitHub.APIEndpoint == "" {
		return fmt.Errorf("GitHub API endpoint cannot be empty")
	}
	if c.GitHub.GraphQLEndpoint == "" {
		return fmt.Errorf("GitHub GraphQL endpoint cannot be empty")
	}
	if c.Repo.Owner == "" || c.Repo.Name == "" {
		return fmt.Errorf("repository owner and name must be set")
	}
	if c.Repo.DefaultBranch == "" {
		return fmt.Errorf("default branch cannot be empty")
	}
	if _, err := c.Window(); err != nil {
		return err
	}
	return nil
}
