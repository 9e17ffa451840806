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

// Package config types define the configuration structures used throughout
// prscan. These types represent settings that can be loaded from YAML
// configuration files, environment variables, or command-line flags.
package config

// Config represents the complete configuration for prscan. It consolidates
// settings from various sources and provides a unified interface for
// accessing configuration values throughout the application.
type Config struct {
	GitHub GitHubConfig `yaml:"github"`
	Repo   RepoConfig   `yaml:"repo"`
	Scan   ScanConfig   `yaml:"scan"`
	Output OutputConfig `yaml:"output"`
}

// GitHubConfig contains GitHub-specific settings including API endpoints
// and authentication configuration. This allows easy configuration for
// GitHub Enterprise deployments by specifying custom endpoints.
type GitHubConfig struct {
	APIEndpoint     string `yaml:"api_endpoint"`
	GraphQLEndpoint string `yaml:"graphql_endpoint"`
	TokenEnv        string `yaml:"token_env"`
}

// RepoConfig identifies the repository being scanned and its default
// branch, which the merge-conditional policy compares merged items
// against.
type RepoConfig struct {
	Owner         string `yaml:"owner"`
	Name          string `yaml:"name"`
	DefaultBranch string `yaml:"default_branch"`
}

// ScanConfig controls the core behavior of the scan: where snapshots are
// cached, which curated table and allow-list to use, the tracking window,
// pagination and throttle settings, and the merge policy.
type ScanConfig struct {
	CacheDir      string  `yaml:"cache_dir"`
	TablePath     string  `yaml:"table_path"`
	AllowListPath string  `yaml:"allow_list_path"`
	WindowStart   string  `yaml:"window_start"`
	PageSize      int     `yaml:"page_size"`
	CallDelay     float64 `yaml:"call_delay_seconds"`
	Policy        string  `yaml:"policy"`
	ForceUpdate   bool    `yaml:"force_update"`
}

// OutputConfig controls where the unmatched and overflow tables are
// written. The curated table is rewritten in place at its own path.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// DefaultConfig returns a Config with sensible defaults suitable for most
// use cases. These defaults are optimized for public GitHub.com usage but
// can be overridden for GitHub Enterprise or special requirements.
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			APIEndpoint:     "https://api.github.com",
			GraphQLEndpoint: "https://api.github.com/graphql",
			TokenEnv:        "GITHUB_TOKEN",
		},
		Repo: RepoConfig{
			DefaultBranch: "main",
		},
		Scan: ScanConfig{
			CacheDir:  "~/.prscan/cache",
			PageSize:  100,
			CallDelay: 0.5,
			Policy:    "overwrite",
		},
		Output: OutputConfig{
			Dir: ".",
		},
	}
}
