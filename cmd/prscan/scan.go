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

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirseerhq/prscan/internal/config"
	prscanerrors "github.com/sirseerhq/prscan/internal/errors"
	"github.com/sirseerhq/prscan/internal/github"
	"github.com/sirseerhq/prscan/internal/ident"
	"github.com/sirseerhq/prscan/internal/logging"
	"github.com/sirseerhq/prscan/internal/metadata"
	"github.com/sirseerhq/prscan/internal/output"
	"github.com/sirseerhq/prscan/internal/reconcile"
	"github.com/sirseerhq/prscan/internal/resolve"
	"github.com/sirseerhq/prscan/internal/scan"
	"github.com/sirseerhq/prscan/internal/snapshot"
	"github.com/sirseerhq/prscan/internal/table"
	"github.com/sirseerhq/prscan/pkg/version"
	"github.com/spf13/cobra"
)

// scanFlags holds every flag of the scan command. Flags override config
// file values, which override built-in defaults.
type scanFlags struct {
	token      string
	configPath string
	cacheDir   string
	tablePath  string
	allowList  string
	since      string
	policy     string
	pageSize   int
	delay      float64
	force      bool
	outputDir  string
	item       int
	useGraphQL bool
	verbose    bool
	debug      bool
}

func newScanCommand() *cobra.Command {
	var flags scanFlags

	cmd := &cobra.Command{
		Use:   "scan <org>/<repo>",
		Short: "Scan a repository and merge pull request metrics into a curated table",
		Long: `Scan a GitHub repository for pull requests whose titles carry a tracked
work item identifier, aggregate their comment metrics and merge the
results into the curated CSV table.

The repository must be specified in the format: <org>/<repo>
For example: golang/go, kubernetes/kubernetes

Authentication is required via GitHub token:
  - Use --token flag to provide token directly
  - Or set GITHUB_TOKEN environment variable (a .env file is honored)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.token, "token", "", "GitHub personal access token (overrides GITHUB_TOKEN env var)")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to config file (default: .prscan.yaml)")
	cmd.Flags().StringVar(&flags.cacheDir, "cache-dir", "", "Directory for cached API snapshots")
	cmd.Flags().StringVar(&flags.tablePath, "table", "", "Path to the curated CSV table")
	cmd.Flags().StringVar(&flags.allowList, "allow-list", "", "File with one tracked identifier per line")
	cmd.Flags().StringVar(&flags.since, "since", "", "Drop items created before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.policy, "policy", "", "Merge policy: overwrite, first-wins or merge-conditional")
	cmd.Flags().IntVar(&flags.pageSize, "page-size", 0, "Records per API page (max 100)")
	cmd.Flags().Float64Var(&flags.delay, "delay", -1, "Seconds to sleep between API calls")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Refetch the pull request listing even when cached")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "Directory for the unmatched and overflow tables")
	cmd.Flags().IntVar(&flags.item, "item", 0, "Scan a single pull request by number")
	cmd.Flags().BoolVar(&flags.useGraphQL, "graphql", false, "Collect through the GraphQL API instead of REST")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "Enable info-level logging")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Enable debug-level logging")

	return cmd
}

// runScan executes the scan command
func runScan(ctx context.Context, repoArg string, flags scanFlags) error {
	logging.Initialize(flags.debug, flags.verbose)
	logger := slog.Default()

	// A .env file in the working directory is a convenience for local
	// runs; silence is fine when there is none.
	_ = godotenv.Load()

	cfg, err := buildConfig(repoArg, flags)
	if err != nil {
		return err
	}

	token := getToken(flags.token, cfg.GitHub.TokenEnv)
	if token == "" {
		return fmt.Errorf("GitHub token not found. Set %s or use --token flag: %w",
			cfg.GitHub.TokenEnv, prscanerrors.ErrInvalidToken)
	}

	policy, err := reconcile.ParsePolicy(cfg.Scan.Policy)
	if err != nil {
		return err
	}
	window, err := cfg.Window()
	if err != nil {
		return err
	}

	var allow ident.Set
	if cfg.Scan.AllowListPath != "" {
		allow, err = ident.LoadAllowList(cfg.Scan.AllowListPath)
		if err != nil {
			return fmt.Errorf("failed to load allow list: %w", err)
		}
	}

	curated, err := table.Load(cfg.Scan.TablePath)
	if err != nil {
		return fmt.Errorf("failed to load curated table: %w", err)
	}

	store := snapshot.New(cfg.Scan.CacheDir)
	collector := newCollector(cfg, token, store, flags.useGraphQL)
	resolver := resolve.New(store, cfg.Scan.PageSize, cfg.CallDelay())
	reconciler := reconcile.New(policy, cfg.Repo.Owner, cfg.Repo.DefaultBranch, logger)
	tracker := metadata.New()

	pipeline := scan.New(collector, resolver, store, reconciler, tracker, logger, scan.Options{
		WindowStart: window,
		Allow:       allow,
		ForceUpdate: cfg.Scan.ForceUpdate,
	})

	start := time.Now()
	var result *scan.Result
	if flags.item > 0 {
		result, err = pipeline.RunItem(ctx, curated, flags.item)
	} else {
		result, err = pipeline.Run(ctx, curated)
	}
	if err != nil {
		return err
	}

	if err := writeOutputs(cfg, result); err != nil {
		return err
	}
	saveMetadata(cfg, tracker, result, window, logger)

	fmt.Fprintf(os.Stderr, "Scan of %s/%s complete in %s: %d curated, %d unmatched, %d overflow\n",
		cfg.Repo.Owner, cfg.Repo.Name, time.Since(start).Round(time.Second),
		result.Curated.Len(), len(result.NotMatched), len(result.Overflow))
	return nil
}

// buildConfig loads configuration and layers the command-line flags on
// top of it.
func buildConfig(repoArg string, flags scanFlags) (*config.Config, error) {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}

	owner, repo, err := parseRepository(repoArg)
	if err != nil {
		return nil, err
	}
	cfg.Repo.Owner = owner
	cfg.Repo.Name = repo

	if flags.cacheDir != "" {
		cfg.Scan.CacheDir = flags.cacheDir
	}
	if flags.tablePath != "" {
		cfg.Scan.TablePath = flags.tablePath
	}
	if flags.allowList != "" {
		cfg.Scan.AllowListPath = flags.allowList
	}
	if flags.since != "" {
		cfg.Scan.WindowStart = flags.since
	}
	if flags.policy != "" {
		cfg.Scan.Policy = flags.policy
	}
	if flags.pageSize > 0 {
		cfg.Scan.PageSize = flags.pageSize
	}
	if flags.delay >= 0 {
		cfg.Scan.CallDelay = flags.delay
	}
	if flags.force {
		cfg.Scan.ForceUpdate = true
	}
	if flags.outputDir != "" {
		cfg.Output.Dir = flags.outputDir
	}

	if cfg.Scan.TablePath == "" {
		return nil, fmt.Errorf("curated table path not set. Use --table or scan.table_path in the config file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newCollector builds the collector chain: a REST or GraphQL adapter
// wrapped in retries.
func newCollector(cfg *config.Config, token string, store *snapshot.Store, useGraphQL bool) github.Collector {
	var collector github.Collector
	if useGraphQL {
		collector = github.NewGraphQLCollector(cfg.Repo.Owner, cfg.Repo.Name, token, cfg.GitHub.GraphQLEndpoint, store)
	} else {
		collector = github.NewRESTCollector(cfg.Repo.Owner, cfg.Repo.Name, token, store,
			github.WithBaseURL(cfg.GitHub.APIEndpoint))
	}
	return github.NewRetryCollector(collector, github.DefaultRetryConfig())
}

// writeOutputs persists the three tables: the curated table in place,
// the unmatched and overflow tables next to it in the output directory.
func writeOutputs(cfg *config.Config, result *scan.Result) error {
	if err := output.WriteTable(cfg.Scan.TablePath, result.Curated.Rows()); err != nil {
		return fmt.Errorf("failed to write curated table: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(cfg.Scan.TablePath), filepath.Ext(cfg.Scan.TablePath))
	unmatched := filepath.Join(cfg.Output.Dir, stem+"-unmatched.csv")
	overflow := filepath.Join(cfg.Output.Dir, stem+"-overflow.csv")

	if err := output.WriteTable(unmatched, result.NotMatched); err != nil {
		return fmt.Errorf("failed to write unmatched table: %w", err)
	}
	if err := output.WriteTable(overflow, result.Overflow); err != nil {
		return fmt.Errorf("failed to write overflow table: %w", err)
	}
	return nil
}

// saveMetadata writes the run audit record. A failure here is logged,
// not fatal: the scan output is already on disk.
func saveMetadata(cfg *config.Config, tracker *metadata.Tracker, result *scan.Result, window time.Time, logger *slog.Logger) {
	var previous *metadata.ScanRef
	if prior, err := metadata.LoadLatest(cfg.Scan.CacheDir, cfg.Repo.Owner, cfg.Repo.Name); err == nil && prior != nil {
		previous = &metadata.ScanRef{ScanID: prior.ScanID, CompletedAt: prior.Results.CompletedAt}
	}

	params := metadata.ScanParams{
		Owner:       cfg.Repo.Owner,
		Repository:  cfg.Repo.Name,
		Policy:      cfg.Scan.Policy,
		PageSize:    cfg.Scan.PageSize,
		ForceUpdate: cfg.Scan.ForceUpdate,
	}
	if !window.IsZero() {
		params.WindowStart = &window
	}

	md := tracker.Generate(version.Version, params, result.Outcome(), previous)
	if err := metadata.Save(md, cfg.Scan.CacheDir); err != nil {
		logger.Warn("failed to save scan metadata", "error", err)
	}
}

// parseRepository parses an org/repo string into owner and repo components
func parseRepository(repoArg string) (owner, repo string, err error) {
	parts := strings.Split(repoArg, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid repository format. Expected: <org>/<repo>, got: %s", repoArg)
	}

	owner = strings.TrimSpace(parts[0])
	repo = strings.TrimSpace(parts[1])

	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("invalid repository format. Expected: <org>/<repo>, got: %s", repoArg)
	}

	return owner, repo, nil
}

// getToken returns the GitHub token from flag or environment variable
func getToken(flagToken, tokenEnv string) string {
	if flagToken != "" {
		return flagToken
	}
	return os.Getenv(tokenEnv)
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	// Check for specific error types
	if errors.Is(err, prscanerrors.ErrInvalidToken) ||
		errors.Is(err, prscanerrors.ErrRepoNotFound) ||
		errors.Is(err, prscanerrors.ErrRateLimit) {
		return 2 // Authentication/authorization errors
	}

	if errors.Is(err, prscanerrors.ErrNetworkFailure) {
		return 3 // Network errors
	}

	return 1 // General error
}
