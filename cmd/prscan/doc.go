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

// Package main implements the prscan command-line interface. The tool
// scans a GitHub repository for pull requests tied to tracked work items,
// aggregates their comment metrics and merges the results into a curated
// CSV table.
//
// The CLI supports:
//   - Scanning a full repository or a single pull request (--item)
//   - A disk cache of API responses, reused across runs (--force to refresh)
//   - A tracking window and an identifier allow-list
//   - Three merge policies for the curated table
//   - GitHub token authentication via flag, .env file or environment
//
// Usage:
//
//	prscan scan <org>/<repo> --table curated.csv [flags]
//
// Example:
//
//	export GITHUB_TOKEN=your_token
//	prscan scan golang/go --table curated.csv --since 2024-01-01
//
// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Authentication/authorization error
//   - 3: Network error
package main
