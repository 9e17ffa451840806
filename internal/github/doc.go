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

// Package github provides types and collector implementations for retrieving
// pull request activity from the GitHub API.
//
// The Collector interface exposes the paginated list operations and the
// single-item fetch the scan pipeline consumes. Two adapters implement it:
// a REST adapter built on go-github and a GraphQL adapter built on
// shurcooL/graphql. Both persist every fetched page to the local snapshot
// store as a side effect, which is what makes interrupted runs resumable.
// A retry decorator adds backoff for rate-limit and transient network
// failures so callers never deal with those directly.
package github
