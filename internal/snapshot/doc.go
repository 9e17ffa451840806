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

// Package snapshot implements the on-disk cache of fetched API pages.
//
// Every list response is stored as one JSON array per page, named
// {kind}_page_{n}.json where the kind string already encodes the operation
// and item number (for example issue_42_comments). Single-item fetches are
// stored as {name}.json. Page files are write-once: they are produced as a
// side effect of fetching and only ever read afterwards. The existence of
// page 1 for a kind means "cache hit" and the network is never consulted,
// even if the snapshot is stale.
//
// The snapshot directory is the sole resumability mechanism: a run that
// aborts mid-way leaves its fetched pages behind, and the next run skips
// the items they cover.
package snapshot
