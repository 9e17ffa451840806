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

// Package resolve decides, per operation and item, whether to serve records
// from the local snapshot cache or to page through the remote collector.
//
// The cache is authoritative: when page 1 exists for a kind the network is
// never consulted, even if the snapshot is stale. On a miss the resolver
// pages from page 1 until a short or empty page, relying on the collector
// to persist each page before the next request. An optional predicate is
// applied identically on both paths, so a cached replay and a fresh fetch
// of the same records always produce the same filtered output.
package resolve
