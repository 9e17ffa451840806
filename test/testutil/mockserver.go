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

// Package testutil provides common test helpers for prscan: an in-memory
// GitHub REST server, fluent builders for API payloads and small file
// helpers.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
)

// RepoServer is an httptest server that mimics the GitHub REST endpoints
// prscan uses, serving seeded payloads with real pagination semantics.
type RepoServer struct {
	*httptest.Server

	mu             sync.Mutex
	pulls          []map[string]any
	issueComments  map[int][]map[string]any
	reviewComments map[int][]map[string]any
	reviews        map[int][]map[string]any
	files          map[int][]map[string]any

	requests   int32
	failStatus int32
	failCount  int32
}

// NewRepoServer starts a mock server for owner/repo. The server is shut
// down with the test.
func NewRepoServer(t *testing.T, owner, repo string) *RepoServer {
	t.Helper()

	s := &RepoServer{
		issueComments:  make(map[int][]map[string]any),
		reviewComments: make(map[int][]map[string]any),
		reviews:        make(map[int][]map[string]any),
		files:          make(map[int][]map[string]any),
	}

	base := "/repos/" + owner + "/" + repo
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+base+"/pulls", s.handle(func(r *http.Request) any {
		s.mu.Lock()
		defer s.mu.Unlock()
		return paginate(s.pulls, r)
	}))
	mux.HandleFunc("GET "+base+"/pulls/{number}", s.handle(func(r *http.Request) any {
		s.mu.Lock()
		defer s.mu.Unlock()
		n := pathNumber(r)
		for _, p := range s.pulls {
			if p["number"] == n {
				return p
			}
		}
		return nil
	}))
	mux.HandleFunc("GET "+base+"/issues/{number}/comments", s.handle(func(r *http.Request) any {
		s.mu.Lock()
		defer s.mu.Unlock()
		return paginate(s.issueComments[pathNumber(r)], r)
	}))
	mux.HandleFunc("GET "+base+"/pulls/{number}/comments", s.handle(func(r *http.Request) any {
		s.mu.Lock()
		defer s.mu.Unlock()
		return paginate(s.reviewComments[pathNumber(r)], r)
	}))
	mux.HandleFunc("GET "+base+"/pulls/{number}/reviews", s.handle(func(r *http.Request) any {
		s.mu.Lock()
		defer s.mu.Unlock()
		return paginate(s.reviews[pathNumber(r)], r)
	}))
	mux.HandleFunc("GET "+base+"/pulls/{number}/files", s.handle(func(r *http.Request) any {
		s.mu.Lock()
		defer s.mu.Unlock()
		return paginate(s.files[pathNumber(r)], r)
	}))

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// SeedPull adds a pull request payload to the listing.
func (s *RepoServer) SeedPull(pull map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pulls = append(s.pulls, pull)
}

// SeedIssueComments seeds the conversation comments of one pull request.
func (s *RepoServer) SeedIssueComments(number int, comments ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issueComments[number] = append(s.issueComments[number], comments...)
}

// SeedReviewComments seeds the inline review comments of one pull request.
func (s *RepoServer) SeedReviewComments(number int, comments ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviewComments[number] = append(s.reviewComments[number], comments...)
}

// SeedReviews seeds the reviews of one pull request.
func (s *RepoServer) SeedReviews(number int, reviews ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[number] = append(s.reviews[number], reviews...)
}

// SeedFiles seeds the changed files of one pull request.
func (s *RepoServer) SeedFiles(number int, files ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[number] = append(s.files[number], files...)
}

// FailNext makes the next count requests fail with the given status
// before the server recovers. Use 0 count to clear.
func (s *RepoServer) FailNext(status, count int) {
	atomic.StoreInt32(&s.failStatus, int32(status))
	atomic.StoreInt32(&s.failCount, int32(count))
}

// Requests returns the number of requests served, including failures.
func (s *RepoServer) Requests() int {
	return int(atomic.LoadInt32(&s.requests))
}

func (s *RepoServer) handle(payload func(r *http.Request) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.requests, 1)

		if atomic.LoadInt32(&s.failCount) > 0 {
			atomic.AddInt32(&s.failCount, -1)
			status := int(atomic.LoadInt32(&s.failStatus))
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message": "induced failure"}`))
			return
		}

		body := payload(r)
		if body == nil {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message": "Not Found"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}
}

// paginate slices records according to the page and per_page query
// parameters, matching GitHub's 1-based pagination.
func paginate(records []map[string]any, r *http.Request) []map[string]any {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 30
	}

	start := (page - 1) * perPage
	if start >= len(records) {
		return []map[string]any{}
	}
	end := start + perPage
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

func pathNumber(r *http.Request) int {
	n, _ := strconv.Atoi(r.PathValue("number"))
	return n
}
