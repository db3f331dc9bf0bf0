// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tools

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// SearchTool is a keyword index over documents supplied at
// initialization. Agents use it for general knowledge lookups; the
// travel agent seeds it with destination guides.
type SearchTool struct {
	mu   sync.RWMutex
	docs []SearchDocument
}

// SearchDocument is one indexable entry.
type SearchDocument struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func NewSearchTool() *SearchTool { return &SearchTool{} }

func (s *SearchTool) ToolID() string  { return "search" }
func (s *SearchTool) Version() string { return "1.0.0" }

func (s *SearchTool) SupportedOperations() []string {
	return []string{"search"}
}

func (s *SearchTool) Schema() map[string]any {
	return map[string]any{
		"search": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string"},
				"limit": map[string]any{"type": "integer", "minimum": 1, "maximum": 20},
			},
			"required": []string{"query"},
		},
	}
}

// Initialize accepts an optional "documents" list of {title, body}
// maps.
func (s *SearchTool) Initialize(config map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = nil
	if config == nil {
		return nil
	}
	raw, ok := config["documents"].([]any)
	if !ok {
		return nil
	}
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		title, _ := m["title"].(string)
		body, _ := m["body"].(string)
		if title == "" && body == "" {
			continue
		}
		s.docs = append(s.docs, SearchDocument{Title: title, Body: body})
	}
	return nil
}

func (s *SearchTool) Shutdown() error { return nil }

// AddDocument indexes one more document after initialization.
func (s *SearchTool) AddDocument(doc SearchDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, doc)
}

func (s *SearchTool) Invoke(ctx context.Context, req Request) (*Response, error) {
	started := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Operation != "search" {
		return failure(req, started, "unsupported operation: %s", req.Operation), nil
	}
	query, ok := stringParam(req, "query")
	if !ok {
		return failure(req, started, "missing required parameter: query"), nil
	}
	limit := 5
	if v, ok := req.Parameters["limit"].(float64); ok && v >= 1 {
		limit = int(v)
	}

	results := s.search(query, limit)
	return success(req, started, map[string]any{
		"query":   query,
		"results": results,
		"count":   len(results),
	}), nil
}

// search ranks documents by the number of query terms they contain,
// title matches weighted double.
func (s *SearchTool) search(query string, limit int) []map[string]any {
	terms := strings.Fields(strings.ToLower(query))

	type hit struct {
		doc   SearchDocument
		score int
	}
	s.mu.RLock()
	var hits []hit
	for _, doc := range s.docs {
		title := strings.ToLower(doc.Title)
		body := strings.ToLower(doc.Body)
		score := 0
		for _, term := range terms {
			if strings.Contains(title, term) {
				score += 2
			}
			if strings.Contains(body, term) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, hit{doc: doc, score: score})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]map[string]any, len(hits))
	for i, h := range hits {
		out[i] = map[string]any{
			"title": h.doc.Title,
			"body":  h.doc.Body,
			"score": h.score,
		}
	}
	return out
}
