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

// Package tools defines the connector contract for external data
// providers (weather, market data, search) and the in-process
// implementations the specialist agents are wired to.
package tools

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Request is one tool invocation.
type Request struct {
	Operation   string         `json:"operation"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	RequestID   string         `json:"requestId"`
	AuthContext map[string]any `json:"authContext,omitempty"`
}

// Response is the result of one tool invocation.
type Response struct {
	Success         bool           `json:"success"`
	Data            map[string]any `json:"data,omitempty"`
	ErrorMessage    string         `json:"errorMessage,omitempty"`
	RequestID       string         `json:"requestId"`
	ExecutionTimeMs int64          `json:"executionTimeMs"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Tool is the connector contract. Implementations must be safe for
// concurrent Invoke calls between Initialize and Shutdown.
type Tool interface {
	ToolID() string
	Version() string
	SupportedOperations() []string

	// Schema describes the tool's parameters as a JSON-schema-shaped
	// document keyed by operation.
	Schema() map[string]any

	Initialize(config map[string]any) error
	Shutdown() error

	Invoke(ctx context.Context, req Request) (*Response, error)
}

// failure builds an unsuccessful response. Operation-level problems
// travel in the envelope; Invoke errors are reserved for transport
// failures.
func failure(req Request, started time.Time, format string, args ...any) *Response {
	return &Response{
		Success:         false,
		ErrorMessage:    fmt.Sprintf(format, args...),
		RequestID:       req.RequestID,
		ExecutionTimeMs: time.Since(started).Milliseconds(),
	}
}

// success builds a successful response.
func success(req Request, started time.Time, data map[string]any) *Response {
	return &Response{
		Success:         true,
		Data:            data,
		RequestID:       req.RequestID,
		ExecutionTimeMs: time.Since(started).Milliseconds(),
	}
}

// stringParam fetches a required string parameter.
func stringParam(req Request, key string) (string, bool) {
	v, ok := req.Parameters[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// Registry is a small concurrent index of initialized tools, keyed by
// tool ID.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry returns an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Add initializes the tool and registers it. A duplicate ID is an
// error.
func (r *Registry) Add(t Tool, config map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.ToolID()]; exists {
		return fmt.Errorf("tool %s already registered", t.ToolID())
	}
	if err := t.Initialize(config); err != nil {
		return fmt.Errorf("initializing tool %s: %w", t.ToolID(), err)
	}
	r.tools[t.ToolID()] = t
	return nil
}

// Get returns the tool by ID.
func (r *Registry) Get(id string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[id]
	return t, ok
}

// IDs returns the registered tool IDs.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.tools))
	for id := range r.tools {
		ids = append(ids, id)
	}
	return ids
}

// Shutdown shuts every tool down, returning the first error.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for id, t := range r.tools {
		if err := t.Shutdown(); err != nil && first == nil {
			first = fmt.Errorf("shutting down tool %s: %w", id, err)
		}
		delete(r.tools, id)
	}
	return first
}
