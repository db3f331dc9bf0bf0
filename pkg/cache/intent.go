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

package cache

// CachedIntent is a remembered planning decision for a normalized user
// query, used to short-circuit the planner for repeat prompts.
type CachedIntent struct {
	Intent      string
	TargetAgent string
	Confidence  float64
	Parameters  map[string]any
	Reasoning   string
}

// ResponseCache stores raw LLM response strings keyed by
// Key(normalizedPrompt, model, temperature, maxTokens).
type ResponseCache = Store[string]

// IntentCache stores CachedIntent values keyed by the normalized user
// query.
type IntentCache = Store[CachedIntent]

// NewResponseCache creates a response cache.
func NewResponseCache(cfg Config) *ResponseCache {
	return NewStore[string](cfg)
}

// NewIntentCache creates an intent cache.
func NewIntentCache(cfg Config) *IntentCache {
	return NewStore[CachedIntent](cfg)
}
