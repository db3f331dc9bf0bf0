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

package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts prompt tokens for budget enforcement. Uses the
// cl100k_base encoding, a good approximation across current models;
// falls back to a chars/4 estimate if the encoding cannot be loaded.
type TokenCounter struct {
	mu      sync.Mutex
	encoder *tiktoken.Tiktoken
}

var (
	globalCounter *TokenCounter
	counterOnce   sync.Once
)

// GetTokenCounter returns the shared token counter.
func GetTokenCounter() *TokenCounter {
	counterOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			globalCounter = &TokenCounter{}
			return
		}
		globalCounter = &TokenCounter{encoder: enc}
	})
	return globalCounter
}

// Count returns the token count for the text.
func (tc *TokenCounter) Count(text string) int {
	if tc.encoder == nil {
		return len(text) / 4
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.encoder.Encode(text, nil, nil))
}

// Truncate trims text to at most maxTokens tokens, cutting from the
// end. Returns the input unchanged when it already fits.
func (tc *TokenCounter) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 || tc.Count(text) <= maxTokens {
		return text
	}
	if tc.encoder == nil {
		limit := maxTokens * 4
		if limit >= len(text) {
			return text
		}
		return text[:limit]
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()
	tokens := tc.encoder.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return tc.encoder.Decode(tokens[:maxTokens])
}
