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

package fallback

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teradata-labs/amcp/pkg/normalize"
)

// maxLearnedKeywords caps the keywords extracted from one prompt.
const maxLearnedKeywords = 10

// learnedConfidence is the confidence assigned to learner-created
// rules; seeds carry their own.
const learnedConfidence = 75

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"coding", []string{"code", "function", "bug", "program", "script", "debug", "compile", "class", "variable"}},
	{"explanation", []string{"explain", "describe", "mean", "definition", "understand"}},
	{"assistance", []string{"help", "assist", "guide", "support"}},
}

// Learn derives a rule from a successful LLM exchange: keywords come
// from the prompt, the response becomes a template. Prompts yielding
// fewer than two keywords teach nothing. Existing rules for the same
// (category, keywords) identity gain the response as an extra
// template.
func (e *Engine) Learn(prompt, response string) {
	keywords := ExtractKeywords(prompt)
	if len(keywords) < 2 {
		return
	}

	category := Categorize(prompt)
	patterns := extractPatterns(prompt)
	id := category + "-" + keywordHash(keywords)

	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.rules[id]; ok {
		for _, tmpl := range existing.ResponseTemplates {
			if tmpl == response {
				e.persist(existing)
				return
			}
		}
		existing.ResponseTemplates = append(existing.ResponseTemplates, response)
		e.persist(existing)
		return
	}

	if len(e.rules) >= e.maxRules {
		e.logger.Debug("rule cap reached, not learning",
			zap.Int("max_rules", e.maxRules))
		return
	}

	rule := &Rule{
		ID:                id,
		Keywords:          keywords,
		Patterns:          patterns,
		ResponseTemplates: []string{response},
		Category:          category,
		Confidence:        learnedConfidence,
		CreatedAt:         e.now(),
	}
	rule.compile()
	e.rules[id] = rule
	e.persist(rule)

	e.logger.Debug("learned fallback rule",
		zap.String("rule_id", id),
		zap.Strings("keywords", keywords))
}

// ExtractKeywords lowercases, strips punctuation, drops stop words,
// dedupes and caps the keyword list at 10.
func ExtractKeywords(prompt string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, word := range strings.Fields(strings.ToLower(prompt)) {
		word = strings.Trim(word, ".,!?;:'\"()[]")
		if len(word) < 3 || normalize.IsStopWord(word) || seen[word] {
			continue
		}
		seen[word] = true
		out = append(out, word)
		if len(out) == maxLearnedKeywords {
			break
		}
	}
	return out
}

// Categorize buckets a prompt by keyword match, falling back to
// "question" for interrogatives and "general" otherwise.
func Categorize(prompt string) string {
	lower := strings.ToLower(prompt)
	for _, cat := range categoryKeywords {
		for _, w := range cat.words {
			if strings.Contains(lower, w) {
				return cat.category
			}
		}
	}
	trimmed := strings.TrimSpace(lower)
	if strings.HasSuffix(trimmed, "?") {
		return "question"
	}
	for _, prefix := range []string{"what", "who", "when", "where", "why", "how"} {
		if strings.HasPrefix(trimmed, prefix) {
			return "question"
		}
	}
	return "general"
}

// extractPatterns derives the basic structural regexes: question mark,
// polite-command prefix, code-keyword presence.
func extractPatterns(prompt string) []string {
	var out []string
	trimmed := strings.TrimSpace(prompt)
	if strings.HasSuffix(trimmed, "?") {
		out = append(out, `\?\s*$`)
	}
	if politePrefix.MatchString(trimmed) {
		out = append(out, politePrefix.String())
	}
	if codeKeywords.MatchString(trimmed) {
		out = append(out, codeKeywords.String())
	}
	return out
}

// keywordHash derives the stable rule identity from the sorted keyword
// set.
func keywordHash(keywords []string) string {
	sorted := append([]string(nil), keywords...)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "|")))
	return hex.EncodeToString(sum[:4])
}
