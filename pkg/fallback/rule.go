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

// Package fallback provides the rule-based response generator used
// when the LLM is unavailable, slow, or returns a malformed plan. It
// scores keyword/regex rules against the prompt, learns new rules
// from successful LLM responses, and persists rules to disk.
package fallback

import (
	"regexp"
	"strings"
	"time"
)

// Rule is one scored response rule. Rules come from the seed catalogue
// or from the learner, and persist under a stable ID derived from
// (category, hash(keywords)).
type Rule struct {
	ID                string
	Keywords          []string
	Patterns          []string
	ResponseTemplates []string
	Category          string
	Confidence        float64 // 0..100
	CreatedAt         time.Time
	UsageCount        int

	compiled []*regexp.Regexp
}

// compile builds the regex matchers, dropping patterns that fail to
// compile.
func (r *Rule) compile() {
	r.compiled = r.compiled[:0]
	for _, p := range r.Patterns {
		if re, err := regexp.Compile(p); err == nil {
			r.compiled = append(r.compiled, re)
		}
	}
}

// score rates the rule against a prompt per the scoring model:
// 40 points weighted by keyword coverage plus 60 weighted by pattern
// coverage, capped at 100.
func (r *Rule) score(prompt string) float64 {
	lower := strings.ToLower(prompt)

	keywordScore := 0.0
	if len(r.Keywords) > 0 {
		matched := 0
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				matched++
			}
		}
		keywordScore = 40 * float64(matched) / float64(len(r.Keywords))
	}

	patternScore := 0.0
	if len(r.compiled) > 0 {
		matched := 0
		for _, re := range r.compiled {
			if re.MatchString(prompt) {
				matched++
			}
		}
		patternScore = 60 * float64(matched) / float64(len(r.compiled))
	}

	score := keywordScore + patternScore
	if score > 100 {
		score = 100
	}
	return score
}

// render picks a template round-robin by usage count and interpolates
// the placeholders.
func (r *Rule) render(prompt string, now time.Time) string {
	if len(r.ResponseTemplates) == 0 {
		return ""
	}
	tmpl := r.ResponseTemplates[r.UsageCount%len(r.ResponseTemplates)]
	return strings.NewReplacer(
		"{prompt}", prompt,
		"{category}", r.Category,
		"{timestamp}", now.UTC().Format(time.RFC3339),
	).Replace(tmpl)
}
