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

package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teradata-labs/amcp/pkg/fallback"
	"github.com/teradata-labs/amcp/pkg/llm"
)

// genericApology is returned when both the LLM and the fallback
// engine come up empty.
const genericApology = "I'm sorry, I couldn't complete that request right now. Please try again in a moment."

// SynthesizerConfig configures the synthesizer.
type SynthesizerConfig struct {
	Provider    llm.Provider     // optional
	Fallback    *fallback.Engine // optional
	Model       string
	Temperature float64 // default 0.3
	MaxTokens   int     // default 1024
	Logger      *zap.Logger
}

// Synthesizer merges task results into the final answer. The LLM path
// is preferred; on failure the fallback engine answers from its rules,
// and a generic apology covers a rule miss.
type Synthesizer struct {
	provider    llm.Provider
	fallback    *fallback.Engine
	model       string
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

// NewSynthesizer creates a synthesizer. Both the provider and the
// fallback engine are optional.
func NewSynthesizer(cfg SynthesizerConfig) *Synthesizer {
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Synthesizer{
		provider:    cfg.Provider,
		fallback:    cfg.Fallback,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      cfg.Logger,
	}
}

// Synthesize produces the final answer for the workflow from its step
// results. It always returns a non-empty string; the bool reports
// whether the answer came from the LLM (and is therefore worth
// caching and learning from).
func (s *Synthesizer) Synthesize(ctx context.Context, wf *Workflow) (string, bool) {
	results := wf.Results()

	if s.provider != nil {
		resp, err := s.provider.Complete(ctx, llm.Request{
			Prompt:      s.synthesisPrompt(wf.Request, results),
			Model:       s.model,
			Temperature: s.temperature,
			MaxTokens:   s.maxTokens,
		})
		if err == nil && strings.TrimSpace(resp.Text) != "" {
			return strings.TrimSpace(resp.Text), true
		}
		if err != nil {
			s.logger.Warn("LLM synthesis failed, trying fallback rules",
				zap.String("workflow_id", wf.ID),
				zap.Error(err))
		}
	}

	if s.fallback != nil {
		if answer, ok := s.fallback.Match(wf.Request); ok {
			return answer.Text, false
		}
	}

	// No LLM and no rule: surface the raw results if we have any.
	if len(results) > 0 {
		return renderResults(results), false
	}
	return genericApology, false
}

// synthesisPrompt lays out the request and each step's result for the
// LLM to merge.
func (s *Synthesizer) synthesisPrompt(request string, results map[string]any) string {
	var sb strings.Builder
	sb.WriteString("Combine the task results below into one concise, helpful answer to the user's request. Answer in plain prose.\n\nUser request: ")
	sb.WriteString(request)
	sb.WriteString("\n\nTask results:\n")
	for _, stepID := range sortedKeys(results) {
		fmt.Fprintf(&sb, "- %s: %s\n", stepID, compactJSON(results[stepID]))
	}
	return sb.String()
}

// renderResults is the LLM-free rendering of step results.
func renderResults(results map[string]any) string {
	var sb strings.Builder
	for i, stepID := range sortedKeys(results) {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(compactJSON(results[stepID]))
	}
	return sb.String()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
