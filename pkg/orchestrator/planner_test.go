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
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teradata-labs/amcp/pkg/agent"
	"github.com/teradata-labs/amcp/pkg/llm"
)

// stubProvider scripts LLM behavior for tests. The planFn/synthFn
// split keys off the prompt's leading text.
type stubProvider struct {
	calls    atomic.Int64
	complete func(req llm.Request) (*llm.Response, error)
}

func (s *stubProvider) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	s.calls.Add(1)
	return s.complete(req)
}

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Model() string { return "stub-model" }

func failingProvider(err error) *stubProvider {
	return &stubProvider{complete: func(llm.Request) (*llm.Response, error) { return nil, err }}
}

func testInfos() []agent.Info {
	return []agent.Info{
		{AgentID: "weather-agent", Capabilities: []string{"weather.current", "weather.forecast"}},
		{AgentID: "stock-agent", Capabilities: []string{"stock.quote", "financial_analysis"}},
		{AgentID: "travel-agent", Capabilities: []string{"travel.search", "travel.plan"}},
		{AgentID: "chat-agent", Capabilities: []string{"chat.message"}},
	}
}

func TestPlannerUsesLLMPlan(t *testing.T) {
	provider := &stubProvider{complete: func(req llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: `{
			"steps": [{"id": "s1", "capability": "weather.current", "parameters": {"location": "London,GB"}, "priority": 5, "canParallelize": true}],
			"reasoning": "direct weather lookup",
			"confidence": 0.92
		}`}, nil
	}}
	p := NewPlanner(PlannerConfig{Provider: provider, Logger: zaptest.NewLogger(t)})

	plan := p.Plan(context.Background(), "What's the weather in London?", testInfos())
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "weather.current", plan.Steps[0].Capability)
	assert.Equal(t, 0.92, plan.Confidence)
}

func TestPlannerTimeoutFallsBackToRouter(t *testing.T) {
	p := NewPlanner(PlannerConfig{
		Provider: failingProvider(llm.ErrTimeout),
		Logger:   zaptest.NewLogger(t),
	})

	plan := p.Plan(context.Background(), "stock price of AAPL", testInfos())
	require.Len(t, plan.Steps, 1)
	assert.Contains(t, []string{"stock.quote", "financial_analysis"}, plan.Steps[0].Capability)
	assert.LessOrEqual(t, plan.Confidence, 0.7)
	assert.Contains(t, plan.Reasoning, "finance")
	assert.Equal(t, "AAPL", plan.Steps[0].Parameters["symbol"])
}

func TestPlannerLowConfidenceFallsBackToRouter(t *testing.T) {
	provider := &stubProvider{complete: func(llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: `{"steps": [{"id": "s1", "capability": "chat.message"}], "confidence": 0.2}`}, nil
	}}
	p := NewPlanner(PlannerConfig{Provider: provider, Logger: zaptest.NewLogger(t)})

	plan := p.Plan(context.Background(), "will it rain in Tokyo?", testInfos())
	assert.Equal(t, "weather.current", plan.Steps[0].Capability)
	assert.Equal(t, routerConfidence, plan.Confidence)
}

func TestPlannerMalformedPlanFallsBackToRouter(t *testing.T) {
	provider := &stubProvider{complete: func(llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: "Sure! I'd plan it like this: first check the weather."}, nil
	}}
	p := NewPlanner(PlannerConfig{Provider: provider, Logger: zaptest.NewLogger(t)})

	plan := p.Plan(context.Background(), "weather in Paris", testInfos())
	assert.Equal(t, "weather.current", plan.Steps[0].Capability)
	assert.Equal(t, "Paris,FR", plan.Steps[0].Parameters["location"])
}

func TestPlannerRejectsOversizedPlan(t *testing.T) {
	var steps []string
	for _, id := range []string{"a", "b", "c"} {
		steps = append(steps, `{"id": "`+id+`", "capability": "chat.message"}`)
	}
	provider := &stubProvider{complete: func(llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: `{"steps": [` + strings.Join(steps, ",") + `], "confidence": 0.9}`}, nil
	}}
	p := NewPlanner(PlannerConfig{Provider: provider, MaxSteps: 2, Logger: zaptest.NewLogger(t)})

	plan := p.Plan(context.Background(), "just chat with me", testInfos())
	// Router plan, not the oversized LLM plan.
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, routerConfidence, plan.Confidence)
}

func TestKeywordRouterDeterministic(t *testing.T) {
	p := NewPlanner(PlannerConfig{Logger: zaptest.NewLogger(t)})
	first := p.KeywordRoute("What's the weather in London?", testInfos())
	second := p.KeywordRoute("What's the weather in London?", testInfos())
	assert.Equal(t, first, second)
	assert.Equal(t, "London,GB", first.Steps[0].Parameters["location"])
}

func TestKeywordRouterDefaultsToChat(t *testing.T) {
	p := NewPlanner(PlannerConfig{Logger: zaptest.NewLogger(t)})
	plan := p.KeywordRoute("tell me a joke", testInfos())
	require.Len(t, plan.Steps, 1)
	assert.Equal(t, "chat.message", plan.Steps[0].Capability)
	assert.Equal(t, "tell me a joke", plan.Steps[0].Parameters["message"])
}
