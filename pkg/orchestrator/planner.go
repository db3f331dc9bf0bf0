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
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/kaptinlin/jsonrepair"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/teradata-labs/amcp/pkg/agent"
	"github.com/teradata-labs/amcp/pkg/llm"
	"github.com/teradata-labs/amcp/pkg/normalize"
)

// PlannerErrorKind classifies why the LLM planning path failed.
type PlannerErrorKind int

const (
	PlannerLLMUnavailable PlannerErrorKind = iota
	PlannerMalformedPlan
	PlannerTimeout
)

func (k PlannerErrorKind) String() string {
	switch k {
	case PlannerMalformedPlan:
		return "MalformedPlan"
	case PlannerTimeout:
		return "Timeout"
	default:
		return "LLMUnavailable"
	}
}

// PlannerError is the typed failure of the LLM planning path. It is
// informational: the planner falls through to the keyword router and
// still returns a plan.
type PlannerError struct {
	Kind PlannerErrorKind
	Err  error
}

func (e *PlannerError) Error() string {
	return fmt.Sprintf("planner %s: %v", e.Kind, e.Err)
}

func (e *PlannerError) Unwrap() error { return e.Err }

// routerConfidence is assigned to keyword-router plans. It stays below
// the LLM acceptance threshold so callers can tell the paths apart.
const routerConfidence = 0.6

// minPlanConfidence rejects low-conviction LLM plans in favor of the
// deterministic router.
const minPlanConfidence = 0.5

// planSchema validates the LLM's JSON plan before decoding.
var planSchema = map[string]any{
	"type":     "object",
	"required": []string{"steps", "confidence"},
	"properties": map[string]any{
		"steps": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []string{"id", "capability"},
				"properties": map[string]any{
					"id":             map[string]any{"type": "string", "minLength": 1},
					"capability":     map[string]any{"type": "string", "minLength": 1},
					"description":    map[string]any{"type": "string"},
					"parameters":     map[string]any{"type": "object"},
					"priority":       map[string]any{"type": "integer", "minimum": 1, "maximum": 10},
					"canParallelize": map[string]any{"type": "boolean"},
				},
			},
		},
		"dependencies": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"reasoning":         map[string]any{"type": "string"},
		"confidence":        map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"synthesisStrategy": map[string]any{"type": "string"},
	},
}

// PlannerConfig configures the planner.
type PlannerConfig struct {
	Provider    llm.Provider
	Model       string
	Temperature float64 // default 0.3
	MaxTokens   int     // default 1024
	MaxSteps    int     // default 5; larger LLM plans are rejected
	Logger      *zap.Logger
}

// Planner builds execution plans, preferring the LLM and falling back
// to the deterministic keyword router.
type Planner struct {
	provider    llm.Provider
	model       string
	temperature float64
	maxTokens   int
	maxSteps    int
	logger      *zap.Logger
}

// NewPlanner creates a planner. Provider may be nil, in which case
// every plan comes from the keyword router.
func NewPlanner(cfg PlannerConfig) *Planner {
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Planner{
		provider:    cfg.Provider,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		maxSteps:    cfg.MaxSteps,
		logger:      cfg.Logger,
	}
}

// Plan produces an execution plan for the request given the active
// agents. The LLM path is tried first; any failure (unavailable,
// timeout, malformed or low-confidence plan) routes the request
// through the keyword router instead, so Plan never returns an empty
// plan.
func (p *Planner) Plan(ctx context.Context, request string, infos []agent.Info) *ExecutionPlan {
	if p.provider != nil {
		plan, perr := p.planWithLLM(ctx, request, infos)
		if perr == nil {
			return plan
		}
		p.logger.Warn("LLM planning failed, using keyword router",
			zap.String("kind", perr.Kind.String()),
			zap.Error(perr.Err))
	}
	return p.KeywordRoute(request, infos)
}

func (p *Planner) planWithLLM(ctx context.Context, request string, infos []agent.Info) (*ExecutionPlan, *PlannerError) {
	resp, err := p.provider.Complete(ctx, llm.Request{
		Prompt:      p.planningPrompt(request, infos),
		Model:       p.model,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		kind := PlannerLLMUnavailable
		if errors.Is(err, llm.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			kind = PlannerTimeout
		}
		return nil, &PlannerError{Kind: kind, Err: err}
	}

	plan, err := parsePlan(resp.Text)
	if err != nil {
		return nil, &PlannerError{Kind: PlannerMalformedPlan, Err: err}
	}
	if plan.Confidence < minPlanConfidence {
		return nil, &PlannerError{
			Kind: PlannerMalformedPlan,
			Err:  fmt.Errorf("plan confidence %.2f below %.2f", plan.Confidence, minPlanConfidence),
		}
	}
	if len(plan.Steps) > p.maxSteps {
		return nil, &PlannerError{
			Kind: PlannerMalformedPlan,
			Err:  fmt.Errorf("plan has %d steps, limit %d", len(plan.Steps), p.maxSteps),
		}
	}
	return plan, nil
}

// planningPrompt enumerates the active agents and demands a JSON plan.
func (p *Planner) planningPrompt(request string, infos []agent.Info) string {
	var sb strings.Builder
	sb.WriteString("You are a task planner for an agent mesh. Available agents:\n")
	for _, info := range infos {
		fmt.Fprintf(&sb, "- %s: %s (capabilities: %s)\n",
			info.AgentID, info.Description, strings.Join(info.Capabilities, ", "))
	}
	sb.WriteString("\nUser request: ")
	sb.WriteString(request)
	sb.WriteString(`

Respond with JSON only, no prose, shaped as:
{"steps":[{"id":"s1","capability":"...","description":"...","parameters":{},"priority":5,"canParallelize":true}],"dependencies":{"s2":["s1"]},"reasoning":"...","confidence":0.9,"synthesisStrategy":"merge"}
Use only capabilities listed above. Keep the plan minimal.`)
	return sb.String()
}

// parsePlan decodes and validates the LLM's plan JSON. A repair pass
// handles the trailing commas, single quotes and markdown fences local
// models tend to emit.
func parsePlan(text string) (*ExecutionPlan, error) {
	text = stripFences(text)

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return nil, fmt.Errorf("unrepairable plan JSON: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(planSchema),
		gojsonschema.NewStringLoader(repaired),
	)
	if err != nil {
		return nil, fmt.Errorf("plan schema validation: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, e := range result.Errors() {
			msgs[i] = e.String()
		}
		return nil, fmt.Errorf("plan violates schema: %v", msgs)
	}

	var plan ExecutionPlan
	if err := json.Unmarshal([]byte(repaired), &plan); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// stripFences removes a markdown code fence around the JSON, if any.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// domainRoute describes one keyword-router domain in priority order.
type domainRoute struct {
	domain    string
	keywords  []string
	preferred []string // capability preference order
}

var domainRoutes = []domainRoute{
	{
		domain:    "weather",
		keywords:  []string{"weather", "rain", "snow", "sunny", "temperature", "forecast", "cloudy", "humid"},
		preferred: []string{"weather.current", "weather.forecast"},
	},
	{
		domain:    "finance",
		keywords:  []string{"stock", "price", "share", "market", "ticker", "invest", "financial", "quote"},
		preferred: []string{"stock.quote", "financial_analysis"},
	},
	{
		domain:    "travel",
		keywords:  []string{"travel", "trip", "flight", "hotel", "itinerary", "vacation", "visit"},
		preferred: []string{"travel.plan", "travel.search"},
	},
}

// KeywordRoute builds a deterministic single-step plan by scanning the
// normalized prompt for domain keywords, defaulting to the chat
// capability. It is the planner's LLM-free path and the one property
// tests rely on.
func (p *Planner) KeywordRoute(request string, infos []agent.Info) *ExecutionPlan {
	normalized := normalize.Prompt(request)

	for _, route := range domainRoutes {
		if !containsAnyWord(normalized, route.keywords) {
			continue
		}
		capability := pickCapability(infos, route.preferred, route.domain)
		return &ExecutionPlan{
			Steps: []TaskStep{{
				ID:             "s1",
				Capability:     capability,
				Description:    fmt.Sprintf("Handle %s request", route.domain),
				Parameters:     routerParameters(route.domain, request),
				Priority:       5,
				CanParallelize: true,
			}},
			Reasoning:         fmt.Sprintf("keyword router matched the %s domain", route.domain),
			Confidence:        routerConfidence,
			SynthesisStrategy: "merge",
		}
	}

	return &ExecutionPlan{
		Steps: []TaskStep{{
			ID:             "s1",
			Capability:     pickCapability(infos, []string{"chat.message"}, "chat"),
			Description:    "Handle general conversation",
			Parameters:     map[string]any{"message": request},
			Priority:       5,
			CanParallelize: true,
		}},
		Reasoning:         "keyword router found no domain match, routing to general conversation",
		Confidence:        routerConfidence,
		SynthesisStrategy: "merge",
	}
}

// pickCapability returns the first preferred capability an active
// agent advertises, then any capability under the domain prefix, then
// the first preference unconditionally so the plan stays well-formed.
func pickCapability(infos []agent.Info, preferred []string, domain string) string {
	advertised := make(map[string]bool)
	for _, info := range infos {
		for _, c := range info.Capabilities {
			advertised[c] = true
		}
	}
	for _, c := range preferred {
		if advertised[c] {
			return c
		}
	}
	for c := range advertised {
		if strings.HasPrefix(c, domain+".") {
			return c
		}
	}
	return preferred[0]
}

// routerParameters extracts domain parameters from the raw request.
func routerParameters(domain, request string) map[string]any {
	switch domain {
	case "weather":
		params := map[string]any{}
		if loc := extractLocation(request); loc != "" {
			params["location"] = loc
		}
		return params
	case "finance":
		params := map[string]any{}
		if sym := extractSymbol(request); sym != "" {
			params["symbol"] = sym
		}
		return params
	case "travel":
		return map[string]any{"query": request}
	default:
		return map[string]any{"message": request}
	}
}

// extractLocation scans prompt words for a known city alias or IATA
// code; normalize.Location marks recognized inputs by emitting the
// canonical "City,CC" form.
func extractLocation(request string) string {
	for _, word := range strings.Fields(request) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word == "" {
			continue
		}
		if canonical := normalize.Location(word); strings.Contains(canonical, ",") {
			return canonical
		}
	}
	return ""
}

// extractSymbol picks the first all-uppercase token of 2..5 letters,
// the shape of a ticker symbol. Single letters are skipped to avoid
// matching the pronoun "I" or a stray "A".
func extractSymbol(request string) string {
	for _, word := range strings.Fields(request) {
		word = strings.Trim(word, ".,!?;:'\"()")
		if len(word) < 2 || len(word) > 5 {
			continue
		}
		upper := true
		for _, r := range word {
			if !unicode.IsUpper(r) {
				upper = false
				break
			}
		}
		if upper {
			return word
		}
	}
	return ""
}

// containsAnyWord reports whether any keyword occurs in the normalized
// prompt as a substring match.
func containsAnyWord(normalized string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}
