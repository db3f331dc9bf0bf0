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
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/amcp/pkg/agent"
	"github.com/teradata-labs/amcp/pkg/cache"
	"github.com/teradata-labs/amcp/pkg/fallback"
	"github.com/teradata-labs/amcp/pkg/llm"
	"github.com/teradata-labs/amcp/pkg/normalize"
	"github.com/teradata-labs/amcp/pkg/task"
)

// Config holds the orchestrator's recognized options.
type Config struct {
	// Mesh carries task traffic between the coordinator and agents.
	// Required.
	Mesh *agent.Context

	// Provider is the LLM backend for planning and synthesis. Nil
	// forces the keyword-router and fallback paths.
	Provider llm.Provider

	// LLMModel overrides the provider's default model name in cache
	// keys and requests.
	LLMModel string

	// PlanningTemperature is used for plan and synthesis calls.
	// Default 0.3.
	PlanningTemperature float64

	// MaxTaskDepth caps the number of steps an LLM plan may carry.
	// Default 5.
	MaxTaskDepth int

	// TaskTimeout bounds each task step. Default 60s.
	TaskTimeout time.Duration

	// ParallelExecution issues ready steps concurrently. Default true.
	ParallelExecution *bool

	// TaskCaching enables the response and intent caches. Default
	// true.
	TaskCaching *bool

	// MaxTaskRetries re-dispatches retriable step failures. Default 0.
	MaxTaskRetries int

	// MaxTokens for LLM calls. Default 1024.
	MaxTokens int

	// ResponseCache and IntentCache configure the two caches. Zero
	// values get cache defaults (1000 entries, 60 min TTL).
	ResponseCache cache.Config
	IntentCache   cache.Config

	// Fallback is the rule engine consulted when the LLM path fails
	// and taught on successful answers. Optional.
	Fallback *fallback.Engine

	Logger *zap.Logger
}

// Orchestrator is the top-level entry point: it plans, executes, and
// synthesizes one answer per request.
type Orchestrator struct {
	mesh        *agent.Context
	planner     *Planner
	coordinator *Coordinator
	synthesizer *Synthesizer
	fallback    *fallback.Engine

	responseCache *cache.ResponseCache
	intentCache   *cache.IntentCache
	caching       bool

	model       string
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

// New wires an orchestrator from the config.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Mesh == nil {
		return nil, fmt.Errorf("orchestrator requires a mesh context")
	}
	if cfg.PlanningTemperature <= 0 {
		cfg.PlanningTemperature = 0.3
	}
	if cfg.MaxTaskDepth <= 0 {
		cfg.MaxTaskDepth = 5
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	parallel := true
	if cfg.ParallelExecution != nil {
		parallel = *cfg.ParallelExecution
	}
	caching := true
	if cfg.TaskCaching != nil {
		caching = *cfg.TaskCaching
	}
	model := cfg.LLMModel
	if model == "" && cfg.Provider != nil {
		model = cfg.Provider.Model()
	}

	coordinator, err := NewCoordinator(CoordinatorConfig{
		Mesh:           cfg.Mesh,
		TaskTimeout:    cfg.TaskTimeout,
		Parallel:       parallel,
		MaxTaskRetries: cfg.MaxTaskRetries,
		Logger:         cfg.Logger.Named("coordinator"),
	})
	if err != nil {
		return nil, err
	}

	if cfg.ResponseCache.Logger == nil {
		cfg.ResponseCache.Logger = cfg.Logger.Named("response-cache")
	}
	if cfg.IntentCache.Logger == nil {
		cfg.IntentCache.Logger = cfg.Logger.Named("intent-cache")
	}

	return &Orchestrator{
		mesh: cfg.Mesh,
		planner: NewPlanner(PlannerConfig{
			Provider:    cfg.Provider,
			Model:       model,
			Temperature: cfg.PlanningTemperature,
			MaxTokens:   cfg.MaxTokens,
			MaxSteps:    cfg.MaxTaskDepth,
			Logger:      cfg.Logger.Named("planner"),
		}),
		coordinator: coordinator,
		synthesizer: NewSynthesizer(SynthesizerConfig{
			Provider:    cfg.Provider,
			Fallback:    cfg.Fallback,
			Model:       model,
			Temperature: cfg.PlanningTemperature,
			MaxTokens:   cfg.MaxTokens,
			Logger:      cfg.Logger.Named("synthesizer"),
		}),
		fallback:      cfg.Fallback,
		responseCache: cache.NewResponseCache(cfg.ResponseCache),
		intentCache:   cache.NewIntentCache(cfg.IntentCache),
		caching:       caching,
		model:         model,
		temperature:   cfg.PlanningTemperature,
		maxTokens:     cfg.MaxTokens,
		logger:        cfg.Logger,
	}, nil
}

// Orchestrate answers one user request end to end. The returned string
// is always non-empty on nil error.
func (o *Orchestrator) Orchestrate(ctx context.Context, request string, uc task.UserContext) (string, error) {
	normalized := normalize.Prompt(request)
	cacheKey := cache.Key(normalized, o.model, o.temperature, o.maxTokens)

	if o.caching {
		if answer, ok := o.responseCache.Get(cacheKey); ok {
			o.logger.Debug("response cache hit", zap.String("key", cacheKey))
			return answer, nil
		}
	}

	wf := NewWorkflow(request, uc)
	o.logger.Info("workflow started",
		zap.String("workflow_id", wf.ID),
		zap.String("request", request))

	plan := o.plan(ctx, wf, normalized)
	wf.SetPlan(plan)

	if err := o.coordinator.Execute(ctx, wf); err != nil {
		wf.Fail(err)
		o.logger.Warn("workflow failed",
			zap.String("workflow_id", wf.ID),
			zap.Error(err))
		// Partial results are preserved on the workflow; the caller
		// gets the error and whatever the fallback engine can offer.
		if o.fallback != nil {
			if answer, ok := o.fallback.Match(request); ok {
				return answer.Text, nil
			}
		}
		return "", fmt.Errorf("workflow %s: %w", wf.ID, err)
	}

	wf.setState(WorkflowSynthesizing)
	answer, fromLLM := o.synthesizer.Synthesize(ctx, wf)
	wf.Complete(answer)

	if fromLLM {
		if o.caching {
			o.responseCache.Put(cacheKey, answer)
		}
		if o.fallback != nil {
			o.fallback.Learn(request, answer)
		}
	}

	o.logger.Info("workflow completed",
		zap.String("workflow_id", wf.ID),
		zap.Duration("elapsed", time.Since(wf.StartedAt)))
	return answer, nil
}

// plan consults the intent cache before the planner and stores fresh
// single-step intents for repeat prompts.
func (o *Orchestrator) plan(ctx context.Context, wf *Workflow, normalized string) *ExecutionPlan {
	if o.caching {
		if intent, ok := o.intentCache.Get(normalized); ok {
			o.logger.Debug("intent cache hit", zap.String("intent", intent.Intent))
			return &ExecutionPlan{
				Steps: []TaskStep{{
					ID:             "s1",
					Capability:     intent.Intent,
					Parameters:     intent.Parameters,
					Priority:       5,
					CanParallelize: true,
				}},
				Reasoning:  intent.Reasoning,
				Confidence: intent.Confidence,
			}
		}
	}

	plan := o.planner.Plan(ctx, wf.Request, o.mesh.Registry().Discover())

	if o.caching && len(plan.Steps) == 1 {
		step := plan.Steps[0]
		o.intentCache.Put(normalized, cache.CachedIntent{
			Intent:      step.Capability,
			TargetAgent: targetFor(o.mesh.Registry().Discover(), step.Capability),
			Confidence:  plan.Confidence,
			Parameters:  step.Parameters,
			Reasoning:   plan.Reasoning,
		})
	}
	return plan
}

// targetFor finds an active agent advertising the capability.
func targetFor(infos []agent.Info, capability string) string {
	for _, info := range infos {
		for _, c := range info.Capabilities {
			if c == capability {
				return string(info.AgentID)
			}
		}
	}
	return ""
}

// CacheStats exposes both caches' counters.
func (o *Orchestrator) CacheStats() (response, intent cache.Stats) {
	return o.responseCache.Stats(), o.intentCache.Stats()
}

// Close releases the coordinator's subscription. The mesh itself
// belongs to the caller.
func (o *Orchestrator) Close() {
	o.coordinator.Close()
}
