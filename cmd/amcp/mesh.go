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

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/teradata-labs/amcp/pkg/agent"
	"github.com/teradata-labs/amcp/pkg/agents"
	"github.com/teradata-labs/amcp/pkg/cache"
	"github.com/teradata-labs/amcp/pkg/fallback"
	"github.com/teradata-labs/amcp/pkg/llm"
	"github.com/teradata-labs/amcp/pkg/orchestrator"
	"github.com/teradata-labs/amcp/pkg/tools"
)

// runtime bundles everything a command needs to serve requests.
type runtime struct {
	mesh         *agent.Context
	orchestrator *orchestrator.Orchestrator
	maintenance  *orchestrator.Maintenance
	toolRegistry *tools.Registry
	logger       *zap.Logger
}

// buildRuntime assembles the mesh, tools, specialist agents, fallback
// engine, and orchestrator from viper settings.
func buildRuntime(logger *zap.Logger) (*runtime, error) {
	mesh := agent.NewContext(agent.ContextConfig{Logger: logger.Named("mesh")})

	provider := llm.NewClient(llm.Config{
		Endpoint:    viper.GetString("llm.endpoint"),
		Model:       viper.GetString("llm.model"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
		Logger:      logger.Named("llm"),
	})

	weatherTool := tools.NewWeatherTool()
	stockTool := tools.NewStockTool()
	searchTool := tools.NewSearchTool()

	toolRegistry := tools.NewRegistry()
	for _, t := range []tools.Tool{weatherTool, stockTool, searchTool} {
		if err := toolRegistry.Add(t, nil); err != nil {
			return nil, err
		}
	}

	for _, def := range []agent.Definition{
		agents.WeatherDefinition(weatherTool, logger),
		agents.StockDefinition(stockTool, logger),
		agents.TravelDefinition(searchTool, provider, logger),
		agents.ChatDefinition(provider, logger),
	} {
		if err := mesh.Registry().Register(def); err != nil {
			return nil, fmt.Errorf("registering %s: %w", def.Name, err)
		}
		if _, err := mesh.Registry().Activate(context.Background(), def.Name); err != nil {
			return nil, fmt.Errorf("activating %s: %w", def.Name, err)
		}
	}

	engine, err := buildFallback(logger)
	if err != nil {
		return nil, err
	}

	parallel := viper.GetBool("orchestrator.parallel_execution")
	caching := viper.GetBool("orchestrator.task_caching")
	cacheCfg := cache.Config{
		MaxSize: viper.GetInt("cache.max_size"),
		TTL:     time.Duration(viper.GetInt("cache.ttl_minutes")) * time.Minute,
	}

	orch, err := orchestrator.New(orchestrator.Config{
		Mesh:                mesh,
		Provider:            provider,
		LLMModel:            viper.GetString("llm.model"),
		PlanningTemperature: viper.GetFloat64("llm.temperature"),
		MaxTaskDepth:        viper.GetInt("orchestrator.max_task_depth"),
		TaskTimeout:         time.Duration(viper.GetInt("orchestrator.task_timeout_ms")) * time.Millisecond,
		ParallelExecution:   &parallel,
		TaskCaching:         &caching,
		MaxTokens:           viper.GetInt("llm.max_tokens"),
		ResponseCache:       cacheCfg,
		IntentCache:         cacheCfg,
		Fallback:            engine,
		Logger:              logger.Named("orchestrator"),
	})
	if err != nil {
		return nil, err
	}

	maintenance, err := orchestrator.NewMaintenance(orch, orchestrator.MaintenanceConfig{
		Logger: logger.Named("maintenance"),
	})
	if err != nil {
		return nil, err
	}
	maintenance.Start()

	return &runtime{
		mesh:         mesh,
		orchestrator: orch,
		maintenance:  maintenance,
		toolRegistry: toolRegistry,
		logger:       logger,
	}, nil
}

func buildFallback(logger *zap.Logger) (*fallback.Engine, error) {
	dir := viper.GetString("fallback.rules_dir")
	if dir == "" {
		var err error
		dir, err = fallback.DefaultRulesDir()
		if err != nil {
			return nil, err
		}
	}
	store, err := fallback.NewStore(dir, logger.Named("rule-store"))
	if err != nil {
		return nil, err
	}
	return fallback.NewEngine(fallback.Config{
		MinConfidence: viper.GetFloat64("fallback.min_confidence"),
		MaxRules:      viper.GetInt("fallback.max_rules"),
		Store:         store,
		Logger:        logger.Named("fallback"),
	})
}

// close tears the runtime down in dependency order.
func (r *runtime) close(ctx context.Context) {
	r.maintenance.Stop()
	r.orchestrator.Close()
	if err := r.mesh.Close(ctx); err != nil {
		r.logger.Warn("mesh close", zap.Error(err))
	}
	if err := r.toolRegistry.Shutdown(); err != nil {
		r.logger.Warn("tool shutdown", zap.Error(err))
	}
}
