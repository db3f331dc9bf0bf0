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

package agents

import (
	"context"

	"go.uber.org/zap"

	"github.com/teradata-labs/amcp/pkg/agent"
	"github.com/teradata-labs/amcp/pkg/llm"
	"github.com/teradata-labs/amcp/pkg/task"
	"github.com/teradata-labs/amcp/pkg/tools"
)

// Capability names served by the built-in specialists.
const (
	CapWeatherCurrent  = "weather.current"
	CapWeatherForecast = "weather.forecast"
	CapStockQuote      = "stock.quote"
	CapFinancial       = "financial_analysis"
	CapTravelSearch    = "travel.search"
	CapTravelPlan      = "travel.plan"
	CapChat            = "chat.message"
)

// WeatherDefinition registers the weather specialist: current
// conditions and forecasts backed by the weather tool.
func WeatherDefinition(tool *tools.WeatherTool, logger *zap.Logger) agent.Definition {
	behavior := NewToolBackedBehavior(tool, map[string]string{
		CapWeatherCurrent:  "current",
		CapWeatherForecast: "forecast",
	})
	return agent.Definition{
		Name:         "weather-agent",
		Description:  "Current conditions and short-range forecasts by location.",
		Capabilities: []string{CapWeatherCurrent, CapWeatherForecast},
		Factory: func() (agent.Agent, error) {
			return NewTaskAgent("weather-agent", []string{CapWeatherCurrent, CapWeatherForecast}, behavior, logger), nil
		},
	}
}

// StockDefinition registers the finance specialist: quotes and
// day-trend analysis backed by the stock tool.
func StockDefinition(tool *tools.StockTool, logger *zap.Logger) agent.Definition {
	behavior := NewToolBackedBehavior(tool, map[string]string{
		CapStockQuote: "quote",
		CapFinancial:  "analyze",
	})
	return agent.Definition{
		Name:         "stock-agent",
		Description:  "Equity quotes and basic financial analysis by symbol.",
		Capabilities: []string{CapStockQuote, CapFinancial},
		Factory: func() (agent.Agent, error) {
			return NewTaskAgent("stock-agent", []string{CapStockQuote, CapFinancial}, behavior, logger), nil
		},
	}
}

// TravelDefinition registers the travel specialist: destination search
// via the search tool plus LLM-assisted itinerary planning.
func TravelDefinition(search *tools.SearchTool, provider llm.Provider, logger *zap.Logger) agent.Definition {
	searchBehavior := NewToolBackedBehavior(search, map[string]string{
		CapTravelSearch: "search",
	})
	planBehavior := NewLLMBackedBehavior(provider,
		"You are a travel planner. Produce a short, practical itinerary for the destination and dates below.")

	// Route by capability to the right sub-behavior.
	behavior := BehaviorFunc(func(ctx context.Context, req *task.Request) (any, *task.ErrorInfo) {
		if req.Capability == CapTravelPlan {
			return planBehavior.Execute(ctx, req)
		}
		return searchBehavior.Execute(ctx, req)
	})

	return agent.Definition{
		Name:         "travel-agent",
		Description:  "Destination lookups and itinerary planning.",
		Capabilities: []string{CapTravelSearch, CapTravelPlan},
		Factory: func() (agent.Agent, error) {
			return NewTaskAgent("travel-agent", []string{CapTravelSearch, CapTravelPlan}, behavior, logger), nil
		},
	}
}

// ChatDefinition registers the conversational specialist. The provider
// may be nil, in which case replies are canned.
func ChatDefinition(provider llm.Provider, logger *zap.Logger) agent.Definition {
	behavior := NewChatBehavior(provider)
	return agent.Definition{
		Name:         "chat-agent",
		Description:  "General conversation and small talk.",
		Capabilities: []string{CapChat},
		Factory: func() (agent.Agent, error) {
			return NewTaskAgent("chat-agent", []string{CapChat}, behavior, logger), nil
		},
	}
}
