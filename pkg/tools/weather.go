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

package tools

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/teradata-labs/amcp/pkg/normalize"
)

// WeatherTool serves current conditions and short-range forecasts. It
// generates deterministic synthetic data per location so results are
// stable across calls without a network dependency.
type WeatherTool struct{}

var weatherConditions = []string{"clear", "partly cloudy", "overcast", "light rain", "rain", "thunderstorms", "snow"}

func NewWeatherTool() *WeatherTool { return &WeatherTool{} }

func (w *WeatherTool) ToolID() string  { return "weather" }
func (w *WeatherTool) Version() string { return "1.0.0" }

func (w *WeatherTool) SupportedOperations() []string {
	return []string{"current", "forecast"}
}

func (w *WeatherTool) Schema() map[string]any {
	location := map[string]any{
		"type":        "string",
		"description": "City name, optionally with ISO country code, e.g. London,GB",
	}
	return map[string]any{
		"current": map[string]any{
			"type":       "object",
			"properties": map[string]any{"location": location},
			"required":   []string{"location"},
		},
		"forecast": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location": location,
				"days":     map[string]any{"type": "integer", "minimum": 1, "maximum": 7},
			},
			"required": []string{"location"},
		},
	}
}

func (w *WeatherTool) Initialize(map[string]any) error { return nil }
func (w *WeatherTool) Shutdown() error                 { return nil }

func (w *WeatherTool) Invoke(ctx context.Context, req Request) (*Response, error) {
	started := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	location, ok := stringParam(req, "location")
	if !ok {
		return failure(req, started, "missing required parameter: location"), nil
	}
	location = normalize.Location(location)

	switch req.Operation {
	case "current":
		return success(req, started, w.conditions(location, 0)), nil
	case "forecast":
		days := 3
		if v, ok := req.Parameters["days"]; ok {
			switch n := v.(type) {
			case int:
				days = n
			case float64:
				days = int(n)
			}
		}
		if days < 1 || days > 7 {
			return failure(req, started, "days must be between 1 and 7, got %d", days), nil
		}
		forecast := make([]map[string]any, days)
		for i := 0; i < days; i++ {
			forecast[i] = w.conditions(location, i+1)
			forecast[i]["date"] = time.Now().AddDate(0, 0, i+1).Format("2006-01-02")
		}
		return success(req, started, map[string]any{
			"location": location,
			"forecast": forecast,
		}), nil
	default:
		return failure(req, started, "unsupported operation: %s", req.Operation), nil
	}
}

// conditions derives stable pseudo-conditions from the location name
// and a day offset.
func (w *WeatherTool) conditions(location string, dayOffset int) map[string]any {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s/%d", location, dayOffset)
	seed := h.Sum32()

	tempC := int(seed%35) - 5 // -5..29
	return map[string]any{
		"location":    location,
		"condition":   weatherConditions[seed%uint32(len(weatherConditions))],
		"temperature": tempC,
		"unit":        "celsius",
		"humidity":    int(40 + seed%55),
	}
}
