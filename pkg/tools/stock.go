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
	"math"
	"strings"
	"time"
)

// StockTool serves quotes and basic analysis for equity symbols. Like
// the weather tool it is deterministic per symbol, which keeps agent
// behavior reproducible in tests and demos.
type StockTool struct {
	quotes map[string]float64
}

func NewStockTool() *StockTool { return &StockTool{} }

func (s *StockTool) ToolID() string  { return "stock" }
func (s *StockTool) Version() string { return "1.0.0" }

func (s *StockTool) SupportedOperations() []string {
	return []string{"quote", "analyze"}
}

func (s *StockTool) Schema() map[string]any {
	symbol := map[string]any{
		"type":        "string",
		"description": "Ticker symbol, e.g. AAPL",
	}
	return map[string]any{
		"quote": map[string]any{
			"type":       "object",
			"properties": map[string]any{"symbol": symbol},
			"required":   []string{"symbol"},
		},
		"analyze": map[string]any{
			"type":       "object",
			"properties": map[string]any{"symbol": symbol},
			"required":   []string{"symbol"},
		},
	}
}

// Initialize accepts an optional "quotes" map of symbol→price
// overrides.
func (s *StockTool) Initialize(config map[string]any) error {
	s.quotes = make(map[string]float64)
	if config == nil {
		return nil
	}
	overrides, ok := config["quotes"].(map[string]any)
	if !ok {
		return nil
	}
	for sym, v := range overrides {
		price, ok := v.(float64)
		if !ok {
			return fmt.Errorf("quote override for %s is not a number", sym)
		}
		s.quotes[strings.ToUpper(sym)] = price
	}
	return nil
}

func (s *StockTool) Shutdown() error { return nil }

func (s *StockTool) Invoke(ctx context.Context, req Request) (*Response, error) {
	started := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	symbol, ok := stringParam(req, "symbol")
	if !ok {
		return failure(req, started, "missing required parameter: symbol"), nil
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	price, change := s.priceFor(symbol)

	switch req.Operation {
	case "quote":
		return success(req, started, map[string]any{
			"symbol":        symbol,
			"price":         price,
			"change":        change,
			"changePercent": round2(change / price * 100),
			"currency":      "USD",
		}), nil
	case "analyze":
		trend := "neutral"
		if change > 0.5 {
			trend = "bullish"
		} else if change < -0.5 {
			trend = "bearish"
		}
		return success(req, started, map[string]any{
			"symbol":  symbol,
			"price":   price,
			"trend":   trend,
			"summary": fmt.Sprintf("%s is trading at %.2f USD, %s on the day (%+.2f).", symbol, price, trend, change),
		}), nil
	default:
		return failure(req, started, "unsupported operation: %s", req.Operation), nil
	}
}

// priceFor returns the deterministic (price, dayChange) pair for the
// symbol, honoring Initialize overrides for price.
func (s *StockTool) priceFor(symbol string) (float64, float64) {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	seed := h.Sum32()

	price, overridden := s.quotes[symbol]
	if !overridden {
		price = round2(20 + float64(seed%98000)/100) // 20.00..999.99
	}
	change := round2(float64(int(seed>>16)%400-200) / 100) // -2.00..1.99
	return price, change
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
