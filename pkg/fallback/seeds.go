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
	"regexp"
	"time"
)

var (
	politePrefix = regexp.MustCompile(`(?i)^(please|could you|would you|can you)`)
	codeKeywords = regexp.MustCompile(`(?i)\b(code|function|class|script|bug|debug)\b`)
)

// seedRules is the static catalogue available before any learning has
// happened. Confidence values sit above the default threshold so the
// seeds are usable out of the box.
func seedRules() []*Rule {
	now := time.Now()
	return []*Rule{
		{
			ID:       "weather-agent",
			Keywords: []string{"weather", "rain", "forecast", "temperature"},
			Patterns: []string{`(?i)\b(rain|snow|sunny|wind|storm|temperature|forecast|weather)\b`},
			ResponseTemplates: []string{
				"I can't reach the live weather service right now, but your question \"{prompt}\" looks weather-related. Try again shortly for current conditions and forecasts.",
				"The weather service is temporarily unavailable. For \"{prompt}\", check back in a moment and I'll fetch live conditions. ({timestamp})",
			},
			Category:   "weather",
			Confidence: 85,
			CreatedAt:  now,
		},
		{
			ID:       "stock-agent",
			Keywords: []string{"stock", "price", "market", "share"},
			Patterns: []string{`(?i)\b(stock|share|ticker|market|price)\b`},
			ResponseTemplates: []string{
				"Market data is unavailable at the moment. Your request \"{prompt}\" will get a live quote as soon as the feed is back.",
				"I couldn't reach the market data service for \"{prompt}\". Quotes and analysis resume once the connection recovers. ({timestamp})",
			},
			Category:   "finance",
			Confidence: 85,
			CreatedAt:  now,
		},
		{
			ID:       "travel-agent",
			Keywords: []string{"travel", "trip", "flight", "hotel"},
			Patterns: []string{`(?i)\b(flight|hotel|trip|travel|itinerary|vacation)\b`},
			ResponseTemplates: []string{
				"Trip planning needs the full assistant, which is briefly offline. I kept your request \"{prompt}\" — ask again shortly for a complete itinerary.",
			},
			Category:   "travel",
			Confidence: 80,
			CreatedAt:  now,
		},
		{
			ID:       "chat-greeting",
			Keywords: []string{"hello", "hey", "greetings", "morning"},
			Patterns: []string{`(?i)^\s*(hi|hello|hey|greetings|good (morning|afternoon|evening))\b`},
			ResponseTemplates: []string{
				"Hello! I'm running in offline mode right now, but I'm listening. What can I do for you?",
				"Hi there! Some services are briefly unavailable, but feel free to ask anyway.",
			},
			Category:   "general",
			Confidence: 75,
			CreatedAt:  now,
		},
		{
			ID:       "general-help",
			Keywords: []string{"help", "assist", "support", "guide"},
			Patterns: []string{politePrefix.String()},
			ResponseTemplates: []string{
				"I'd normally route \"{prompt}\" to a specialist, but the assistant backend is unreachable. Please retry in a moment.",
			},
			Category:   "assistance",
			Confidence: 72,
			CreatedAt:  now,
		},
	}
}
