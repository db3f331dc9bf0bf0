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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(Config{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	return e
}

func TestRuleScore(t *testing.T) {
	r := &Rule{
		Keywords: []string{"weather", "rain"},
		Patterns: []string{`\?\s*$`},
	}
	r.compile()

	// Half the keywords and the only pattern.
	assert.InDelta(t, 40*0.5+60, r.score("will it rain today?"), 0.001)
	// Keywords only.
	assert.InDelta(t, 40.0, r.score("weather and rain report"), 0.001)
	// Nothing.
	assert.Zero(t, r.score("stock quote please"))
}

func TestRuleScoreCappedAt100(t *testing.T) {
	r := &Rule{
		Keywords: []string{"rain"},
		Patterns: []string{`rain`, `rain`},
	}
	r.compile()
	assert.Equal(t, 100.0, r.score("rain rain rain"))
}

func TestMatchWeatherPrompt(t *testing.T) {
	e := newTestEngine(t)

	before, ok := e.Rule("weather-agent")
	require.True(t, ok)

	answer, matched := e.Match("will it rain tomorrow?")
	require.True(t, matched)
	assert.Equal(t, "weather-agent", answer.RuleID)
	assert.Equal(t, "weather", answer.Category)
	assert.GreaterOrEqual(t, answer.Score, 70.0)
	assert.NotContains(t, answer.Text, "{prompt}")
	assert.Contains(t, answer.Text, "will it rain tomorrow?")

	after, ok := e.Rule("weather-agent")
	require.True(t, ok)
	assert.Equal(t, before.UsageCount+1, after.UsageCount)
}

func TestMatchBelowThreshold(t *testing.T) {
	e := newTestEngine(t)
	_, matched := e.Match("qqqq zzzz xxxx")
	assert.False(t, matched)
}

func TestMatchLowConfidenceRuleExcluded(t *testing.T) {
	e := newTestEngine(t)
	r := &Rule{
		ID:                "shaky",
		Keywords:          []string{"zebra"},
		Patterns:          []string{`zebra`},
		ResponseTemplates: []string{"zebras!"},
		Confidence:        50,
		CreatedAt:         time.Now(),
	}
	r.compile()
	e.mu.Lock()
	e.rules[r.ID] = r
	e.mu.Unlock()

	// Full coverage would score 100, but the rule's own confidence is
	// below the threshold so it never fires.
	_, matched := e.Match("zebra zebra")
	assert.False(t, matched)
}

func TestMatchTieBreak(t *testing.T) {
	e := newTestEngine(t)
	mk := func(id string, confidence float64, usage int) {
		r := &Rule{
			ID:                id,
			Keywords:          []string{"zebra"},
			Patterns:          []string{`zebra`},
			ResponseTemplates: []string{id},
			Confidence:        confidence,
			CreatedAt:         time.Now(),
			UsageCount:        usage,
		}
		r.compile()
		e.mu.Lock()
		e.rules[id] = r
		e.mu.Unlock()
	}
	mk("z-low-conf", 80, 9)
	mk("z-high-conf", 90, 0)

	answer, matched := e.Match("zebra")
	require.True(t, matched)
	assert.Equal(t, "z-high-conf", answer.RuleID)

	// Equal confidence: higher usage wins.
	mk("z-used", 90, 5)
	answer, matched = e.Match("zebra")
	require.True(t, matched)
	assert.Equal(t, "z-used", answer.RuleID)
}

func TestMatchRoundRobinTemplates(t *testing.T) {
	e := newTestEngine(t)
	r := &Rule{
		ID:                "rr",
		Keywords:          []string{"cycle"},
		Patterns:          []string{`cycle`},
		ResponseTemplates: []string{"first", "second"},
		Confidence:        99,
		CreatedAt:         time.Now(),
	}
	r.compile()
	e.mu.Lock()
	e.rules[r.ID] = r
	e.mu.Unlock()

	a1, _ := e.Match("cycle")
	a2, _ := e.Match("cycle")
	a3, _ := e.Match("cycle")
	assert.Equal(t, "first", a1.Text)
	assert.Equal(t, "second", a2.Text)
	assert.Equal(t, "first", a3.Text)
}

func TestLearnCreatesRule(t *testing.T) {
	e := newTestEngine(t)
	count := e.RuleCount()

	e.Learn("how do I debug this broken function", "Try adding a breakpoint.")
	assert.Equal(t, count+1, e.RuleCount())

	answer, matched := e.Match("how do I debug this broken function")
	require.True(t, matched)
	assert.Equal(t, "Try adding a breakpoint.", answer.Text)
	assert.Equal(t, "coding", answer.Category)
}

func TestLearnTooFewKeywords(t *testing.T) {
	e := newTestEngine(t)
	count := e.RuleCount()
	e.Learn("hi", "hello!")
	assert.Equal(t, count, e.RuleCount())
}

func TestLearnAugmentsExistingRule(t *testing.T) {
	e := newTestEngine(t)

	e.Learn("how do I debug this broken function", "Try a breakpoint.")
	count := e.RuleCount()
	e.Learn("how do I debug this broken function", "Read the stack trace.")
	assert.Equal(t, count, e.RuleCount())

	id := "coding-" + keywordHash(ExtractKeywords("how do I debug this broken function"))
	r, ok := e.Rule(id)
	require.True(t, ok)
	assert.Len(t, r.ResponseTemplates, 2)

	// Learning the same response again is a no-op.
	e.Learn("how do I debug this broken function", "Try a breakpoint.")
	r, _ = e.Rule(id)
	assert.Len(t, r.ResponseTemplates, 2)
}

func TestLearnRespectsMaxRules(t *testing.T) {
	e, err := NewEngine(Config{MaxRules: 5, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	count := e.RuleCount()
	require.Equal(t, 5, count) // seeds fill the cap

	e.Learn("teach me about quantum entanglement basics", "It's spooky.")
	assert.Equal(t, count, e.RuleCount())
}

func TestExtractKeywords(t *testing.T) {
	kws := ExtractKeywords("What is the Weather like in London today?")
	assert.Equal(t, []string{"weather", "like", "london", "today"}, kws)

	// Dedupe and cap.
	long := strings.Repeat("alpha ", 3) + "beta gamma delta epsilon zeta eta theta iota kappa lambda"
	assert.Len(t, ExtractKeywords(long), 10)
}

func TestCategorize(t *testing.T) {
	assert.Equal(t, "coding", Categorize("fix this bug in my function"))
	assert.Equal(t, "explanation", Categorize("explain recursion to me"))
	assert.Equal(t, "assistance", Categorize("I need some help"))
	assert.Equal(t, "question", Categorize("is it raining"+"?"))
	assert.Equal(t, "question", Categorize("where is the station"))
	assert.Equal(t, "general", Categorize("tell me a story"))
}

func TestCleanup(t *testing.T) {
	e := newTestEngine(t)
	old := &Rule{
		ID:                "stale",
		Keywords:          []string{"stale"},
		ResponseTemplates: []string{"old"},
		Confidence:        80,
		CreatedAt:         time.Now().Add(-31 * 24 * time.Hour),
	}
	used := &Rule{
		ID:                "kept",
		Keywords:          []string{"kept"},
		ResponseTemplates: []string{"kept"},
		Confidence:        80,
		CreatedAt:         time.Now().Add(-31 * 24 * time.Hour),
		UsageCount:        3,
	}
	e.mu.Lock()
	e.rules[old.ID] = old
	e.rules[used.ID] = used
	e.mu.Unlock()

	removed := e.Cleanup()
	assert.Equal(t, 1, removed)
	_, ok := e.Rule("stale")
	assert.False(t, ok)
	_, ok = e.Rule("kept")
	assert.True(t, ok)
}
