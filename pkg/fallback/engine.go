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
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ruleMaxAge is how long an unused rule survives before the cleanup
// pass removes it.
const ruleMaxAge = 30 * 24 * time.Hour

// Config configures the engine.
type Config struct {
	// MinConfidence gates both rule confidence and match score.
	// Default 70.
	MinConfidence float64

	// MaxRules caps the rule set; the learner refuses new rules past
	// it. Default 100.
	MaxRules int

	// Store persists rules. Nil disables persistence.
	Store *Store

	// DisableSeeds skips the built-in rule catalogue. Persisted rules
	// always take precedence over a seed with the same ID.
	DisableSeeds bool

	// Logger defaults to a nop logger.
	Logger *zap.Logger
}

// Answer is a generated fallback response.
type Answer struct {
	Text     string
	RuleID   string
	Category string
	Score    float64
}

// Engine scores rules against prompts and learns new rules from
// successful LLM responses.
type Engine struct {
	mu    sync.Mutex
	rules map[string]*Rule

	minConfidence float64
	maxRules      int
	store         *Store
	logger        *zap.Logger
	now           func() time.Time
}

// NewEngine creates an engine, loading persisted rules from the store
// and merging in any built-in seeds not already persisted.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 70
	}
	if cfg.MaxRules <= 0 {
		cfg.MaxRules = 100
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	e := &Engine{
		rules:         make(map[string]*Rule),
		minConfidence: cfg.MinConfidence,
		maxRules:      cfg.MaxRules,
		store:         cfg.Store,
		logger:        cfg.Logger,
		now:           time.Now,
	}

	loaded := 0
	if cfg.Store != nil {
		rules, err := cfg.Store.Load()
		if err != nil {
			return nil, err
		}
		for _, r := range rules {
			r.compile()
			e.rules[r.ID] = r
		}
		loaded = len(rules)
	}
	if !cfg.DisableSeeds {
		for _, r := range seedRules() {
			if _, exists := e.rules[r.ID]; !exists {
				r.compile()
				e.rules[r.ID] = r
			}
		}
	}

	e.logger.Info("fallback engine ready",
		zap.Int("rules", len(e.rules)),
		zap.Int("persisted", loaded))
	return e, nil
}

// Match selects the best-scoring rule for the prompt and renders one
// of its templates. Returns false when no rule clears the confidence
// threshold; the caller is responsible for a generic reply.
//
// Tie-break order: higher score, then higher rule confidence, then
// higher usage count, then lexicographic rule ID.
func (e *Engine) Match(prompt string) (*Answer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	type scored struct {
		rule  *Rule
		score float64
	}
	var candidates []scored
	for _, r := range e.rules {
		if r.Confidence < e.minConfidence {
			continue
		}
		if s := r.score(prompt); s >= e.minConfidence {
			candidates = append(candidates, scored{rule: r, score: s})
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.rule.Confidence != b.rule.Confidence {
			return a.rule.Confidence > b.rule.Confidence
		}
		if a.rule.UsageCount != b.rule.UsageCount {
			return a.rule.UsageCount > b.rule.UsageCount
		}
		return a.rule.ID < b.rule.ID
	})

	best := candidates[0]
	text := best.rule.render(prompt, e.now())
	best.rule.UsageCount++
	e.persist(best.rule)

	e.logger.Debug("fallback rule matched",
		zap.String("rule_id", best.rule.ID),
		zap.Float64("score", best.score))

	return &Answer{
		Text:     text,
		RuleID:   best.rule.ID,
		Category: best.rule.Category,
		Score:    best.score,
	}, true
}

// Cleanup removes rules that were never used and are older than 30
// days. Returns the number removed.
func (e *Engine) Cleanup() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-ruleMaxAge)
	removed := 0
	for id, r := range e.rules {
		if r.UsageCount == 0 && r.CreatedAt.Before(cutoff) {
			delete(e.rules, id)
			if e.store != nil {
				if err := e.store.Delete(id); err != nil {
					e.logger.Warn("rule delete failed",
						zap.String("rule_id", id),
						zap.Error(err))
				}
			}
			removed++
		}
	}
	if removed > 0 {
		e.logger.Info("fallback cleanup", zap.Int("removed", removed))
	}
	return removed
}

// Rule returns a copy of the rule by ID, for inspection.
func (e *Engine) Rule(id string) (Rule, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.rules[id]
	if !ok {
		return Rule{}, false
	}
	return *r, true
}

// RuleCount returns the number of loaded rules.
func (e *Engine) RuleCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.rules)
}

// persist writes a rule through to the store; called under the lock.
func (e *Engine) persist(r *Rule) {
	if e.store == nil {
		return
	}
	if err := e.store.Save(r); err != nil {
		e.logger.Warn("rule persist failed",
			zap.String("rule_id", r.ID),
			zap.Error(err))
	}
}
