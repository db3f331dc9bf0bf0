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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)

	rule := &Rule{
		ID:                "weather-test",
		Keywords:          []string{"weather", "rain"},
		Patterns:          []string{`(?i)\brain\b`, `\?\s*$`},
		ResponseTemplates: []string{"line one\nline two", "with {prompt} placeholder"},
		Category:          "weather",
		Confidence:        82.5,
		CreatedAt:         time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		UsageCount:        7,
	}
	require.NoError(t, s.Save(rule))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, rule.ID, got.ID)
	assert.Equal(t, rule.Keywords, got.Keywords)
	assert.Equal(t, rule.Patterns, got.Patterns)
	assert.Equal(t, rule.ResponseTemplates, got.ResponseTemplates)
	assert.Equal(t, rule.Category, got.Category)
	assert.Equal(t, rule.Confidence, got.Confidence)
	assert.True(t, rule.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, rule.UsageCount, got.UsageCount)
}

func TestStoreSaveOverwrites(t *testing.T) {
	s := newTestStore(t)

	rule := &Rule{
		ID:                "r1",
		ResponseTemplates: []string{"v1"},
		Confidence:        75,
		CreatedAt:         time.Now(),
	}
	require.NoError(t, s.Save(rule))
	rule.UsageCount = 3
	require.NoError(t, s.Save(rule))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 3, loaded[0].UsageCount)
}

func TestStoreDelete(t *testing.T) {
	s := newTestStore(t)

	rule := &Rule{ID: "gone", ResponseTemplates: []string{"x"}, CreatedAt: time.Now()}
	require.NoError(t, s.Save(rule))
	require.NoError(t, s.Delete("gone"))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)

	// Deleting a missing rule is not an error.
	assert.NoError(t, s.Delete("never-existed"))
}

func TestStoreSkipsCorruptFiles(t *testing.T) {
	s := newTestStore(t)

	good := &Rule{ID: "good", ResponseTemplates: []string{"ok"}, Confidence: 75, CreatedAt: time.Now()}
	require.NoError(t, s.Save(good))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "bad.rule"), []byte("not a rule"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "ignored.txt"), []byte("id=x"), 0o644))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "good", loaded[0].ID)
}

func TestEnginePersistsThroughStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	e, err := NewEngine(Config{Store: s, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	e.Learn("how do I debug this broken function", "Use a breakpoint.")

	// Fresh engine over the same directory sees the learned rule.
	s2, err := NewStore(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	e2, err := NewEngine(Config{Store: s2, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	answer, matched := e2.Match("how do I debug this broken function")
	require.True(t, matched)
	assert.Equal(t, "Use a breakpoint.", answer.Text)
}
