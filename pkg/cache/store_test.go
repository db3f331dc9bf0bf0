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

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetPut(t *testing.T) {
	c := NewResponseCache(Config{})

	_, ok := c.Get("k1")
	assert.False(t, ok)

	c.Put("k1", "v1")
	v, ok := c.Get("k1")
	assert.True(t, ok)
	assert.Equal(t, "v1", v)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 0.5, stats.HitRate)
}

func TestExpiryCountsAsEviction(t *testing.T) {
	c := NewResponseCache(Config{TTL: time.Minute})

	base := time.Now()
	c.now = func() time.Time { return base }

	c.Put("k1", "v1")

	// Jump past the TTL.
	c.now = func() time.Time { return base.Add(2 * time.Minute) }

	_, ok := c.Get("k1")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestLRUEvictionAtCapacity(t *testing.T) {
	c := NewResponseCache(Config{MaxSize: 3})

	c.Put("a", "1")
	c.Put("b", "2")
	c.Put("c", "3")

	// Touch "a" so "b" becomes least recently used.
	_, _ = c.Get("a")

	c.Put("d", "4")

	assert.Equal(t, 3, c.Len())
	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)

	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestSizeNeverExceedsMax(t *testing.T) {
	c := NewResponseCache(Config{MaxSize: 10})
	for i := 0; i < 100; i++ {
		c.Put(fmt.Sprintf("k%d", i), "v")
		assert.LessOrEqual(t, c.Len(), 10)
	}
}

func TestSweep(t *testing.T) {
	c := NewResponseCache(Config{TTL: time.Minute})

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Put("old", "v")

	c.now = func() time.Time { return base.Add(30 * time.Second) }
	c.Put("fresh", "v")

	c.now = func() time.Time { return base.Add(70 * time.Second) }
	removed := c.Sweep()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("fresh")
	assert.True(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	c := NewResponseCache(Config{MaxSize: 100})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", i%50)
				if i%2 == 0 {
					c.Put(key, "v")
				} else {
					_, _ = c.Get(key)
				}
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 100)
}

func TestKeyDeterministic(t *testing.T) {
	k1 := Key("weather in london", "m1", 0.3, 2048)
	k2 := Key("weather in london", "m1", 0.3, 2048)
	assert.Equal(t, k1, k2)

	assert.NotEqual(t, k1, Key("weather in paris", "m1", 0.3, 2048))
	assert.NotEqual(t, k1, Key("weather in london", "m2", 0.3, 2048))
	assert.NotEqual(t, k1, Key("weather in london", "m1", 0.7, 2048))
	assert.NotEqual(t, k1, Key("weather in london", "m1", 0.3, 1024))
}

func TestIntentCache(t *testing.T) {
	c := NewIntentCache(Config{})

	intent := CachedIntent{
		Intent:      "weather_query",
		TargetAgent: "weather-agent",
		Confidence:  0.9,
		Parameters:  map[string]any{"location": "London,GB"},
		Reasoning:   "keyword match",
	}
	c.Put("weather in london", intent)

	got, ok := c.Get("weather in london")
	assert.True(t, ok)
	assert.Equal(t, intent, got)
}
