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

// Package cache provides the TTL+LRU stores interposed on LLM calls:
// the response cache (content-addressed completion results) and the
// intent cache (normalized-prompt planning shortcuts).
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"go.uber.org/zap"
)

// Config configures a store.
type Config struct {
	// MaxSize caps the entry count; the LRU entry is evicted when a
	// put would exceed it. Default 1000.
	MaxSize int

	// TTL is the entry lifetime. Default 60 minutes.
	TTL time.Duration

	// Logger defaults to a nop logger.
	Logger *zap.Logger
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Size      int
	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64
}

type entry[V any] struct {
	value          V
	expiresAt      time.Time
	lastAccessedAt time.Time
	accessCount    int64
}

// Store is a TTL+LRU cache. Reads and writes are serialized per store;
// the critical sections are short (no I/O under the lock).
type Store[V any] struct {
	mu  sync.Mutex
	lru *simplelru.LRU[string, *entry[V]]

	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	hits      int64
	misses    int64
	evictions int64
}

// NewStore creates a store.
func NewStore[V any](cfg Config) *Store[V] {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1000
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 60 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &Store[V]{
		ttl:    cfg.TTL,
		logger: cfg.Logger,
		now:    time.Now,
	}
	// Capacity eviction and expired-entry removal both land in the
	// eviction counter via this callback.
	lru, err := simplelru.NewLRU(cfg.MaxSize, func(string, *entry[V]) {
		s.evictions++
	})
	if err != nil {
		// Unreachable: size is validated above.
		panic(err)
	}
	s.lru = lru
	return s
}

// Get returns the cached value. Absent or expired keys miss; an
// expired entry is removed and counted as an eviction. On hit the
// entry's recency and access counters are bumped.
func (s *Store[V]) Get(key string) (V, bool) {
	var zero V

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lru.Get(key)
	if !ok {
		s.misses++
		return zero, false
	}
	if s.now().After(e.expiresAt) {
		s.lru.Remove(key)
		s.misses++
		return zero, false
	}

	e.lastAccessedAt = s.now()
	e.accessCount++
	s.hits++
	return e.value, true
}

// Put inserts or replaces a value. At capacity the least recently
// used entry is evicted first.
func (s *Store[V]) Put(key string, value V) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lru.Add(key, &entry[V]{
		value:          value,
		expiresAt:      now.Add(s.ttl),
		lastAccessedAt: now,
	})
}

// Remove drops a key if present.
func (s *Store[V]) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lru.Remove(key)
}

// Sweep removes all expired entries; the maintenance scheduler calls
// this periodically so idle caches do not pin dead values.
func (s *Store[V]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for _, key := range s.lru.Keys() {
		if e, ok := s.lru.Peek(key); ok && now.After(e.expiresAt) {
			s.lru.Remove(key)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("cache sweep", zap.Int("removed", removed))
	}
	return removed
}

// Len returns the live entry count.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// Stats returns a snapshot of cache counters.
func (s *Store[V]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := s.hits + s.misses
	rate := 0.0
	if total > 0 {
		rate = float64(s.hits) / float64(total)
	}
	return Stats{
		Size:      s.lru.Len(),
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
		HitRate:   rate,
	}
}

// Key derives the content address for a response-cache entry from the
// normalized prompt and the sampling parameters.
func Key(normalizedPrompt, model string, temperature float64, maxTokens int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s",
		normalizedPrompt,
		model,
		strconv.FormatFloat(temperature, 'f', -1, 64),
		strconv.Itoa(maxTokens),
	)
	return hex.EncodeToString(h.Sum(nil))
}
