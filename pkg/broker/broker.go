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

// Package broker provides the in-memory pub/sub broker for the agent
// mesh: hierarchical wildcard subscriptions, async fan-out over a
// bounded worker pool, best-effort and reliable delivery.
package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/amcp/pkg/event"
)

var (
	// ErrBrokerClosed reports a publish or subscribe on a closed broker.
	ErrBrokerClosed = errors.New("broker is closed")
)

// Handler consumes one delivered event. Handlers run on broker workers,
// off the publisher's goroutine. A non-nil error marks the delivery
// failed; reliable deliveries are then retried with backoff.
type Handler func(ctx context.Context, ev *event.Event) error

type subscription struct {
	key     subKey
	handler Handler
}

// Config configures a Broker.
type Config struct {
	// Workers is the delivery pool size. Default 8.
	Workers int

	// HighWater is the queued-delivery count above which Publish blocks.
	// Default 1024.
	HighWater int

	// LowWater is the queued-delivery count below which blocked
	// publishers resume. Default HighWater/2.
	LowWater int

	// RetryBase is the initial backoff for reliable deliveries.
	// Default 100ms.
	RetryBase time.Duration

	// RetryCap bounds the backoff. Default 5s.
	RetryCap time.Duration

	// MaxAttempts bounds reliable delivery attempts. Default 5.
	MaxAttempts int

	// Logger defaults to a nop logger.
	Logger *zap.Logger
}

func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.HighWater <= 0 {
		c.HighWater = 1024
	}
	if c.LowWater <= 0 || c.LowWater >= c.HighWater {
		c.LowWater = c.HighWater / 2
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 100 * time.Millisecond
	}
	if c.RetryCap <= 0 {
		c.RetryCap = 5 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

type deliveryTask struct {
	sub *subscription
	ev  *event.Event
}

// Broker is the in-memory topic broker. All methods are safe for
// concurrent use.
type Broker struct {
	cfg    Config
	logger *zap.Logger

	mu   sync.RWMutex
	trie *subscriptionTrie

	queueMu sync.Mutex
	queue   chan deliveryTask
	pending int
	notFull *sync.Cond

	workers sync.WaitGroup
	stopCh  chan struct{}
	closed  atomic.Bool

	published atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
	retried   atomic.Int64
	expired   atomic.Int64
}

// Stats is a snapshot of broker counters.
type Stats struct {
	Published     int64
	Delivered     int64
	Dropped       int64
	Retried       int64
	Expired       int64
	Subscriptions int
}

// New creates a broker and starts its worker pool.
func New(cfg Config) *Broker {
	cfg.applyDefaults()

	b := &Broker{
		cfg:    cfg,
		logger: cfg.Logger,
		trie:   newSubscriptionTrie(),
		queue:  make(chan deliveryTask, cfg.HighWater+cfg.Workers),
		stopCh: make(chan struct{}),
	}
	b.notFull = sync.NewCond(&b.queueMu)

	for i := 0; i < cfg.Workers; i++ {
		b.workers.Add(1)
		go b.worker()
	}
	return b
}

// Subscribe registers a handler for a topic pattern. Idempotent per
// (agentID, pattern): re-subscribing replaces the handler.
func (b *Broker) Subscribe(agentID event.AgentID, pattern string, handler Handler) error {
	if b.closed.Load() {
		return ErrBrokerClosed
	}
	if err := event.ValidatePattern(pattern); err != nil {
		return err
	}
	if handler == nil {
		return fmt.Errorf("subscribe %q: nil handler", pattern)
	}

	sub := &subscription{
		key:     subKey{agentID: agentID, pattern: pattern},
		handler: handler,
	}

	b.mu.Lock()
	b.trie.insert(sub)
	b.mu.Unlock()

	b.logger.Debug("broker subscribe",
		zap.String("agent_id", agentID.String()),
		zap.String("pattern", pattern))
	return nil
}

// Unsubscribe removes the subscription for (agentID, pattern).
// Removing an absent subscription is a no-op.
func (b *Broker) Unsubscribe(agentID event.AgentID, pattern string) {
	b.mu.Lock()
	removed := b.trie.remove(subKey{agentID: agentID, pattern: pattern})
	b.mu.Unlock()

	if removed {
		b.logger.Debug("broker unsubscribe",
			zap.String("agent_id", agentID.String()),
			zap.String("pattern", pattern))
	}
}

// UnsubscribeAll removes every subscription held by the agent.
func (b *Broker) UnsubscribeAll(agentID event.AgentID) {
	b.mu.Lock()
	removed := b.trie.removeAgent(agentID)
	b.mu.Unlock()

	if len(removed) > 0 {
		b.logger.Debug("broker unsubscribe all",
			zap.String("agent_id", agentID.String()),
			zap.Int("removed", len(removed)))
	}
}

// Publish fans the event out to every matching subscription. It returns
// once all deliveries are scheduled, not completed. When the delivery
// queue is above the high-water mark, Publish blocks until the pool
// drains below the low-water mark, or the context is cancelled.
func (b *Broker) Publish(ctx context.Context, ev *event.Event) error {
	if b.closed.Load() {
		return ErrBrokerClosed
	}
	if ev == nil {
		return fmt.Errorf("publish: nil event")
	}
	if err := event.ValidateTopic(ev.Topic); err != nil {
		return err
	}

	b.mu.RLock()
	matches := b.trie.match(ev.Topic)
	b.mu.RUnlock()

	b.published.Add(1)

	for _, sub := range matches {
		if err := b.enqueue(ctx, deliveryTask{sub: sub, ev: ev}); err != nil {
			return err
		}
	}

	b.logger.Debug("broker publish",
		zap.String("topic", ev.Topic),
		zap.String("correlation_id", ev.CorrelationID),
		zap.Int("matched", len(matches)))
	return nil
}

// enqueue applies back-pressure: block while pending >= HighWater.
func (b *Broker) enqueue(ctx context.Context, task deliveryTask) error {
	b.queueMu.Lock()
	for b.pending >= b.cfg.HighWater {
		if b.closed.Load() {
			b.queueMu.Unlock()
			return ErrBrokerClosed
		}
		if ctx.Err() != nil {
			b.queueMu.Unlock()
			return ctx.Err()
		}
		b.notFull.Wait()
	}
	if b.closed.Load() {
		b.queueMu.Unlock()
		return ErrBrokerClosed
	}
	b.pending++
	b.queue <- task
	b.queueMu.Unlock()
	return nil
}

func (b *Broker) worker() {
	defer b.workers.Done()
	for task := range b.queue {
		b.deliver(task)

		b.queueMu.Lock()
		b.pending--
		if b.pending <= b.cfg.LowWater {
			b.notFull.Broadcast()
		}
		b.queueMu.Unlock()
	}
}

// deliver runs the handler for one (event, subscription) pair. Reliable
// deliveries retry with bounded exponential backoff; best-effort drops
// on the first error. Handler failures never propagate to publishers.
func (b *Broker) deliver(task deliveryTask) {
	ev := task.ev
	if ev.Delivery.Expired(time.Now()) {
		b.expired.Add(1)
		b.logger.Debug("delivery skipped, event expired",
			zap.String("topic", ev.Topic),
			zap.String("agent_id", task.sub.key.agentID.String()))
		return
	}

	attempts := 1
	if ev.Delivery.Mode == event.Reliable {
		attempts = b.cfg.MaxAttempts
	}

	backoff := b.cfg.RetryBase
	for attempt := 1; attempt <= attempts; attempt++ {
		err := b.invoke(task.sub, ev)
		if err == nil {
			b.delivered.Add(1)
			return
		}

		b.logger.Warn("delivery failed",
			zap.String("topic", ev.Topic),
			zap.String("agent_id", task.sub.key.agentID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt == attempts {
			break
		}

		select {
		case <-b.stopCh:
			// Broker closing: abandon remaining retries.
			b.dropped.Add(1)
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > b.cfg.RetryCap {
			backoff = b.cfg.RetryCap
		}
		b.retried.Add(1)
	}

	b.dropped.Add(1)
}

// invoke runs a handler, converting panics into errors so one bad
// subscriber never takes down a worker.
func (b *Broker) invoke(sub *subscription, ev *event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return sub.handler(context.Background(), ev)
}

// Close drains queued deliveries and rejects further publishes with
// ErrBrokerClosed. In-flight handlers run to completion; pending
// reliable retries are abandoned.
func (b *Broker) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(b.stopCh)

	b.queueMu.Lock()
	close(b.queue)
	b.notFull.Broadcast()
	b.queueMu.Unlock()

	b.workers.Wait()

	b.logger.Info("broker closed",
		zap.Int64("published", b.published.Load()),
		zap.Int64("delivered", b.delivered.Load()),
		zap.Int64("dropped", b.dropped.Load()))
	return nil
}

// Stats returns a snapshot of broker counters.
func (b *Broker) Stats() Stats {
	b.mu.RLock()
	subs := b.trie.size()
	b.mu.RUnlock()

	return Stats{
		Published:     b.published.Load(),
		Delivered:     b.delivered.Load(),
		Dropped:       b.dropped.Load(),
		Retried:       b.retried.Load(),
		Expired:       b.expired.Load(),
		Subscriptions: subs,
	}
}
