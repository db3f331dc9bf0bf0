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

// Package event defines the immutable message type carried by the mesh
// broker, together with the hierarchical topic grammar and wildcard
// matcher shared by the broker and agent route tables.
package event

import (
	"time"

	"github.com/google/uuid"
)

// AgentID is an opaque agent identity with a stable string form.
// Two IDs are equal iff their string forms are equal.
type AgentID string

// String returns the stable string form of the ID.
func (id AgentID) String() string { return string(id) }

// DeliveryMode selects the broker's delivery guarantee for an event.
type DeliveryMode int

const (
	// BestEffort drops the delivery on the first handler error.
	BestEffort DeliveryMode = iota
	// Reliable retries failed deliveries with bounded exponential backoff.
	Reliable
)

// String returns a human-readable name for the mode.
func (m DeliveryMode) String() string {
	if m == Reliable {
		return "reliable"
	}
	return "best-effort"
}

// DeliveryOptions controls how the broker delivers an event.
type DeliveryOptions struct {
	// Mode selects best-effort or reliable delivery.
	Mode DeliveryMode

	// ExpiresAt, when non-zero, causes the broker to skip delivery if the
	// deadline passes before dispatch.
	ExpiresAt time.Time
}

// Expired reports whether the options carry an expiry that has passed.
func (o DeliveryOptions) Expired(now time.Time) bool {
	return !o.ExpiresAt.IsZero() && now.After(o.ExpiresAt)
}

// Event is an immutable message published on the mesh.
// Construct with New; do not mutate after publishing.
type Event struct {
	// Topic is a dot-separated hierarchical path, e.g. "task.weather.current".
	Topic string

	// Payload is the opaque structured value carried by the event.
	Payload map[string]any

	// Sender identifies the publishing agent. Empty for synthetic events.
	Sender AgentID

	// CorrelationID ties a response to its originating request. The same
	// ID flows request -> response.
	CorrelationID string

	// Delivery carries the delivery options for this event.
	Delivery DeliveryOptions

	// Timestamp is the UTC creation time.
	Timestamp time.Time
}

// Option customizes an event at construction time.
type Option func(*Event)

// WithSender sets the publishing agent.
func WithSender(id AgentID) Option {
	return func(e *Event) { e.Sender = id }
}

// WithCorrelationID sets an explicit correlation ID.
func WithCorrelationID(id string) Option {
	return func(e *Event) { e.CorrelationID = id }
}

// WithDelivery sets the delivery options.
func WithDelivery(opts DeliveryOptions) Option {
	return func(e *Event) { e.Delivery = opts }
}

// WithReliable marks the event for reliable delivery.
func WithReliable() Option {
	return func(e *Event) { e.Delivery.Mode = Reliable }
}

// WithExpiry sets the delivery expiry deadline.
func WithExpiry(t time.Time) Option {
	return func(e *Event) { e.Delivery.ExpiresAt = t }
}

// New creates an event on the given topic. A fresh correlation ID is
// assigned unless WithCorrelationID overrides it. The topic is not
// validated here; the broker rejects invalid topics at publish time.
func New(topic string, payload map[string]any, opts ...Option) *Event {
	e := &Event{
		Topic:         topic,
		Payload:       payload,
		CorrelationID: uuid.NewString(),
		Timestamp:     time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
