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

package agent

import (
	"context"
	"sync"

	"github.com/teradata-labs/amcp/pkg/event"
)

// EventHandler handles one routed event inside an agent.
type EventHandler func(ctx context.Context, ev *event.Event) error

type route struct {
	pattern string
	handler EventHandler
}

// RouteTable maps topic patterns to handlers inside an agent, using
// the same wildcard matcher the broker uses. Dispatch tries routes in
// registration order and stops at the first match; events matching no
// route are ignored.
type RouteTable struct {
	mu     sync.RWMutex
	routes []route
}

// NewRouteTable creates an empty route table.
func NewRouteTable() *RouteTable {
	return &RouteTable{}
}

// Add registers a handler for a pattern. Patterns are validated with
// the broker's grammar.
func (rt *RouteTable) Add(pattern string, handler EventHandler) error {
	if err := event.ValidatePattern(pattern); err != nil {
		return err
	}
	rt.mu.Lock()
	rt.routes = append(rt.routes, route{pattern: pattern, handler: handler})
	rt.mu.Unlock()
	return nil
}

// Patterns returns the registered patterns in order.
func (rt *RouteTable) Patterns() []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	out := make([]string, len(rt.routes))
	for i, r := range rt.routes {
		out[i] = r.pattern
	}
	return out
}

// Dispatch routes the event to the first matching handler. An event
// with no matching route is a no-op, per the agent contract.
func (rt *RouteTable) Dispatch(ctx context.Context, ev *event.Event) error {
	rt.mu.RLock()
	routes := rt.routes
	rt.mu.RUnlock()

	for _, r := range routes {
		ok, err := event.Match(r.pattern, ev.Topic)
		if err != nil {
			return err
		}
		if ok {
			return r.handler(ctx, ev)
		}
	}
	return nil
}
