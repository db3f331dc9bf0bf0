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

// Package agent provides the mesh kernel: the agent contract, per-node
// runtime context, lifecycle registry, and topic route tables.
package agent

import (
	"context"

	"github.com/teradata-labs/amcp/pkg/event"
)

// State is an agent lifecycle state. Valid transitions are
// INACTIVE -> ACTIVE (activate), ACTIVE -> INACTIVE (deactivate), and
// any -> DESTROYED (terminal).
type State int32

const (
	// StateInactive is the initial state; the agent receives no events.
	StateInactive State = iota
	// StateActive agents receive events matching their subscriptions.
	StateActive
	// StateDestroyed is terminal.
	StateDestroyed
)

// String returns the canonical state name.
func (s State) String() string {
	switch s {
	case StateActive:
		return "ACTIVE"
	case StateDestroyed:
		return "DESTROYED"
	default:
		return "INACTIVE"
	}
}

// Agent is the contract every mesh agent implements. Lifecycle hooks
// are invoked by the registry, never under the registry lock.
// HandleEvent runs on broker workers and must tolerate unknown topics
// by returning nil.
type Agent interface {
	// ID returns the agent's stable identity.
	ID() event.AgentID

	// OnActivate is called when the registry activates the agent. The
	// context handle is non-owning; agents use it to subscribe and
	// publish. An error aborts activation.
	OnActivate(ctx context.Context, mesh *Context) error

	// OnDeactivate is called when the registry deactivates the agent.
	OnDeactivate(ctx context.Context) error

	// OnDestroy is called once when the agent is destroyed.
	OnDestroy(ctx context.Context)

	// HandleEvent consumes one delivered event. It may publish further
	// events through the context handle. Errors are reported to the
	// broker's delivery layer, not to the publisher.
	HandleEvent(ctx context.Context, ev *event.Event) error
}

// Info describes a registered agent for discovery.
type Info struct {
	AgentID      event.AgentID
	Name         string
	Description  string
	Capabilities []string
	State        State
}
