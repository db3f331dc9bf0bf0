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
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrAgentNotFound reports an unknown agent name.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrAlreadyActive reports an activation of an active agent.
	ErrAlreadyActive = errors.New("agent already active")

	// ErrAlreadyRegistered reports a duplicate registration.
	ErrAlreadyRegistered = errors.New("agent already registered")

	// ErrLifecycle reports a lifecycle hook failure. The agent is
	// forced back to INACTIVE.
	ErrLifecycle = errors.New("agent lifecycle error")

	// ErrDestroyed reports an operation on a destroyed agent.
	ErrDestroyed = errors.New("agent destroyed")
)

// Factory creates an agent instance. Called once per activation.
type Factory func() (Agent, error)

// Definition describes a registered agent. The registry exclusively
// owns the lifecycle of agents created from it.
type Definition struct {
	Name         string
	Factory      Factory
	Description  string
	Capabilities []string
}

type registryEntry struct {
	def   Definition
	agent Agent
	state State
	// activating serializes concurrent Activate calls without holding
	// the registry lock across lifecycle hooks.
	activating bool
}

// Registry stores agent definitions and drives lifecycle transitions.
// Lifecycle hooks always run outside the registry lock so that a hook
// may publish or subscribe without deadlocking.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry

	mesh            *Context // back reference, non-owning
	activateTimeout time.Duration
	drainTimeout    time.Duration
	logger          *zap.Logger
}

func newRegistry(mesh *Context, activateTimeout, drainTimeout time.Duration, logger *zap.Logger) *Registry {
	return &Registry{
		entries:         make(map[string]*registryEntry),
		mesh:            mesh,
		activateTimeout: activateTimeout,
		drainTimeout:    drainTimeout,
		logger:          logger,
	}
}

// Register stores a definition. Names are unique.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("register: empty agent name")
	}
	if def.Factory == nil {
		return fmt.Errorf("register %q: nil factory", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, def.Name)
	}
	r.entries[def.Name] = &registryEntry{def: def, state: StateInactive}

	r.logger.Info("agent registered",
		zap.String("name", def.Name),
		zap.Strings("capabilities", def.Capabilities))
	return nil
}

// Activate creates an instance via the factory, calls OnActivate with
// the mesh handle, and marks the agent ACTIVE. Fails with
// ErrAlreadyActive if already active. The whole activation is bounded
// by the configured timeout (default 5s).
func (r *Registry) Activate(ctx context.Context, name string) (Info, error) {
	r.mu.Lock()
	entry, ok := r.entries[name]
	if !ok {
		r.mu.Unlock()
		return Info{}, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}
	switch {
	case entry.state == StateDestroyed:
		r.mu.Unlock()
		return Info{}, fmt.Errorf("%w: %s", ErrDestroyed, name)
	case entry.state == StateActive || entry.activating:
		r.mu.Unlock()
		return Info{}, fmt.Errorf("%w: %s", ErrAlreadyActive, name)
	}
	entry.activating = true
	def := entry.def
	r.mu.Unlock()

	actCtx, cancel := context.WithTimeout(ctx, r.activateTimeout)
	defer cancel()

	ag, err := r.runActivation(actCtx, def)

	r.mu.Lock()
	entry.activating = false
	if err != nil {
		entry.state = StateInactive
		entry.agent = nil
		r.mu.Unlock()
		r.logger.Warn("agent activation failed",
			zap.String("name", name),
			zap.Error(err))
		return Info{}, fmt.Errorf("%w: activate %s: %v", ErrLifecycle, name, err)
	}
	entry.agent = ag
	entry.state = StateActive
	info := infoFor(entry)
	r.mu.Unlock()

	r.logger.Info("agent activated",
		zap.String("name", name),
		zap.String("agent_id", ag.ID().String()))
	return info, nil
}

// runActivation builds the instance and runs its OnActivate hook,
// respecting the activation deadline even if the hook misbehaves.
func (r *Registry) runActivation(ctx context.Context, def Definition) (Agent, error) {
	ag, err := def.Factory()
	if err != nil {
		return nil, fmt.Errorf("factory: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- ag.OnActivate(ctx, r.mesh)
	}()

	select {
	case err := <-done:
		if err != nil {
			// Roll back any subscriptions the hook made before failing.
			r.mesh.Broker().UnsubscribeAll(ag.ID())
			return nil, fmt.Errorf("onActivate: %w", err)
		}
		return ag, nil
	case <-ctx.Done():
		r.mesh.Broker().UnsubscribeAll(ag.ID())
		return nil, fmt.Errorf("onActivate: %w", ctx.Err())
	}
}

// Deactivate calls OnDeactivate, removes the agent's subscriptions and
// drops the instance. Idempotent: deactivating an inactive agent is a
// no-op.
func (r *Registry) Deactivate(ctx context.Context, name string) error {
	r.mu.Lock()
	entry, ok := r.entries[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}
	if entry.state != StateActive {
		r.mu.Unlock()
		return nil
	}
	ag := entry.agent
	entry.state = StateInactive
	entry.agent = nil
	r.mu.Unlock()

	if err := ag.OnDeactivate(ctx); err != nil {
		r.logger.Warn("onDeactivate hook failed",
			zap.String("name", name),
			zap.Error(err))
	}
	r.mesh.Broker().UnsubscribeAll(ag.ID())

	r.logger.Info("agent deactivated", zap.String("name", name))
	return nil
}

// Destroy transitions the agent to its terminal state, deactivating it
// first if needed. Destroyed agents cannot be re-activated.
func (r *Registry) Destroy(ctx context.Context, name string) error {
	r.mu.Lock()
	entry, ok := r.entries[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}
	if entry.state == StateDestroyed {
		r.mu.Unlock()
		return nil
	}
	ag := entry.agent
	wasActive := entry.state == StateActive
	entry.state = StateDestroyed
	entry.agent = nil
	r.mu.Unlock()

	if wasActive && ag != nil {
		if err := ag.OnDeactivate(ctx); err != nil {
			r.logger.Warn("onDeactivate hook failed during destroy",
				zap.String("name", name),
				zap.Error(err))
		}
		r.mesh.Broker().UnsubscribeAll(ag.ID())
	}
	if ag != nil {
		ag.OnDestroy(ctx)
	}

	r.logger.Info("agent destroyed", zap.String("name", name))
	return nil
}

// Get returns the agent's info.
func (r *Registry) Get(name string) (Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}
	return infoFor(entry), nil
}

// List returns info for every registered agent.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, infoFor(entry))
	}
	return out
}

// Count returns the number of registered agents.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Discover returns info for all ACTIVE agents; the planner uses this
// to enumerate the live capability set.
func (r *Registry) Discover() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.entries))
	for _, entry := range r.entries {
		if entry.state == StateActive {
			out = append(out, infoFor(entry))
		}
	}
	return out
}

// ShutdownAll deactivates every active agent in parallel, bounded by
// the drain timeout.
func (r *Registry) ShutdownAll(ctx context.Context) error {
	r.mu.RLock()
	var names []string
	for name, entry := range r.entries {
		if entry.state == StateActive {
			names = append(names, name)
		}
	}
	r.mu.RUnlock()

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if err := r.Deactivate(ctx, name); err != nil {
				r.logger.Warn("shutdown deactivate failed",
					zap.String("name", name),
					zap.Error(err))
			}
		}(name)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(r.drainTimeout):
		return fmt.Errorf("shutdown: %d agents did not drain within %s", len(names), r.drainTimeout)
	}
}

func infoFor(entry *registryEntry) Info {
	info := Info{
		Name:         entry.def.Name,
		Description:  entry.def.Description,
		Capabilities: append([]string(nil), entry.def.Capabilities...),
		State:        entry.state,
	}
	if entry.agent != nil {
		info.AgentID = entry.agent.ID()
	}
	return info
}
