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
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/amcp/pkg/broker"
	"github.com/teradata-labs/amcp/pkg/event"
)

// ContextConfig configures a mesh context.
type ContextConfig struct {
	// Broker configures the owned broker. Zero value gets defaults.
	Broker broker.Config

	// ActivateTimeout bounds a single agent activation. Default 5s.
	ActivateTimeout time.Duration

	// DrainTimeout bounds ShutdownAll. Default 10s.
	DrainTimeout time.Duration

	// Logger defaults to a nop logger.
	Logger *zap.Logger
}

// Context is the per-node runtime: it owns the broker and the agent
// registry, and is the single value threaded through components in
// place of process-wide singletons. Agents hold a non-owning handle to
// it for publishing and subscribing.
type Context struct {
	broker   *broker.Broker
	registry *Registry
	logger   *zap.Logger
}

// NewContext creates a context with its own broker and registry.
func NewContext(cfg ContextConfig) *Context {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Broker.Logger == nil {
		cfg.Broker.Logger = cfg.Logger.Named("broker")
	}
	if cfg.ActivateTimeout <= 0 {
		cfg.ActivateTimeout = 5 * time.Second
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 10 * time.Second
	}

	c := &Context{
		broker: broker.New(cfg.Broker),
		logger: cfg.Logger,
	}
	c.registry = newRegistry(c, cfg.ActivateTimeout, cfg.DrainTimeout, cfg.Logger.Named("registry"))
	return c
}

// Broker returns the owned broker.
func (c *Context) Broker() *broker.Broker { return c.broker }

// Registry returns the owned agent registry.
func (c *Context) Registry() *Registry { return c.registry }

// Publish publishes an event on the mesh.
func (c *Context) Publish(ctx context.Context, ev *event.Event) error {
	return c.broker.Publish(ctx, ev)
}

// Subscribe registers a handler for the agent on a topic pattern.
func (c *Context) Subscribe(agentID event.AgentID, pattern string, handler broker.Handler) error {
	return c.broker.Subscribe(agentID, pattern, handler)
}

// Unsubscribe removes one subscription.
func (c *Context) Unsubscribe(agentID event.AgentID, pattern string) {
	c.broker.Unsubscribe(agentID, pattern)
}

// Close deactivates all agents and closes the broker.
func (c *Context) Close(ctx context.Context) error {
	err := c.registry.ShutdownAll(ctx)
	if cerr := c.broker.Close(); err == nil {
		err = cerr
	}
	return err
}
