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
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teradata-labs/amcp/pkg/event"
)

// stubAgent is a minimal agent for registry tests.
type stubAgent struct {
	id           event.AgentID
	mesh         *Context
	activated    atomic.Int32
	deactivated  atomic.Int32
	destroyed    atomic.Int32
	activateErr  error
	subscribeTo  string
	received     chan *event.Event
	activateHang time.Duration
}

func (a *stubAgent) ID() event.AgentID { return a.id }

func (a *stubAgent) OnActivate(ctx context.Context, mesh *Context) error {
	if a.activateHang > 0 {
		select {
		case <-time.After(a.activateHang):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if a.activateErr != nil {
		return a.activateErr
	}
	a.mesh = mesh
	a.activated.Add(1)
	if a.subscribeTo != "" {
		return mesh.Subscribe(a.id, a.subscribeTo, a.HandleEvent)
	}
	return nil
}

func (a *stubAgent) OnDeactivate(context.Context) error {
	a.deactivated.Add(1)
	return nil
}

func (a *stubAgent) OnDestroy(context.Context) {
	a.destroyed.Add(1)
}

func (a *stubAgent) HandleEvent(_ context.Context, ev *event.Event) error {
	if a.received != nil {
		a.received <- ev
	}
	return nil
}

func newTestContext(t *testing.T) *Context {
	t.Helper()
	c := NewContext(ContextConfig{Logger: zaptest.NewLogger(t)})
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func register(t *testing.T, c *Context, name string, ag *stubAgent) {
	t.Helper()
	require.NoError(t, c.Registry().Register(Definition{
		Name:         name,
		Factory:      func() (Agent, error) { return ag, nil },
		Description:  "test agent",
		Capabilities: []string{name + ".cap"},
	}))
}

func TestRegisterDuplicateName(t *testing.T) {
	c := newTestContext(t)
	register(t, c, "alpha", &stubAgent{id: "alpha"})

	err := c.Registry().Register(Definition{
		Name:    "alpha",
		Factory: func() (Agent, error) { return &stubAgent{id: "alpha"}, nil },
	})
	require.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestActivateLifecycle(t *testing.T) {
	c := newTestContext(t)
	ag := &stubAgent{id: "alpha"}
	register(t, c, "alpha", ag)

	info, err := c.Registry().Activate(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, event.AgentID("alpha"), info.AgentID)
	assert.Equal(t, StateActive, info.State)
	assert.Equal(t, int32(1), ag.activated.Load())

	// Second activation fails.
	_, err = c.Registry().Activate(context.Background(), "alpha")
	require.ErrorIs(t, err, ErrAlreadyActive)

	require.NoError(t, c.Registry().Deactivate(context.Background(), "alpha"))
	assert.Equal(t, int32(1), ag.deactivated.Load())

	// Deactivate is idempotent.
	require.NoError(t, c.Registry().Deactivate(context.Background(), "alpha"))
	assert.Equal(t, int32(1), ag.deactivated.Load())
}

func TestActivateUnknownAgent(t *testing.T) {
	c := newTestContext(t)
	_, err := c.Registry().Activate(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrAgentNotFound)
}

func TestActivateHookFailureForcesInactive(t *testing.T) {
	c := newTestContext(t)
	ag := &stubAgent{id: "failing", activateErr: fmt.Errorf("hook exploded")}
	register(t, c, "failing", ag)

	_, err := c.Registry().Activate(context.Background(), "failing")
	require.ErrorIs(t, err, ErrLifecycle)

	info, err := c.Registry().Get("failing")
	require.NoError(t, err)
	assert.Equal(t, StateInactive, info.State)

	// Recoverable: a later activation may succeed.
	ag.activateErr = nil
	_, err = c.Registry().Activate(context.Background(), "failing")
	require.NoError(t, err)
}

func TestActivateTimeout(t *testing.T) {
	c := NewContext(ContextConfig{
		Logger:          zaptest.NewLogger(t),
		ActivateTimeout: 50 * time.Millisecond,
	})
	t.Cleanup(func() { _ = c.Close(context.Background()) })

	ag := &stubAgent{id: "slow", activateHang: time.Second}
	register(t, c, "slow", ag)

	_, err := c.Registry().Activate(context.Background(), "slow")
	require.ErrorIs(t, err, ErrLifecycle)
}

func TestDeactivateRemovesSubscriptions(t *testing.T) {
	c := newTestContext(t)
	ag := &stubAgent{id: "sub", subscribeTo: "topic.a", received: make(chan *event.Event, 4)}
	register(t, c, "sub", ag)

	_, err := c.Registry().Activate(context.Background(), "sub")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Broker().Stats().Subscriptions)

	require.NoError(t, c.Registry().Deactivate(context.Background(), "sub"))
	assert.Equal(t, 0, c.Broker().Stats().Subscriptions)

	require.NoError(t, c.Publish(context.Background(), event.New("topic.a", nil)))
	select {
	case <-ag.received:
		t.Fatal("deactivated agent received an event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDestroyIsTerminal(t *testing.T) {
	c := newTestContext(t)
	ag := &stubAgent{id: "doomed"}
	register(t, c, "doomed", ag)

	_, err := c.Registry().Activate(context.Background(), "doomed")
	require.NoError(t, err)

	require.NoError(t, c.Registry().Destroy(context.Background(), "doomed"))
	assert.Equal(t, int32(1), ag.deactivated.Load())
	assert.Equal(t, int32(1), ag.destroyed.Load())

	// Idempotent, and re-activation is rejected.
	require.NoError(t, c.Registry().Destroy(context.Background(), "doomed"))
	assert.Equal(t, int32(1), ag.destroyed.Load())

	_, err = c.Registry().Activate(context.Background(), "doomed")
	require.ErrorIs(t, err, ErrDestroyed)
}

func TestDiscoverReturnsActiveOnly(t *testing.T) {
	c := newTestContext(t)
	register(t, c, "up", &stubAgent{id: "up"})
	register(t, c, "down", &stubAgent{id: "down"})

	_, err := c.Registry().Activate(context.Background(), "up")
	require.NoError(t, err)

	infos := c.Registry().Discover()
	require.Len(t, infos, 1)
	assert.Equal(t, "up", infos[0].Name)
	assert.Equal(t, []string{"up.cap"}, infos[0].Capabilities)

	assert.Equal(t, 2, c.Registry().Count())
	assert.Len(t, c.Registry().List(), 2)
}

func TestShutdownAll(t *testing.T) {
	c := newTestContext(t)
	agents := make([]*stubAgent, 3)
	for i := range agents {
		name := fmt.Sprintf("agent%d", i)
		agents[i] = &stubAgent{id: event.AgentID(name)}
		register(t, c, name, agents[i])
		_, err := c.Registry().Activate(context.Background(), name)
		require.NoError(t, err)
	}

	require.NoError(t, c.Registry().ShutdownAll(context.Background()))
	for _, ag := range agents {
		assert.Equal(t, int32(1), ag.deactivated.Load())
	}
	assert.Empty(t, c.Registry().Discover())
}
