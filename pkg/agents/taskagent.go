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

// Package agents provides the specialist agents that consume task
// requests from the mesh. Specialization is by composition: one
// TaskAgent shell drives a Behavior, which is chat-, LLM-, or
// tool-backed.
package agents

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teradata-labs/amcp/pkg/agent"
	"github.com/teradata-labs/amcp/pkg/event"
	"github.com/teradata-labs/amcp/pkg/task"
)

// Behavior performs the work for one task request. A non-nil ErrorInfo
// marks the task failed; otherwise the result is returned to the
// requester verbatim.
type Behavior interface {
	Execute(ctx context.Context, req *task.Request) (any, *task.ErrorInfo)
}

// BehaviorFunc adapts a function to the Behavior interface.
type BehaviorFunc func(ctx context.Context, req *task.Request) (any, *task.ErrorInfo)

func (f BehaviorFunc) Execute(ctx context.Context, req *task.Request) (any, *task.ErrorInfo) {
	return f(ctx, req)
}

// TaskAgent is the generic shell for specialist agents. On activation
// it subscribes to the request topic for every capability it serves;
// each request is executed by the behavior and answered on the
// request's reply topic with the same correlation ID.
type TaskAgent struct {
	id           event.AgentID
	capabilities []string
	behavior     Behavior
	logger       *zap.Logger

	mesh *agent.Context
}

// NewTaskAgent builds a shell agent for the capabilities. The logger
// may be nil.
func NewTaskAgent(id event.AgentID, capabilities []string, behavior Behavior, logger *zap.Logger) *TaskAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskAgent{
		id:           id,
		capabilities: capabilities,
		behavior:     behavior,
		logger:       logger.With(zap.String("agent_id", string(id))),
	}
}

func (a *TaskAgent) ID() event.AgentID { return a.id }

// OnActivate subscribes the agent to task.<capability> for each
// capability.
func (a *TaskAgent) OnActivate(_ context.Context, mesh *agent.Context) error {
	a.mesh = mesh
	for _, capability := range a.capabilities {
		topic := task.RequestTopic(capability)
		if err := mesh.Subscribe(a.id, topic, a.HandleEvent); err != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, err)
		}
	}
	a.logger.Info("agent activated", zap.Strings("capabilities", a.capabilities))
	return nil
}

func (a *TaskAgent) OnDeactivate(context.Context) error {
	a.logger.Info("agent deactivated")
	return nil
}

func (a *TaskAgent) OnDestroy(context.Context) {
	a.logger.Info("agent destroyed")
}

// HandleEvent executes one task request and publishes the response.
// Malformed envelopes are dropped with a log line; there is no reply
// topic to answer on.
func (a *TaskAgent) HandleEvent(ctx context.Context, ev *event.Event) error {
	req, err := task.ParseRequest(ev)
	if err != nil {
		a.logger.Warn("dropping malformed task request",
			zap.String("topic", ev.Topic),
			zap.Error(err))
		return err
	}

	started := time.Now()
	result, taskErr := a.behavior.Execute(ctx, req)

	resp := &task.Response{
		TaskID:    req.TaskID,
		Success:   taskErr == nil,
		Result:    result,
		Error:     taskErr,
		LatencyMs: time.Since(started).Milliseconds(),
	}
	if taskErr != nil {
		resp.Result = nil
		a.logger.Warn("task failed",
			zap.String("task_id", req.TaskID),
			zap.String("capability", req.Capability),
			zap.String("kind", taskErr.Kind),
			zap.String("message", taskErr.Message))
	}

	out := resp.BuildResponseEvent(req.ReplyTopic, a.id)
	if err := a.mesh.Publish(ctx, out); err != nil {
		return fmt.Errorf("publishing task response %s: %w", req.TaskID, err)
	}
	return nil
}
