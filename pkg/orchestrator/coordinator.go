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

package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teradata-labs/amcp/pkg/agent"
	"github.com/teradata-labs/amcp/pkg/event"
	"github.com/teradata-labs/amcp/pkg/task"
)

// coordinatorID is the sender identity for task requests and the
// subscriber identity on the reply topic.
const coordinatorID event.AgentID = "orchestrator"

// CoordinatorConfig configures a workflow coordinator.
type CoordinatorConfig struct {
	// Mesh is the agent context whose broker carries the task traffic.
	Mesh *agent.Context

	// ReplyTopic defaults to task.DefaultReplyTopic.
	ReplyTopic string

	// TaskTimeout bounds each step. Default 60s.
	TaskTimeout time.Duration

	// Parallel issues all ready steps concurrently when true.
	Parallel bool

	// MaxTaskRetries re-dispatches a step whose failure is marked
	// retriable, up to this many extra attempts. Default 0.
	MaxTaskRetries int

	Logger *zap.Logger
}

// Coordinator schedules plan steps over the mesh and correlates
// responses back to their steps. One coordinator serves many
// workflows; each Execute call owns its workflow exclusively.
type Coordinator struct {
	mesh        *agent.Context
	replyTopic  string
	taskTimeout time.Duration
	parallel    bool
	maxRetries  int
	logger      *zap.Logger

	mu      sync.Mutex
	pending map[string]chan *task.Response // taskId -> resolver
}

// NewCoordinator creates a coordinator and subscribes it to the reply
// topic.
func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if cfg.ReplyTopic == "" {
		cfg.ReplyTopic = task.DefaultReplyTopic
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	c := &Coordinator{
		mesh:        cfg.Mesh,
		replyTopic:  cfg.ReplyTopic,
		taskTimeout: cfg.TaskTimeout,
		parallel:    cfg.Parallel,
		maxRetries:  cfg.MaxTaskRetries,
		logger:      cfg.Logger,
		pending:     make(map[string]chan *task.Response),
	}
	if err := cfg.Mesh.Subscribe(coordinatorID, cfg.ReplyTopic, c.handleResponse); err != nil {
		return nil, fmt.Errorf("subscribing to reply topic: %w", err)
	}
	return c, nil
}

// handleResponse resolves the pending entry for the response's task
// ID. The first response wins; responses for unknown or already
// resolved task IDs are dropped with a warning.
func (c *Coordinator) handleResponse(_ context.Context, ev *event.Event) error {
	resp, err := task.ParseResponse(ev)
	if err != nil {
		c.logger.Warn("dropping malformed task response", zap.Error(err))
		return err
	}

	c.mu.Lock()
	ch, ok := c.pending[resp.TaskID]
	if ok {
		delete(c.pending, resp.TaskID)
	}
	c.mu.Unlock()

	if !ok {
		c.logger.Warn("dropping response for unknown task",
			zap.String("task_id", resp.TaskID))
		return nil
	}
	ch <- resp
	return nil
}

// register installs a resolver before the request event is published,
// so a fast response can never race past its waiter.
func (c *Coordinator) register(taskID string) chan *task.Response {
	ch := make(chan *task.Response, 1)
	c.mu.Lock()
	c.pending[taskID] = ch
	c.mu.Unlock()
	return ch
}

// unregister removes a resolver that will no longer be waited on.
func (c *Coordinator) unregister(taskID string) {
	c.mu.Lock()
	delete(c.pending, taskID)
	c.mu.Unlock()
}

// PendingCount returns the number of in-flight tasks.
func (c *Coordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Execute drives the workflow's plan to a terminal step state. It
// returns an error when any step failed, leaving results gathered so
// far on the workflow for diagnostics. The caller owns the transition
// to SYNTHESIZING / COMPLETED / FAILED.
func (c *Coordinator) Execute(ctx context.Context, wf *Workflow) error {
	plan := wf.Plan()
	if plan == nil {
		return fmt.Errorf("workflow %s has no plan", wf.ID)
	}
	wf.setState(WorkflowExecuting)

	for {
		ready := c.readySteps(wf, plan)
		if len(ready) == 0 {
			break
		}
		if c.parallel {
			c.dispatchParallel(ctx, wf, ready)
		} else {
			// Sequential: one step per tick, highest priority first,
			// ties by lexicographic step ID.
			sort.Slice(ready, func(i, j int) bool {
				if ready[i].Priority != ready[j].Priority {
					return ready[i].Priority > ready[j].Priority
				}
				return ready[i].ID < ready[j].ID
			})
			c.runStep(ctx, wf, ready[0])
		}
		if ctx.Err() != nil {
			break
		}
	}

	for _, s := range plan.Steps {
		switch wf.StepStatus(s.ID) {
		case TaskFailed, TaskTimeout:
			return fmt.Errorf("step %s %s", s.ID, wf.StepStatus(s.ID))
		case TaskPending:
			// Unreachable steps behind a failed dependency.
			return fmt.Errorf("step %s never became ready", s.ID)
		}
	}
	return nil
}

// readySteps returns the PENDING steps whose dependencies are all
// COMPLETED. A failed dependency permanently blocks its dependents.
func (c *Coordinator) readySteps(wf *Workflow, plan *ExecutionPlan) []TaskStep {
	var ready []TaskStep
	for _, s := range plan.Steps {
		if wf.StepStatus(s.ID) != TaskPending {
			continue
		}
		ok := true
		for _, dep := range plan.Dependencies[s.ID] {
			if wf.StepStatus(dep) != TaskCompleted {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, s)
		}
	}
	return ready
}

func (c *Coordinator) dispatchParallel(ctx context.Context, wf *Workflow, steps []TaskStep) {
	var wg sync.WaitGroup
	for _, s := range steps {
		wg.Add(1)
		go func(step TaskStep) {
			defer wg.Done()
			c.runStep(ctx, wf, step)
		}(s)
	}
	wg.Wait()
}

// runStep dispatches one step and blocks until response, timeout, or
// cancellation. Retriable failures are re-dispatched up to
// maxRetries times.
func (c *Coordinator) runStep(ctx context.Context, wf *Workflow, step TaskStep) {
	wf.setStepStatus(step.ID, TaskRunning)

	for attempt := 0; ; attempt++ {
		status := c.attemptStep(ctx, wf, step)
		if status.retry && attempt < c.maxRetries {
			c.logger.Info("retrying task step",
				zap.String("workflow_id", wf.ID),
				zap.String("step_id", step.ID),
				zap.Int("attempt", attempt+1))
			continue
		}
		if status.result != nil {
			wf.recordResult(step.ID, status.result)
		} else {
			wf.setStepStatus(step.ID, status.terminal)
		}
		return
	}
}

type stepOutcome struct {
	result   any
	terminal TaskStatus
	retry    bool
}

func (c *Coordinator) attemptStep(ctx context.Context, wf *Workflow, step TaskStep) stepOutcome {
	taskID := uuid.NewString()
	resolver := c.register(taskID)

	req := &task.Request{
		TaskID:      taskID,
		Capability:  step.Capability,
		Parameters:  step.Parameters,
		UserContext: wf.UserContext,
		Priority:    step.Priority,
		Deadline:    time.Now().Add(c.taskTimeout),
		ReplyTopic:  c.replyTopic,
	}
	if err := c.mesh.Publish(ctx, req.BuildRequestEvent(coordinatorID)); err != nil {
		c.unregister(taskID)
		c.logger.Warn("task dispatch failed",
			zap.String("step_id", step.ID),
			zap.Error(err))
		return stepOutcome{terminal: TaskFailed}
	}

	timer := time.NewTimer(c.taskTimeout)
	defer timer.Stop()

	select {
	case resp := <-resolver:
		if resp.Success {
			result := resp.Result
			if result == nil {
				result = map[string]any{}
			}
			return stepOutcome{result: result}
		}
		retriable := resp.Error != nil && resp.Error.Retriable
		c.logger.Warn("task step failed",
			zap.String("workflow_id", wf.ID),
			zap.String("step_id", step.ID),
			zap.Bool("retriable", retriable))
		return stepOutcome{terminal: TaskFailed, retry: retriable}
	case <-timer.C:
		c.unregister(taskID)
		c.logger.Warn("task step timed out",
			zap.String("workflow_id", wf.ID),
			zap.String("step_id", step.ID),
			zap.Duration("timeout", c.taskTimeout))
		return stepOutcome{terminal: TaskTimeout}
	case <-ctx.Done():
		c.unregister(taskID)
		return stepOutcome{terminal: TaskFailed}
	}
}

// Cancel purges every pending resolver. Already-dispatched requests
// may still produce responses; those arrive to no waiter and are
// dropped.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for taskID := range c.pending {
		delete(c.pending, taskID)
	}
}

// Close removes the reply-topic subscription.
func (c *Coordinator) Close() {
	c.mesh.Unsubscribe(coordinatorID, c.replyTopic)
	c.Cancel()
}
