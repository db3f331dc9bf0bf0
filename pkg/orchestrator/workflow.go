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
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teradata-labs/amcp/pkg/task"
)

// WorkflowState is the workflow's lifecycle phase.
type WorkflowState int32

const (
	WorkflowPlanning WorkflowState = iota
	WorkflowExecuting
	WorkflowSynthesizing
	WorkflowCompleted
	WorkflowFailed
)

func (s WorkflowState) String() string {
	switch s {
	case WorkflowExecuting:
		return "EXECUTING"
	case WorkflowSynthesizing:
		return "SYNTHESIZING"
	case WorkflowCompleted:
		return "COMPLETED"
	case WorkflowFailed:
		return "FAILED"
	default:
		return "PLANNING"
	}
}

// TaskStatus is the per-step execution status.
type TaskStatus int32

const (
	TaskPending TaskStatus = iota
	TaskRunning
	TaskCompleted
	TaskFailed
	TaskTimeout
)

func (s TaskStatus) String() string {
	switch s {
	case TaskRunning:
		return "RUNNING"
	case TaskCompleted:
		return "COMPLETED"
	case TaskFailed:
		return "FAILED"
	case TaskTimeout:
		return "TIMEOUT"
	default:
		return "PENDING"
	}
}

// Terminal reports whether the status is final.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskTimeout
}

// Workflow tracks one orchestrate call end to end. The coordinator is
// the only writer during execution; other goroutines read terminal
// state through the accessors.
type Workflow struct {
	ID          string
	Request     string
	UserContext task.UserContext
	StartedAt   time.Time

	mu          sync.Mutex
	state       WorkflowState
	plan        *ExecutionPlan
	results     map[string]any
	taskStatus  map[string]TaskStatus
	finalResult string
	err         error
}

// NewWorkflow creates a workflow in PLANNING.
func NewWorkflow(request string, uc task.UserContext) *Workflow {
	return &Workflow{
		ID:          uuid.NewString(),
		Request:     request,
		UserContext: uc,
		StartedAt:   time.Now(),
		state:       WorkflowPlanning,
		results:     make(map[string]any),
		taskStatus:  make(map[string]TaskStatus),
	}
}

// SetPlan attaches the plan and initializes per-step status.
func (w *Workflow) SetPlan(plan *ExecutionPlan) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.plan = plan
	for _, s := range plan.Steps {
		w.taskStatus[s.ID] = TaskPending
	}
}

// Plan returns the attached plan.
func (w *Workflow) Plan() *ExecutionPlan {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.plan
}

// State returns the current lifecycle phase.
func (w *Workflow) State() WorkflowState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) setState(s WorkflowState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = s
}

// StepStatus returns the status of one step.
func (w *Workflow) StepStatus(stepID string) TaskStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.taskStatus[stepID]
}

func (w *Workflow) setStepStatus(stepID string, s TaskStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.taskStatus[stepID] = s
}

func (w *Workflow) recordResult(stepID string, result any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.results[stepID] = result
	w.taskStatus[stepID] = TaskCompleted
}

// Results returns a copy of the step results gathered so far. Partial
// results survive workflow failure for diagnostics.
func (w *Workflow) Results() map[string]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]any, len(w.results))
	for k, v := range w.results {
		out[k] = v
	}
	return out
}

// Complete marks the workflow COMPLETED with the final answer.
func (w *Workflow) Complete(finalResult string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = WorkflowCompleted
	w.finalResult = finalResult
	w.err = nil
}

// Fail marks the workflow FAILED. FinalResult and error are exclusive.
func (w *Workflow) Fail(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = WorkflowFailed
	w.finalResult = ""
	w.err = err
}

// FinalResult returns the terminal answer, empty until COMPLETED.
func (w *Workflow) FinalResult() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.finalResult
}

// Err returns the terminal error, nil unless FAILED.
func (w *Workflow) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}
