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

// Package orchestrator turns a user request into an execution plan,
// drives the plan's task steps over the mesh, and synthesizes the
// task results into a final answer. Caches and the fallback engine
// interpose on every LLM call.
package orchestrator

import (
	"fmt"
)

// TaskStep is one unit of work in a plan.
type TaskStep struct {
	ID             string         `json:"id"`
	Capability     string         `json:"capability"`
	Description    string         `json:"description,omitempty"`
	Parameters     map[string]any `json:"parameters,omitempty"`
	Priority       int            `json:"priority"` // 1..10
	CanParallelize bool           `json:"canParallelize"`
}

// ExecutionPlan is the planner's output: steps plus a dependency DAG
// keyed by step ID.
type ExecutionPlan struct {
	Steps             []TaskStep          `json:"steps"`
	Dependencies      map[string][]string `json:"dependencies,omitempty"`
	Reasoning         string              `json:"reasoning,omitempty"`
	Confidence        float64             `json:"confidence"`
	SynthesisStrategy string              `json:"synthesisStrategy,omitempty"`
}

// Validate checks that the plan is non-empty, step IDs are unique,
// every dependency references an existing step, there are no
// self-loops, and the dependency graph is acyclic.
func (p *ExecutionPlan) Validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("plan has no steps")
	}

	ids := make(map[string]bool, len(p.Steps))
	for _, s := range p.Steps {
		if s.ID == "" {
			return fmt.Errorf("plan step missing id")
		}
		if s.Capability == "" {
			return fmt.Errorf("step %s missing capability", s.ID)
		}
		if ids[s.ID] {
			return fmt.Errorf("duplicate step id %s", s.ID)
		}
		ids[s.ID] = true
	}

	for stepID, deps := range p.Dependencies {
		if !ids[stepID] {
			return fmt.Errorf("dependencies reference unknown step %s", stepID)
		}
		for _, dep := range deps {
			if !ids[dep] {
				return fmt.Errorf("step %s depends on unknown step %s", stepID, dep)
			}
			if dep == stepID {
				return fmt.Errorf("step %s depends on itself", stepID)
			}
		}
	}

	return p.checkAcyclic(ids)
}

// checkAcyclic runs Kahn's algorithm over the dependency edges.
func (p *ExecutionPlan) checkAcyclic(ids map[string]bool) error {
	indegree := make(map[string]int, len(ids))
	for id := range ids {
		indegree[id] = len(p.Dependencies[id])
	}

	var queue []string
	for id, n := range indegree {
		if n == 0 {
			queue = append(queue, id)
		}
	}

	// dependents inverts the dependency map once.
	dependents := make(map[string][]string)
	for stepID, deps := range p.Dependencies {
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], stepID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range dependents[id] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if visited != len(ids) {
		return fmt.Errorf("dependency cycle detected")
	}
	return nil
}

// DependsOn reports whether stepID has dep as a direct dependency.
func (p *ExecutionPlan) DependsOn(stepID, dep string) bool {
	for _, d := range p.Dependencies[stepID] {
		if d == dep {
			return true
		}
	}
	return false
}
