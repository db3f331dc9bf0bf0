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

package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/teradata-labs/amcp/pkg/llm"
	"github.com/teradata-labs/amcp/pkg/task"
	"github.com/teradata-labs/amcp/pkg/tools"
)

// ToolBackedBehavior maps capabilities to operations on a single tool
// connector. Task parameters pass through to the tool unchanged.
type ToolBackedBehavior struct {
	tool tools.Tool
	// ops maps capability -> tool operation.
	ops map[string]string
}

// NewToolBackedBehavior wires a tool behind a capability→operation map.
func NewToolBackedBehavior(tool tools.Tool, ops map[string]string) *ToolBackedBehavior {
	return &ToolBackedBehavior{tool: tool, ops: ops}
}

// Capabilities returns the capabilities the behavior serves.
func (b *ToolBackedBehavior) Capabilities() []string {
	caps := make([]string, 0, len(b.ops))
	for c := range b.ops {
		caps = append(caps, c)
	}
	return caps
}

func (b *ToolBackedBehavior) Execute(ctx context.Context, req *task.Request) (any, *task.ErrorInfo) {
	op, ok := b.ops[req.Capability]
	if !ok {
		return nil, &task.ErrorInfo{
			Kind:    "UnsupportedCapability",
			Message: fmt.Sprintf("agent does not serve capability %s", req.Capability),
		}
	}

	resp, err := b.tool.Invoke(ctx, tools.Request{
		Operation:  op,
		Parameters: req.Parameters,
		RequestID:  uuid.NewString(),
	})
	if err != nil {
		retriable := !errors.Is(err, context.Canceled)
		return nil, &task.ErrorInfo{
			Kind:      "ToolFailure",
			Message:   err.Error(),
			Retriable: retriable,
		}
	}
	if !resp.Success {
		return nil, &task.ErrorInfo{
			Kind:    "ToolFailure",
			Message: resp.ErrorMessage,
		}
	}
	return resp.Data, nil
}

// LLMBackedBehavior answers tasks by prompting an LLM with a
// capability-specific system preamble and the task parameters.
type LLMBackedBehavior struct {
	provider llm.Provider
	preamble string
}

// NewLLMBackedBehavior wires an LLM provider behind a preamble that
// frames the agent's specialty.
func NewLLMBackedBehavior(provider llm.Provider, preamble string) *LLMBackedBehavior {
	return &LLMBackedBehavior{provider: provider, preamble: preamble}
}

func (b *LLMBackedBehavior) Execute(ctx context.Context, req *task.Request) (any, *task.ErrorInfo) {
	var sb strings.Builder
	sb.WriteString(b.preamble)
	sb.WriteString("\n\nTask: ")
	sb.WriteString(req.Capability)
	for k, v := range req.Parameters {
		fmt.Fprintf(&sb, "\n%s: %v", k, v)
	}

	resp, err := b.provider.Complete(ctx, llm.Request{Prompt: sb.String()})
	if err != nil {
		kind := "LLMUnavailable"
		if errors.Is(err, llm.ErrTimeout) {
			kind = "Timeout"
		}
		return nil, &task.ErrorInfo{Kind: kind, Message: err.Error(), Retriable: true}
	}
	return map[string]any{"text": resp.Text}, nil
}

// ChatBehavior handles conversational capabilities. It prefers the
// LLM when one is configured and falls back to canned small talk
// otherwise, so the chat agent stays responsive without a backend.
type ChatBehavior struct {
	provider llm.Provider // optional
}

// NewChatBehavior builds a chat behavior; provider may be nil.
func NewChatBehavior(provider llm.Provider) *ChatBehavior {
	return &ChatBehavior{provider: provider}
}

func (b *ChatBehavior) Execute(ctx context.Context, req *task.Request) (any, *task.ErrorInfo) {
	message, _ := req.Parameters["message"].(string)
	if message == "" {
		message, _ = req.Parameters["prompt"].(string)
	}
	if message == "" {
		return nil, &task.ErrorInfo{Kind: "BadRequest", Message: "chat task needs a message parameter"}
	}

	if b.provider != nil {
		resp, err := b.provider.Complete(ctx, llm.Request{Prompt: message})
		if err == nil {
			return map[string]any{"text": resp.Text}, nil
		}
		// Fall through to canned replies on any LLM failure.
	}
	return map[string]any{"text": cannedReply(message)}, nil
}

func cannedReply(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "hello"), strings.Contains(lower, "hi "), strings.HasPrefix(lower, "hi"):
		return "Hello! How can I help you today?"
	case strings.Contains(lower, "thank"):
		return "You're welcome!"
	case strings.Contains(lower, "bye"):
		return "Goodbye! Come back any time."
	default:
		return "I'm here to help with weather, stocks, travel, or just to chat."
	}
}
