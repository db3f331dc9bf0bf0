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

// Package task defines the envelope format for task request and
// response events exchanged between the orchestrator and specialist
// agents, and the topic conventions tying them together.
package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/teradata-labs/amcp/pkg/event"
)

// DefaultReplyTopic is where the orchestrator listens for responses.
const DefaultReplyTopic = "orchestrator.task.response"

// RequestTopicPrefix prefixes the capability to form the request topic.
const RequestTopicPrefix = "task."

// ErrMalformedEnvelope reports a payload that does not parse as a task
// request or response.
var ErrMalformedEnvelope = errors.New("malformed task envelope")

// RequestTopic returns the topic a request for the capability is
// published on, e.g. "task.weather.current".
func RequestTopic(capability string) string {
	return RequestTopicPrefix + capability
}

// UserContext identifies the requesting user and session.
type UserContext struct {
	UserID    string
	SessionID string
	Locale    string
	Extras    map[string]any
}

// Request is one task dispatched to a specialist agent. TaskID doubles
// as the event correlation ID.
type Request struct {
	TaskID      string
	Capability  string
	Parameters  map[string]any
	UserContext UserContext
	Priority    int
	Deadline    time.Time
	ReplyTopic  string
}

// ErrorInfo describes a task failure in the response envelope.
type ErrorInfo struct {
	Kind      string
	Message   string
	Retriable bool
}

// Response is the outcome of one task, published on the request's
// reply topic with the same correlation ID.
type Response struct {
	TaskID    string
	Success   bool
	Result    any
	Error     *ErrorInfo
	LatencyMs int64
}

// BuildRequestEvent wraps a request into a broker event on the
// capability's request topic.
func (r *Request) BuildRequestEvent(sender event.AgentID) *event.Event {
	payload := map[string]any{
		"taskId":     r.TaskID,
		"capability": r.Capability,
		"parameters": r.Parameters,
		"userContext": map[string]any{
			"userId":    r.UserContext.UserID,
			"sessionId": r.UserContext.SessionID,
			"locale":    r.UserContext.Locale,
			"extras":    r.UserContext.Extras,
		},
		"priority":   r.Priority,
		"deadline":   r.Deadline.UTC().Format(time.RFC3339Nano),
		"replyTopic": r.ReplyTopic,
	}
	return event.New(RequestTopic(r.Capability), payload,
		event.WithSender(sender),
		event.WithCorrelationID(r.TaskID),
		event.WithExpiry(r.Deadline),
	)
}

// ParseRequest decodes a task-request event payload.
func ParseRequest(ev *event.Event) (*Request, error) {
	p := ev.Payload
	if p == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedEnvelope)
	}

	taskID, ok := p["taskId"].(string)
	if !ok || taskID == "" {
		return nil, fmt.Errorf("%w: missing taskId", ErrMalformedEnvelope)
	}
	capability, ok := p["capability"].(string)
	if !ok || capability == "" {
		return nil, fmt.Errorf("%w: missing capability", ErrMalformedEnvelope)
	}
	replyTopic, ok := p["replyTopic"].(string)
	if !ok || replyTopic == "" {
		return nil, fmt.Errorf("%w: missing replyTopic", ErrMalformedEnvelope)
	}

	req := &Request{
		TaskID:     taskID,
		Capability: capability,
		Parameters: asMap(p["parameters"]),
		Priority:   asInt(p["priority"]),
		ReplyTopic: replyTopic,
	}

	if deadline, ok := p["deadline"].(string); ok {
		t, err := time.Parse(time.RFC3339Nano, deadline)
		if err != nil {
			return nil, fmt.Errorf("%w: bad deadline %q", ErrMalformedEnvelope, deadline)
		}
		req.Deadline = t
	}

	if uc := asMap(p["userContext"]); uc != nil {
		req.UserContext = UserContext{
			UserID:    asString(uc["userId"]),
			SessionID: asString(uc["sessionId"]),
			Locale:    asString(uc["locale"]),
			Extras:    asMap(uc["extras"]),
		}
	}

	return req, nil
}

// BuildResponseEvent wraps a response into a broker event on the reply
// topic, correlated to the originating request.
func (r *Response) BuildResponseEvent(replyTopic string, sender event.AgentID) *event.Event {
	payload := map[string]any{
		"taskId":    r.TaskID,
		"success":   r.Success,
		"latencyMs": r.LatencyMs,
	}
	if r.Result != nil {
		payload["result"] = r.Result
	}
	if r.Error != nil {
		payload["error"] = map[string]any{
			"kind":      r.Error.Kind,
			"message":   r.Error.Message,
			"retriable": r.Error.Retriable,
		}
	}
	return event.New(replyTopic, payload,
		event.WithSender(sender),
		event.WithCorrelationID(r.TaskID),
	)
}

// ParseResponse decodes a task-response event payload.
func ParseResponse(ev *event.Event) (*Response, error) {
	p := ev.Payload
	if p == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedEnvelope)
	}

	taskID, ok := p["taskId"].(string)
	if !ok || taskID == "" {
		return nil, fmt.Errorf("%w: missing taskId", ErrMalformedEnvelope)
	}
	success, ok := p["success"].(bool)
	if !ok {
		return nil, fmt.Errorf("%w: missing success flag", ErrMalformedEnvelope)
	}

	resp := &Response{
		TaskID:    taskID,
		Success:   success,
		Result:    p["result"],
		LatencyMs: int64(asInt(p["latencyMs"])),
	}

	if em := asMap(p["error"]); em != nil {
		retriable, _ := em["retriable"].(bool)
		resp.Error = &ErrorInfo{
			Kind:      asString(em["kind"]),
			Message:   asString(em["message"]),
			Retriable: retriable,
		}
	}

	return resp, nil
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asInt tolerates the numeric types a JSON round-trip can produce.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
