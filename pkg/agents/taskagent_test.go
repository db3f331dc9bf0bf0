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
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teradata-labs/amcp/pkg/agent"
	"github.com/teradata-labs/amcp/pkg/event"
	"github.com/teradata-labs/amcp/pkg/task"
	"github.com/teradata-labs/amcp/pkg/tools"
)

// meshWithAgent activates one definition on a fresh mesh and returns a
// channel fed with responses on the default reply topic.
func meshWithAgent(t *testing.T, def agent.Definition) (*agent.Context, <-chan *task.Response) {
	t.Helper()
	mesh := agent.NewContext(agent.ContextConfig{Logger: zaptest.NewLogger(t)})
	t.Cleanup(func() { _ = mesh.Close(context.Background()) })

	require.NoError(t, mesh.Registry().Register(def))
	_, err := mesh.Registry().Activate(context.Background(), def.Name)
	require.NoError(t, err)

	responses := make(chan *task.Response, 8)
	require.NoError(t, mesh.Subscribe("test-orchestrator", task.DefaultReplyTopic,
		func(ctx context.Context, ev *event.Event) error {
			resp, err := task.ParseResponse(ev)
			if err != nil {
				return err
			}
			responses <- resp
			return nil
		}))
	return mesh, responses
}

func dispatch(t *testing.T, mesh *agent.Context, req *task.Request) {
	t.Helper()
	require.NoError(t, mesh.Publish(context.Background(), req.BuildRequestEvent("test-orchestrator")))
}

func awaitResponse(t *testing.T, responses <-chan *task.Response, taskID string) *task.Response {
	t.Helper()
	select {
	case resp := <-responses:
		require.Equal(t, taskID, resp.TaskID)
		return resp
	case <-time.After(5 * time.Second):
		t.Fatalf("no response for task %s", taskID)
		return nil
	}
}

func newRequest(capability string, params map[string]any) *task.Request {
	return &task.Request{
		TaskID:     uuid.NewString(),
		Capability: capability,
		Parameters: params,
		Deadline:   time.Now().Add(30 * time.Second),
		ReplyTopic: task.DefaultReplyTopic,
	}
}

func TestWeatherAgentCurrentConditions(t *testing.T) {
	weather := tools.NewWeatherTool()
	require.NoError(t, weather.Initialize(nil))
	mesh, responses := meshWithAgent(t, WeatherDefinition(weather, zaptest.NewLogger(t)))

	req := newRequest(CapWeatherCurrent, map[string]any{"location": "london, uk"})
	dispatch(t, mesh, req)

	resp := awaitResponse(t, responses, req.TaskID)
	require.True(t, resp.Success)
	result := resp.Result.(map[string]any)
	assert.Equal(t, "London,GB", result["location"])
	assert.NotNil(t, result["temperature"])
}

func TestStockAgentServesBothCapabilities(t *testing.T) {
	stock := tools.NewStockTool()
	require.NoError(t, stock.Initialize(map[string]any{
		"quotes": map[string]any{"AAPL": 190.25},
	}))
	mesh, responses := meshWithAgent(t, StockDefinition(stock, zaptest.NewLogger(t)))

	quote := newRequest(CapStockQuote, map[string]any{"symbol": "AAPL"})
	dispatch(t, mesh, quote)
	resp := awaitResponse(t, responses, quote.TaskID)
	require.True(t, resp.Success)
	assert.Equal(t, 190.25, resp.Result.(map[string]any)["price"])

	analysis := newRequest(CapFinancial, map[string]any{"symbol": "AAPL"})
	dispatch(t, mesh, analysis)
	resp = awaitResponse(t, responses, analysis.TaskID)
	require.True(t, resp.Success)
	assert.NotEmpty(t, resp.Result.(map[string]any)["trend"])
}

func TestAgentReportsToolFailure(t *testing.T) {
	weather := tools.NewWeatherTool()
	require.NoError(t, weather.Initialize(nil))
	mesh, responses := meshWithAgent(t, WeatherDefinition(weather, zaptest.NewLogger(t)))

	req := newRequest(CapWeatherCurrent, nil) // missing location
	dispatch(t, mesh, req)

	resp := awaitResponse(t, responses, req.TaskID)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ToolFailure", resp.Error.Kind)
	assert.Contains(t, resp.Error.Message, "location")
	assert.Nil(t, resp.Result)
}

func TestChatAgentCannedReplies(t *testing.T) {
	mesh, responses := meshWithAgent(t, ChatDefinition(nil, zaptest.NewLogger(t)))

	req := newRequest(CapChat, map[string]any{"message": "hello there"})
	dispatch(t, mesh, req)

	resp := awaitResponse(t, responses, req.TaskID)
	require.True(t, resp.Success)
	assert.Contains(t, resp.Result.(map[string]any)["text"], "Hello")
}

func TestChatAgentRejectsEmptyMessage(t *testing.T) {
	mesh, responses := meshWithAgent(t, ChatDefinition(nil, zaptest.NewLogger(t)))

	req := newRequest(CapChat, nil)
	dispatch(t, mesh, req)

	resp := awaitResponse(t, responses, req.TaskID)
	require.False(t, resp.Success)
	assert.Equal(t, "BadRequest", resp.Error.Kind)
}

func TestTravelAgentSearch(t *testing.T) {
	search := tools.NewSearchTool()
	require.NoError(t, search.Initialize(nil))
	search.AddDocument(tools.SearchDocument{Title: "Nice guide", Body: "Beaches and the old town."})
	mesh, responses := meshWithAgent(t, TravelDefinition(search, nil, zaptest.NewLogger(t)))

	req := newRequest(CapTravelSearch, map[string]any{"query": "beaches"})
	dispatch(t, mesh, req)

	resp := awaitResponse(t, responses, req.TaskID)
	require.True(t, resp.Success)
	assert.Equal(t, 1, resp.Result.(map[string]any)["count"])
}

func TestUnsupportedCapability(t *testing.T) {
	weather := tools.NewWeatherTool()
	require.NoError(t, weather.Initialize(nil))
	behavior := NewToolBackedBehavior(weather, map[string]string{CapWeatherCurrent: "current"})

	// The shell is subscribed to a capability the behavior does not map.
	ta := NewTaskAgent("odd-agent", []string{CapWeatherForecast}, behavior, zaptest.NewLogger(t))
	mesh, responses := meshWithAgent(t, agent.Definition{
		Name:         "odd-agent",
		Capabilities: []string{CapWeatherForecast},
		Factory:      func() (agent.Agent, error) { return ta, nil },
	})

	req := newRequest(CapWeatherForecast, map[string]any{"location": "Tokyo"})
	dispatch(t, mesh, req)

	resp := awaitResponse(t, responses, req.TaskID)
	require.False(t, resp.Success)
	assert.Equal(t, "UnsupportedCapability", resp.Error.Kind)
}
