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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teradata-labs/amcp/pkg/event"
)

func TestRouteTableDispatch(t *testing.T) {
	rt := NewRouteTable()

	var hits []string
	record := func(name string) EventHandler {
		return func(_ context.Context, ev *event.Event) error {
			hits = append(hits, name)
			return nil
		}
	}

	require.NoError(t, rt.Add("task.weather.*", record("weather")))
	require.NoError(t, rt.Add("task.**", record("catchall")))

	// First matching route wins.
	require.NoError(t, rt.Dispatch(context.Background(), event.New("task.weather.current", nil)))
	assert.Equal(t, []string{"weather"}, hits)

	require.NoError(t, rt.Dispatch(context.Background(), event.New("task.stock.quote", nil)))
	assert.Equal(t, []string{"weather", "catchall"}, hits)

	// Unknown topics are a no-op.
	require.NoError(t, rt.Dispatch(context.Background(), event.New("status.ping", nil)))
	assert.Len(t, hits, 2)
}

func TestRouteTableRejectsInvalidPattern(t *testing.T) {
	rt := NewRouteTable()
	err := rt.Add("a.**.b", func(context.Context, *event.Event) error { return nil })
	require.ErrorIs(t, err, event.ErrInvalidPattern)
}

func TestRouteTablePatterns(t *testing.T) {
	rt := NewRouteTable()
	require.NoError(t, rt.Add("a.*", func(context.Context, *event.Event) error { return nil }))
	require.NoError(t, rt.Add("b.**", func(context.Context, *event.Event) error { return nil }))
	assert.Equal(t, []string{"a.*", "b.**"}, rt.Patterns())
}
