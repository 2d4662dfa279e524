// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package asynctask

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskAwait(t *testing.T) {
	task := CreateTask(t.Context(), func(context.Context) (int, error) {
		return 42, nil
	})
	res := task.Await()
	require.NoError(t, res.Error)
	assert.Equal(t, 42, res.Value)
	assert.True(t, task.IsDone())
	assert.False(t, task.IsCanceled())
}

func TestTaskCancel(t *testing.T) {
	started := make(chan struct{})
	task := CreateTaskNoValue(t.Context(), func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started
	task.Cancel()
	res := task.Await()
	assert.True(t, task.IsCanceled())
	assert.ErrorIs(t, res.Error, TaskCanceledErr())
}

func TestTaskPanicRecovery(t *testing.T) {
	task := CreateTaskNoValue(t.Context(), func(context.Context) error {
		panic("boom")
	})
	res := task.Await()
	require.Error(t, res.Error)
	assert.ErrorContains(t, res.Error, "task panicked: boom")
}

func TestGroup(t *testing.T) {
	t.Run("awaits all and joins failures", func(t *testing.T) {
		var g Group
		g.Go(t.Context(), func(context.Context) error { return nil })
		g.Go(t.Context(), func(context.Context) error { return errors.New("first") })
		g.Go(t.Context(), func(context.Context) error { return errors.New("second") })

		err := g.AwaitAll()
		require.Error(t, err)
		assert.ErrorContains(t, err, "first")
		assert.ErrorContains(t, err, "second")
	})

	t.Run("cancellation is not an error", func(t *testing.T) {
		var g Group
		g.Go(t.Context(), func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		})
		g.CancelAll()
		assert.NoError(t, g.AwaitAll())
	})

	t.Run("reusable after await", func(t *testing.T) {
		var g Group
		g.Go(t.Context(), func(context.Context) error { return nil })
		require.NoError(t, g.AwaitAll())
		g.Go(t.Context(), func(context.Context) error { return errors.New("later") })
		assert.Error(t, g.AwaitAll())
	})
}
