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

package tutor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "ready", StateReady.String())
}

func TestConnectionStateTransition(t *testing.T) {
	var s connectionState
	assert.Equal(t, StateDisconnected, s.Load())

	assert.True(t, s.Transition(StateDisconnected, StateConnecting))
	assert.Equal(t, StateConnecting, s.Load())

	// A transition from the wrong origin state must not apply.
	assert.False(t, s.Transition(StateDisconnected, StateConnected))
	assert.Equal(t, StateConnecting, s.Load())

	s.Set(StateReady)
	assert.Equal(t, StateReady, s.Load())
}

func TestConnectionStateTransitionIsExclusive(t *testing.T) {
	var s connectionState

	const goroutines = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, goroutines)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Transition(StateDisconnected, StateConnecting) {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	assert.Len(t, wins, 1)
	assert.Equal(t, StateConnecting, s.Load())
}
