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
	"fmt"
	"sync/atomic"
)

// ConnectionState is the lifecycle state of the engine's provider session.
//
// StateDisconnected is both the initial and the terminal state. StateReady
// is only entered after the provider acknowledged the session settings;
// audio must not flow before that.
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReady
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("ConnectionState(%d)", int32(s))
	}
}

type connectionState struct {
	v atomic.Int32
}

func (c *connectionState) Load() ConnectionState {
	return ConnectionState(c.v.Load())
}

func (c *connectionState) Set(s ConnectionState) {
	c.v.Store(int32(s))
}

// Transition atomically moves from one state to another and reports whether
// the swap happened. Concurrent callers racing on the same transition see
// exactly one winner.
func (c *connectionState) Transition(from, to ConnectionState) bool {
	return c.v.CompareAndSwap(int32(from), int32(to))
}
