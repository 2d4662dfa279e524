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

import "sync/atomic"

// SessionStats counts session traffic. All counters are cumulative across
// reconnects of the same session and safe for concurrent use.
type SessionStats struct {
	AudioChunksSent     atomic.Uint64
	AudioBytesSent      atomic.Uint64
	AudioChunksReceived atomic.Uint64
	AudioBytesReceived  atomic.Uint64
	EventsDispatched    atomic.Uint64
	FramesDropped       atomic.Uint64
	PlaybackDiscarded   atomic.Uint64
	PlaybackFailures    atomic.Uint64
	KeepAlivesSent      atomic.Uint64
	Reconnects          atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of SessionStats.
type StatsSnapshot struct {
	AudioChunksSent     uint64
	AudioBytesSent      uint64
	AudioChunksReceived uint64
	AudioBytesReceived  uint64
	EventsDispatched    uint64
	FramesDropped       uint64
	PlaybackDiscarded   uint64
	PlaybackFailures    uint64
	KeepAlivesSent      uint64
	Reconnects          uint64
}

func (s *SessionStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		AudioChunksSent:     s.AudioChunksSent.Load(),
		AudioBytesSent:      s.AudioBytesSent.Load(),
		AudioChunksReceived: s.AudioChunksReceived.Load(),
		AudioBytesReceived:  s.AudioBytesReceived.Load(),
		EventsDispatched:    s.EventsDispatched.Load(),
		FramesDropped:       s.FramesDropped.Load(),
		PlaybackDiscarded:   s.PlaybackDiscarded.Load(),
		PlaybackFailures:    s.PlaybackFailures.Load(),
		KeepAlivesSent:      s.KeepAlivesSent.Load(),
		Reconnects:          s.Reconnects.Load(),
	}
}
