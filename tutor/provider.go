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
	"net/http"

	"github.com/nlpodyssey/linguavoce/audio"
)

// Provider translates between the engine's provider-independent view of a
// session and one remote conversational-AI wire protocol. All
// provider-specific vocabulary stays behind this interface; the engine
// never inspects raw frames itself.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string

	// SessionURL returns the WebSocket endpoint and handshake headers for
	// a session.
	SessionURL(params SessionParams) (string, http.Header, error)

	// SettingsFrame builds the configuration frame sent right after the
	// connection is established. The engine considers the session ready
	// only once a decoded frame yields EventReady.
	SettingsFrame(params SessionParams, format audio.Format) (any, error)

	// AudioFrame wraps one chunk of captured PCM for the wire. Exactly one
	// of the results is non-nil: a control value to send as JSON, or raw
	// bytes to send as a binary frame.
	AudioFrame(pcm []byte) (control any, binary []byte)

	// KeepAliveFrame returns the provider's idle keep-alive control frame,
	// or nil if the provider expects silent audio instead.
	KeepAliveFrame() any

	// StopFrame returns a best-effort end-of-session control frame, or nil
	// if the provider has none.
	StopFrame() any

	// DecodeServerFrame translates one inbound text frame. Decode failures
	// are dropped by the engine without ending the session.
	DecodeServerFrame(data []byte) (ServerFrame, error)
}

// ServerFrame is the normalized content of one inbound provider frame.
type ServerFrame struct {
	// Events to dispatch, in order.
	Events []Event

	// Audio carries synthesized PCM for providers that tunnel audio inside
	// control frames rather than binary messages.
	Audio []byte

	// Reply is a control frame the provider expects back immediately
	// (e.g. a pong).
	Reply any

	// ClearPlayback discards all queued but unplayed agent audio, for
	// barge-in.
	ClearPlayback bool
}
