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

package deepgram

import (
	"encoding/json"
	"testing"

	"github.com/nlpodyssey/linguavoce/audio"
	"github.com/nlpodyssey/linguavoce/tutor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionURL(t *testing.T) {
	p := New()

	wsURL, header, err := p.SessionURL(tutor.SessionParams{APIKey: "key-123"})
	require.NoError(t, err)
	assert.Equal(t, "wss://agent.deepgram.com/v1/agent/converse", wsURL)
	assert.Equal(t, "token key-123", header.Get("Authorization"))
}

func TestSettingsFrame(t *testing.T) {
	p := New()

	frame, err := p.SettingsFrame(tutor.SessionParams{
		APIKey:       "key",
		Language:     "es",
		Level:        "A2",
		Scenario:     "asking for directions",
		Instructions: "You are a friendly Spanish tutor.",
		Greeting:     "¡Hola!",
	}, audio.Format{SampleRate: 16000, Channels: 1, BitDepth: 16})
	require.NoError(t, err)

	data, err := json.Marshal(frame)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "Settings",
		"audio": {
			"input": {"encoding": "linear16", "sample_rate": 16000},
			"output": {"encoding": "linear16", "sample_rate": 16000, "container": "none"}
		},
		"agent": {
			"language": "es",
			"listen": {"provider": {"type": "deepgram", "model": "nova-3"}},
			"think": {
				"provider": {"type": "open_ai", "model": "gpt-4o-mini"},
				"prompt": "You are a friendly Spanish tutor.\nLearner level: A2\nConversation scenario: asking for directions"
			},
			"speak": {"provider": {"type": "deepgram", "model": "aura-2-thalia-en"}},
			"greeting": "¡Hola!"
		}
	}`, string(data))
}

func TestSettingsFrameModelOverrides(t *testing.T) {
	p := &Provider{
		ListenModel:   "nova-2",
		ThinkProvider: "anthropic",
		ThinkModel:    "claude-sonnet-4-20250514",
		SpeakModel:    "aura-2-celeste-es",
	}

	frame, err := p.SettingsFrame(tutor.SessionParams{APIKey: "key"}, audio.DefaultFormat)
	require.NoError(t, err)

	settings, ok := frame.(*settingsFrame)
	require.True(t, ok)
	assert.Equal(t, "nova-2", settings.Agent.Listen.Provider.Model)
	assert.Equal(t, "anthropic", settings.Agent.Think.Provider.Type)
	assert.Equal(t, "claude-sonnet-4-20250514", settings.Agent.Think.Provider.Model)
	assert.Equal(t, "aura-2-celeste-es", settings.Agent.Speak.Provider.Model)
}

func TestAudioFrame(t *testing.T) {
	p := New()
	pcm := []byte{1, 2, 3, 4}

	control, binary := p.AudioFrame(pcm)
	assert.Nil(t, control)
	assert.Equal(t, pcm, binary)
}

func TestKeepAliveFrame(t *testing.T) {
	p := New()

	data, err := json.Marshal(p.KeepAliveFrame())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "KeepAlive"}`, string(data))

	assert.Nil(t, p.StopFrame())
}

func TestDecodeServerFrame(t *testing.T) {
	p := New()

	t.Run("welcome", func(t *testing.T) {
		frame, err := p.DecodeServerFrame([]byte(`{"type": "Welcome", "request_id": "req-1"}`))
		require.NoError(t, err)
		assert.Equal(t, []tutor.Event{tutor.EventConnectionOpened{}}, frame.Events)
	})

	t.Run("settings applied", func(t *testing.T) {
		frame, err := p.DecodeServerFrame([]byte(`{"type": "SettingsApplied"}`))
		require.NoError(t, err)
		assert.Equal(t, []tutor.Event{tutor.EventReady{}}, frame.Events)
	})

	t.Run("conversation text", func(t *testing.T) {
		frame, err := p.DecodeServerFrame([]byte(`{
			"type": "ConversationText", "role": "user", "content": "¿Dónde está la estación?"
		}`))
		require.NoError(t, err)
		assert.Equal(t, []tutor.Event{tutor.EventConversationText{
			Role:  tutor.RoleUser,
			Text:  "¿Dónde está la estación?",
			Final: true,
		}}, frame.Events)

		frame, err = p.DecodeServerFrame([]byte(`{
			"type": "ConversationText", "role": "assistant", "content": "Está a la derecha."
		}`))
		require.NoError(t, err)
		assert.Equal(t, []tutor.Event{tutor.EventConversationText{
			Role:  tutor.RoleAgent,
			Text:  "Está a la derecha.",
			Final: true,
		}}, frame.Events)
	})

	t.Run("user started speaking clears playback", func(t *testing.T) {
		frame, err := p.DecodeServerFrame([]byte(`{"type": "UserStartedSpeaking"}`))
		require.NoError(t, err)
		assert.True(t, frame.ClearPlayback)
		assert.Equal(t, []tutor.Event{tutor.EventUserStartedSpeaking{}}, frame.Events)
	})

	t.Run("agent speech lifecycle", func(t *testing.T) {
		frame, err := p.DecodeServerFrame([]byte(`{"type": "AgentStartedSpeaking"}`))
		require.NoError(t, err)
		assert.Equal(t, []tutor.Event{tutor.EventAgentStartedSpeaking{}}, frame.Events)

		frame, err = p.DecodeServerFrame([]byte(`{"type": "AgentAudioDone"}`))
		require.NoError(t, err)
		assert.Equal(t, []tutor.Event{tutor.EventAgentAudioDone{}}, frame.Events)
	})

	t.Run("error and warning", func(t *testing.T) {
		frame, err := p.DecodeServerFrame([]byte(`{
			"type": "Error", "code": "UNAUTHORIZED", "description": "bad token"
		}`))
		require.NoError(t, err)
		assert.Equal(t, []tutor.Event{tutor.EventError{
			Code:        "UNAUTHORIZED",
			Description: "bad token",
		}}, frame.Events)

		frame, err = p.DecodeServerFrame([]byte(`{"type": "Warning", "description": "deprecated field"}`))
		require.NoError(t, err)
		assert.Equal(t, []tutor.Event{tutor.EventWarning{Message: "deprecated field"}}, frame.Events)
	})

	t.Run("progress frames are ignored", func(t *testing.T) {
		frame, err := p.DecodeServerFrame([]byte(`{"type": "AgentThinking", "content": "..."}`))
		require.NoError(t, err)
		assert.Empty(t, frame.Events)
	})

	t.Run("unknown type is ignored", func(t *testing.T) {
		frame, err := p.DecodeServerFrame([]byte(`{"type": "SomethingNew"}`))
		require.NoError(t, err)
		assert.Empty(t, frame.Events)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := p.DecodeServerFrame([]byte(`{`))
		assert.Error(t, err)
	})
}
