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

// Package elevenlabs speaks the ElevenLabs Conversational AI protocol.
// Everything travels as JSON text frames: user audio goes out as base64
// chunks and synthesized audio comes back the same way. The protocol has
// no keep-alive frame, so the engine falls back to silent audio.
package elevenlabs

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/nlpodyssey/linguavoce/audio"
	"github.com/nlpodyssey/linguavoce/tutor"
)

const (
	host             = "api.elevenlabs.io"
	conversationPath = "/v1/convai/conversation"
)

// Provider implements tutor.Provider for ElevenLabs Conversational AI.
// The voice, audio format and base behavior come from the hosted agent
// configuration selected by SessionParams.AgentID; session parameters
// are applied on top as conversation overrides.
type Provider struct{}

func New() *Provider {
	return &Provider{}
}

func (Provider) Name() string {
	return "elevenlabs"
}

func (Provider) SessionURL(params tutor.SessionParams) (string, http.Header, error) {
	if params.AgentID == "" {
		return "", nil, fmt.Errorf("elevenlabs: agent ID must not be blank")
	}
	u := url.URL{
		Scheme:   "wss",
		Host:     host,
		Path:     conversationPath,
		RawQuery: url.Values{"agent_id": {params.AgentID}}.Encode(),
	}
	header := http.Header{}
	header.Set("xi-api-key", params.APIKey)
	return u.String(), header, nil
}

type initiationFrame struct {
	Type             string              `json:"type"`
	ConfigOverride   *conversationConfig `json:"conversation_config_override,omitempty"`
	DynamicVariables map[string]string   `json:"dynamic_variables,omitempty"`
}

type conversationConfig struct {
	Agent *agentOverride `json:"agent,omitempty"`
}

type agentOverride struct {
	Prompt       *agentPrompt `json:"prompt,omitempty"`
	FirstMessage string       `json:"first_message,omitempty"`
	Language     string       `json:"language,omitempty"`
}

type agentPrompt struct {
	Prompt string `json:"prompt"`
}

// SettingsFrame builds the conversation initiation frame. The audio format
// is fixed by the hosted agent configuration, not negotiated per session.
func (Provider) SettingsFrame(params tutor.SessionParams, _ audio.Format) (any, error) {
	agent := &agentOverride{
		FirstMessage: params.Greeting,
		Language:     params.Language,
	}
	if params.Instructions != "" {
		agent.Prompt = &agentPrompt{Prompt: params.Instructions}
	}
	frame := &initiationFrame{
		Type:           "conversation_initiation_client_data",
		ConfigOverride: &conversationConfig{Agent: agent},
	}
	if params.Level != "" || params.Scenario != "" {
		frame.DynamicVariables = make(map[string]string, 2)
		if params.Level != "" {
			frame.DynamicVariables["level"] = params.Level
		}
		if params.Scenario != "" {
			frame.DynamicVariables["scenario"] = params.Scenario
		}
	}
	return frame, nil
}

type userAudioChunk struct {
	UserAudioChunk string `json:"user_audio_chunk"`
}

func (Provider) AudioFrame(pcm []byte) (any, []byte) {
	return userAudioChunk{UserAudioChunk: base64.StdEncoding.EncodeToString(pcm)}, nil
}

func (Provider) KeepAliveFrame() any {
	return nil
}

func (Provider) StopFrame() any {
	return nil
}

type pongFrame struct {
	Type    string `json:"type"`
	EventID int    `json:"event_id"`
}

type serverFrame struct {
	Type string `json:"type"`

	InitiationMetadata *struct {
		ConversationID string `json:"conversation_id"`
	} `json:"conversation_initiation_metadata_event"`

	AudioEvent *struct {
		AudioBase64 string `json:"audio_base_64"`
		EventID     int    `json:"event_id"`
	} `json:"audio_event"`

	AgentResponse *struct {
		AgentResponse string `json:"agent_response"`
	} `json:"agent_response_event"`

	AgentResponseCorrection *struct {
		CorrectedAgentResponse string `json:"corrected_agent_response"`
	} `json:"agent_response_correction_event"`

	TentativeAgentResponse *struct {
		TentativeAgentResponse string `json:"tentative_agent_response"`
	} `json:"tentative_agent_response_internal_event"`

	UserTranscript *struct {
		UserTranscript string `json:"user_transcript"`
	} `json:"user_transcription_event"`

	Ping *struct {
		EventID int `json:"event_id"`
	} `json:"ping_event"`
}

// decodeAudioPayload accepts both padded and unpadded standard base64: the
// service usually pads, but not always.
func decodeAudioPayload(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

func (Provider) DecodeServerFrame(data []byte) (tutor.ServerFrame, error) {
	var raw serverFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return tutor.ServerFrame{}, fmt.Errorf("elevenlabs: error decoding server frame: %w", err)
	}

	var out tutor.ServerFrame
	switch raw.Type {
	case "conversation_initiation_metadata":
		// One frame both opens and configures the conversation.
		out.Events = []tutor.Event{tutor.EventConnectionOpened{}, tutor.EventReady{}}

	case "audio":
		if raw.AudioEvent == nil {
			return out, fmt.Errorf("elevenlabs: audio frame without audio_event")
		}
		pcm, err := decodeAudioPayload(raw.AudioEvent.AudioBase64)
		if err != nil {
			return out, fmt.Errorf("elevenlabs: error decoding audio payload: %w", err)
		}
		out.Audio = pcm

	case "agent_response":
		if raw.AgentResponse != nil {
			out.Events = []tutor.Event{tutor.EventConversationText{
				Role:  tutor.RoleAgent,
				Text:  raw.AgentResponse.AgentResponse,
				Final: true,
			}}
		}

	case "agent_response_correction":
		// Replaces the agent text truncated by an interruption.
		if raw.AgentResponseCorrection != nil {
			out.Events = []tutor.Event{tutor.EventConversationText{
				Role:  tutor.RoleAgent,
				Text:  raw.AgentResponseCorrection.CorrectedAgentResponse,
				Final: true,
			}}
		}

	case "internal_tentative_agent_response":
		if raw.TentativeAgentResponse != nil {
			out.Events = []tutor.Event{tutor.EventConversationText{
				Role:  tutor.RoleAgent,
				Text:  raw.TentativeAgentResponse.TentativeAgentResponse,
				Final: false,
			}}
		}

	case "user_transcript":
		if raw.UserTranscript != nil {
			out.Events = []tutor.Event{tutor.EventConversationText{
				Role:  tutor.RoleUser,
				Text:  raw.UserTranscript.UserTranscript,
				Final: true,
			}}
		}

	case "interruption":
		out.Events = []tutor.Event{tutor.EventUserStartedSpeaking{}}
		out.ClearPlayback = true

	case "ping":
		if raw.Ping != nil {
			out.Reply = pongFrame{Type: "pong", EventID: raw.Ping.EventID}
		}

	case "vad_score":
		// High-frequency diagnostics, nothing to surface.

	default:
		tutor.Logger().Debug("Ignoring unknown server frame type",
			slog.String("provider", "elevenlabs"),
			slog.String("type", raw.Type))
	}
	return out, nil
}
