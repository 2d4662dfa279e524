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

// Package deepgram speaks the Deepgram Voice Agent protocol: JSON control
// frames multiplexed with raw linear16 PCM binary frames in both
// directions.
package deepgram

import (
	"cmp"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/nlpodyssey/linguavoce/audio"
	"github.com/nlpodyssey/linguavoce/tutor"
)

const (
	host      = "agent.deepgram.com"
	agentPath = "/v1/agent/converse"
)

// Provider implements tutor.Provider for the Deepgram Voice Agent API.
// The zero value selects sensible model defaults.
type Provider struct {
	// ListenModel is the speech-to-text model. Defaults to "nova-3".
	ListenModel string

	// ThinkProvider and ThinkModel select the reasoning model behind the
	// agent. Default to "open_ai" and "gpt-4o-mini".
	ThinkProvider string
	ThinkModel    string

	// SpeakModel is the text-to-speech voice. Defaults to "aura-2-thalia-en".
	SpeakModel string
}

func New() *Provider {
	return &Provider{}
}

func (Provider) Name() string {
	return "deepgram"
}

func (Provider) SessionURL(params tutor.SessionParams) (string, http.Header, error) {
	u := url.URL{Scheme: "wss", Host: host, Path: agentPath}
	header := http.Header{}
	header.Set("Authorization", "token "+params.APIKey)
	return u.String(), header, nil
}

type settingsFrame struct {
	Type  string      `json:"type"`
	Audio audioConfig `json:"audio"`
	Agent agentConfig `json:"agent"`
}

type audioConfig struct {
	Input  mediaConfig `json:"input"`
	Output mediaConfig `json:"output"`
}

type mediaConfig struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
	Container  string `json:"container,omitempty"`
}

type agentConfig struct {
	Language string       `json:"language,omitempty"`
	Listen   listenConfig `json:"listen"`
	Think    thinkConfig  `json:"think"`
	Speak    speakConfig  `json:"speak"`
	Greeting string       `json:"greeting,omitempty"`
}

type listenConfig struct {
	Provider modelSelector `json:"provider"`
}

type thinkConfig struct {
	Provider modelSelector `json:"provider"`
	Prompt   string        `json:"prompt,omitempty"`
}

type speakConfig struct {
	Provider modelSelector `json:"provider"`
}

type modelSelector struct {
	Type  string `json:"type"`
	Model string `json:"model,omitempty"`
}

func (p Provider) SettingsFrame(params tutor.SessionParams, format audio.Format) (any, error) {
	media := mediaConfig{Encoding: "linear16", SampleRate: format.SampleRate}
	output := media
	output.Container = "none"

	return &settingsFrame{
		Type:  "Settings",
		Audio: audioConfig{Input: media, Output: output},
		Agent: agentConfig{
			Language: params.Language,
			Listen: listenConfig{Provider: modelSelector{
				Type:  "deepgram",
				Model: cmp.Or(p.ListenModel, "nova-3"),
			}},
			Think: thinkConfig{
				Provider: modelSelector{
					Type:  cmp.Or(p.ThinkProvider, "open_ai"),
					Model: cmp.Or(p.ThinkModel, "gpt-4o-mini"),
				},
				Prompt: thinkPrompt(params),
			},
			Speak: speakConfig{Provider: modelSelector{
				Type:  "deepgram",
				Model: cmp.Or(p.SpeakModel, "aura-2-thalia-en"),
			}},
			Greeting: params.Greeting,
		},
	}, nil
}

// thinkPrompt folds the tutoring parameters into the agent instructions.
func thinkPrompt(params tutor.SessionParams) string {
	var b strings.Builder
	b.WriteString(params.Instructions)
	if params.Level != "" {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("Learner level: ")
		b.WriteString(params.Level)
	}
	if params.Scenario != "" {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("Conversation scenario: ")
		b.WriteString(params.Scenario)
	}
	return b.String()
}

func (Provider) AudioFrame(pcm []byte) (any, []byte) {
	return nil, pcm
}

type typedFrame struct {
	Type string `json:"type"`
}

func (Provider) KeepAliveFrame() any {
	return typedFrame{Type: "KeepAlive"}
}

func (Provider) StopFrame() any {
	return nil
}

type serverFrame struct {
	Type        string `json:"type"`
	Role        string `json:"role"`
	Content     string `json:"content"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Message     string `json:"message"`
}

func (Provider) DecodeServerFrame(data []byte) (tutor.ServerFrame, error) {
	var raw serverFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return tutor.ServerFrame{}, fmt.Errorf("deepgram: error decoding server frame: %w", err)
	}

	var out tutor.ServerFrame
	switch raw.Type {
	case "Welcome":
		out.Events = []tutor.Event{tutor.EventConnectionOpened{}}

	case "SettingsApplied":
		out.Events = []tutor.Event{tutor.EventReady{}}

	case "ConversationText":
		out.Events = []tutor.Event{tutor.EventConversationText{
			Role:  mapRole(raw.Role),
			Text:  raw.Content,
			Final: true,
		}}

	case "UserStartedSpeaking":
		// The server stops synthesizing on barge-in; queued audio on our
		// side must go too.
		out.Events = []tutor.Event{tutor.EventUserStartedSpeaking{}}
		out.ClearPlayback = true

	case "AgentStartedSpeaking":
		out.Events = []tutor.Event{tutor.EventAgentStartedSpeaking{}}

	case "AgentAudioDone":
		out.Events = []tutor.Event{tutor.EventAgentAudioDone{}}

	case "Error":
		out.Events = []tutor.Event{tutor.EventError{
			Code:        raw.Code,
			Description: cmp.Or(raw.Description, raw.Message),
		}}

	case "Warning":
		out.Events = []tutor.Event{tutor.EventWarning{
			Message: cmp.Or(raw.Description, raw.Message),
		}}

	case "AgentThinking", "PromptUpdated", "SpeakUpdated":
		// Progress notifications, nothing to surface.

	default:
		tutor.Logger().Debug("Ignoring unknown server frame type",
			slog.String("provider", "deepgram"),
			slog.String("type", raw.Type))
	}
	return out, nil
}

func mapRole(role string) tutor.Role {
	if role == "user" {
		return tutor.RoleUser
	}
	return tutor.RoleAgent
}
