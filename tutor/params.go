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

import "fmt"

// CaptureMode selects how microphone audio enters the session.
type CaptureMode int

const (
	// PushToTalk streams microphone audio only between StartCapture and
	// StopCapture.
	PushToTalk CaptureMode = iota

	// Continuous streams microphone audio for the whole session; the
	// provider's voice activity detection segments the turns.
	Continuous
)

func (m CaptureMode) String() string {
	switch m {
	case PushToTalk:
		return "push-to-talk"
	case Continuous:
		return "continuous"
	default:
		return fmt.Sprintf("CaptureMode(%d)", int(m))
	}
}

// SessionParams configures one tutoring session. The engine retains the
// params for the lifetime of the session, e.g. to re-establish a dropped
// connection with the same configuration.
type SessionParams struct {
	// APIKey authenticates against the provider. Required.
	APIKey string

	// AgentID selects a provider-hosted agent configuration, for providers
	// that use one.
	AgentID string

	// Language is the tutoring target language (BCP 47 or provider tag).
	Language string

	// Level is the learner's proficiency level, free-form (e.g. "B1").
	Level string

	// Scenario is a short description of the conversation setting.
	Scenario string

	// Instructions is the system prompt handed to the remote agent.
	Instructions string

	// Greeting is spoken by the agent as soon as the session is ready.
	Greeting string

	// Mode selects push-to-talk or continuous capture. Defaults to
	// PushToTalk.
	Mode CaptureMode

	// OnEvent receives normalized session events. Optional.
	OnEvent func(Event)

	// OnAgentAudio receives every synthesized audio chunk as it arrives,
	// e.g. for recording. Optional.
	OnAgentAudio func([]byte)

	// OnUserAudio receives every captured microphone chunk as it is sent,
	// e.g. for recording. Optional.
	OnUserAudio func([]byte)
}

func (p SessionParams) validate() error {
	if p.APIKey == "" {
		return NewSetupError("session params: API key must not be blank")
	}
	return nil
}
