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

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Event is a provider-independent session event, delivered to the OnEvent
// callback in the order the provider produced it.
type Event interface {
	isEvent()
}

// EventConnectionOpened signals that the provider accepted the connection.
type EventConnectionOpened struct{}

func (EventConnectionOpened) isEvent() {}

// EventReady signals that the provider acknowledged the session settings.
// Audio only flows after this event.
type EventReady struct{}

func (EventReady) isEvent() {}

// EventConversationText carries a transcript fragment of either speaker.
// A non-final fragment may be replaced by a later fragment of the same turn.
type EventConversationText struct {
	Role   Role
	Text   string
	Final  bool
	TurnID string
}

func (EventConversationText) isEvent() {}

// EventUserStartedSpeaking signals that the provider detected user speech.
type EventUserStartedSpeaking struct{}

func (EventUserStartedSpeaking) isEvent() {}

// EventAgentStartedSpeaking signals the beginning of an agent utterance.
type EventAgentStartedSpeaking struct{}

func (EventAgentStartedSpeaking) isEvent() {}

// EventAgentAudioDone signals that the agent utterance audio is complete.
type EventAgentAudioDone struct{}

func (EventAgentAudioDone) isEvent() {}

// EventError carries a provider-reported error. It is data, not a
// connection failure: the session keeps running unless the transport drops.
type EventError struct {
	Code        string
	Description string
}

func (EventError) isEvent() {}

// EventWarning carries a provider-reported warning.
type EventWarning struct {
	Message string
}

func (EventWarning) isEvent() {}
