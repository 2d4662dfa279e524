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

// Package transcript assembles ordered conversation turns from the
// session's conversation-text events.
package transcript

import (
	"slices"
	"strings"
	"sync"

	"github.com/nlpodyssey/linguavoce/tutor"
)

// Turn is one committed utterance of either speaker.
type Turn struct {
	Role   tutor.Role
	Text   string
	TurnID string
}

// Builder accumulates conversation-text events into ordered turns.
// Non-final fragments replace the speaker's pending text until a final
// fragment commits the turn. A final fragment carrying the same non-blank
// turn ID as an already committed turn revises that turn in place, e.g.
// when the agent corrects a response truncated by an interruption.
//
// Builder is safe for concurrent use: events arrive from the engine's
// callback goroutine while readers render from their own.
type Builder struct {
	mu      sync.Mutex
	turns   []Turn
	pending map[tutor.Role]string
}

func NewBuilder() *Builder {
	return &Builder{pending: make(map[tutor.Role]string, 2)}
}

// OnEvent consumes one session event. It can be wired directly as the
// engine's OnEvent callback; events other than conversation text are
// ignored.
func (b *Builder) OnEvent(ev tutor.Event) {
	text, ok := ev.(tutor.EventConversationText)
	if !ok || text.Text == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !text.Final {
		b.pending[text.Role] = text.Text
		return
	}
	delete(b.pending, text.Role)

	if text.TurnID != "" {
		for i := len(b.turns) - 1; i >= 0; i-- {
			if b.turns[i].TurnID == text.TurnID && b.turns[i].Role == text.Role {
				b.turns[i].Text = text.Text
				return
			}
		}
	}
	b.turns = append(b.turns, Turn{Role: text.Role, Text: text.Text, TurnID: text.TurnID})
}

// Turns returns the committed turns in conversation order.
func (b *Builder) Turns() []Turn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.turns)
}

// Pending returns the speaker's latest uncommitted fragment, if any.
func (b *Builder) Pending(role tutor.Role) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	text, ok := b.pending[role]
	return text, ok
}

// Len returns the number of committed turns.
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.turns)
}

// Reset discards all committed turns and pending fragments.
func (b *Builder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.turns = nil
	clear(b.pending)
}

// Render returns the conversation as plain text, one labeled turn per line:
//
//	user: Dov'è la stazione?
//	agent: Sempre dritto, poi a destra.
func (b *Builder) Render() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var sb strings.Builder
	for i, turn := range b.turns {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(string(turn.Role))
		sb.WriteString(": ")
		sb.WriteString(turn.Text)
	}
	return sb.String()
}
