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

// Package history persists completed tutoring sessions and aggregates them
// into per-language learning progress.
package history

import (
	"context"
	"time"
)

// SessionRecord is one completed tutoring session.
type SessionRecord struct {
	// ID is the session identifier assigned by the engine.
	ID string

	// Language is the target language practiced in this session.
	Language string

	// Level is the learner's proficiency level at session time.
	Level string

	// Scenario is the conversation scenario, if any.
	Scenario string

	// StartedAt is when the session began.
	StartedAt time.Time

	// Duration is the total session length.
	Duration time.Duration

	// Turns is the number of conversational turns, both roles counted.
	Turns int

	// Fluency is the feedback fluency score in [0, 100].
	// Zero means no feedback was generated for this session.
	Fluency float64

	// Transcript is the rendered conversation text.
	Transcript string

	// Summary is the feedback summary, if feedback was generated.
	Summary string
}

// ProgressSummary aggregates a learner's sessions for one target language.
type ProgressSummary struct {
	Language string

	// Sessions is the number of recorded sessions.
	Sessions int

	// SpeakingTime is the cumulative session duration.
	SpeakingTime time.Duration

	// MeanFluency averages the fluency scores of the sessions that have
	// one; zero when none do.
	MeanFluency float64

	// LastSessionAt is the start time of the most recent session, or the
	// zero time when there are no sessions.
	LastSessionAt time.Time
}

// A Store persists tutoring sessions and derives progress from them.
type Store interface {
	// SaveSession inserts a session record, or replaces it if a record
	// with the same ID exists. A session is typically saved right after
	// it ends and saved again once feedback analysis completes.
	SaveSession(ctx context.Context, rec SessionRecord) error

	// Session retrieves one session by ID. It returns nil if no session
	// with that ID is stored.
	Session(ctx context.Context, id string) (*SessionRecord, error)

	// Sessions retrieves stored sessions in chronological order.
	//
	// `limit` is the maximum number of sessions to retrieve. If <= 0,
	// retrieves all of them. When specified, returns the latest N in
	// chronological order.
	Sessions(ctx context.Context, limit int) ([]SessionRecord, error)

	// Progress aggregates the sessions recorded for a target language.
	Progress(ctx context.Context, language string) (ProgressSummary, error)

	// Close releases the underlying database connection.
	Close(ctx context.Context) error
}
