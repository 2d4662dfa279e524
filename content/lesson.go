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

// Package content manages the lesson catalog: scenario documents that
// configure tutoring sessions.
package content

import (
	"cmp"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/nlpodyssey/linguavoce/tutor"
	"github.com/xeipuuv/gojsonschema"
)

// Lesson is one conversational scenario the learner can practice.
type Lesson struct {
	ID       string `json:"id"`
	Language string `json:"language"`

	// Level is the CEFR level the lesson targets, A1 through C2.
	Level string `json:"level"`

	Title    string `json:"title"`
	Scenario string `json:"scenario"`

	// Instructions extend the tutor's system prompt for this scenario.
	Instructions string `json:"instructions,omitempty"`

	// Greeting opens the conversation when the session becomes ready.
	Greeting string `json:"greeting,omitempty"`

	// Vocabulary lists expressions the tutor should work into the
	// conversation.
	Vocabulary []string `json:"vocabulary,omitempty"`

	Tags []string `json:"tags,omitempty"`
}

// ApplyTo fills the session parameters the lesson prescribes, leaving any
// value the caller already set untouched.
func (l Lesson) ApplyTo(params *tutor.SessionParams) {
	params.Language = cmp.Or(params.Language, l.Language)
	params.Level = cmp.Or(params.Level, l.Level)
	params.Scenario = cmp.Or(params.Scenario, l.Scenario)
	params.Instructions = cmp.Or(params.Instructions, l.Instructions)
	params.Greeting = cmp.Or(params.Greeting, l.Greeting)
}

const lessonSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["id", "language", "level", "title", "scenario"],
	"additionalProperties": false,
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"language": {"type": "string", "minLength": 2},
		"level": {"type": "string", "enum": ["A1", "A2", "B1", "B2", "C1", "C2"]},
		"title": {"type": "string", "minLength": 1},
		"scenario": {"type": "string", "minLength": 1},
		"instructions": {"type": "string"},
		"greeting": {"type": "string"},
		"vocabulary": {"type": "array", "items": {"type": "string"}},
		"tags": {"type": "array", "items": {"type": "string"}}
	}
}`

var compiledLessonSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(lessonSchema))
	if err != nil {
		return nil, fmt.Errorf("content: failed to compile lesson schema: %w", err)
	}
	return schema, nil
})

// ValidateLessonDocument checks a JSON lesson document against the lesson
// schema and reports all violations at once.
func ValidateLessonDocument(data []byte) error {
	schema, err := compiledLessonSchema()
	if err != nil {
		return err
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("content: failed to load and validate lesson document: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("content: lesson document validation failed with the following errors:\n")
	for _, e := range result.Errors() {
		_, _ = fmt.Fprintf(&sb, "- %s\n", e)
	}
	return fmt.Errorf("%s", sb.String())
}

// ParseLessonDocument validates and unmarshals a JSON lesson document.
func ParseLessonDocument(data []byte) (*Lesson, error) {
	if err := ValidateLessonDocument(data); err != nil {
		return nil, err
	}
	var lesson Lesson
	if err := json.Unmarshal(data, &lesson); err != nil {
		return nil, fmt.Errorf("content: error unmarshaling lesson document: %w", err)
	}
	return &lesson, nil
}
