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

package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrNotFound reports that no lesson matches the requested ID.
var ErrNotFound = errors.New("content: lesson not found")

// Library provides lessons to the application.
type Library interface {
	// Lesson retrieves a single lesson by ID.
	Lesson(ctx context.Context, id string) (*Lesson, error)

	// Lessons lists the lessons for a language, optionally narrowed to one
	// CEFR level. A blank level matches all levels.
	Lessons(ctx context.Context, language, level string) ([]Lesson, error)

	// Close releases the library's resources.
	Close() error
}

// StaticLibrary is an in-memory Library, for tests and offline defaults.
// It preserves insertion order and is safe for concurrent use.
type StaticLibrary struct {
	mu      sync.RWMutex
	lessons map[string]Lesson
	order   []string
}

func NewStaticLibrary(lessons ...Lesson) *StaticLibrary {
	s := &StaticLibrary{lessons: make(map[string]Lesson, len(lessons))}
	for _, lesson := range lessons {
		s.Add(lesson)
	}
	return s
}

// Add inserts or replaces a lesson.
func (s *StaticLibrary) Add(lesson Lesson) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lessons[lesson.ID]; !ok {
		s.order = append(s.order, lesson.ID)
	}
	s.lessons[lesson.ID] = lesson
}

// AddDocument validates, parses and inserts a JSON lesson document.
func (s *StaticLibrary) AddDocument(data []byte) error {
	lesson, err := ParseLessonDocument(data)
	if err != nil {
		return err
	}
	s.Add(*lesson)
	return nil
}

func (s *StaticLibrary) Lesson(_ context.Context, id string) (*Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lesson, ok := s.lessons[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return &lesson, nil
}

func (s *StaticLibrary) Lessons(_ context.Context, language, level string) ([]Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Lesson
	for _, id := range s.order {
		lesson := s.lessons[id]
		if !strings.EqualFold(lesson.Language, language) {
			continue
		}
		if level != "" && lesson.Level != level {
			continue
		}
		out = append(out, lesson)
	}
	return out, nil
}

func (s *StaticLibrary) Close() error {
	return nil
}

var _ Library = (*StaticLibrary)(nil)
