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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLessons() []Lesson {
	return []Lesson{
		{ID: "it-a1-greetings", Language: "Italian", Level: "A1", Title: "Saluti", Scenario: "Meeting someone new."},
		{ID: "it-b1-restaurant", Language: "Italian", Level: "B1", Title: "Al ristorante", Scenario: "Ordering dinner."},
		{ID: "es-a1-greetings", Language: "Spanish", Level: "A1", Title: "Saludos", Scenario: "Meeting someone new."},
	}
}

func TestStaticLibraryLesson(t *testing.T) {
	lib := NewStaticLibrary(testLessons()...)

	lesson, err := lib.Lesson(t.Context(), "it-b1-restaurant")
	require.NoError(t, err)
	assert.Equal(t, "Al ristorante", lesson.Title)

	_, err = lib.Lesson(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStaticLibraryLessons(t *testing.T) {
	lib := NewStaticLibrary(testLessons()...)

	t.Run("filters by language", func(t *testing.T) {
		lessons, err := lib.Lessons(t.Context(), "Italian", "")
		require.NoError(t, err)
		require.Len(t, lessons, 2)
		assert.Equal(t, "it-a1-greetings", lessons[0].ID)
		assert.Equal(t, "it-b1-restaurant", lessons[1].ID)
	})

	t.Run("language match is case-insensitive", func(t *testing.T) {
		lessons, err := lib.Lessons(t.Context(), "italian", "")
		require.NoError(t, err)
		assert.Len(t, lessons, 2)
	})

	t.Run("narrows to one level", func(t *testing.T) {
		lessons, err := lib.Lessons(t.Context(), "Italian", "B1")
		require.NoError(t, err)
		require.Len(t, lessons, 1)
		assert.Equal(t, "it-b1-restaurant", lessons[0].ID)
	})

	t.Run("no match", func(t *testing.T) {
		lessons, err := lib.Lessons(t.Context(), "Italian", "C2")
		require.NoError(t, err)
		assert.Empty(t, lessons)
	})
}

func TestStaticLibraryAddReplaces(t *testing.T) {
	lib := NewStaticLibrary(testLessons()...)

	lib.Add(Lesson{ID: "it-a1-greetings", Language: "Italian", Level: "A1", Title: "Saluti e presentazioni", Scenario: "Meeting someone new."})

	lesson, err := lib.Lesson(t.Context(), "it-a1-greetings")
	require.NoError(t, err)
	assert.Equal(t, "Saluti e presentazioni", lesson.Title)

	// Replacing must not duplicate the list entry.
	lessons, err := lib.Lessons(t.Context(), "Italian", "")
	require.NoError(t, err)
	assert.Len(t, lessons, 2)
}

func TestStaticLibraryAddDocument(t *testing.T) {
	lib := NewStaticLibrary()

	require.NoError(t, lib.AddDocument([]byte(validLessonDocument)))
	lesson, err := lib.Lesson(t.Context(), "it-b1-restaurant")
	require.NoError(t, err)
	assert.Equal(t, "Al ristorante", lesson.Title)

	assert.Error(t, lib.AddDocument([]byte(`{"id": "broken"}`)))
}
