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
	"cmp"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/supabase-community/supabase-go"
)

// SupabaseConfig holds the connection configuration for a SupabaseLibrary.
type SupabaseConfig struct {
	URL    string
	APIKey string

	// Table is the lessons table name. Defaults to "lessons".
	Table string

	// CacheTTL bounds how long fetched lessons are served from memory.
	// Defaults to 5 minutes.
	CacheTTL time.Duration
}

// SupabaseLibrary is a Library backed by a Supabase lessons table, with a
// TTL read-through cache: lesson content changes rarely, so repeated reads
// within the TTL never hit the network.
type SupabaseLibrary struct {
	client   *supabase.Client
	table    string
	cacheTTL time.Duration

	mu     sync.RWMutex
	byID   map[string]cacheEntry[Lesson]
	byList map[string]cacheEntry[[]Lesson]
}

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func NewSupabaseLibrary(cfg SupabaseConfig) (*SupabaseLibrary, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("content: supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("content: supabase API key is required")
	}
	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("content: failed to create supabase client: %w", err)
	}
	return &SupabaseLibrary{
		client:   client,
		table:    cmp.Or(cfg.Table, "lessons"),
		cacheTTL: cmp.Or(cfg.CacheTTL, 5*time.Minute),
		byID:     make(map[string]cacheEntry[Lesson]),
		byList:   make(map[string]cacheEntry[[]Lesson]),
	}, nil
}

func (s *SupabaseLibrary) Lesson(_ context.Context, id string) (*Lesson, error) {
	if lesson, ok := s.cachedLesson(id); ok {
		return &lesson, nil
	}

	var lessons []Lesson
	_, err := s.client.From(s.table).
		Select("*", "", false).
		Eq("id", id).
		ExecuteTo(&lessons)
	if err != nil {
		return nil, fmt.Errorf("content: failed to get lesson: %w", err)
	}
	if len(lessons) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	lesson := lessons[0]
	s.storeLesson(lesson)
	return &lesson, nil
}

func (s *SupabaseLibrary) Lessons(_ context.Context, language, level string) ([]Lesson, error) {
	key := language + "\x00" + level
	if lessons, ok := s.cachedList(key); ok {
		return lessons, nil
	}

	query := s.client.From(s.table).
		Select("*", "", false).
		Eq("language", language)
	if level != "" {
		query = query.Eq("level", level)
	}

	var lessons []Lesson
	if _, err := query.ExecuteTo(&lessons); err != nil {
		return nil, fmt.Errorf("content: failed to list lessons: %w", err)
	}

	s.mu.Lock()
	s.byList[key] = cacheEntry[[]Lesson]{value: lessons, expiresAt: time.Now().Add(s.cacheTTL)}
	for _, lesson := range lessons {
		s.byID[lesson.ID] = cacheEntry[Lesson]{value: lesson, expiresAt: time.Now().Add(s.cacheTTL)}
	}
	s.mu.Unlock()

	return lessons, nil
}

// Close releases the library. The Supabase client holds no connections that
// require an explicit close.
func (s *SupabaseLibrary) Close() error {
	return nil
}

func (s *SupabaseLibrary) cachedLesson(id string) (Lesson, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.byID[id]; ok && time.Now().Before(e.expiresAt) {
		return e.value, true
	}
	return Lesson{}, false
}

func (s *SupabaseLibrary) cachedList(key string) ([]Lesson, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.byList[key]; ok && time.Now().Before(e.expiresAt) {
		return e.value, true
	}
	return nil, false
}

func (s *SupabaseLibrary) storeLesson(lesson Lesson) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[lesson.ID] = cacheEntry[Lesson]{value: lesson, expiresAt: time.Now().Add(s.cacheTTL)}
}

var _ Library = (*SupabaseLibrary)(nil)
