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

package history

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is a SQLite-based implementation of Store.
//
// This is the local desktop store. By default it uses an in-memory database
// that is lost when the process ends; for persistent storage, provide a
// file path.
type SQLiteStore struct {
	dbDSN         string
	sessionsTable string
	db            *sql.DB
	mu            sync.Mutex
}

type SQLiteStoreParams struct {
	// Optional database data source name.
	// Defaults to "file::memory:?cache=shared" (in-memory database).
	DBDataSourceName string

	// Optional name of the table to store session records.
	// Defaults to "tutor_sessions".
	SessionsTable string
}

// NewSQLiteStore initializes the SQLite store.
func NewSQLiteStore(ctx context.Context, params SQLiteStoreParams) (_ *SQLiteStore, err error) {
	s := &SQLiteStore{
		dbDSN:         cmp.Or(params.DBDataSourceName, "file::memory:?cache=shared"),
		sessionsTable: cmp.Or(params.SessionsTable, "tutor_sessions"),
	}

	defer func() {
		if err != nil && s.db != nil {
			if e := s.db.Close(); e != nil {
				err = errors.Join(err, e)
			}
		}
	}()

	s.db, err = sql.Open("sqlite3", s.dbDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite3 database: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `PRAGMA journal_mode=WAL`)
	if err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	err = s.initDB(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) SaveSession(ctx context.Context, rec SessionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("session record ID must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT OR REPLACE INTO "%s"
			(id, language, level, scenario, started_at, duration_ms, turns, fluency, transcript, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.sessionsTable),
		rec.ID, rec.Language, rec.Level, rec.Scenario,
		rec.StartedAt.Unix(), rec.Duration.Milliseconds(), rec.Turns,
		rec.Fluency, rec.Transcript, rec.Summary,
	)
	if err != nil {
		return fmt.Errorf("error inserting session record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Session(ctx context.Context, id string) (*SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, language, level, scenario, started_at, duration_ms, turns, fluency, transcript, summary
		FROM "%s" WHERE id = ?
	`, s.sessionsTable), id)

	rec, err := scanSessionRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying session record: %w", err)
	}
	return &rec, nil
}

func (s *SQLiteStore) Sessions(ctx context.Context, limit int) (_ []SessionRecord, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	if limit <= 0 {
		// Fetch all sessions in chronological order
		rows, err = s.db.QueryContext(ctx, fmt.Sprintf(`
			SELECT id, language, level, scenario, started_at, duration_ms, turns, fluency, transcript, summary
			FROM "%s"
			ORDER BY started_at ASC
		`, s.sessionsTable))
	} else {
		// Fetch the latest N sessions in chronological order
		rows, err = s.db.QueryContext(ctx, fmt.Sprintf(`
			SELECT id, language, level, scenario, started_at, duration_ms, turns, fluency, transcript, summary
			FROM "%s"
			ORDER BY started_at DESC
			LIMIT ?
		`, s.sessionsTable), limit)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying session records: %w", err)
	}
	defer func() {
		if e := rows.Close(); e != nil {
			err = errors.Join(err, fmt.Errorf("error closing sql.Rows: %w", e))
		}
	}()

	var recs []SessionRecord
	for rows.Next() {
		rec, err := scanSessionRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sql rows scan error: %w", err)
		}
		recs = append(recs, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sql rows scan error: %w", err)
	}

	// Reverse to get chronological order when using DESC
	if limit > 0 {
		slices.Reverse(recs)
	}

	return recs, nil
}

func (s *SQLiteStore) Progress(ctx context.Context, language string) (ProgressSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		count      int
		durationMS int64
		fluency    sql.NullFloat64
		lastUnix   sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*), COALESCE(SUM(duration_ms), 0), AVG(NULLIF(fluency, 0)), MAX(started_at)
		FROM "%s" WHERE language = ?
	`, s.sessionsTable), language).Scan(&count, &durationMS, &fluency, &lastUnix)
	if err != nil {
		return ProgressSummary{}, fmt.Errorf("error querying progress: %w", err)
	}

	summary := ProgressSummary{
		Language:     language,
		Sessions:     count,
		SpeakingTime: time.Duration(durationMS) * time.Millisecond,
		MeanFluency:  fluency.Float64,
	}
	if lastUnix.Valid {
		summary.LastSessionAt = time.Unix(lastUnix.Int64, 0)
	}
	return summary, nil
}

// Initialize the database schema.
func (s *SQLiteStore) initDB(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s" (
			id TEXT PRIMARY KEY,
			language TEXT NOT NULL,
			level TEXT NOT NULL,
			scenario TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			turns INTEGER NOT NULL,
			fluency REAL NOT NULL,
			transcript TEXT NOT NULL,
			summary TEXT NOT NULL
		)
	`, s.sessionsTable))
	if err != nil {
		return fmt.Errorf("error creating sessions table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS "idx_%s_language" ON "%s" (language, started_at)`,
		s.sessionsTable, s.sessionsTable))
	if err != nil {
		return fmt.Errorf("error creating index: %w", err)
	}

	return nil
}

// Close the database connection.
func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

// scanSessionRecord reads one record from a row scanner, converting the
// stored unix-seconds start time and millisecond duration back to Go types.
func scanSessionRecord(scan func(dest ...any) error) (SessionRecord, error) {
	var (
		rec        SessionRecord
		startUnix  int64
		durationMS int64
	)
	err := scan(&rec.ID, &rec.Language, &rec.Level, &rec.Scenario,
		&startUnix, &durationMS, &rec.Turns, &rec.Fluency, &rec.Transcript, &rec.Summary)
	if err != nil {
		return SessionRecord{}, err
	}
	rec.StartedAt = time.Unix(startUnix, 0)
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	return rec, nil
}
