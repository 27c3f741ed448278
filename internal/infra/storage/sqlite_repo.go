package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event GameEvent) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, seq, session_id, timestamp, sim_time, event_type, actor_id, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.Seq, event.SessionID, event.Timestamp, event.SimTime,
		event.EventType, event.ActorID, string(payloadBytes),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

const eventColumns = `id, seq, session_id, timestamp, sim_time, event_type, actor_id, payload`

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]GameEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []GameEvent
	for rows.Next() {
		var e GameEvent
		var payloadStr string
		err := rows.Scan(
			&e.ID, &e.Seq, &e.SessionID, &e.Timestamp, &e.SimTime,
			&e.EventType, &e.ActorID, &payloadStr,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetBySessionID(ctx context.Context, sessionID string) ([]GameEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE session_id = ? ORDER BY seq ASC`
	return r.getMany(ctx, query, sessionID)
}

func (r *SQLiteEventRepository) GetByActorID(ctx context.Context, sessionID, actorID string) ([]GameEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE session_id = ? AND actor_id = ? ORDER BY seq ASC`
	return r.getMany(ctx, query, sessionID, actorID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, sessionID string, eventType string) ([]GameEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE session_id = ? AND event_type = ? ORDER BY seq ASC`
	return r.getMany(ctx, query, sessionID, eventType)
}

// ---------------------------------------------------------
// SQLiteSessionRepository
// ---------------------------------------------------------

// SQLiteSessionRepository implements SessionRepository for SQLite.
type SQLiteSessionRepository struct {
	db *sql.DB
}

func NewSQLiteSessionRepository(db *sql.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

func (r *SQLiteSessionRepository) RecordStart(ctx context.Context, sessionID string, startedAt time.Time) error {
	query := `INSERT INTO sessions (id, started_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, sessionID, startedAt)
	if err != nil {
		return fmt.Errorf("failed to record session start: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepository) RecordFinish(ctx context.Context, sessionID string, endedAt time.Time, survived float64, reason string) error {
	query := `
		INSERT INTO sessions (id, started_at, ended_at, survived_seconds, reason)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ended_at=excluded.ended_at,
			survived_seconds=excluded.survived_seconds,
			reason=excluded.reason
	`
	_, err := r.db.ExecContext(ctx, query, sessionID, endedAt, endedAt, survived, reason)
	if err != nil {
		return fmt.Errorf("failed to record session finish: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepository) Get(ctx context.Context, sessionID string) (*SessionRecord, error) {
	query := `SELECT id, started_at, ended_at, survived_seconds, reason FROM sessions WHERE id = ?`
	rec, err := scanSession(r.db.QueryRowContext(ctx, query, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *SQLiteSessionRepository) Top(ctx context.Context, n int) ([]SessionRecord, error) {
	query := `
		SELECT id, started_at, ended_at, survived_seconds, reason FROM sessions
		WHERE ended_at IS NOT NULL
		ORDER BY survived_seconds DESC, ended_at ASC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*SessionRecord, error) {
	var rec SessionRecord
	var ended sql.NullTime
	if err := row.Scan(&rec.ID, &rec.StartedAt, &ended, &rec.Survived, &rec.Reason); err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		rec.EndedAt = &t
	}
	return &rec, nil
}

// ---------------------------------------------------------
// SQLiteBestTimeStore
// ---------------------------------------------------------

// SQLiteBestTimeStore keeps one best survival time per profile.
type SQLiteBestTimeStore struct {
	db        *sql.DB
	profileID string
}

func NewSQLiteBestTimeStore(db *sql.DB, profileID string) *SQLiteBestTimeStore {
	return &SQLiteBestTimeStore{db: db, profileID: profileID}
}

// ReadBestTime returns 0 when the profile has no record yet.
func (s *SQLiteBestTimeStore) ReadBestTime(ctx context.Context) (float64, error) {
	var best float64
	err := s.db.QueryRowContext(ctx,
		`SELECT best_seconds FROM best_times WHERE profile_id = ?`, s.profileID,
	).Scan(&best)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read best time: %w", err)
	}
	return best, nil
}

func (s *SQLiteBestTimeStore) WriteBestTime(ctx context.Context, seconds float64) error {
	query := `
		INSERT INTO best_times (profile_id, best_seconds, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(profile_id) DO UPDATE SET
			best_seconds=excluded.best_seconds,
			updated_at=excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, s.profileID, seconds, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write best time: %w", err)
	}
	return nil
}
