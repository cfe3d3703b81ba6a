package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

const staticFrameRowID = 1

const (
	upsertStaticFrameSQL = `
		INSERT INTO static_frame (id, frame_values, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			frame_values=excluded.frame_values,
			updated_at=excluded.updated_at
	`

	selectStaticFrameSQL = `
		SELECT frame_values FROM static_frame WHERE id=?
	`

	insertEventSQL = `
		INSERT INTO dimmer_events (id, occurred_at, type, detail)
		VALUES (?, ?, ?, ?)
	`

	selectRecentEventsSQL = `
		SELECT id, occurred_at, type, detail
		FROM dimmer_events ORDER BY occurred_at DESC LIMIT ?
	`
)

// Event is one advisory log entry.
type Event struct {
	ID         string
	OccurredAt time.Time
	Type       string
	Detail     string
}

// Event types recorded by the daemon.
const (
	EventStartup         = "STARTUP"
	EventShutdown        = "SHUTDOWN"
	EventSignalLost      = "SIGNAL_LOST"
	EventSignalRecovered = "SIGNAL_RECOVERED"
)

// Store persists the static frame and the event log.
type Store struct {
	db *sql.DB
}

// New creates a Store on the given database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveStaticFrame upserts the singleton static frame row (id always 1).
func (s *Store) SaveStaticFrame(ctx context.Context, values []uint8) error {
	encoded, err := json.Marshal(values)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, upsertStaticFrameSQL,
		staticFrameRowID,
		string(encoded),
		time.Now().UTC(),
	)
	return err
}

// LoadStaticFrame fetches the persisted static frame. The second result is
// false when no frame has ever been saved; that is not an error.
func (s *Store) LoadStaticFrame(ctx context.Context) ([]uint8, bool, error) {
	row := s.db.QueryRowContext(ctx, selectStaticFrameSQL, staticFrameRowID)

	var encoded string
	if err := row.Scan(&encoded); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var values []uint8
	if err := json.Unmarshal([]byte(encoded), &values); err != nil {
		return nil, false, err
	}
	return values, true, nil
}

// AppendEvent records one advisory event.
func (s *Store) AppendEvent(ctx context.Context, evtType, detail string) error {
	_, err := s.db.ExecContext(ctx, insertEventSQL,
		uuid.NewString(),
		time.Now().UTC(),
		evtType,
		detail,
	)
	return err
}

// RecentEvents returns up to limit events, newest first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, selectRecentEventsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.OccurredAt, &e.Type, &detail); err != nil {
			return nil, err
		}
		e.Detail = detail.String
		e.OccurredAt = e.OccurredAt.UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}
