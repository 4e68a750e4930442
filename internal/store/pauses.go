package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Pause is an automatically detected inactivity period. While End is
// the zero time the pause is open and owned by the monitor process.
type Pause struct {
	ID       int64
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

func (p Pause) Open() bool {
	return p.End.IsZero()
}

// InsertPauseStart opens a new pause and returns its id.
func (db *DB) InsertPauseStart(start time.Time) (int64, error) {
	result, err := db.Exec(
		`INSERT INTO pauses (start_time) VALUES (?)`,
		start.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting pause: %w", err)
	}
	return result.LastInsertId()
}

// FinalizePause sets end and duration on an open pause.
func (db *DB) FinalizePause(id int64, end time.Time) error {
	var startStr string
	err := db.QueryRow(`SELECT start_time FROM pauses WHERE id = ?`, id).Scan(&startStr)
	if err != nil {
		return fmt.Errorf("querying pause %d: %w", id, err)
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return fmt.Errorf("parsing pause start: %w", err)
	}

	duration := end.Sub(start)
	if duration < 0 {
		duration = 0
	}

	_, err = db.Exec(
		`UPDATE pauses SET end_time = ?, duration_seconds = ? WHERE id = ?`,
		end.UTC().Format(time.RFC3339), int64(duration.Seconds()), id,
	)
	if err != nil {
		return fmt.Errorf("finalizing pause %d: %w", id, err)
	}
	return nil
}

// OpenPause returns the most recent unfinalized pause, or nil.
func (db *DB) OpenPause() (*Pause, error) {
	pauses, err := db.queryPauses(
		`SELECT id, start_time, end_time, duration_seconds FROM pauses
		 WHERE end_time IS NULL
		 ORDER BY start_time DESC
		 LIMIT 1`,
	)
	if err != nil {
		return nil, err
	}
	if len(pauses) == 0 {
		return nil, nil
	}
	return &pauses[0], nil
}

// FetchPauses returns the finalized pauses starting on the given date
// with duration of at least minDuration, ordered by start.
func (db *DB) FetchPauses(day time.Time, minDuration time.Duration) ([]Pause, error) {
	dayStart, dayEnd := dayBounds(day)
	return db.queryPauses(
		`SELECT id, start_time, end_time, duration_seconds FROM pauses
		 WHERE end_time IS NOT NULL
		   AND start_time >= ? AND start_time < ?
		   AND duration_seconds >= ?
		 ORDER BY start_time ASC`,
		dayStart.UTC().Format(time.RFC3339),
		dayEnd.UTC().Format(time.RFC3339),
		int64(minDuration.Seconds()),
	)
}

func (db *DB) queryPauses(query string, args ...interface{}) ([]Pause, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying pauses: %w", err)
	}
	defer rows.Close()

	var pauses []Pause
	for rows.Next() {
		var p Pause
		var startStr string
		var endStr sql.NullString
		var seconds sql.NullInt64

		if err := rows.Scan(&p.ID, &startStr, &endStr, &seconds); err != nil {
			return nil, fmt.Errorf("scanning pause: %w", err)
		}

		if t, err := time.Parse(time.RFC3339, startStr); err == nil {
			p.Start = t.Local()
		}
		if endStr.Valid {
			if t, err := time.Parse(time.RFC3339, endStr.String); err == nil {
				p.End = t.Local()
			}
		}
		if seconds.Valid {
			p.Duration = time.Duration(seconds.Int64) * time.Second
		}

		pauses = append(pauses, p)
	}

	return pauses, rows.Err()
}
