package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Break is an explicit, user-declared rest period. Breaks are never
// created by the monitor.
type Break struct {
	ID       int64
	Date     string
	Start    time.Time
	End      time.Time
	Duration time.Duration
	Reason   string
}

// InsertBreak records a break. The duration is derived from the
// start/end pair when not set.
func (db *DB) InsertBreak(b *Break) (int64, error) {
	if b.Duration == 0 {
		b.Duration = b.End.Sub(b.Start)
	}
	if b.Duration < 0 {
		return 0, fmt.Errorf("break ends before it starts")
	}
	if b.Date == "" {
		b.Date = DateKey(b.Start)
	}

	result, err := db.Exec(
		`INSERT INTO breaks (date, start_time, end_time, duration_seconds, reason)
		 VALUES (?, ?, ?, ?, ?)`,
		b.Date,
		b.Start.UTC().Format(time.RFC3339),
		b.End.UTC().Format(time.RFC3339),
		int64(b.Duration.Seconds()),
		b.Reason,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting break: %w", err)
	}
	return result.LastInsertId()
}

// FetchBreaks returns the breaks recorded for a date, ordered by start.
func (db *DB) FetchBreaks(day time.Time) ([]Break, error) {
	rows, err := db.Query(
		`SELECT id, date, start_time, end_time, duration_seconds, reason FROM breaks
		 WHERE date = ?
		 ORDER BY start_time ASC`,
		DateKey(day),
	)
	if err != nil {
		return nil, fmt.Errorf("querying breaks: %w", err)
	}
	defer rows.Close()

	var breaks []Break
	for rows.Next() {
		var b Break
		var startStr, endStr string
		var seconds int64
		var reason sql.NullString

		if err := rows.Scan(&b.ID, &b.Date, &startStr, &endStr, &seconds, &reason); err != nil {
			return nil, fmt.Errorf("scanning break: %w", err)
		}

		if t, err := time.Parse(time.RFC3339, startStr); err == nil {
			b.Start = t.Local()
		}
		if t, err := time.Parse(time.RFC3339, endStr); err == nil {
			b.End = t.Local()
		}
		b.Duration = time.Duration(seconds) * time.Second
		b.Reason = reason.String

		breaks = append(breaks, b)
	}

	return breaks, rows.Err()
}
