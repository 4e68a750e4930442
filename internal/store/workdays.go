package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Workday is one calendar day's work session. End is the zero time
// while the day is still open.
type Workday struct {
	ID    int64
	Date  string
	Start time.Time
	End   time.Time
}

func (w Workday) Open() bool {
	return w.End.IsZero()
}

// FetchWorkday returns the workday row for the given date, or nil if
// none exists.
func (db *DB) FetchWorkday(day time.Time) (*Workday, error) {
	var w Workday
	var endStr sql.NullString
	var startStr string

	err := db.QueryRow(
		`SELECT id, date, start_time, end_time FROM workdays WHERE date = ?`,
		DateKey(day),
	).Scan(&w.ID, &w.Date, &startStr, &endStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying workday: %w", err)
	}

	if t, err := time.Parse(time.RFC3339, startStr); err == nil {
		w.Start = t.Local()
	}
	if endStr.Valid {
		if t, err := time.Parse(time.RFC3339, endStr.String); err == nil {
			w.End = t.Local()
		}
	}

	return &w, nil
}

// InsertWorkdayStart creates the workday row for the date of start.
// Inserting a second row for the same date is a no-op.
func (db *DB) InsertWorkdayStart(start time.Time) error {
	_, err := db.Exec(
		`INSERT INTO workdays (date, start_time) VALUES (?, ?)
		 ON CONFLICT(date) DO NOTHING`,
		DateKey(start), start.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting workday: %w", err)
	}
	return nil
}

// SetWorkdayEnd closes the workday for the date of end.
func (db *DB) SetWorkdayEnd(end time.Time) error {
	_, err := db.Exec(
		`UPDATE workdays SET end_time = ? WHERE date = ?`,
		end.UTC().Format(time.RFC3339), DateKey(end),
	)
	if err != nil {
		return fmt.Errorf("updating workday end: %w", err)
	}
	return nil
}
