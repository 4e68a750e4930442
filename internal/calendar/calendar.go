// Package calendar imports iCalendar events as explicit breaks.
package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"

	"github.com/tempus-cli/tempus/internal/store"
)

// Event is a parsed calendar event.
type Event struct {
	Summary string
	Start   time.Time
	End     time.Time
}

// Events retrieves and parses iCalendar data from a URL or file path,
// returning the events that overlap with the given calendar day.
func Events(ctx context.Context, source string, day time.Time) ([]Event, error) {
	local := day.Local()
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var r io.ReadCloser

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching calendar: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("calendar fetch returned status %d", resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("opening calendar file: %w", err)
		}
		r = f
	}
	defer r.Close()

	dec := ical.NewDecoder(r)
	var events []Event

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing calendar: %w", err)
		}

		for _, component := range cal.Children {
			if component.Name != ical.CompEvent {
				continue
			}
			event := ical.Event{Component: component}

			start, err := event.DateTimeStart(nil)
			if err != nil {
				continue // skip malformed events
			}
			end, err := event.DateTimeEnd(nil)
			if err != nil {
				continue
			}

			if start.Before(dayEnd) && end.After(dayStart) {
				summary, _ := event.Props.Text(ical.PropSummary)
				events = append(events, Event{
					Summary: summary,
					Start:   start,
					End:     end,
				})
			}
		}
	}

	return events, nil
}

// Breaks converts events into break rows, using the event summary as
// the break reason.
func Breaks(events []Event) []store.Break {
	breaks := make([]store.Break, 0, len(events))
	for _, e := range events {
		breaks = append(breaks, store.Break{
			Date:     store.DateKey(e.Start),
			Start:    e.Start,
			End:      e.End,
			Duration: e.End.Sub(e.Start),
			Reason:   e.Summary,
		})
	}
	return breaks
}
