// Package summary turns expense, income and investment records into totals,
// net worth and chart series for a time window. Everything here is pure: the
// caller supplies the records and the current moment.
package summary

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fintrack/fintrack/internal/model"
)

// ErrInvalidWindow is returned when a window name or its bounds are invalid.
var ErrInvalidWindow = errors.New("invalid time window")

// WindowKind names a time window.
type WindowKind string

const (
	AllTime       WindowKind = "all"
	ThisWeek      WindowKind = "week"
	ThisMonth     WindowKind = "month"
	LastSixMonths WindowKind = "six_months"
	ThisYear      WindowKind = "year"
	CustomRange   WindowKind = "custom"
)

var windowKinds = map[WindowKind]bool{
	AllTime:       true,
	ThisWeek:      true,
	ThisMonth:     true,
	LastSixMonths: true,
	ThisYear:      true,
	CustomRange:   true,
}

// dateLayout is the calendar date format used for labels and query bounds.
const dateLayout = "2006-01-02"

// CalendarZone is the zone calendar dates belong to. A record dated
// 2024-06-01 is midnight here, so summaries over stored records resolve
// their windows and labels here as well.
var CalendarZone = time.UTC

// Window selects the records a summary is computed over.
// Start and End are only read for CustomRange.
type Window struct {
	Kind  WindowKind `json:"kind"`
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Custom builds an inclusive CustomRange window. Nil bounds fall back to the
// epoch and the current moment.
func Custom(start, end *time.Time) Window {
	return Window{Kind: CustomRange, Start: start, End: end}
}

// Bounds resolves the window against now. Named windows are open ended, so
// hasEnd is only true for CustomRange.
func (w Window) Bounds(now time.Time) (start, end time.Time, hasEnd bool) {
	loc := now.Location()
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)

	switch w.Kind {
	case ThisWeek:
		return midnight.AddDate(0, 0, -int(now.Weekday())), time.Time{}, false
	case ThisMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc), time.Time{}, false
	case LastSixMonths:
		return time.Date(y, m-6, 1, 0, 0, 0, 0, loc), time.Time{}, false
	case ThisYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc), time.Time{}, false
	case CustomRange:
		start = time.Unix(0, 0).In(loc)
		if w.Start != nil {
			start = *w.Start
		}
		end = now
		if w.End != nil {
			end = *w.End
		}
		return start, end, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// Contains reports whether t falls inside the window at the moment now.
func (w Window) Contains(t, now time.Time) bool {
	if w.Kind == AllTime || w.Kind == "" {
		return true
	}

	start, end, hasEnd := w.Bounds(now)
	if t.Before(start) {
		return false
	}
	if hasEnd && t.After(end) {
		return false
	}
	return true
}

// Filter returns the records whose date falls inside the window.
// The input order is preserved and the input slice is not modified.
func Filter(records []*model.Record, w Window, now time.Time) []*model.Record {
	out := make([]*model.Record, 0, len(records))
	for _, r := range records {
		if w.Contains(r.Date, now) {
			out = append(out, r)
		}
	}
	return out
}

// ParseWindow builds a Window from query parameters. Bounds may be calendar
// dates or RFC 3339 timestamps and are interpreted in loc; a calendar date
// used as end covers that whole day. Giving bounds without a window name
// selects CustomRange.
func ParseWindow(name, start, end string, loc *time.Location) (Window, error) {
	kind := WindowKind(strings.ToLower(strings.TrimSpace(name)))
	if kind == "" {
		kind = AllTime
		if start != "" || end != "" {
			kind = CustomRange
		}
	}

	if !windowKinds[kind] {
		return Window{}, fmt.Errorf("%w: unknown window %q", ErrInvalidWindow, name)
	}

	if kind != CustomRange {
		if start != "" || end != "" {
			return Window{}, fmt.Errorf("%w: start and end require the custom window", ErrInvalidWindow)
		}
		return Window{Kind: kind}, nil
	}

	w := Window{Kind: CustomRange}

	if start != "" {
		t, _, err := parseBound(start, loc)
		if err != nil {
			return Window{}, fmt.Errorf("%w: start: %v", ErrInvalidWindow, err)
		}
		w.Start = &t
	}

	if end != "" {
		t, dateOnly, err := parseBound(end, loc)
		if err != nil {
			return Window{}, fmt.Errorf("%w: end: %v", ErrInvalidWindow, err)
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		w.End = &t
	}

	if w.Start != nil && w.End != nil && w.Start.After(*w.End) {
		return Window{}, fmt.Errorf("%w: start is after end", ErrInvalidWindow)
	}

	return w, nil
}

func parseBound(value string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.ParseInLocation(dateLayout, value, loc); err == nil {
		return t, true, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expected YYYY-MM-DD or RFC 3339, got %q", value)
	}
	return t, false, nil
}
