// Package window splits an export time range into fixed-size request windows.
package window

import (
	"fmt"
	"time"
)

// Window is the time bounds of a single upstream request.
type Window struct {
	From time.Time
	To   time.Time
}

// FromMillis returns the window start as milliseconds since the Unix epoch.
func (w Window) FromMillis() int64 { return w.From.UnixMilli() }

// ToMillis returns the window end as milliseconds since the Unix epoch.
func (w Window) ToMillis() int64 { return w.To.UnixMilli() }

// FileName is the deterministic output file name for this window.
func (w Window) FileName() string {
	return fmt.Sprintf("%d_to_%d.jsonl", w.FromMillis(), w.ToMillis())
}

func (w Window) String() string {
	return fmt.Sprintf("[%d, %d]", w.FromMillis(), w.ToMillis())
}

// Cursor walks windows across [start, end]. It always yields at least one
// window, even when start == end, and clamps the last window to end.
type Cursor struct {
	size    time.Duration
	end     time.Time
	current Window
	started bool
}

// NewCursor creates a cursor over [start, end] with the given window size.
func NewCursor(start, end time.Time, size time.Duration) *Cursor {
	return &Cursor{
		size:    size,
		end:     end,
		current: Window{From: start, To: minTime(start.Add(size), end)},
	}
}

// Next advances the cursor and reports whether another window is available.
func (c *Cursor) Next() bool {
	if !c.started {
		c.started = true
		return true
	}
	if !c.current.To.Before(c.end) {
		return false
	}
	c.current = Window{
		From: c.current.From.Add(c.size),
		To:   minTime(c.current.To.Add(c.size), c.end),
	}
	return true
}

// Window returns the current window. Only valid after Next returns true.
func (c *Cursor) Window() Window {
	return c.current
}

// Plan returns every window in [start, end]. size must be positive.
func Plan(start, end time.Time, size time.Duration) []Window {
	var windows []Window
	c := NewCursor(start, end, size)
	for c.Next() {
		windows = append(windows, c.Window())
	}
	return windows
}

// Count returns ceil((end - start) / size), with a minimum of one.
func Count(start, end time.Time, size time.Duration) int {
	span := end.Sub(start)
	if span <= 0 {
		return 1
	}
	n := span / size
	if span%size != 0 {
		n++
	}
	return int(n)
}

func minTime(a, b time.Time) time.Time {
	if a.After(b) {
		return b
	}
	return a
}
