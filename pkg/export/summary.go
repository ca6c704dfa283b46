package export

import (
	"time"

	"github.com/nicktill/logdna-export/pkg/window"
)

// WindowResult is the outcome of one window: either a written file or an error.
type WindowResult struct {
	Window   window.Window
	Path     string
	Bytes    int64
	Checksum uint64 // xxhash64 of the body
	Err      error
}

// OK reports whether the window was written.
func (r WindowResult) OK() bool {
	return r.Err == nil
}

// Summary collects the per-window results of a run, in window order.
type Summary struct {
	Dir      string
	Results  []WindowResult
	Started  time.Time
	Finished time.Time
}

// FilesWritten returns the number of window files created.
func (s *Summary) FilesWritten() int {
	n := 0
	for _, r := range s.Results {
		if r.OK() {
			n++
		}
	}
	return n
}

// Failed returns the windows that could not be exported.
func (s *Summary) Failed() []WindowResult {
	var failed []WindowResult
	for _, r := range s.Results {
		if !r.OK() {
			failed = append(failed, r)
		}
	}
	return failed
}

// BytesWritten is the total size of all window files.
func (s *Summary) BytesWritten() int64 {
	var total int64
	for _, r := range s.Results {
		total += r.Bytes
	}
	return total
}

// Duration is the wall time the run took.
func (s *Summary) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}
