// Package metrics provides lightweight, lock-free counters tracking the
// output of one child process: lines and bytes per stream, decode
// errors, and how long the child ran.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Stream identifies which output stream a line came from.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

// Collector tracks output statistics for a single child process.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	stdoutLines  atomic.Int64
	stderrLines  atomic.Int64
	stdoutBytes  atomic.Int64
	stderrBytes  atomic.Int64
	decodeErrors atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	endTime      time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Line metrics ─────────────────────────────────────────────────────

// Line records one line of n bytes read from s.
func (c *Collector) Line(s Stream, n int) {
	if c == nil {
		return
	}
	if s == Stderr {
		c.stderrLines.Add(1)
		c.stderrBytes.Add(int64(n))
		return
	}
	c.stdoutLines.Add(1)
	c.stdoutBytes.Add(int64(n))
}

// Lines returns the number of lines read from s.
func (c *Collector) Lines(s Stream) int64 {
	if c == nil {
		return 0
	}
	if s == Stderr {
		return c.stderrLines.Load()
	}
	return c.stdoutLines.Load()
}

// Bytes returns the number of bytes read from s, newlines excluded.
func (c *Collector) Bytes(s Stream) int64 {
	if c == nil {
		return 0
	}
	if s == Stderr {
		return c.stderrBytes.Load()
	}
	return c.stdoutBytes.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordDecodeError increments the decode error counter and keeps msg.
func (c *Collector) RecordDecodeError(msg string) {
	if c == nil {
		return
	}
	c.decodeErrors.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// DecodeErrors returns the number of lines that failed to decode.
func (c *Collector) DecodeErrors() int64 {
	if c == nil {
		return 0
	}
	return c.decodeErrors.Load()
}

// ── Lifetime ─────────────────────────────────────────────────────────

// Finish marks the child as joined.  Only the first call counts.
func (c *Collector) Finish() {
	if c == nil {
		return
	}
	c.mu.Lock()
	if c.endTime.IsZero() {
		c.endTime = time.Now()
	}
	c.mu.Unlock()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Elapsed          string `json:"elapsed"`
	StdoutLines      int64  `json:"stdout_lines"`
	StderrLines      int64  `json:"stderr_lines"`
	StdoutBytes      int64  `json:"stdout_bytes"`
	StderrBytes      int64  `json:"stderr_bytes"`
	DecodeErrors     int64  `json:"decode_errors"`
	Finished         bool   `json:"finished"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	end := c.endTime
	if end.IsZero() {
		end = time.Now()
	}
	s := Snapshot{
		Elapsed:      end.Sub(c.startTime).Truncate(time.Millisecond).String(),
		StdoutLines:  c.stdoutLines.Load(),
		StderrLines:  c.stderrLines.Load(),
		StdoutBytes:  c.stdoutBytes.Load(),
		StderrBytes:  c.stderrBytes.Load(),
		DecodeErrors: c.decodeErrors.Load(),
		Finished:     !c.endTime.IsZero(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as a compact JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.Marshal(s)
	return string(data)
}
