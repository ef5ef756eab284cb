// Package child runs one external command and relays its output.
//
// A [Mux] merges the two output streams of a child process into one
// ordered sequence of [Event]s; a [Runner] owns the spawned process and
// its Mux and reports the exit [Status] once joined.
//
// Each stream gets its own reader goroutine. Readers never wait on the
// consumer: lines go through a pump that queues them in arrival order,
// so a slow terminal cannot back-pressure the child through its pipes.
package child

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"matla/internal/errors"
	"matla/internal/metrics"
	"matla/util"
)

// Origin tells which output stream of the child a record came from.
type Origin int

const (
	Primary   Origin = iota // stdout
	Secondary               // stderr
)

func (o Origin) String() string {
	if o == Secondary {
		return "stderr"
	}
	return "stdout"
}

func (o Origin) stream() metrics.Stream {
	if o == Secondary {
		return metrics.Stderr
	}
	return metrics.Stdout
}

// Record is one line of child output, without its line terminator.
type Record struct {
	Text   string
	Origin Origin
}

// Event is either a Record or an out-of-band error about one stream: a
// line that is too long or not valid UTF-8, or a failed read. Err
// events never end the sequence.
type Event struct {
	Record Record
	Err    error
}

var (
	errInvalidUTF8 = errors.New("stream did not contain valid UTF-8")
	errLineTooLong = fmt.Errorf("line longer than %d bytes", util.MaxLineSize)
)

// Mux merges two line-oriented streams. The zero value is not usable;
// create one with [NewMux].
type Mux struct {
	out  chan Event
	done chan struct{}

	// recovered is written once before done is closed.
	recovered *panics.Recovered

	stats  *metrics.Collector
	logger *util.Logger
}

// MuxOption configures a Mux.
type MuxOption func(*Mux)

// WithStats feeds per-line statistics into c.
func WithStats(c *metrics.Collector) MuxOption {
	return func(m *Mux) { m.stats = c }
}

// WithLogger sets the logger used for reader diagnostics.
func WithLogger(l *util.Logger) MuxOption {
	return func(m *Mux) { m.logger = l }
}

// NewMux starts one reader per stream and returns immediately.
func NewMux(primary, secondary io.Reader, opts ...MuxOption) *Mux {
	m := &Mux{
		out:    make(chan Event),
		done:   make(chan struct{}),
		logger: util.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}

	in := make(chan Event)
	var wg conc.WaitGroup
	wg.Go(func() { m.read(primary, Primary, in) })
	wg.Go(func() { m.read(secondary, Secondary, in) })

	go func() {
		m.recovered = wg.WaitAndRecover()
		close(in)
		close(m.done)
	}()
	go pump(in, m.out)

	return m
}

// Next blocks until the next event is available. It returns false once
// both streams are exhausted and every event has been delivered.
func (m *Mux) Next() (Event, bool) {
	ev, ok := <-m.out
	return ev, ok
}

// Wait blocks until both readers have returned. It does not require the
// events to be consumed. A panicking reader yields a *errors.JoinError.
func (m *Mux) Wait() error {
	<-m.done
	if m.recovered != nil {
		return &errors.JoinError{Err: fmt.Errorf("stream reader panicked: %w", m.recovered.AsError())}
	}
	return nil
}

// drain discards every undelivered event and returns how many there were.
func (m *Mux) drain() int {
	n := 0
	for range m.out {
		n++
	}
	return n
}

func (m *Mux) read(r io.Reader, origin Origin, in chan<- Event) {
	buf := util.GetBuf()
	defer util.PutBuf(buf)

	rd := bufio.NewReaderSize(r, util.LineBufSize)
	acc := (*buf)[:0]
	tooLong := false
	line := 0
	for {
		frag, more, err := rd.ReadLine()
		if err != nil {
			if err == io.EOF || errors.Is(err, os.ErrClosed) {
				m.logger.Debug("%s closed after %d lines", origin, line)
				return
			}
			in <- Event{Err: fmt.Errorf("reading %s: %w", origin, err)}
			// Keep the pipe flowing so the child never blocks on a full buffer.
			n, _ := io.Copy(io.Discard, rd)
			m.logger.Debug("%s: discarded %d bytes after read error", origin, n)
			return
		}
		if !tooLong {
			if len(acc)+len(frag) > util.MaxLineSize {
				tooLong, acc = true, acc[:0]
			} else {
				acc = append(acc, frag...)
			}
		}
		if more {
			continue
		}

		line++
		switch {
		case tooLong:
			m.decodeError(in, origin, line, errLineTooLong)
		case !utf8.Valid(acc):
			m.decodeError(in, origin, line, errInvalidUTF8)
		default:
			m.stats.Line(origin.stream(), len(acc))
			in <- Event{Record: Record{Text: string(acc), Origin: origin}}
		}
		tooLong, acc = false, acc[:0]
	}
}

func (m *Mux) decodeError(in chan<- Event, origin Origin, line int, cause error) {
	err := &errors.DecodeError{Origin: origin.String(), Line: line, Err: cause}
	m.stats.RecordDecodeError(err.Error())
	in <- Event{Err: err}
}

// pump forwards events from in to out in arrival order, queueing as
// many as needed. It closes out after in is closed and the queue is empty.
func pump(in <-chan Event, out chan<- Event) {
	var queue []Event
	for in != nil || len(queue) > 0 {
		var (
			send chan<- Event
			next Event
		)
		if len(queue) > 0 {
			send = out
			next = queue[0]
		}
		select {
		case ev, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			queue = append(queue, ev)
		case send <- next:
			queue[0] = Event{}
			queue = queue[1:]
		}
	}
	close(out)
}
