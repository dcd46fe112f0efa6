package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
)

const maxLineSize = 4 << 20

// Source yields stream events in arrival order. Next returns io.EOF once
// the underlying stream is exhausted.
type Source interface {
	Next(ctx context.Context) (Event, error)
}

// Decoder reads line-delimited JSON events. Server-sent event framing
// ("data: {...}" lines separated by blank lines) is accepted as well.
// Lines that do not decode to a known event are logged and skipped.
type Decoder struct {
	scanner *bufio.Scanner
	log     *slog.Logger
	line    int
}

// NewDecoder reads events from r.
func NewDecoder(r io.Reader, logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Decoder{scanner: s, log: logger}
}

// Next returns the next well-formed event. Cancellation is checked between
// lines; a blocked read is interrupted by closing the reader.
func (d *Decoder) Next(ctx context.Context) (Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}
		if !d.scanner.Scan() {
			if err := d.scanner.Err(); err != nil {
				return Event{}, err
			}
			return Event{}, io.EOF
		}
		d.line++
		payload, ok := framePayload(d.scanner.Text())
		if !ok {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			d.log.Warn("malformed stream event skipped", "line", d.line, "error", err)
			continue
		}
		switch ev.Type {
		case EventContent, EventDone, EventError:
			return ev, nil
		default:
			d.log.Warn("unknown stream event skipped", "line", d.line, "type", string(ev.Type))
		}
	}
}

// framePayload strips transport framing from one line. ok is false for
// blank lines, comments and non-data fields.
func framePayload(line string) (string, bool) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, ":") {
		return "", false
	}
	if rest, found := strings.CutPrefix(line, "data:"); found {
		return strings.TrimPrefix(rest, " "), true
	}
	for _, field := range []string{"event:", "id:", "retry:"} {
		if strings.HasPrefix(line, field) {
			return "", false
		}
	}
	return line, true
}

// SliceSource replays a fixed list of events.
type SliceSource struct {
	events []Event
	next   int
}

// Events returns a source that yields evs in order.
func Events(evs ...Event) *SliceSource {
	return &SliceSource{events: evs}
}

// Next returns the next event or io.EOF.
func (s *SliceSource) Next(ctx context.Context) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	if s.next >= len(s.events) {
		return Event{}, io.EOF
	}
	ev := s.events[s.next]
	s.next++
	return ev, nil
}
