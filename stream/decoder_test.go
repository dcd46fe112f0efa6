package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestDecoderFraming(t *testing.T) {
	input := strings.Join([]string{
		`: keep-alive`,
		`data: {"type":"content","text":"graph TD\n"}`,
		``,
		`event: message`,
		`data: {"type":"content","text":"  A-->B"}`,
		`{"type":"content","text":"\n"}`,
		`data: not json`,
		`data: {"type":"usage","tokens":12}`,
		`data: {"type":"done","text":"graph TD\n  A-->B\n"}`,
	}, "\n")

	var logs bytes.Buffer
	d := NewDecoder(strings.NewReader(input), slog.New(slog.NewTextHandler(&logs, nil)))

	var got []Event
	for {
		ev, err := d.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		got = append(got, ev)
	}

	want := []Event{
		Content("graph TD\n"),
		Content("  A-->B"),
		Content("\n"),
		Done("graph TD\n  A-->B\n"),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	if n := strings.Count(logs.String(), "skipped"); n != 2 {
		t.Errorf("expected two skipped events to be logged, got %d:\n%s", n, logs.String())
	}
}

func TestDecoderErrorEvent(t *testing.T) {
	d := NewDecoder(strings.NewReader(`{"type":"error","error":"rate limited"}`), nil)
	ev, err := d.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if ev.Type != EventError || ev.Error != "rate limited" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestDecoderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := NewDecoder(strings.NewReader(`{"type":"content","text":"x"}`), nil)
	if _, err := d.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
