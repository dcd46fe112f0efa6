package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"flowsync/chat"
	"flowsync/editor"
	"flowsync/history"
	"flowsync/stream"
)

// resumeHistory restores a saved session when its current entry matches the
// document on disk. A snapshot for a different document is ignored.
func resumeHistory(ctl *editor.Controller, path string, log *slog.Logger) error {
	snap, err := history.LoadSnapshot(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if errors.Is(err, history.ErrSnapshotSchema) {
		log.Warn("ignoring history snapshot from another version", "path", path, "error", err)
		return nil
	}
	if err != nil {
		return err
	}
	if len(snap.Entries) == 0 || snap.Cursor < 0 || snap.Cursor >= len(snap.Entries) {
		log.Warn("ignoring empty history snapshot", "path", path)
		return nil
	}
	if snap.Entries[snap.Cursor] != ctl.Text() {
		log.Info("history snapshot does not match the document, starting fresh", "path", path)
		return nil
	}
	ctl.History().Restore(snap)
	log.Debug("history resumed", "path", path, "entries", len(snap.Entries), "saved", snap.Saved)
	return nil
}

// persistHistory flushes any pending edit and writes the session to path.
func persistHistory(ctl *editor.Controller, path string) error {
	ctl.Flush()
	if err := history.SaveSnapshot(path, ctl.History().Snapshot()); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// recordedTransport replays an event log instead of contacting a remote
// service. The file is read anew for every generation so it can be edited
// between runs.
func recordedTransport(path string, delay time.Duration, log *slog.Logger) editor.Transport {
	return editor.TransportFunc(func(ctx context.Context, messages []chat.Message) (stream.Source, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read event log: %w", err)
		}
		log.Debug("replaying event log", "path", path, "messages", len(messages), "bytes", len(data))
		var src stream.Source = stream.NewDecoder(bytes.NewReader(data), log)
		if delay > 0 {
			src = &pacedSource{src: src, delay: delay}
		}
		return src, nil
	})
}

// pacedSource waits delay before every event.
type pacedSource struct {
	src   stream.Source
	delay time.Duration
}

func (p *pacedSource) Next(ctx context.Context) (stream.Event, error) {
	t := time.NewTimer(p.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return stream.Event{}, ctx.Err()
	case <-t.C:
	}
	return p.src.Next(ctx)
}
