package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Sink receives emissions in order.
type Sink func(Emission)

// Run feeds events from src into a until a terminal event arrives. Every
// exit path that is not a done event reaches the assembler as an explicit
// error, so an aborted stream never dangles.
func Run(ctx context.Context, src Source, a *Assembler, sink Sink) error {
	for {
		if err := ctx.Err(); err != nil {
			a.OnError(err.Error())
			return fmt.Errorf("stream aborted: %w", err)
		}
		ev, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				a.OnError(ErrIncomplete.Error())
				return ErrIncomplete
			}
			a.OnError(err.Error())
			if ctx.Err() != nil {
				return fmt.Errorf("stream aborted: %w", err)
			}
			return fmt.Errorf("read stream: %w", err)
		}
		em, ok, err := a.Apply(ev)
		if ok && sink != nil {
			sink(em)
		}
		if err != nil {
			return err
		}
		if a.Terminal() {
			return nil
		}
	}
}

// StripFences removes a surrounding ```mermaid (or bare ```) code fence
// and trims the result. Text without fences is only trimmed.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(text, "```"); ok {
		rest = strings.TrimPrefix(rest, "mermaid")
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 && strings.TrimSpace(rest[:nl]) == "" {
			rest = rest[nl+1:]
		}
		text = rest
	}
	text = strings.TrimSuffix(strings.TrimRight(text, " \t\r\n"), "```")
	return strings.TrimSpace(text)
}
