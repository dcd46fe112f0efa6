package stream

import (
	"log/slog"
	"strings"
)

// Emission is a document the caller may render. Intermediate emissions
// always end on a line boundary; the Final emission is the exact text of the
// done event.
type Emission struct {
	Text  string
	Final bool
}

// Assembler buffers fragments of one generation request. Only whole lines
// are ever released, so a half-written node definition never reaches the
// renderer. An Assembler must not be reused across requests.
type Assembler struct {
	pending  string
	emitted  string
	terminal bool
	log      *slog.Logger
}

// NewAssembler creates an assembler for a single request.
func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{log: logger}
}

// OnFragment appends chunk and, if the buffer now holds a line break,
// releases everything up to and including the last one. ok is false when
// nothing new can be emitted.
func (a *Assembler) OnFragment(chunk string) (em Emission, ok bool) {
	if a.terminal {
		a.log.Warn("fragment after end of stream ignored", "bytes", len(chunk))
		return Emission{}, false
	}
	a.pending += chunk
	cut := strings.LastIndexByte(a.pending, '\n')
	if cut < 0 {
		return Emission{}, false
	}
	a.emitted += a.pending[:cut+1]
	a.pending = a.pending[cut+1:]
	return Emission{Text: a.emitted}, true
}

// OnComplete discards the buffered remainder and emits finalText as the
// terminal document.
func (a *Assembler) OnComplete(finalText string) Emission {
	a.terminal = true
	a.pending = ""
	a.emitted = finalText
	return Emission{Text: finalText, Final: true}
}

// OnError discards the buffer and returns the failure for the caller.
// Lines emitted before the failure stay valid.
func (a *Assembler) OnError(msg string) error {
	a.terminal = true
	a.pending = ""
	return &RemoteError{Message: msg}
}

// Apply dispatches one event. Unknown event types are logged and skipped.
func (a *Assembler) Apply(ev Event) (Emission, bool, error) {
	switch ev.Type {
	case EventContent:
		em, ok := a.OnFragment(ev.Text)
		return em, ok, nil
	case EventDone:
		return a.OnComplete(ev.Text), true, nil
	case EventError:
		return Emission{}, false, a.OnError(ev.Error)
	default:
		a.log.Warn("unknown stream event skipped", "type", string(ev.Type))
		return Emission{}, false, nil
	}
}

// Emitted returns the text released so far.
func (a *Assembler) Emitted() string {
	return a.emitted
}

// Pending returns the buffered text that does not end in a line break yet.
func (a *Assembler) Pending() string {
	return a.pending
}

// Terminal reports whether a done or error event has been applied.
func (a *Assembler) Terminal() bool {
	return a.terminal
}
