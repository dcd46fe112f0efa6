package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"flowsync/chat"
	"flowsync/flowchart"
	"flowsync/history"
	"flowsync/logging"
	"flowsync/stream"
)

type stubTimer struct{ stopped bool }

func (t *stubTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// heldScheduler never fires on its own; tests commit with Flush.
type heldScheduler struct{}

func (heldScheduler) AfterFunc(time.Duration, func()) history.Timer {
	return &stubTimer{}
}

func newTestController(initial string, strip bool) *Controller {
	return New(Options{
		Initial:     initial,
		MaxHistory:  20,
		StripFences: strip,
		Scheduler:   heldScheduler{},
		Logger:      logging.Discard(),
	})
}

func sourceOf(events ...stream.Event) Transport {
	return TransportFunc(func(ctx context.Context, messages []chat.Message) (stream.Source, error) {
		return stream.Events(events...), nil
	})
}

func TestDefaultDocument(t *testing.T) {
	c := newTestController("", false)
	if c.Text() != flowchart.DefaultDiagram {
		t.Error("expected the default diagram")
	}
	if len(c.Nodes()) != 9 {
		t.Errorf("expected 9 nodes, got %d", len(c.Nodes()))
	}
}

func TestSelectAndPatch(t *testing.T) {
	c := newTestController(flowchart.DefaultDiagram, false)

	span, ok := c.Select("C")
	if !ok || span.Kind != flowchart.Rectangle || span.Label != "Process Message" {
		t.Fatalf("unexpected selection %+v %v", span, ok)
	}

	if !c.SetLabel("Parse Message") {
		t.Fatal("SetLabel reported no change")
	}
	if !c.SetShape(flowchart.Loop) {
		t.Fatal("SetShape reported no change")
	}

	span, ok = c.Selection()
	if !ok || span.Kind != flowchart.Loop || span.Label != "Parse Message" {
		t.Errorf("unexpected selection after patch %+v", span)
	}

	// Both patches land in one entry once the debounce expires.
	c.Flush()
	if _, total := c.History().Stats(); total != 2 {
		t.Errorf("expected one coalesced commit, got %d entries", total)
	}

	if !c.Undo() {
		t.Fatal("undo failed")
	}
	if c.Text() != flowchart.DefaultDiagram {
		t.Error("expected undo to restore the original document")
	}
}

func TestPatchMissingNode(t *testing.T) {
	c := newTestController("graph TD\n  A[One]", false)
	if c.SetLabel("x") {
		t.Error("expected SetLabel without a selection to do nothing")
	}
	if _, ok := c.Select("Z"); ok {
		t.Error("expected Z to be absent")
	}
	if c.UpdateNode("Z", flowchart.Update{}) {
		t.Error("expected patching a missing node to be a no-op")
	}
	if c.History().Pending() {
		t.Error("expected no pending edit")
	}

	c.Select("A")
	c.Edit("graph TD\n  B[Two]")
	if _, ok := c.Selection(); ok {
		t.Error("expected selection to vanish with its node")
	}
	if c.SetLabel("x") {
		t.Error("expected patching a vanished node to be a no-op")
	}
}

func TestSetDirection(t *testing.T) {
	c := newTestController("graph TD\n  A-->B", false)
	if err := c.SetDirection("LR"); err != nil {
		t.Fatalf("SetDirection failed: %v", err)
	}
	if c.Text() != "graph LR\n  A-->B" {
		t.Errorf("unexpected text %q", c.Text())
	}
	if err := c.SetDirection("up"); err == nil {
		t.Error("expected invalid direction to fail")
	}
}

func TestGenerateCommitsFinal(t *testing.T) {
	c := newTestController("graph TD\n  A-->B", true)

	var seen []history.Change
	c.Subscribe(func(ch history.Change) { seen = append(seen, ch) })

	var sent []chat.Message
	transport := TransportFunc(func(ctx context.Context, messages []chat.Message) (stream.Source, error) {
		sent = messages
		return stream.Events(
			stream.Content("```mermaid\ngraph L"),
			stream.Content("R\n  A[Start] -"),
			stream.Content("-> B[End]\n"),
			stream.Done("```mermaid\ngraph LR\n  A[Start] --> B[End]\n```"),
		), nil
	})

	if err := c.Generate(context.Background(), "make it horizontal", transport); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	want := "graph LR\n  A[Start] --> B[End]"
	if c.Text() != want {
		t.Errorf("expected %q, got %q", want, c.Text())
	}
	entries := c.History().Entries()
	if len(entries) != 2 || entries[1] != want {
		t.Errorf("expected the final text as a single commit, got %q", entries)
	}

	var partials []string
	for _, ch := range seen {
		if ch.Cause == history.CauseEdit {
			partials = append(partials, ch.Text)
		}
	}
	if len(partials) != 2 || partials[0] != "graph LR" {
		t.Errorf("unexpected partial documents %q", partials)
	}
	if last := seen[len(seen)-1]; last.Cause != history.CauseCommit {
		t.Errorf("expected the last change to be a commit, got %v", last.Cause)
	}

	if len(sent) != 1 || sent[0].Role != chat.RoleUser {
		t.Fatalf("unexpected request %+v", sent)
	}
	if conv := c.Conversation(); len(conv) != 2 || conv[1].Content != want {
		t.Errorf("expected the exchange to be recorded, got %+v", conv)
	}

	if !c.Undo() || c.Text() != "graph TD\n  A-->B" {
		t.Errorf("expected one undo to restore the document, got %q", c.Text())
	}
}

func TestGenerateFailureKeepsFlushedLines(t *testing.T) {
	c := newTestController("graph TD", false)
	err := c.Generate(context.Background(), "x", sourceOf(
		stream.Content("graph LR\n  X[Half"),
		stream.Failure("overloaded"),
	))

	var remote *stream.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if c.Text() != "graph LR\n" {
		t.Errorf("expected only complete lines, got %q", c.Text())
	}
	if len(c.Conversation()) != 0 {
		t.Error("expected a failed exchange not to be recorded")
	}
}

func TestGenerateIncompleteLeavesDocument(t *testing.T) {
	c := newTestController("graph TD", false)
	err := c.Generate(context.Background(), "x", sourceOf(stream.Content("graph LR")))
	if !errors.Is(err, stream.ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if c.Text() != "graph TD" {
		t.Errorf("expected untouched document, got %q", c.Text())
	}
}

func TestGenerateTransportError(t *testing.T) {
	c := newTestController("graph TD", false)
	boom := errors.New("connection refused")
	err := c.Generate(context.Background(), "x", TransportFunc(func(context.Context, []chat.Message) (stream.Source, error) {
		return nil, boom
	}))
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped transport error, got %v", err)
	}
	if c.Generating() {
		t.Error("expected generation flag to be cleared")
	}
}

type blockingSource struct {
	started chan struct{}
	once    sync.Once
}

func (s *blockingSource) Next(ctx context.Context) (stream.Event, error) {
	s.once.Do(func() { close(s.started) })
	<-ctx.Done()
	return stream.Event{}, ctx.Err()
}

func TestGenerateBusyAndCancel(t *testing.T) {
	c := newTestController("graph TD", false)
	src := &blockingSource{started: make(chan struct{})}
	transport := TransportFunc(func(context.Context, []chat.Message) (stream.Source, error) {
		return src, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Generate(ctx, "first", transport) }()
	<-src.started

	if err := c.Generate(context.Background(), "second", transport); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if c.Text() != "graph TD" {
		t.Errorf("expected untouched document, got %q", c.Text())
	}
}

// capturedScheduler keeps the most recent debounce callback for the test to fire.
type capturedScheduler struct {
	mu   sync.Mutex
	fire func()
}

func (s *capturedScheduler) AfterFunc(_ time.Duration, f func()) history.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fire = f
	return &stubTimer{}
}

func TestDebouncedCommitNotifiesWithoutLock(t *testing.T) {
	sched := &capturedScheduler{}
	c := New(Options{
		Initial:   "graph TD",
		Scheduler: sched,
		Logger:    logging.Discard(),
	})

	var lockFree, committed bool
	c.Subscribe(func(ch history.Change) {
		if ch.Cause != history.CauseCommit {
			return
		}
		committed = true
		if c.mu.TryLock() {
			lockFree = true
			c.mu.Unlock()
		}
		_ = c.Text()
	})

	c.Edit("graph LR")
	sched.mu.Lock()
	fire := sched.fire
	sched.mu.Unlock()
	if fire == nil {
		t.Fatal("expected a pending debounce")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		fire()
	}()
	<-done

	if !committed {
		t.Fatal("expected the timer to commit the edit")
	}
	if !lockFree {
		t.Error("expected the controller lock to be free during a debounced commit")
	}
}
