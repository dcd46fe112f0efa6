// Package editor wires user edits, node patches and generated text into a
// single document history.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"flowsync/chat"
	"flowsync/flowchart"
	"flowsync/history"
	"flowsync/stream"
)

// ErrBusy is returned when a generation is started while another one runs.
var ErrBusy = errors.New("a generation is already in progress")

// Transport opens a fragment stream for a conversation. Network access and
// authentication live behind this interface.
type Transport interface {
	Stream(ctx context.Context, messages []chat.Message) (stream.Source, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, messages []chat.Message) (stream.Source, error)

// Stream calls f.
func (f TransportFunc) Stream(ctx context.Context, messages []chat.Message) (stream.Source, error) {
	return f(ctx, messages)
}

// Options configures a Controller.
type Options struct {
	Initial      string
	Debounce     time.Duration
	MaxHistory   int
	StripFences  bool
	MaxChatChars int
	Scheduler    history.Scheduler
	Logger       *slog.Logger
}

// Controller is the single writer of the document. Every mutation path,
// whether typing, node patches, undo/redo or generation, goes through it.
//
// Listeners registered with Subscribe run synchronously on whichever
// goroutine changed the document. That includes the debounce timer, which
// commits without holding any controller lock, so listeners must not assume
// one is held. They may read Text and Selection but must not call mutating
// methods.
type Controller struct {
	mu          sync.Mutex // serialises read-modify-write of the document
	history     *history.Manager
	selMu       sync.Mutex
	selected    string
	convMu      sync.Mutex
	conv        *chat.Conversation
	stripFences bool
	generating  atomic.Bool
	log         *slog.Logger
}

// New creates a controller. An empty Initial starts from the default diagram.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	initial := opts.Initial
	if initial == "" {
		initial = flowchart.DefaultDiagram
	}
	maxChars := opts.MaxChatChars
	if maxChars <= 0 {
		maxChars = 100000
	}
	return &Controller{
		history: history.NewManager(initial, history.Options{
			Debounce:   opts.Debounce,
			MaxEntries: opts.MaxHistory,
			Scheduler:  opts.Scheduler,
			Logger:     logger,
		}),
		conv:        chat.NewConversation(maxChars),
		stripFences: opts.StripFences,
		log:         logger,
	}
}

// History exposes the underlying manager for persistence and statistics.
func (c *Controller) History() *history.Manager {
	return c.history
}

// Text returns the live document.
func (c *Controller) Text() string {
	return c.history.Live()
}

// Edit replaces the live document; the history entry follows after the
// debounce delay.
func (c *Controller) Edit(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history.Edit(text)
}

// Undo steps back one committed entry.
func (c *Controller) Undo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Undo()
}

// Redo steps forward one committed entry.
func (c *Controller) Redo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Redo()
}

// CanUndo reports whether Undo would change the document.
func (c *Controller) CanUndo() bool {
	return c.history.CanUndo()
}

// CanRedo reports whether Redo would change the document.
func (c *Controller) CanRedo() bool {
	return c.history.CanRedo()
}

// Subscribe registers l for every change of the live document.
func (c *Controller) Subscribe(l history.Listener) func() {
	return c.history.Subscribe(l)
}

// Nodes lists node definitions of the live document.
func (c *Controller) Nodes() []flowchart.NodeSpan {
	return flowchart.Nodes(c.Text())
}

// Select marks id as the node being edited and returns its definition.
// A missing node clears the selection.
func (c *Controller) Select(id string) (flowchart.NodeSpan, bool) {
	span, ok := flowchart.Locate(c.history.Live(), id)
	c.selMu.Lock()
	defer c.selMu.Unlock()
	if !ok {
		c.selected = ""
		return flowchart.NodeSpan{}, false
	}
	c.selected = id
	return span, true
}

// Selection re-resolves the selected node against the live document. The
// selection survives edits as long as the node is still defined.
func (c *Controller) Selection() (flowchart.NodeSpan, bool) {
	id := c.selectedID()
	if id == "" {
		return flowchart.NodeSpan{}, false
	}
	return flowchart.Locate(c.history.Live(), id)
}

// ClearSelection forgets the selected node.
func (c *Controller) ClearSelection() {
	c.selMu.Lock()
	defer c.selMu.Unlock()
	c.selected = ""
}

// UpdateNode patches id in the live document. It reports whether the
// document changed; a node that vanished concurrently is not an error.
func (c *Controller) UpdateNode(id string, u flowchart.Update) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc := c.history.Live()
	patched := flowchart.Rewrite(doc, id, u)
	if patched == doc {
		return false
	}
	c.history.Edit(patched)
	return true
}

// SetLabel changes the label of the selected node.
func (c *Controller) SetLabel(label string) bool {
	id := c.selectedID()
	if id == "" {
		return false
	}
	return c.UpdateNode(id, flowchart.Update{Label: &label})
}

// SetShape changes the shape of the selected node.
func (c *Controller) SetShape(kind flowchart.Kind) bool {
	id := c.selectedID()
	if id == "" {
		return false
	}
	return c.UpdateNode(id, flowchart.Update{Kind: &kind})
}

// SetDirection rewrites the header direction of the live document.
func (c *Controller) SetDirection(dir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc := c.history.Live()
	updated, err := flowchart.SetDirection(doc, dir)
	if err != nil {
		return err
	}
	if updated != doc {
		c.history.Edit(updated)
	}
	return nil
}

func (c *Controller) selectedID() string {
	c.selMu.Lock()
	defer c.selMu.Unlock()
	return c.selected
}

// Generate asks the transport for a new version of the document. Partial
// line-complete text is shown as it arrives and the final text is
// committed as one history entry. On failure the document keeps whatever
// complete lines were already shown.
func (c *Controller) Generate(ctx context.Context, request string, t Transport) error {
	if !c.generating.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer c.generating.Store(false)

	log := c.log.With("op", "generate")
	c.convMu.Lock()
	sent := c.conv.Prepare(request, c.Text())
	c.convMu.Unlock()
	src, err := t.Stream(ctx, sent)
	if err != nil {
		return fmt.Errorf("open generation stream: %w", err)
	}

	asm := stream.NewAssembler(log)
	var final string
	err = stream.Run(ctx, src, asm, func(em stream.Emission) {
		text := em.Text
		if c.stripFences {
			text = stream.StripFences(text)
		}
		if em.Final {
			final = text
			c.commit(text)
			return
		}
		if text != "" {
			c.Edit(text)
		}
	})
	if err != nil {
		log.Warn("generation failed", "error", err, "emitted_bytes", len(asm.Emitted()))
		return err
	}
	c.convMu.Lock()
	c.conv.Accept(sent, final)
	c.convMu.Unlock()
	log.Info("generation complete", "bytes", len(final))
	return nil
}

// Generating reports whether a generation is running.
func (c *Controller) Generating() bool {
	return c.generating.Load()
}

func (c *Controller) commit(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history.Commit(text)
}

// Conversation returns the recorded generation turns.
func (c *Controller) Conversation() []chat.Message {
	c.convMu.Lock()
	defer c.convMu.Unlock()
	return c.conv.Messages()
}

// Flush commits a pending edit immediately.
func (c *Controller) Flush() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Flush()
}
