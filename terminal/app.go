// Package terminal is the full-screen editor. It renders the live document
// and feeds keystrokes into an editor.Controller.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gdamore/tcell/v2"

	"flowsync/editor"
	"flowsync/flowchart"
	"flowsync/history"
)

type mode int

const (
	modeText mode = iota
	modeLabel
	modePrompt
)

// Options configures an App.
type Options struct {
	Title string

	// Save persists the document. Ctrl-S reports an error when nil.
	Save func(text string) error

	// Generate runs a generation for request. Ctrl-G is disabled when nil.
	Generate func(ctx context.Context, request string) error

	Logger *slog.Logger
}

// generationDone is posted when a background generation returns.
type generationDone struct{ err error }

// App is the terminal editor. All fields are owned by the event loop
// goroutine; other goroutines reach it only through posted events.
type App struct {
	screen tcell.Screen
	ctl    *editor.Controller
	opts   Options
	log    *slog.Logger

	pos    int // byte offset of the cursor in the live text
	top    int // first visible line
	mode   mode
	input  []rune
	status string

	cancelGen context.CancelFunc
	quit      bool
}

// New creates an App drawing on screen. The screen must be initialised.
func New(screen tcell.Screen, ctl *editor.Controller, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Title == "" {
		opts.Title = "flowsync"
	}
	return &App{screen: screen, ctl: ctl, opts: opts, log: logger}
}

// Run opens the terminal, runs the editor until the user quits and restores
// the terminal.
func Run(ctx context.Context, ctl *editor.Controller, opts Options) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialise terminal: %w", err)
	}
	defer screen.Fini()
	return New(screen, ctl, opts).Loop(ctx)
}

// Loop processes events until the user quits or ctx is cancelled.
func (a *App) Loop(ctx context.Context) error {
	unsubscribe := a.ctl.Subscribe(func(history.Change) {
		// Runs on whichever goroutine changed the document.
		_ = a.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer unsubscribe()

	stop := context.AfterFunc(ctx, func() {
		_ = a.screen.PostEvent(tcell.NewEventInterrupt(ctx.Err()))
	})
	defer stop()

	a.draw()
	for !a.quit {
		ev := a.screen.PollEvent()
		if ev == nil {
			break
		}
		a.handleEvent(ctx, ev)
		if ctx.Err() != nil {
			a.quit = true
		}
		a.draw()
	}
	if a.cancelGen != nil {
		a.cancelGen()
	}
	return nil
}

func (a *App) handleEvent(ctx context.Context, ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
	case *tcell.EventInterrupt:
		if done, ok := ev.Data().(generationDone); ok {
			a.finishGeneration(done.err)
		}
	case *tcell.EventKey:
		switch a.mode {
		case modeText:
			a.handleTextKey(ctx, ev)
		default:
			a.handleInputKey(ctx, ev)
		}
	}
}

func (a *App) handleTextKey(ctx context.Context, ev *tcell.EventKey) {
	text := a.ctl.Text()
	a.pos = clampOffset(text, a.pos)

	switch ev.Key() {
	case tcell.KeyCtrlQ:
		a.quit = true
	case tcell.KeyEscape:
		if a.cancelGen != nil {
			a.cancelGen()
			a.status = "cancelling generation"
			return
		}
		a.quit = true
	case tcell.KeyCtrlZ:
		if !a.ctl.Undo() {
			a.status = "nothing to undo"
		}
	case tcell.KeyCtrlY:
		if !a.ctl.Redo() {
			a.status = "nothing to redo"
		}
	case tcell.KeyCtrlS:
		a.save()
	case tcell.KeyCtrlN:
		a.selectAtCursor(text)
	case tcell.KeyTab:
		a.cycleShape()
	case tcell.KeyCtrlE:
		span, ok := a.ctl.Selection()
		if !ok {
			a.status = "no node selected (Ctrl-N selects the node under the cursor)"
			return
		}
		a.mode = modeLabel
		a.input = []rune(span.Label)
	case tcell.KeyCtrlD:
		a.cycleDirection(text)
	case tcell.KeyCtrlG:
		if a.opts.Generate == nil {
			a.status = "generation is not configured"
			return
		}
		if a.cancelGen != nil {
			a.status = "generation already running"
			return
		}
		a.mode = modePrompt
		a.input = a.input[:0]
	case tcell.KeyLeft:
		a.pos = prevRune(text, a.pos)
	case tcell.KeyRight:
		a.pos = nextRune(text, a.pos)
	case tcell.KeyUp:
		row, col, _ := position(text, a.pos)
		if row > 0 {
			a.pos = offsetAt(text, row-1, col)
		}
	case tcell.KeyDown:
		row, col, _ := position(text, a.pos)
		a.pos = offsetAt(text, row+1, col)
	case tcell.KeyHome:
		_, _, start := position(text, a.pos)
		a.pos = start
	case tcell.KeyEnd:
		if i := strings.IndexByte(text[a.pos:], '\n'); i >= 0 {
			a.pos += i
		} else {
			a.pos = len(text)
		}
	case tcell.KeyEnter:
		a.insert(text, "\n")
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if a.pos == 0 {
			return
		}
		start := prevRune(text, a.pos)
		a.ctl.Edit(text[:start] + text[a.pos:])
		a.pos = start
	case tcell.KeyDelete:
		if a.pos >= len(text) {
			return
		}
		a.ctl.Edit(text[:a.pos] + text[nextRune(text, a.pos):])
	case tcell.KeyRune:
		a.insert(text, string(ev.Rune()))
	}
}

func (a *App) insert(text, s string) {
	a.ctl.Edit(text[:a.pos] + s + text[a.pos:])
	a.pos += len(s)
}

func (a *App) handleInputKey(ctx context.Context, ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		a.mode = modeText
		a.input = a.input[:0]
	case tcell.KeyEnter:
		value := string(a.input)
		m := a.mode
		a.mode = modeText
		a.input = a.input[:0]
		if m == modeLabel {
			if !a.ctl.SetLabel(value) {
				a.status = "label unchanged"
			}
			return
		}
		a.startGeneration(ctx, value)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(a.input) > 0 {
			a.input = a.input[:len(a.input)-1]
		}
	case tcell.KeyRune:
		a.input = append(a.input, ev.Rune())
	}
}

func (a *App) selectAtCursor(text string) {
	span, ok := flowchart.NewIndex(text).At(a.pos)
	if !ok {
		a.ctl.ClearSelection()
		a.status = "no node under cursor"
		return
	}
	a.ctl.Select(span.ID)
	a.status = fmt.Sprintf("selected %s (%s)", span.ID, span.Kind)
}

func (a *App) cycleShape() {
	span, ok := a.ctl.Selection()
	if !ok {
		a.status = "no node selected"
		return
	}
	next := span.Kind.Next()
	if a.ctl.SetShape(next) {
		a.status = fmt.Sprintf("%s is now %s", span.ID, next)
	}
}

func (a *App) cycleDirection(text string) {
	info, ok := flowchart.Header(text)
	next := flowchart.Directions[0]
	if ok {
		for i, dir := range flowchart.Directions {
			if dir == info.Direction {
				next = flowchart.Directions[(i+1)%len(flowchart.Directions)]
				break
			}
		}
	}
	if err := a.ctl.SetDirection(next); err != nil {
		a.status = err.Error()
		return
	}
	a.status = "direction " + next
}

func (a *App) save() {
	if a.opts.Save == nil {
		a.status = "no file to save to"
		return
	}
	a.ctl.Flush()
	if err := a.opts.Save(a.ctl.Text()); err != nil {
		a.log.Error("save failed", "error", err)
		a.status = "save failed: " + err.Error()
		return
	}
	a.status = "saved"
}

func (a *App) startGeneration(ctx context.Context, request string) {
	if strings.TrimSpace(request) == "" {
		a.status = "empty request"
		return
	}
	genCtx, cancel := context.WithCancel(ctx)
	a.cancelGen = cancel
	a.status = "generating..."
	go func() {
		err := a.opts.Generate(genCtx, request)
		_ = a.screen.PostEvent(tcell.NewEventInterrupt(generationDone{err: err}))
	}()
}

func (a *App) finishGeneration(err error) {
	if a.cancelGen != nil {
		a.cancelGen()
		a.cancelGen = nil
	}
	switch {
	case err == nil:
		a.status = "generation complete"
	case errors.Is(err, context.Canceled):
		a.status = "generation cancelled"
	default:
		a.log.Warn("generation failed", "error", err)
		a.status = "generation failed: " + err.Error()
	}
}
