package history

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultDebounce is the delay between the last edit of a burst and its commit.
const DefaultDebounce = 250 * time.Millisecond

// Cause says which operation produced a Change.
type Cause int

const (
	CauseEdit Cause = iota
	CauseCommit
	CauseUndo
	CauseRedo
	CauseRestore
)

// String returns the cause name used in logs.
func (c Cause) String() string {
	switch c {
	case CauseEdit:
		return "edit"
	case CauseCommit:
		return "commit"
	case CauseUndo:
		return "undo"
	case CauseRedo:
		return "redo"
	case CauseRestore:
		return "restore"
	default:
		return "unknown"
	}
}

// Change is delivered to subscribers whenever the live text changes.
type Change struct {
	Text    string
	Cause   Cause
	CanUndo bool
	CanRedo bool
}

// Listener receives changes. It is called without any manager lock held, so
// it may call back into the manager.
type Listener func(Change)

// Options configures a Manager.
type Options struct {
	Debounce   time.Duration
	MaxEntries int
	Scheduler  Scheduler
	Logger     *slog.Logger
}

// Manager owns the live document text and its committed history. Edits
// update the live text at once and are committed after a quiet period;
// only the last edit of a burst becomes an entry.
type Manager struct {
	mu        sync.Mutex
	session   *Session
	live      string
	pending   Timer
	seq       uint64
	debounce  time.Duration
	sched     Scheduler
	log       *slog.Logger
	listeners map[int]Listener
	nextID    int
}

// NewManager creates a manager whose history starts with initial.
func NewManager(initial string, opts Options) *Manager {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = RealScheduler{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		session:   NewSession(initial, opts.MaxEntries),
		live:      initial,
		debounce:  debounce,
		sched:     sched,
		log:       logger,
		listeners: make(map[int]Listener),
	}
}

// Live returns the current text, which may be ahead of the committed entry
// while an edit is pending.
func (m *Manager) Live() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live
}

// Edit replaces the live text and re-arms the debounce timer. Any earlier
// pending edit is superseded and will never be committed.
func (m *Manager) Edit(text string) {
	m.mu.Lock()
	m.cancelPendingLocked()
	m.live = text
	seq := m.seq
	m.pending = m.sched.AfterFunc(m.debounce, func() { m.fire(seq, text) })
	changes := []Change{m.changeLocked(CauseEdit)}
	listeners := m.listenersLocked()
	m.mu.Unlock()
	notify(listeners, changes)
}

// fire commits a debounced edit unless a newer operation superseded it.
func (m *Manager) fire(seq uint64, text string) {
	m.mu.Lock()
	if seq != m.seq || m.pending == nil {
		m.mu.Unlock()
		return
	}
	m.pending = nil
	m.seq++
	m.commitLocked(text)
	changes := []Change{m.changeLocked(CauseCommit)}
	listeners := m.listenersLocked()
	m.mu.Unlock()
	notify(listeners, changes)
}

// Commit records text as a new entry immediately, cancelling any pending
// edit.
func (m *Manager) Commit(text string) {
	m.mu.Lock()
	m.cancelPendingLocked()
	m.live = text
	m.commitLocked(text)
	changes := []Change{m.changeLocked(CauseCommit)}
	listeners := m.listenersLocked()
	m.mu.Unlock()
	notify(listeners, changes)
}

// Flush commits a pending edit now. It reports whether anything was pending.
func (m *Manager) Flush() bool {
	m.mu.Lock()
	flushed := m.flushLocked()
	var changes []Change
	if flushed {
		changes = append(changes, m.changeLocked(CauseCommit))
	}
	listeners := m.listenersLocked()
	m.mu.Unlock()
	notify(listeners, changes)
	return flushed
}

// Undo commits any pending edit and then steps back one entry. It is a
// no-op at the oldest entry.
func (m *Manager) Undo() bool {
	return m.step(CauseUndo)
}

// Redo steps forward one entry. A pending edit is committed first, which
// discards the redo tail, so Redo after a fresh edit is a no-op.
func (m *Manager) Redo() bool {
	return m.step(CauseRedo)
}

func (m *Manager) step(cause Cause) bool {
	m.mu.Lock()
	var changes []Change
	if m.flushLocked() {
		changes = append(changes, m.changeLocked(CauseCommit))
	}
	var (
		text string
		ok   bool
	)
	if cause == CauseUndo {
		text, ok = m.session.Undo()
	} else {
		text, ok = m.session.Redo()
	}
	if ok {
		m.live = text
		changes = append(changes, m.changeLocked(cause))
		m.log.Debug("history moved", "op", cause.String(), "cursor", m.session.Cursor(), "entries", m.session.Len())
	}
	listeners := m.listenersLocked()
	m.mu.Unlock()
	notify(listeners, changes)
	return ok
}

// CanUndo reports whether Undo would change the live text.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil || m.session.CanUndo()
}

// CanRedo reports whether Redo would change the live text.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending == nil && m.session.CanRedo()
}

// Pending reports whether an edit is waiting for its debounce to expire.
func (m *Manager) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil
}

// Stats returns the one-based cursor position and the number of entries.
func (m *Manager) Stats() (current, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Cursor() + 1, m.session.Len()
}

// Entries returns a copy of the committed history, oldest first.
func (m *Manager) Entries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Entries()
}

// Subscribe registers l for every change of the live text. The returned
// function removes it.
func (m *Manager) Subscribe(l Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// Snapshot captures the committed history. A pending edit is not included.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Schema:  snapshotSchema,
		Entries: m.session.Entries(),
		Cursor:  m.session.Cursor(),
		Saved:   time.Now().UTC(),
	}
}

// Restore replaces the history with a snapshot and makes its current entry
// the live text. Empty snapshots are ignored.
func (m *Manager) Restore(s Snapshot) {
	if len(s.Entries) == 0 {
		return
	}
	m.mu.Lock()
	m.cancelPendingLocked()
	m.session.restore(s.Entries, s.Cursor)
	m.live = m.session.Current()
	changes := []Change{m.changeLocked(CauseRestore)}
	listeners := m.listenersLocked()
	m.mu.Unlock()
	notify(listeners, changes)
}

func (m *Manager) flushLocked() bool {
	if m.pending == nil {
		return false
	}
	m.cancelPendingLocked()
	m.commitLocked(m.live)
	return true
}

// cancelPendingLocked stops the armed timer and invalidates its callback
// in case it already fired and is waiting on the lock.
func (m *Manager) cancelPendingLocked() {
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
	m.seq++
}

func (m *Manager) commitLocked(text string) {
	m.session.Commit(text)
	m.log.Debug("history commit", "cursor", m.session.Cursor(), "entries", m.session.Len(), "bytes", len(text))
}

func (m *Manager) changeLocked(cause Cause) Change {
	return Change{
		Text:    m.live,
		Cause:   cause,
		CanUndo: m.pending != nil || m.session.CanUndo(),
		CanRedo: m.pending == nil && m.session.CanRedo(),
	}
}

func (m *Manager) listenersLocked() []Listener {
	out := make([]Listener, 0, len(m.listeners))
	for id := 0; id < m.nextID; id++ {
		if l, ok := m.listeners[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

func notify(listeners []Listener, changes []Change) {
	for _, c := range changes {
		for _, l := range listeners {
			l(c)
		}
	}
}
