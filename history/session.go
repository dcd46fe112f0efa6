// Package history keeps a bounded, linear undo/redo history of document
// text and coalesces bursts of edits into single entries.
package history

// DefaultMaxEntries is used when no bound is configured.
const DefaultMaxEntries = 50

// Session is the committed history: an ordered list of documents and a
// cursor pointing at the current one. It is not safe for concurrent use;
// Manager serialises access.
type Session struct {
	entries []string
	cursor  int
	max     int
}

// NewSession creates a session holding initial as its only entry.
func NewSession(initial string, max int) *Session {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	entries := make([]string, 1, max)
	entries[0] = initial
	return &Session{entries: entries, max: max}
}

// Commit drops any redo tail, appends text and moves the cursor to it.
// When the bound is exceeded the oldest entries are evicted and the cursor
// shifts with them.
func (s *Session) Commit(text string) {
	s.entries = append(s.entries[:s.cursor+1], text)
	s.cursor = len(s.entries) - 1
	if over := len(s.entries) - s.max; over > 0 {
		s.entries = append(s.entries[:0], s.entries[over:]...)
		s.cursor -= over
	}
}

// CanUndo reports whether there is an older entry.
func (s *Session) CanUndo() bool {
	return s.cursor > 0
}

// CanRedo reports whether there is a newer entry.
func (s *Session) CanRedo() bool {
	return s.cursor < len(s.entries)-1
}

// Undo moves the cursor back one entry. ok is false at the oldest entry.
func (s *Session) Undo() (text string, ok bool) {
	if !s.CanUndo() {
		return s.entries[s.cursor], false
	}
	s.cursor--
	return s.entries[s.cursor], true
}

// Redo moves the cursor forward one entry. ok is false at the newest entry.
func (s *Session) Redo() (text string, ok bool) {
	if !s.CanRedo() {
		return s.entries[s.cursor], false
	}
	s.cursor++
	return s.entries[s.cursor], true
}

// Current returns the entry under the cursor.
func (s *Session) Current() string {
	return s.entries[s.cursor]
}

// Len returns the number of entries.
func (s *Session) Len() int {
	return len(s.entries)
}

// Cursor returns the index of the current entry.
func (s *Session) Cursor() int {
	return s.cursor
}

// Max returns the entry bound.
func (s *Session) Max() int {
	return s.max
}

// Entries returns a copy of the committed documents, oldest first.
func (s *Session) Entries() []string {
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}

// restore replaces the session contents. Out-of-range input is clamped so
// the cursor invariant always holds.
func (s *Session) restore(entries []string, cursor int) {
	if len(entries) == 0 {
		return
	}
	if over := len(entries) - s.max; over > 0 {
		entries = entries[over:]
		cursor -= over
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(entries) {
		cursor = len(entries) - 1
	}
	s.entries = append(s.entries[:0], entries...)
	s.cursor = cursor
}
