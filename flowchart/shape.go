// Package flowchart locates and rewrites node definitions inside flowchart
// source text without parsing the full diagram grammar.
package flowchart

import "strings"

// Kind is the shape of a node, determined by the markers around its label.
type Kind int

const (
	Rectangle Kind = iota
	Rounded
	Decision
	Note
	Action
	Loop
)

// Markers is the start/end marker pair bound to a Kind.
type Markers struct {
	Start string
	End   string
}

// Atomic reports whether the markers are two characters wide.
func (m Markers) Atomic() bool {
	return len(m.Start) > 1
}

var markers = map[Kind]Markers{
	Rectangle: {Start: "[", End: "]"},
	Rounded:   {Start: "(", End: ")"},
	Decision:  {Start: "{", End: "}"},
	Note:      {Start: ">", End: "]"},
	Action:    {Start: "((", End: "))"},
	Loop:      {Start: "[[", End: "]]"},
}

// scanOrder lists kinds in the order they are tried at a candidate position.
// Two-character markers come first so that "((" is never read as "(" plus a
// stray parenthesis in the label.
var scanOrder = []Kind{Action, Loop, Rectangle, Rounded, Decision, Note}

var kindNames = map[Kind]string{
	Rectangle: "rectangle",
	Rounded:   "rounded",
	Decision:  "decision",
	Note:      "note",
	Action:    "action",
	Loop:      "loop",
}

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether the kind exists in the grammar.
func (k Kind) Valid() bool {
	_, ok := markers[k]
	return ok
}

// Markers returns the marker pair of the kind. ok is false for unknown kinds.
func (k Kind) Markers() (Markers, bool) {
	m, ok := markers[k]
	return m, ok
}

// Kinds returns every kind in scan precedence order.
func Kinds() []Kind {
	out := make([]Kind, len(scanOrder))
	copy(out, scanOrder)
	return out
}

// ParseKind resolves a kind by name. "default" is accepted for rectangle and
// "participant" for rounded, matching the names used by older editors.
func ParseKind(name string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rectangle", "default", "rect":
		return Rectangle, true
	case "rounded", "participant":
		return Rounded, true
	case "decision", "diamond":
		return Decision, true
	case "note":
		return Note, true
	case "action", "circle":
		return Action, true
	case "loop":
		return Loop, true
	}
	return 0, false
}

// Next returns the kind after k in declaration order, wrapping around.
func (k Kind) Next() Kind {
	if !k.Valid() {
		return Rectangle
	}
	return (k + 1) % Kind(len(markers))
}
