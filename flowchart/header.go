package flowchart

import (
	"fmt"
	"strings"
)

// DefaultDiagram is the document an editing session starts from when no
// file is given.
const DefaultDiagram = `flowchart TD
    A(Email) --> C[Process Message]
    B(SMS) --> C
    C --> D{Valid Order?}
    D -->|Yes| E[Create Order]
    D -->|No| F[Reject Request]
    E --> G(Send Confirmation)
    E --> H(Update Inventory)
    F --> I(Send Rejection Notice)`

// Directions lists the layout directions accepted in a header line.
var Directions = []string{"TB", "TD", "BT", "LR", "RL"}

// HeaderInfo describes the first line of a flowchart document.
type HeaderInfo struct {
	Keyword   string // "graph" or "flowchart"
	Direction string // may be empty
}

// Header parses the first line of doc. ok is false when the document does
// not start with a graph or flowchart declaration.
func Header(doc string) (HeaderInfo, bool) {
	first, _, _ := strings.Cut(doc, "\n")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return HeaderInfo{}, false
	}
	if fields[0] != "graph" && fields[0] != "flowchart" {
		return HeaderInfo{}, false
	}
	info := HeaderInfo{Keyword: fields[0]}
	if len(fields) > 1 && validDirection(fields[1]) {
		info.Direction = fields[1]
	}
	return info, true
}

// IsFlowchart reports whether doc declares a flowchart.
func IsFlowchart(doc string) bool {
	_, ok := Header(strings.TrimLeft(doc, " \t\r\n"))
	return ok
}

// SetDirection rewrites the direction on the header line. A document without
// a header gets a "flowchart <dir>" line prepended. Only the first line is
// ever touched.
func SetDirection(doc, dir string) (string, error) {
	dir = strings.ToUpper(strings.TrimSpace(dir))
	if !validDirection(dir) {
		return doc, fmt.Errorf("unknown direction %q (want one of %s)", dir, strings.Join(Directions, ", "))
	}
	info, ok := Header(doc)
	if !ok {
		return "flowchart " + dir + "\n" + doc, nil
	}
	first, rest, hasRest := strings.Cut(doc, "\n")
	indent := first[:len(first)-len(strings.TrimLeft(first, " \t"))]
	fields := strings.Fields(first)
	tail := fields[1:]
	if info.Direction != "" {
		tail = tail[1:]
	}
	line := indent + info.Keyword + " " + dir
	if len(tail) > 0 {
		line += " " + strings.Join(tail, " ")
	}
	if !hasRest {
		return line, nil
	}
	return line + "\n" + rest, nil
}

func validDirection(dir string) bool {
	for _, d := range Directions {
		if d == dir {
			return true
		}
	}
	return false
}
