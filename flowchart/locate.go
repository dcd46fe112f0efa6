package flowchart

import "strings"

// NodeSpan is the location of one node definition inside a document.
// Start is the offset of the start marker and End is one past the end marker,
// both relative to the whole document.
type NodeSpan struct {
	ID    string
	Kind  Kind
	Label string
	Line  int // zero-based line number
	Start int
	End   int
}

// Text returns the marker-delimited slice of the span, e.g. "[Label]".
func (s NodeSpan) Text(doc string) string {
	if s.Start < 0 || s.End > len(doc) || s.Start > s.End {
		return ""
	}
	return doc[s.Start:s.End]
}

// Locate finds the first definition of id in doc. A definition is the id,
// starting on an identifier boundary, immediately followed by a start marker
// and with the matching end marker later on the same line. Lines are scanned
// top to bottom and the first line holding a complete match wins.
func Locate(doc, id string) (NodeSpan, bool) {
	if id == "" {
		return NodeSpan{}, false
	}
	offset := 0
	for lineNo := 0; ; lineNo++ {
		line := doc[offset:]
		next := strings.IndexByte(line, '\n')
		if next >= 0 {
			line = line[:next]
		}
		if span, ok := locateInLine(line, id); ok {
			span.Line = lineNo
			span.Start += offset
			span.End += offset
			return span, true
		}
		if next < 0 {
			return NodeSpan{}, false
		}
		offset += next + 1
	}
}

// locateInLine returns the first definition of id in line. Offsets in the
// result are relative to line.
func locateInLine(line, id string) (NodeSpan, bool) {
	var found NodeSpan
	ok := false
	definitions(line, func(span NodeSpan) bool {
		if span.ID != id {
			return true
		}
		found, ok = span, true
		return false
	})
	return found, ok
}

// definitions calls fn for every identifier on line that is followed by a
// complete shape, left to right. Scanning resumes after the end marker, so
// text inside a label never yields a definition. fn returns false to stop.
func definitions(line string, fn func(NodeSpan) bool) {
	for i := 0; i < len(line); {
		if !isIdentByte(line[i]) || (i > 0 && isIdentByte(line[i-1])) {
			i++
			continue
		}
		j := i
		for j < len(line) && isIdentByte(line[j]) {
			j++
		}
		kind, label, width, ok := matchShape(line[j:])
		if !ok {
			i = j
			continue
		}
		if !fn(NodeSpan{ID: line[i:j], Kind: kind, Label: label, Start: j, End: j + width}) {
			return
		}
		i = j + width
	}
}

// matchShape reads a marker-delimited label at the head of rest. width covers
// the start marker, the label and the end marker.
func matchShape(rest string) (kind Kind, label string, width int, ok bool) {
	for _, k := range scanOrder {
		m := markers[k]
		if !strings.HasPrefix(rest, m.Start) {
			continue
		}
		body := rest[len(m.Start):]
		end := strings.Index(body, m.End)
		if end < 0 {
			continue
		}
		return k, body[:end], len(m.Start) + end + len(m.End), true
	}
	return 0, "", 0, false
}

func isIdentByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}
