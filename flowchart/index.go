package flowchart

import "strings"

// Index maps node ids to their definitions in one document value.
// It is rebuilt whenever the document changes, never patched in place.
type Index struct {
	doc   string
	order []string
	spans map[string]NodeSpan
}

// NewIndex scans doc for node definitions.
func NewIndex(doc string) *Index {
	idx := &Index{doc: doc, spans: make(map[string]NodeSpan)}
	for _, id := range nodeIDs(doc) {
		// Locate is the single source of truth for where an id is defined.
		span, ok := Locate(doc, id)
		if !ok {
			continue
		}
		idx.order = append(idx.order, id)
		idx.spans[id] = span
	}
	return idx
}

// Document returns the text the index was built from.
func (idx *Index) Document() string {
	return idx.doc
}

// Lookup returns the span for id.
func (idx *Index) Lookup(id string) (NodeSpan, bool) {
	span, ok := idx.spans[id]
	return span, ok
}

// Len returns the number of distinct node ids.
func (idx *Index) Len() int {
	return len(idx.order)
}

// Nodes returns the spans in document order of first definition.
func (idx *Index) Nodes() []NodeSpan {
	out := make([]NodeSpan, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, idx.spans[id])
	}
	return out
}

// At returns the node whose id or marker span covers offset.
func (idx *Index) At(offset int) (NodeSpan, bool) {
	for _, id := range idx.order {
		span := idx.spans[id]
		if offset >= span.Start-len(span.ID) && offset < span.End {
			return span, true
		}
	}
	return NodeSpan{}, false
}

// Nodes lists every node definition in doc, first definition per id.
func Nodes(doc string) []NodeSpan {
	return NewIndex(doc).Nodes()
}

// nodeIDs returns ids that are followed by a complete shape, in the order
// they first appear. Text inside a matched span is skipped so labels such
// as "call f(x)" do not produce phantom nodes.
func nodeIDs(doc string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(doc, "\n") {
		definitions(line, func(span NodeSpan) bool {
			if !seen[span.ID] {
				seen[span.ID] = true
				ids = append(ids, span.ID)
			}
			return true
		})
	}
	return ids
}
