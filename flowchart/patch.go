package flowchart

// Update describes a node rewrite. Nil fields keep the current value.
type Update struct {
	Kind  *Kind
	Label *string
}

// Rewrite replaces the marker span of the first definition of id with the
// updated shape and label. Everything outside the span, including the id
// itself, any :::style tag and trailing edge syntax, is left untouched.
// If the node is absent or the requested kind is unknown, doc is returned
// unchanged.
//
// Markers and label are checked together: when the result would read back
// as a different shape, label or position (for example Rounded around the
// label "(hi)" reads as an Action labelled "hi", and a label holding the end
// marker cuts the node short), doc is returned unchanged.
func Rewrite(doc, id string, u Update) string {
	span, ok := Locate(doc, id)
	if !ok {
		return doc
	}
	kind := span.Kind
	if u.Kind != nil {
		kind = *u.Kind
	}
	m, ok := kind.Markers()
	if !ok {
		return doc
	}
	label := span.Label
	if u.Label != nil {
		label = *u.Label
	}
	out := doc[:span.Start] + m.Start + label + m.End + doc[span.End:]
	got, ok := Locate(out, id)
	if !ok || got.Kind != kind || got.Label != label || got.Start != span.Start {
		return doc
	}
	return out
}

// SetLabel rewrites the label of id, keeping its shape.
func SetLabel(doc, id, label string) string {
	return Rewrite(doc, id, Update{Label: &label})
}

// SetShape rewrites the shape of id, keeping its label.
func SetShape(doc, id string, kind Kind) string {
	return Rewrite(doc, id, Update{Kind: &kind})
}
