package flowchart

import "testing"

func TestHeader(t *testing.T) {
	tests := []struct {
		doc     string
		ok      bool
		keyword string
		dir     string
	}{
		{"graph TD\nA-->B", true, "graph", "TD"},
		{"flowchart LR", true, "flowchart", "LR"},
		{"graph", true, "graph", ""},
		{"  flowchart BT\n", true, "flowchart", "BT"},
		{"sequenceDiagram\nA->>B: hi", false, "", ""},
		{"", false, "", ""},
	}
	for _, tt := range tests {
		info, ok := Header(tt.doc)
		if ok != tt.ok {
			t.Errorf("%q: expected ok=%v, got %v", tt.doc, tt.ok, ok)
			continue
		}
		if info.Keyword != tt.keyword || info.Direction != tt.dir {
			t.Errorf("%q: expected %s %s, got %s %s", tt.doc, tt.keyword, tt.dir, info.Keyword, info.Direction)
		}
	}
}

func TestIsFlowchart(t *testing.T) {
	if !IsFlowchart("\n\ngraph TD\nA-->B") {
		t.Error("expected leading blank lines to be ignored")
	}
	if IsFlowchart("pie title Pets") {
		t.Error("expected pie chart to be rejected")
	}
}

func TestSetDirection(t *testing.T) {
	got, err := SetDirection("graph TD\n  A --> B", "lr")
	if err != nil {
		t.Fatalf("SetDirection failed: %v", err)
	}
	if got != "graph LR\n  A --> B" {
		t.Errorf("unexpected result %q", got)
	}

	got, err = SetDirection("flowchart\n  A --> B", "RL")
	if err != nil {
		t.Fatalf("SetDirection failed: %v", err)
	}
	if got != "flowchart RL\n  A --> B" {
		t.Errorf("unexpected result %q", got)
	}

	got, err = SetDirection("  A --> B", "TB")
	if err != nil {
		t.Fatalf("SetDirection failed: %v", err)
	}
	if got != "flowchart TB\n  A --> B" {
		t.Errorf("expected a header to be prepended, got %q", got)
	}

	doc := "graph TD"
	if got, err := SetDirection(doc, "sideways"); err == nil || got != doc {
		t.Errorf("expected error and unchanged document, got %q, %v", got, err)
	}
}

func TestKindHelpers(t *testing.T) {
	for _, k := range Kinds() {
		parsed, ok := ParseKind(k.String())
		if !ok || parsed != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), parsed, ok)
		}
	}
	if _, ok := ParseKind("hexagon"); ok {
		t.Error("expected hexagon to be unknown")
	}
	if Loop.Next() != Rectangle {
		t.Errorf("expected Loop.Next to wrap to Rectangle, got %v", Loop.Next())
	}
	if m, ok := Action.Markers(); !ok || !m.Atomic() {
		t.Error("expected action markers to be atomic")
	}
	if m, _ := Note.Markers(); m.Atomic() {
		t.Error("expected note markers to be single characters")
	}
}
