package markdown

import (
	"errors"
	"strings"
	"testing"
)

const sample = "# Notes\n" +
	"\n" +
	"```mermaid\n" +
	"graph TD\n" +
	"  A[Start] --> B\n" +
	"```\n" +
	"\n" +
	"- item\n" +
	"  ```mermaid\n" +
	"  sequenceDiagram\n" +
	"    A->>B: hi\n" +
	"  ```\n" +
	"\n" +
	"```go\n" +
	"fmt.Println()\n" +
	"```\n"

func TestBlocks(t *testing.T) {
	s := NewScanner(sample)
	blocks := s.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("expected 2 mermaid blocks, got %d", len(blocks))
	}
	if blocks[0].Content != "graph TD\n  A[Start] --> B" {
		t.Errorf("unexpected first block %q", blocks[0].Content)
	}
	if blocks[1].Indent != "  " || blocks[1].Content != "sequenceDiagram\n  A->>B: hi" {
		t.Errorf("unexpected indented block %+v", blocks[1])
	}
	if flows := s.Flowcharts(); len(flows) != 1 || flows[0].StartLine != 2 {
		t.Errorf("expected only the first block to be a flowchart, got %+v", flows)
	}
}

func TestReplace(t *testing.T) {
	s := NewScanner(sample)
	blocks := s.Blocks()

	out, err := s.Replace(blocks[1], "sequenceDiagram\n  B->>A: bye")
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if !strings.Contains(out, "  ```mermaid\n  sequenceDiagram\n    B->>A: bye\n  ```") {
		t.Errorf("expected indentation to be preserved:\n%s", out)
	}
	if !strings.HasPrefix(out, "# Notes\n\n```mermaid\ngraph TD\n") {
		t.Errorf("expected the first block to be untouched:\n%s", out)
	}
	if !strings.HasSuffix(out, "```go\nfmt.Println()\n```\n") {
		t.Errorf("expected trailing content to be untouched:\n%s", out)
	}
}

func TestReplaceDetectsExternalChange(t *testing.T) {
	block := NewScanner(sample).Blocks()[0]
	changed := NewScanner(strings.Replace(sample, "A[Start]", "A[Begin]", 1))

	if _, err := changed.Replace(block, "graph LR"); !errors.Is(err, ErrBlockChanged) {
		t.Errorf("expected ErrBlockChanged, got %v", err)
	}

	block.EndLine = 99
	if _, err := NewScanner(sample).Replace(block, "graph LR"); err == nil {
		t.Error("expected invalid boundaries to fail")
	}
}

func TestDescribe(t *testing.T) {
	block := Block{Content: "\ngraph TD\n  A-->B", StartLine: 4}
	if got := Describe(block, 0); got != "1. line 5: graph TD" {
		t.Errorf("unexpected description %q", got)
	}
}
