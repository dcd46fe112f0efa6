package stream

import (
	"context"
	"errors"
	"testing"
)

func collect(t *testing.T, src Source) ([]Emission, *Assembler, error) {
	t.Helper()
	a := NewAssembler(nil)
	var out []Emission
	err := Run(context.Background(), src, a, func(em Emission) {
		out = append(out, em)
	})
	return out, a, err
}

func TestRunCompletes(t *testing.T) {
	out, a, err := collect(t, Events(
		Content("graph T"),
		Content("D\n  A-->"),
		Content("B\n"),
		Done("graph TD\n  A-->B\n"),
		Content("ignored\n"),
	))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 emissions, got %+v", out)
	}
	if !out[2].Final || out[2].Text != "graph TD\n  A-->B\n" {
		t.Errorf("unexpected final emission %+v", out[2])
	}
	if !a.Terminal() {
		t.Error("expected assembler to be terminal")
	}
}

func TestRunRemoteError(t *testing.T) {
	out, a, err := collect(t, Events(Content("graph TD\n  A"), Failure("overloaded")))
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if len(out) != 1 || out[0].Text != "graph TD\n" {
		t.Errorf("expected only the flushed line, got %+v", out)
	}
	if a.Emitted() != "graph TD\n" {
		t.Errorf("unexpected emitted text %q", a.Emitted())
	}
}

func TestRunIncomplete(t *testing.T) {
	_, a, err := collect(t, Events(Content("graph TD\n")))
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if !a.Terminal() {
		t.Error("expected the assembler to receive an explicit error")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := NewAssembler(nil)
	src := Events(Content("graph TD\n"), Content("A\n"))

	err := Run(ctx, src, a, func(Emission) { cancel() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !a.Terminal() || a.Emitted() != "graph TD\n" {
		t.Errorf("expected terminal assembler holding the first line, got %q", a.Emitted())
	}
}

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		"```mermaid\ngraph TD\nA-->B\n```": "graph TD\nA-->B",
		"```\ngraph LR\n```\n":             "graph LR",
		"  graph TD\n  A\n":                "graph TD\n  A",
		"```mermaid\ngraph TD\n":           "graph TD",
	}
	for in, want := range tests {
		if got := StripFences(in); got != want {
			t.Errorf("StripFences(%q) = %q, want %q", in, got, want)
		}
	}
}
