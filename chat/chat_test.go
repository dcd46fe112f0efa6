package chat

import (
	"strings"
	"testing"
)

func TestPrepareEmbedsDiagram(t *testing.T) {
	c := NewConversation(1000)
	msgs := c.Prepare("add a retry step", "graph TD\n  A-->B")

	if len(msgs) != 1 || msgs[0].Role != RoleUser {
		t.Fatalf("expected a single user message, got %+v", msgs)
	}
	for _, part := range []string{"<USER_REQUEST>\nadd a retry step\n</USER_REQUEST>", "<CURRENT_DIAGRAM>\ngraph TD\n  A-->B\n</CURRENT_DIAGRAM>"} {
		if !strings.Contains(msgs[0].Content, part) {
			t.Errorf("expected %q in %q", part, msgs[0].Content)
		}
	}
	if len(c.Messages()) != 0 {
		t.Error("expected Prepare not to record anything")
	}
}

func TestAcceptRecordsExchange(t *testing.T) {
	c := NewConversation(1000)
	sent := c.Prepare("first", "graph TD")
	c.Accept(sent, "graph LR")

	msgs := c.Messages()
	if len(msgs) != 2 || msgs[1].Role != RoleAssistant || msgs[1].Content != "graph LR" {
		t.Fatalf("unexpected conversation %+v", msgs)
	}

	next := c.Prepare("second", "graph LR")
	if len(next) != 3 {
		t.Errorf("expected prior turns to be included, got %d messages", len(next))
	}
}

func TestTruncate(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Content: "aaaaaaaaaa"},
		{Role: RoleAssistant, Content: "bbbbb"},
		{Role: RoleUser, Content: "ccccc"},
	}

	got := Truncate(msgs, 100)
	if len(got) != 3 {
		t.Errorf("expected everything to fit, got %+v", got)
	}

	got = Truncate(msgs, 13)
	if len(got) != 3 || got[0].Content != "aaa" {
		t.Errorf("expected the oldest message to be cut to 3 chars, got %+v", got)
	}

	got = Truncate(msgs, 10)
	if len(got) != 3 || got[0].Content != TruncatedPlaceholder {
		t.Errorf("expected placeholder for the oldest message, got %+v", got)
	}

	four := append([]Message{{Role: RoleUser, Content: "zz"}}, msgs...)
	got = Truncate(four, 12)
	if len(got) != 2 || got[0].Content != "bbbbb" {
		t.Errorf("expected only the two newest messages, got %+v", got)
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	got := Truncate([]Message{{Role: RoleUser, Content: "日本語テキスト"}}, 3)
	if len(got) != 1 || got[0].Content != "日本語" {
		t.Errorf("expected rune-aware cut, got %+v", got)
	}
}
