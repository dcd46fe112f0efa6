// Package chat builds the conversation sent to the diagram generation
// backend.
package chat

import (
	"fmt"
	"unicode/utf8"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TruncatedPlaceholder replaces a message that no longer fits at all.
const TruncatedPlaceholder = "[Message truncated]"

// Message is one turn of the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation keeps the turns of successful generations.
type Conversation struct {
	messages []Message
	maxChars int
}

// NewConversation creates an empty conversation bounded to maxChars
// characters of message content.
func NewConversation(maxChars int) *Conversation {
	return &Conversation{maxChars: maxChars}
}

// Prepare returns the messages to send for request: the prior turns plus a
// user message that embeds the current diagram, truncated to the budget.
// The conversation itself is not modified until Accept.
func (c *Conversation) Prepare(request, diagram string) []Message {
	msgs := make([]Message, 0, len(c.messages)+1)
	msgs = append(msgs, c.messages...)
	msgs = append(msgs, Message{Role: RoleUser, Content: Envelope(request, diagram)})
	return Truncate(msgs, c.maxChars)
}

// Accept records a completed exchange.
func (c *Conversation) Accept(sent []Message, reply string) {
	c.messages = append(append(c.messages[:0:0], sent...), Message{Role: RoleAssistant, Content: reply})
}

// Messages returns a copy of the recorded turns.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Envelope wraps a user request together with the diagram it refers to.
func Envelope(request, diagram string) string {
	return fmt.Sprintf("<USER_REQUEST>\n%s\n</USER_REQUEST>\n\n<CURRENT_DIAGRAM>\n%s\n</CURRENT_DIAGRAM>", request, diagram)
}

// Truncate keeps the newest messages whose combined length fits maxChars.
// Older messages are dropped; when the oldest message is reached and only
// part of it fits, its head is kept instead.
func Truncate(msgs []Message, maxChars int) []Message {
	if maxChars <= 0 {
		return append([]Message(nil), msgs...)
	}
	total := 0
	start := len(msgs)
	var head *Message
	for i := len(msgs) - 1; i >= 0; i-- {
		n := utf8.RuneCountInString(msgs[i].Content)
		if total+n <= maxChars {
			total += n
			start = i
			continue
		}
		if i == 0 {
			m := msgs[0]
			if remaining := maxChars - total; remaining > 0 {
				m.Content = firstRunes(m.Content, remaining)
			} else {
				m.Content = TruncatedPlaceholder
			}
			head = &m
		}
		break
	}
	out := make([]Message, 0, len(msgs)-start+1)
	if head != nil {
		out = append(out, *head)
	}
	return append(out, msgs[start:]...)
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
