// Package markdown finds fenced mermaid flowcharts inside markdown files so
// they can be edited in place.
package markdown

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrBlockChanged is returned when a block was modified on disk after it
// was scanned.
var ErrBlockChanged = errors.New("diagram block changed since it was read")

// Block is one ```mermaid fenced block.
type Block struct {
	Content   string // text between the fences, indentation removed
	StartLine int    // zero-based line of the opening fence
	EndLine   int    // zero-based line of the closing fence
	Indent    string // indentation of the opening fence
	Hash      string // sha256 of Content at scan time
}

// Scanner holds a markdown document split into lines.
type Scanner struct {
	lines []string
}

// NewScanner creates a scanner over content.
func NewScanner(content string) *Scanner {
	return &Scanner{lines: strings.Split(content, "\n")}
}

// Content returns the current document.
func (s *Scanner) Content() string {
	return strings.Join(s.lines, "\n")
}

// Blocks returns every mermaid block in document order. An unterminated
// fence at the end of the file is ignored.
func (s *Scanner) Blocks() []Block {
	var blocks []Block
	var cur *Block
	var body []string
	for i, line := range s.lines {
		trimmed := strings.TrimLeft(line, " \t")
		if cur == nil {
			if lang, ok := strings.CutPrefix(trimmed, "```"); ok && isMermaid(lang) {
				cur = &Block{StartLine: i, Indent: line[:len(line)-len(trimmed)]}
				body = body[:0]
			}
			continue
		}
		if strings.HasPrefix(trimmed, "```") {
			cur.EndLine = i
			cur.Content = strings.Join(body, "\n")
			cur.Hash = hashOf(cur.Content)
			blocks = append(blocks, *cur)
			cur = nil
			continue
		}
		body = append(body, strings.TrimPrefix(line, cur.Indent))
	}
	return blocks
}

// Flowcharts returns the blocks that declare a flowchart.
func (s *Scanner) Flowcharts() []Block {
	var out []Block
	for _, b := range s.Blocks() {
		if isFlowchartHeader(b.Content) {
			out = append(out, b)
		}
	}
	return out
}

// Replace swaps the content of block for text and returns the new document.
// The fences must still be in place and the content must hash to the value
// recorded at scan time.
func (s *Scanner) Replace(block Block, text string) (string, error) {
	if block.StartLine < 0 || block.EndLine >= len(s.lines) || block.StartLine >= block.EndLine {
		return "", fmt.Errorf("invalid block boundaries: start=%d, end=%d, total lines=%d",
			block.StartLine, block.EndLine, len(s.lines))
	}
	open := strings.TrimLeft(s.lines[block.StartLine], " \t")
	if lang, ok := strings.CutPrefix(open, "```"); !ok || !isMermaid(lang) {
		return "", fmt.Errorf("line %d: opening fence moved: %w", block.StartLine+1, ErrBlockChanged)
	}
	if !strings.HasPrefix(strings.TrimLeft(s.lines[block.EndLine], " \t"), "```") {
		return "", fmt.Errorf("line %d: closing fence moved: %w", block.EndLine+1, ErrBlockChanged)
	}
	current := make([]string, 0, block.EndLine-block.StartLine)
	for _, line := range s.lines[block.StartLine+1 : block.EndLine] {
		current = append(current, strings.TrimPrefix(line, block.Indent))
	}
	if hashOf(strings.Join(current, "\n")) != block.Hash {
		return "", fmt.Errorf("line %d: %w", block.StartLine+1, ErrBlockChanged)
	}

	replacement := strings.Split(text, "\n")
	lines := make([]string, 0, len(s.lines)-len(current)+len(replacement))
	lines = append(lines, s.lines[:block.StartLine+1]...)
	for _, line := range replacement {
		if line == "" {
			lines = append(lines, line)
			continue
		}
		lines = append(lines, block.Indent+line)
	}
	lines = append(lines, s.lines[block.EndLine:]...)
	s.lines = lines
	return s.Content(), nil
}

// Describe returns a one-line summary of a block for pickers.
func Describe(block Block, index int) string {
	preview := ""
	for _, line := range strings.Split(block.Content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			preview = trimmed
			break
		}
	}
	if len(preview) > 50 {
		preview = preview[:47] + "..."
	}
	return fmt.Sprintf("%d. line %d: %s", index+1, block.StartLine+1, preview)
}

func isMermaid(lang string) bool {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "mermaid", "mmd":
		return true
	}
	return false
}

func isFlowchartHeader(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "%%") {
			continue
		}
		return fields[0] == "graph" || fields[0] == "flowchart"
	}
	return false
}

func hashOf(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
