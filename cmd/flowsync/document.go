package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"flowsync/markdown"
)

// document is where an edited flowchart comes from and goes back to.
type document interface {
	Name() string
	Text() string
	Save(text string) error
}

// plainFile is a file holding only the flowchart source. A missing file
// starts empty and is created on first save.
type plainFile struct {
	path string
	text string
}

func openPlainFile(path string) (*plainFile, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &plainFile{path: path, text: string(data)}, nil
}

func (f *plainFile) Name() string { return filepath.Base(f.path) }
func (f *plainFile) Text() string { return f.text }

func (f *plainFile) Save(text string) error {
	if err := os.WriteFile(f.path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", f.path, err)
	}
	f.text = text
	return nil
}

// markdownBlock is one mermaid flowchart inside a markdown file.
type markdownBlock struct {
	path  string
	index int
	block markdown.Block
}

// openMarkdownBlock picks the index-th (1-based) flowchart block of path.
// Index 0 selects the only block and fails when there are several.
func openMarkdownBlock(path string, index int) (*markdownBlock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	blocks := markdown.NewScanner(string(data)).Flowcharts()
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%s: no mermaid flowchart blocks found", path)
	}
	if index == 0 {
		if len(blocks) > 1 {
			lines := make([]string, len(blocks))
			for i, b := range blocks {
				lines[i] = "  " + markdown.Describe(b, i)
			}
			return nil, fmt.Errorf("%s has %d flowchart blocks, choose one with --block:\n%s",
				path, len(blocks), strings.Join(lines, "\n"))
		}
		index = 1
	}
	if index < 1 || index > len(blocks) {
		return nil, fmt.Errorf("invalid block number %d (file has %d flowchart blocks)", index, len(blocks))
	}
	return &markdownBlock{path: path, index: index, block: blocks[index-1]}, nil
}

func (m *markdownBlock) Name() string {
	return fmt.Sprintf("%s#%d", filepath.Base(m.path), m.index)
}

func (m *markdownBlock) Text() string { return m.block.Content }

// Save rereads the file so edits made elsewhere are detected rather than
// overwritten.
func (m *markdownBlock) Save(text string) error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", m.path, err)
	}
	sc := markdown.NewScanner(string(data))
	updated, err := sc.Replace(m.block, text)
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", m.path, err)
	}
	for _, b := range sc.Blocks() {
		if b.StartLine == m.block.StartLine {
			m.block = b
			return nil
		}
	}
	return fmt.Errorf("%s: block vanished after save", m.path)
}

// readInput reads path, or standard input when path is empty or "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read standard input: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// writeOutput writes text back to path when inPlace is set, otherwise to
// the command's output.
func writeOutput(cmd *cobra.Command, path, text string, inPlace bool) error {
	if !inPlace {
		_, err := io.WriteString(cmd.OutOrStdout(), text)
		return err
	}
	if path == "" || path == "-" {
		return errors.New("--write needs a file argument")
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
