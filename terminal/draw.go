package terminal

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

var (
	styleText     = tcell.StyleDefault
	styleGutter   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleSelected = tcell.StyleDefault.Reverse(true)
	styleStatus   = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	styleInput    = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

const gutterWidth = 5

func (a *App) draw() {
	a.screen.Clear()
	width, height := a.screen.Size()
	if width <= gutterWidth || height < 3 {
		a.screen.Show()
		return
	}
	body := height - 2

	text := a.ctl.Text()
	a.pos = clampOffset(text, a.pos)
	row, _, lineStart := position(text, a.pos)
	if row < a.top {
		a.top = row
	}
	if row >= a.top+body {
		a.top = row - body + 1
	}

	selStart, selEnd := -1, -1
	if span, ok := a.ctl.Selection(); ok {
		selStart, selEnd = span.Start-len(span.ID), span.End
	}

	lines := strings.Split(text, "\n")
	offset := 0
	for i, line := range lines {
		if i >= a.top && i < a.top+body {
			y := i - a.top
			drawString(a.screen, 0, y, fmt.Sprintf("%*d ", gutterWidth-1, i+1), styleGutter, gutterWidth)
			x := gutterWidth
			for j, r := range line {
				if x >= width {
					break
				}
				style := styleText
				if at := offset + j; at >= selStart && at < selEnd {
					style = styleSelected
				}
				if r == '\t' {
					for k := 0; k < tabWidth; k++ {
						a.screen.SetContent(x+k, y, ' ', nil, style)
					}
				} else {
					a.screen.SetContent(x, y, r, nil, style)
				}
				x += cellWidth(r)
			}
		}
		offset += len(line) + 1
	}

	if a.mode == modeText {
		x := gutterWidth
		for _, r := range text[lineStart:a.pos] {
			x += cellWidth(r)
		}
		a.screen.ShowCursor(x, row-a.top)
	}

	a.drawStatus(width, height)
	a.screen.Show()
}

func (a *App) drawStatus(width, height int) {
	current, total := a.ctl.History().Stats()
	flags := ""
	if a.ctl.History().Pending() {
		flags += " *"
	}
	if a.ctl.Generating() {
		flags += " [generating]"
	}
	left := fmt.Sprintf(" %s  %d/%d%s", a.opts.Title, current, total, flags)
	if span, ok := a.ctl.Selection(); ok {
		left += fmt.Sprintf("  %s:%s", span.ID, span.Kind)
	}
	for x := 0; x < width; x++ {
		a.screen.SetContent(x, height-2, ' ', nil, styleStatus)
	}
	drawString(a.screen, 0, height-2, left, styleStatus, width)

	var prompt string
	switch a.mode {
	case modeLabel:
		prompt = "label: " + string(a.input)
	case modePrompt:
		prompt = "request: " + string(a.input)
	default:
		prompt = a.status
		if prompt == "" {
			prompt = "^N select  Tab shape  ^E label  ^D direction  ^G generate  ^Z/^Y undo/redo  ^S save  ^Q quit"
		}
	}
	end := drawString(a.screen, 0, height-1, prompt, styleInput, width)
	if a.mode != modeText {
		a.screen.ShowCursor(end, height-1)
	}
}

// drawString writes s at (x, y) clipped to width cells and returns the
// column after the last cell written.
func drawString(s tcell.Screen, x, y int, value string, style tcell.Style, width int) int {
	value = truncate(value, width-x)
	for _, r := range value {
		s.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
	return x
}
