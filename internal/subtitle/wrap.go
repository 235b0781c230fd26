package subtitle

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

const (
	// CharsPerLine is the line budget at full frame width
	CharsPerLine = 60

	// MaxLines caps the rendered subtitle height
	MaxLines = 3

	ellipsis = "..."
)

// LineBudget converts a width fraction into a per-line display width budget.
func LineBudget(maxWidth float64) int {
	return int(CharsPerLine * maxWidth)
}

// Wrap collapses whitespace and breaks text on word boundaries so each line
// fits budget display columns. Words wider than the budget stay whole. At
// most MaxLines lines are returned; when more would be needed the last one is
// cut to budget-3 columns and suffixed with "...".
func Wrap(text string, budget int) []string {
	text = norm.NFC.String(text)
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if budget <= 0 {
		budget = 1
	}

	var (
		lines   []string
		current strings.Builder
		width   int
	)
	for _, w := range words {
		ww := runewidth.StringWidth(w)
		switch {
		case width == 0:
			current.WriteString(w)
			width = ww
		case width+1+ww <= budget:
			current.WriteByte(' ')
			current.WriteString(w)
			width += 1 + ww
		default:
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(w)
			width = ww
		}
	}
	lines = append(lines, current.String())

	if len(lines) > MaxLines {
		lines = lines[:MaxLines]
		cut := budget - len(ellipsis)
		if cut < 0 {
			cut = 0
		}
		lines[MaxLines-1] = runewidth.Truncate(lines[MaxLines-1], cut, "") + ellipsis
	}
	return lines
}
