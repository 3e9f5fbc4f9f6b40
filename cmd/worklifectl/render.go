package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"worklife/internal/core"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4A90E2"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	positiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	negativeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	errorStyle = negativeStyle

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(0, 1)
)

// table renders rows under headers with columns padded to their widest cell.
type table struct {
	headers []string
	rows    [][]string
}

func newTable(headers ...string) *table {
	return &table{headers: headers}
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	line := func(cells []string, style *lipgloss.Style) string {
		parts := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			padded := cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if style != nil {
				padded = style.Render(padded)
			}
			parts[i] = padded
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	fmt.Fprintln(w, line(t.headers, &headerStyle))
	for _, row := range t.rows {
		fmt.Fprintln(w, line(row, nil))
	}
	if len(t.rows) == 0 {
		fmt.Fprintln(w, labelStyle.Render("(none)"))
	}
}

// keyValues renders aligned "label  value" lines inside a box.
func keyValues(w io.Writer, title string, pairs ...[2]string) {
	width := 0
	for _, p := range pairs {
		if n := lipgloss.Width(p[0]); n > width {
			width = n
		}
	}
	lines := make([]string, len(pairs))
	for i, p := range pairs {
		lines[i] = labelStyle.Render(p[0]+strings.Repeat(" ", width-lipgloss.Width(p[0]))) + "  " + p[1]
	}
	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w, boxStyle.Render(strings.Join(lines, "\n")))
}

func signedMoney(m core.Money) string {
	if m.Cents < 0 {
		return negativeStyle.Render(m.String())
	}
	return positiveStyle.Render(m.String())
}

func optionalDate(d *core.Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

func optionalID(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprint(*id)
}
