package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Header is the box printed before a command talks to the radio: the
// command title and path, then one line per parameter.
type Header struct {
	Title   string
	Command string
	Params  []Detail
	Width   int
}

// NewHeader creates a header sized to the terminal.
func NewHeader(title, command string, params ...Detail) *Header {
	return &Header{Title: title, Command: command, Params: params, Width: GetTerminalWidth()}
}

func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

func (h *Header) Render() string {
	width := max(h.Width, MinTerminalWidth)

	lines := []string{
		HeaderTitleStyle.Render(strings.ToUpper(h.Title)),
		HeaderCommandStyle.Render(h.Command),
	}
	if len(h.Params) > 0 {
		lines = append(lines, RenderHorizontalDivider(width-6, "─"))
		for _, p := range h.Params {
			lines = append(lines, HeaderParamKeyStyle.Render(p.Key+":")+" "+HeaderParamValueStyle.Render(p.Value))
		}
	}
	return HeaderBorderStyle(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (h *Header) String() string {
	return h.Render()
}
