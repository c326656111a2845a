package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Palette
var (
	FlameColor   = lipgloss.Color("#F26B1D") // headers, frame headers
	SuccessColor = lipgloss.Color("#3FB950")
	ErrorColor   = lipgloss.Color("#F85149")
	WarningColor = lipgloss.Color("#D29922")
	MutedColor   = lipgloss.Color("#6E7681") // keys, legends, hints
	TextColor    = lipgloss.Color("#E6EDF3")
)

// SegmentColors cycles over the fields of a hex dump.
var SegmentColors = []lipgloss.Color{
	lipgloss.Color("#58A6FF"),
	lipgloss.Color("#E3B341"),
	lipgloss.Color("#BC8CFF"),
	lipgloss.Color("#56D364"),
	lipgloss.Color("#FF7B72"),
	lipgloss.Color("#76E3EA"),
}

// Output width bounds
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 100
)

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

var (
	HeaderTitleStyle      = fg(TextColor).Bold(true).PaddingLeft(2)
	HeaderCommandStyle    = fg(MutedColor).PaddingLeft(2)
	HeaderParamKeyStyle   = fg(MutedColor).PaddingLeft(2)
	HeaderParamValueStyle = fg(TextColor)

	// Pairing steps
	StepCompleteStyle = fg(SuccessColor)
	StepRunningStyle  = fg(WarningColor)
	StepPendingStyle  = fg(MutedColor)

	SuccessTitleStyle = fg(SuccessColor).Bold(true)
	ErrorTitleStyle   = fg(ErrorColor).Bold(true)
	ErrorMessageStyle = fg(ErrorColor)

	ResultKeyStyle   = fg(MutedColor).Width(18)
	ResultValueStyle = fg(TextColor)

	TroubleshootingTitleStyle = fg(MutedColor).Bold(true)
	TroubleshootingItemStyle  = fg(MutedColor)

	// FrameHeaderStyle renders the "to<-from assoc req ctl msg" line of a frame
	FrameHeaderStyle = fg(FlameColor).Bold(true)
	// FieldNameStyle renders raw header bytes and the legend under a hex dump
	FieldNameStyle = fg(MutedColor)
)

// Markers
const (
	StepMarkerComplete = "✓"
	StepMarkerRunning  = "●"
	StepMarkerPending  = "·"
	SuccessMarker      = "✓"
	FailureMarker      = "✗"
)

// IsTerminal reports whether stdout is a terminal. Animated output is only
// used when it is.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// GetTerminalWidth returns the stdout width clamped to the supported range.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth
	}
	return max(MinTerminalWidth, min(width, MaxContentWidth))
}

func box(border lipgloss.Border, color lipgloss.Color, width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(border).
		BorderForeground(color).
		Width(width - 2)
}

func HeaderBorderStyle(width int) lipgloss.Style {
	return box(lipgloss.RoundedBorder(), FlameColor, width)
}

func SuccessBoxStyle(width int) lipgloss.Style {
	return box(lipgloss.DoubleBorder(), SuccessColor, width).Padding(0, 2)
}

func ErrorBoxStyle(width int) lipgloss.Style {
	return box(lipgloss.DoubleBorder(), ErrorColor, width).Padding(0, 2)
}

func WarningBoxStyle(width int) lipgloss.Style {
	return box(lipgloss.DoubleBorder(), WarningColor, width).Padding(0, 2)
}

// TroubleshootingBoxStyle is nested inside an error box, hence narrower.
func TroubleshootingBoxStyle(width int) lipgloss.Style {
	return box(lipgloss.RoundedBorder(), MutedColor, width-6).Padding(0, 1)
}

// RenderHorizontalDivider repeats char over width columns.
func RenderHorizontalDivider(width int, char string) string {
	return fg(FlameColor).Render(strings.Repeat(char, width))
}
