package ui

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muurk/frisquet/internal/connect"
	"github.com/muurk/frisquet/internal/protocol"
)

// RenderHex renders a body as hex with each field in its own color,
// followed by a legend of field values. Bodies that do not describe their
// fields are rendered as plain hex.
func RenderHex(body []byte, decoded protocol.Body) string {
	d, ok := decoded.(protocol.Describer)
	if !ok {
		return hex.EncodeToString(body)
	}
	fields := d.Fields()

	var dump strings.Builder
	var legend []string
	pos := 0
	for i, f := range fields {
		if f.Start < pos || f.End > len(body) || f.Start >= f.End {
			continue
		}
		if f.Start > pos {
			dump.WriteString(hex.EncodeToString(body[pos:f.Start]))
		}
		style := lipgloss.NewStyle().Foreground(SegmentColors[i%len(SegmentColors)])
		dump.WriteString(style.Render(hex.EncodeToString(body[f.Start:f.End])))
		legend = append(legend, style.Render(f.Name)+FieldNameStyle.Render("="+f.Value))
		pos = f.End
	}
	if pos < len(body) {
		dump.WriteString(FieldNameStyle.Render(hex.EncodeToString(body[pos:])))
	}

	return dump.String() + "\n" + wrapLegend(legend, GetTerminalWidth()-4)
}

// wrapLegend joins legend entries into lines no wider than width.
func wrapLegend(entries []string, width int) string {
	var lines []string
	var line string
	for _, e := range entries {
		switch {
		case line == "":
			line = e
		case lipgloss.Width(line)+1+lipgloss.Width(e) > width:
			lines = append(lines, line)
			line = e
		default:
			line += " " + e
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// RenderFrame renders a decoded frame: its header line, the raw header
// bytes and the colored body.
func RenderFrame(meta protocol.Metadata, frame []byte, body protocol.Body) string {
	header := FrameHeaderStyle.Render(meta.String())
	if body != nil {
		header += " " + HeaderParamValueStyle.Render(fmt.Sprint(body))
	}
	if len(frame) < protocol.HeaderSize {
		return header
	}
	raw := FieldNameStyle.Render(hex.EncodeToString(frame[:protocol.HeaderSize])) + " " +
		RenderHex(frame[protocol.HeaderSize:], body)
	return header + "\n" + raw
}

// RenderObservation renders one frame seen by the sniffer.
func RenderObservation(obs *connect.Observation) string {
	marker := StepPendingStyle.Render("→")
	if obs.Reply {
		marker = StepCompleteStyle.Render("←")
	}
	prefix := fmt.Sprintf("%s %s %s",
		FieldNameStyle.Render(obs.Time.Format("15:04:05.000")),
		marker,
		StepRunningStyle.Render(obs.Signature.String()),
	)
	out := prefix + " " + RenderFrame(obs.Meta, obs.Frame, obs.Body)
	if obs.Err != nil {
		out += "\n" + ErrorMessageStyle.Render("  "+obs.Err.Error())
	}
	return out
}
