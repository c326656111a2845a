package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/muurk/frisquet/internal/connect"
	"github.com/muurk/frisquet/internal/protocol"
)

// Printer provides methods for printing UI components to a writer.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Detail) {
	p.Println(NewHeader(title, command, params...).SetWidth(p.width).Render())
	p.Newline()
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Detail) {
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// PrintWarning prints a warning box
func (p *Printer) PrintWarning(title string, details ...Detail) {
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// PrintError prints an error result box with troubleshooting tips
func (p *Printer) PrintError(title string, err error) {
	p.Println(NewFailureResult(title, err, Troubleshooting(err)).SetWidth(p.width).Render())
}

// PrintFrame prints a decoded frame
func (p *Printer) PrintFrame(meta protocol.Metadata, frame []byte, body protocol.Body) {
	p.Println(RenderFrame(meta, frame, body))
}

// PrintObservation prints a sniffed frame
func (p *Printer) PrintObservation(obs *connect.Observation) {
	p.Println(RenderObservation(obs))
}
