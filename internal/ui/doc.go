// Package ui provides terminal rendering for the frisquet-connect CLI.
//
// Output follows a "run once and exit" pattern built on Lipgloss: a command
// header, then decoded frames, then a success or failure box. Frames are
// shown as hex with each body field in its own color and a legend of the
// decoded values. Pairing is the only animated view: a Bubble Tea program
// with a spinner follows the handshake states, falling back to plain lines
// when stdout is not a terminal.
//
// # Logging Integration
//
// zap logging is silent unless FRISQUET_LOG_LEVEL or --log-level is set, so
// the styled output is displayed cleanly by default.
package ui
