package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muurk/frisquet/internal/connect"
	"github.com/muurk/frisquet/internal/protocol"
)

// pairingSteps are the handshake states shown as a step list.
var pairingSteps = []connect.State{
	connect.StateBroadcasting,
	connect.StateAwaitingAnnounce,
	connect.StateReplying,
	connect.StateCollecting,
}

// PairOperation runs the handshake, reporting state changes through onState.
type PairOperation func(onState func(connect.State)) (*protocol.Association, error)

type stateMsg connect.State

type pairDoneMsg struct {
	assoc *protocol.Association
	err   error
}

// pairModel is a Bubble Tea model showing the handshake progress with a
// spinner next to the current state.
type pairModel struct {
	spinner  spinner.Model
	entity   connect.Entity
	current  connect.State
	seen     map[connect.State]bool
	announce int
	done     bool
	quit     bool
	result   pairDoneMsg
}

func newPairModel(entity connect.Entity) pairModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StepRunningStyle
	return pairModel{spinner: s, entity: entity, seen: make(map[connect.State]bool)}
}

// Init implements tea.Model
func (m pairModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model
func (m pairModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.quit = true
			return m, tea.Quit
		}
	case stateMsg:
		m.current = connect.State(msg)
		m.seen[m.current] = true
		if m.current == connect.StateReplying {
			m.announce++
		}
	case pairDoneMsg:
		m.done = true
		m.result = msg
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model
func (m pairModel) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  Pairing as %s. Put the boiler in association mode.\n\n", m.entity)
	for _, s := range pairingSteps {
		b.WriteString(m.stepLine(s))
		b.WriteString("\n")
	}
	if m.done {
		b.WriteString("\n")
	}
	return b.String()
}

func (m pairModel) stepLine(s connect.State) string {
	label := s.String()
	if s == connect.StateReplying && m.announce > 0 {
		label = fmt.Sprintf("%s (%d announce)", label, m.announce)
	}
	switch {
	case s == m.current && !m.done:
		return "  " + m.spinner.View() + " " + StepRunningStyle.Render(label)
	case m.seen[s]:
		return "  " + StepCompleteStyle.Render(StepMarkerComplete+" "+label)
	default:
		return "  " + StepPendingStyle.Render(StepMarkerPending+" "+label)
	}
}

// RunPairing runs op while rendering its progress. On a terminal a spinner
// animates the current state; otherwise each state is printed on its own
// line. cancel is called when the user interrupts the spinner.
func RunPairing(entity connect.Entity, cancel func(), op PairOperation) (*protocol.Association, error) {
	if !IsTerminal() {
		return runPairingPlain(os.Stdout, entity, op)
	}

	p := tea.NewProgram(newPairModel(entity), tea.WithOutput(os.Stdout))
	results := make(chan pairDoneMsg, 1)
	go func() {
		assoc, err := op(func(s connect.State) { p.Send(stateMsg(s)) })
		results <- pairDoneMsg{assoc: assoc, err: err}
		p.Send(pairDoneMsg{assoc: assoc, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		res := <-results
		return res.assoc, res.err
	}
	if m, ok := final.(pairModel); ok && m.quit {
		cancel()
	}
	res := <-results
	return res.assoc, res.err
}

func runPairingPlain(w io.Writer, entity connect.Entity, op PairOperation) (*protocol.Association, error) {
	_, _ = fmt.Fprintf(w, "Pairing as %s. Put the boiler in association mode.\n", entity)
	return op(func(s connect.State) {
		_, _ = fmt.Fprintf(w, "  %s %s\n", StepMarkerRunning, s)
	})
}
