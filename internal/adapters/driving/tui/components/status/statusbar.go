// Package status provides the status bar for the chat TUI.
package status

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa-cli/internal/adapters/driving/tui/styles"
)

// State represents the current chat state for display.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
)

// Bar displays chat status and keybinding hints.
type Bar struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	state     State
	message   string
	corpus    string
	index     string
	exchanges int
	elapsed   time.Duration
	width     int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	// The bar's padding comes out of its width.
	inner := s.width - s.styles.StatusBar.GetHorizontalFrameSize()
	if inner < 1 {
		inner = 1
	}

	padding := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	line := lipgloss.NewStyle().Inline(true).MaxWidth(inner).Render(
		left + strings.Repeat(" ", padding) + right,
	)
	return s.styles.StatusBar.Width(s.width).Render(line)
}

func (s *Bar) renderLeft() string {
	var parts []string
	if s.corpus != "" {
		parts = append(parts, s.corpus)
	}
	if s.index != "" {
		parts = append(parts, "index: "+s.index)
	}

	switch s.state {
	case StateThinking:
		parts = append(parts, s.styles.Warning.Render("Thinking..."))
	case StateError:
		if s.message != "" {
			parts = append(parts, s.styles.Error.Render("Error: "+s.message))
		} else {
			parts = append(parts, s.styles.Error.Render("Error"))
		}
	case StateReady:
		switch {
		case s.exchanges == 1:
			parts = append(parts, fmt.Sprintf("1 answer (%s)", s.elapsed.Round(time.Millisecond)))
		case s.exchanges > 1:
			parts = append(parts, fmt.Sprintf("%d answers (last %s)", s.exchanges, s.elapsed.Round(time.Millisecond)))
		default:
			parts = append(parts, "Ready")
		}
	}
	return s.styles.Muted.Render(strings.Join(parts, " · "))
}

func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Help.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets the error message shown in StateError.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetCorpus sets the label of what is being chatted about.
func (s *Bar) SetCorpus(label string) {
	s.corpus = label
}

// SetIndexStatus sets the vector index status label.
func (s *Bar) SetIndexStatus(status string) {
	s.index = status
}

// RecordExchange counts an answered question and its latency.
func (s *Bar) RecordExchange(elapsed time.Duration) {
	s.exchanges++
	s.elapsed = elapsed
}

// Exchanges returns the number of answered questions.
func (s *Bar) Exchanges() int {
	return s.exchanges
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the state and the exchange count.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.exchanges = 0
	s.elapsed = 0
}
