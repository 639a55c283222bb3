package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

const (
	// titleHeight, inputHeight and statusHeight are the rows not given to the transcript.
	titleHeight   = 1
	inputHeight   = 3
	statusHeight  = 1
	minTranscript = 3
)

// Exchange is one answered question.
type Exchange struct {
	Question string
	Answer   string
	Elapsed  time.Duration
}

// App is the chat TUI following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	corpus domain.Corpus

	styles *styles.Styles
	keymap *keymap.KeyMap

	input      *input.QuestionInput
	status     *status.Bar
	transcript viewport.Model

	exchanges []Exchange

	// pending is the question being answered; empty when idle.
	pending string

	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a chat application over corpus.
func NewApp(ports *Ports, corpus domain.Corpus) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if !corpus.IsIndexed() && strings.TrimSpace(corpus.Text) == "" {
		return nil, ErrEmptyCorpus
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	bar := status.NewBar(s, km)
	bar.SetCorpus(corpusLabel(corpus))

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		corpus:     corpus,
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		status:     bar,
		transcript: viewport.New(80, 20),
	}, nil
}

// WithContext sets the context used for answering.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.input.Init(),
		tea.SetWindowTitle("docqa - " + corpusLabel(a.corpus)),
	}
	if a.ports.Document != nil {
		cmds = append(cmds, a.loadIndexStatus())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		a.transcript, cmd = a.transcript.Update(msg)
		return a, cmd

	case messages.QuestionSubmitted:
		return a, a.ask(msg.Question)

	case messages.AnswerReceived:
		a.exchanges = append(a.exchanges, Exchange{
			Question: msg.Question,
			Answer:   msg.Answer,
			Elapsed:  msg.Elapsed,
		})
		a.pending = ""
		a.err = nil
		a.status.SetState(status.StateReady)
		a.status.RecordExchange(msg.Elapsed)
		a.refreshTranscript()
		return a, nil

	case messages.IndexStatusLoaded:
		label := msg.Status
		if msg.Count > 0 {
			label = fmt.Sprintf("%s, %d chunks", msg.Status, msg.Count)
		}
		a.status.SetIndexStatus(label)
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.pending = ""
		a.status.SetState(status.StateError)
		a.status.SetMessage(msg.Err.Error())
		a.refreshTranscript()
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, a.keymap.Quit):
		return a, tea.Quit

	case keymap.Matches(key, a.keymap.Submit):
		question := a.input.Question()
		if question == "" || a.pending != "" {
			return a, nil
		}
		a.input.Reset()
		return a, a.ask(question)

	case keymap.Matches(key, a.keymap.ScrollUp), keymap.Matches(key, a.keymap.ScrollDown):
		var cmd tea.Cmd
		a.transcript, cmd = a.transcript.Update(msg)
		return a, cmd

	case keymap.Matches(key, a.keymap.Clear):
		a.exchanges = nil
		a.err = nil
		a.status.Clear()
		a.refreshTranscript()
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// ask starts answering question. Questions submitted while one is pending
// are dropped.
func (a *App) ask(question string) tea.Cmd {
	if a.pending != "" {
		return nil
	}
	a.pending = question
	a.status.SetState(status.StateThinking)
	a.refreshTranscript()
	return a.answerCmd(question)
}

func (a *App) answerCmd(question string) tea.Cmd {
	ctx, answer, corpus := a.ctx, a.ports.Answer, a.corpus
	return func() tea.Msg {
		start := time.Now()
		result := answer.Answer(ctx, question, corpus)
		if err := ctx.Err(); err != nil {
			return messages.ErrorOccurred{Err: err}
		}
		return messages.AnswerReceived{
			Question: question,
			Answer:   result,
			Elapsed:  time.Since(start),
		}
	}
}

func (a *App) loadIndexStatus() tea.Cmd {
	ctx, documents := a.ctx, a.ports.Document
	return func() tea.Msg {
		stats := documents.Stats(ctx)
		return messages.IndexStatusLoaded{
			Status: string(stats.Status),
			Count:  stats.TotalVectorCount,
		}
	}
}

func (a *App) refreshTranscript() {
	a.transcript.SetContent(a.renderTranscript())
	a.transcript.GotoBottom()
}

func (a *App) renderTranscript() string {
	if len(a.exchanges) == 0 && a.pending == "" {
		return a.styles.Muted.Render("Ask anything about " + corpusLabel(a.corpus) + ".")
	}

	answerWidth := a.transcript.Width - 2
	if answerWidth < 10 {
		answerWidth = 10
	}
	answerStyle := a.styles.Answer.Width(answerWidth)

	blocks := make([]string, 0, len(a.exchanges)+1)
	for _, ex := range a.exchanges {
		blocks = append(blocks, lipgloss.JoinVertical(lipgloss.Left,
			a.styles.Question.Render("Q: "+ex.Question),
			answerStyle.Render(ex.Answer),
			a.styles.Muted.Render(ex.Elapsed.Round(time.Millisecond).String()),
		))
	}
	if a.pending != "" {
		blocks = append(blocks, lipgloss.JoinVertical(lipgloss.Left,
			a.styles.Question.Render("Q: "+a.pending),
			a.styles.Warning.Render("thinking..."),
		))
	}
	return strings.Join(blocks, "\n\n")
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	title := a.styles.Title.Render("docqa") + a.styles.Muted.Render(" · "+corpusLabel(a.corpus))
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		a.transcript.View(),
		a.input.View(),
		a.status.View(),
	)
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Exchanges returns the answered questions in order.
func (a *App) Exchanges() []Exchange {
	return a.exchanges
}

// Pending returns the question being answered, if any.
func (a *App) Pending() string {
	return a.pending
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sizes every component to the terminal.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	a.input.SetWidth(width)
	a.status.SetWidth(width)

	transcriptHeight := height - titleHeight - inputHeight - statusHeight
	if transcriptHeight < minTranscript {
		transcriptHeight = minTranscript
	}
	a.transcript.Width = width
	a.transcript.Height = transcriptHeight
	a.refreshTranscript()
}

func corpusLabel(c domain.Corpus) string {
	if c.IsIndexed() {
		return c.DocumentName
	}
	return fmt.Sprintf("%d characters of text", len(c.Text))
}
