package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pdfask/internal/backend"
	"pdfask/internal/domain"
	"pdfask/internal/query"
	"pdfask/internal/upload"
	"pdfask/internal/workflow"
)

// SessionPort is the TUI-facing subset of the workflow session.
type SessionPort interface {
	SelectFile(path string) error
	StartUpload() (*workflow.PendingUpload, error)
	StartQuery(text string) (*workflow.PendingQuery, error)
	Reset() error
	Snapshot() workflow.Snapshot
}

// HealthPort reports backend health for the header badge.
type HealthPort interface {
	Health(ctx context.Context) (backend.Health, error)
}

type focus int

const (
	focusPath focus = iota
	focusQuery
)

type uploadDoneMsg struct{ outcome domain.UploadOutcome }

type queryDoneMsg struct{ answer workflow.Answer }

type healthMsg struct {
	health backend.Health
	err    error
}

// Model is the Bubble Tea model for the upload-then-ask wizard. It only
// reads session state and forwards user actions; it holds no workflow logic.
type Model struct {
	session   SessionPort
	health    HealthPort
	pathInput textinput.Model
	askInput  textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	focus     focus
	cursor    int
	status    string
	isError   bool
	backend   string
	ready     bool
}

// New creates a new TUI model instance. health may be nil.
func New(session SessionPort, health HealthPort) Model {
	pi := textinput.New()
	pi.Prompt = "PDF> "
	pi.Placeholder = "path/to/document.pdf, Enter to upload"
	pi.Focus()
	pi.CharLimit = 0

	ai := textinput.New()
	ai.Prompt = "Ask> "
	ai.Placeholder = "Ask a question about the document"
	ai.CharLimit = 1000

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	vp := viewport.New(0, 0)
	return Model{
		session:   session,
		health:    health,
		pathInput: pi,
		askInput:  ai,
		viewport:  vp,
		spinner:   sp,
		status:    "Step 1: choose a PDF to upload.",
	}
}

// Init starts the cursor blink and the health probe.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.health != nil {
		h := m.health
		cmds = append(cmds, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			res, err := h.Health(ctx)
			return healthMsg{health: res, err: err}
		})
	}
	return tea.Batch(cmds...)
}

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + 2*(qh+1) + 1 // header+steps, status, two inputs, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.refresh()
		return m, nil
	case healthMsg:
		switch {
		case msg.err != nil:
			m.backend = "backend unreachable"
		case msg.health.Healthy():
			m.backend = fmt.Sprintf("backend healthy, %d docs", msg.health.Documents)
		default:
			m.backend = "backend " + msg.health.Status
		}
		return m, nil
	case uploadDoneMsg:
		m.onUploadDone(msg.outcome)
		return m, nil
	case queryDoneMsg:
		m.onQueryDone(msg.answer)
		return m, nil
	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.focus == focusPath {
				return m.submitUpload()
			}
			return m.submitQuery()
		case "tab", "shift+tab":
			m.toggleFocus()
			return m, nil
		case "ctrl+r":
			m.reset()
			return m, nil
		case "down":
			if n := m.fragmentCount(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.refresh()
				return m, nil
			}
		case "up":
			if n := m.fragmentCount(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.refresh()
				return m, nil
			}
		case "pgdown", "pgup":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	if m.focus == focusPath {
		m.pathInput, cmd = m.pathInput.Update(msg)
	} else {
		m.askInput, cmd = m.askInput.Update(msg)
	}
	return m, cmd
}

func (m Model) submitUpload() (tea.Model, tea.Cmd) {
	if err := m.session.SelectFile(m.pathInput.Value()); err != nil {
		m.setError(describe(err))
		return m, nil
	}
	pending, err := m.session.StartUpload()
	if err != nil {
		m.setError(describe(err))
		return m, nil
	}
	m.setStatus(fmt.Sprintf("Uploading %s ...", pending.Document.Name))
	run := func() tea.Msg {
		return uploadDoneMsg{outcome: pending.Run(context.Background())}
	}
	return m, tea.Batch(m.spinner.Tick, run)
}

func (m Model) submitQuery() (tea.Model, tea.Cmd) {
	pending, err := m.session.StartQuery(m.askInput.Value())
	if err != nil {
		m.setError(describe(err))
		return m, nil
	}
	m.cursor = 0
	m.setStatus(fmt.Sprintf("Searching for %q ...", pending.Request.Text))
	m.refresh()
	run := func() tea.Msg {
		return queryDoneMsg{answer: pending.Run(context.Background())}
	}
	return m, tea.Batch(m.spinner.Tick, run)
}

func (m *Model) onUploadDone(out domain.UploadOutcome) {
	snap := m.session.Snapshot()
	if snap.UploadState == upload.Uploading {
		return
	}
	if out.Status == domain.UploadSuccess {
		m.setStatus("Upload successful: " + out.Message.OrElse("document processed") + ". Step 2: ask a question.")
		m.focusOn(focusQuery)
	} else {
		m.setError("Upload failed: " + out.Message.OrElse("unknown error"))
	}
	m.refresh()
}

func (m *Model) onQueryDone(ans workflow.Answer) {
	res := ans.Result
	if res.Status == domain.QuerySuccess {
		m.setStatus(fmt.Sprintf("Found %d results in %dms", len(res.Fragments), ans.Elapsed.Milliseconds()))
	} else {
		m.setError("Query failed: " + res.Message.OrElse("an error occurred while processing your query"))
	}
	m.cursor = 0
	m.refresh()
}

func (m *Model) reset() {
	if err := m.session.Reset(); err != nil {
		m.setError(describe(err))
		return
	}
	m.pathInput.SetValue("")
	m.askInput.SetValue("")
	m.cursor = 0
	m.focusOn(focusPath)
	m.setStatus("Step 1: choose a PDF to upload.")
	m.refresh()
}

func (m *Model) toggleFocus() {
	if m.focus == focusPath && m.session.Snapshot().Step == domain.StepReadyToQuery {
		m.focusOn(focusQuery)
		return
	}
	m.focusOn(focusPath)
}

func (m *Model) focusOn(f focus) {
	m.focus = f
	if f == focusPath {
		m.pathInput.Focus()
		m.askInput.Blur()
	} else {
		m.askInput.Focus()
		m.pathInput.Blur()
	}
}

func (m *Model) setStatus(s string) { m.status, m.isError = s, false }

func (m *Model) setError(s string) { m.status, m.isError = s, true }

func (m Model) busy() bool {
	snap := m.session.Snapshot()
	return snap.UploadState == upload.Uploading || snap.QueryState == query.Querying
}

func (m Model) fragmentCount() int {
	res, ok := m.session.Snapshot().Result.Get()
	if !ok {
		return 0
	}
	return len(res.Fragments)
}

func (m *Model) refresh() {
	m.viewport.SetContent(renderResult(m.session.Snapshot(), m.cursor))
	m.viewport.GotoTop()
}

// describe turns workflow errors into the line shown to the user.
func describe(err error) string {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return "Invalid " + ve.Field + ": " + ve.Message
	case errors.Is(err, workflow.ErrQueryLocked):
		return "Upload a document first (Step 1)."
	case errors.Is(err, domain.ErrInvalidTransition):
		return "Please wait for the current request to finish."
	default:
		return "Error: " + err.Error()
	}
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	snap := m.session.Snapshot()
	header := lipgloss.NewStyle().Bold(true).Render("PDF Query")
	if m.backend != "" {
		header += "  " + dimStyle.Render(m.backend)
	}
	steps := renderSteps(snap)
	results := resultBoxStyle.Render(m.viewport.View())
	path := inputBoxStyle.Render(m.pathInput.View())
	ask := inputBoxStyle.Render(m.askInput.View())
	if snap.Step != domain.StepReadyToQuery {
		ask = lockedBoxStyle.Render(dimStyle.Render("Ask> locked until a document is uploaded"))
	}
	status := m.status
	if m.busy() {
		status = m.spinner.View() + " " + status
	}
	statusStyle := okStyle
	if m.isError {
		statusStyle = errStyle
	}
	return header + "\n" + steps + "\n" + results + "\n" + path + "\n" + ask + "\n" + statusStyle.Render(status)
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	lockedBoxStyle = lipgloss.NewStyle().Border(lipgloss.HiddenBorder()).Padding(0, 1)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	activeStep     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
)
