package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ifcmat/internal/formatter"
	"github.com/desertthunder/ifcmat/internal/models"
	"github.com/desertthunder/ifcmat/internal/shared"
	"github.com/desertthunder/ifcmat/internal/workflow"
)

const (
	maxNotices     = 4
	progressBuffer = 64
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	WorkflowView ViewState = iota
	HistoryView
)

// HistoryFunc lists past runs, newest first.
type HistoryFunc func() ([]*models.Run, error)

// Options configures a [Model].
type Options struct {
	Workflow workflow.Options
	History  HistoryFunc
	OpenFile func(path string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	ctrl        *workflow.Controller
	progressCh  chan workflow.Msg
	history     HistoryFunc
	openFile    func(path string) error
	input       textinput.Model
	bar         progress.Model
	spinner     spinner.Model
	historyList list.Model
	notices     []workflow.Notice
	width       int
	height      int
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model driving backend.
func NewModel(ctx context.Context, backend workflow.Backend, opts Options) *Model {
	m := &Model{
		ctx:        ctx,
		view:       WorkflowView,
		progressCh: make(chan workflow.Msg, progressBuffer),
		history:    opts.History,
		openFile:   opts.OpenFile,
		help:       help.New(),
		keys:       newKeyMap(),
		bar:        progress.New(progress.WithDefaultGradient()),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	if m.openFile == nil {
		m.openFile = shared.OpenFile
	}

	m.input = textinput.New()
	m.input.Placeholder = "path/to/model.ifc"
	m.input.Prompt = "File: "
	m.input.CharLimit = 1024
	m.input.Focus()

	wopts := opts.Workflow
	wopts.Dispatch = m.dispatch
	wopts.Notify = m.pushNotice
	m.ctrl = workflow.NewController(backend, wopts)
	m.syncKeys()

	return m
}

// Session returns the hosted controller's session.
func (m *Model) Session() workflow.Session { return m.ctrl.Session() }

// Init starts the cursor blink, the spinner and the progress listener.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForProgress())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(msg.Width-24, 10)
		if m.view == HistoryView {
			m.historyList.SetSize(msg.Width-4, msg.Height-6)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case HistoryView:
			return m.handleHistoryKeys(msg)
		default:
			return m.handleWorkflowKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case workflow.ProgressMsg:
		m.ctrl.Update(msg)
		return m, m.waitForProgress()

	case workflow.Msg:
		next := m.ctrl.Update(msg)
		m.syncKeys()
		return m, m.run(next)

	case Msg:
		return m.handleMsg(msg)
	}

	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case HistoryView:
		return m.renderHistory()
	default:
		return m.renderWorkflow()
	}
}

// Close stops the controller's progress reporter.
func (m *Model) Close() { m.ctrl.Close() }

func (m *Model) handleWorkflowKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.input.Focused() {
		switch {
		case key.Matches(msg, m.keys.confirm):
			return m, m.selectAndSubmit()
		case key.Matches(msg, m.keys.back):
			m.input.Blur()
			return m, nil
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.choose):
		m.input.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.upload):
		cmd = m.start(m.ctrl.Submit())
	case key.Matches(msg, m.keys.process):
		cmd = m.start(m.ctrl.Process())
	case key.Matches(msg, m.keys.download):
		cmd = m.start(m.ctrl.Download())
	case key.Matches(msg, m.keys.reset):
		if err := m.ctrl.Reset(); err == nil {
			m.input.SetValue("")
			m.notices = nil
		}
	case key.Matches(msg, m.keys.open):
		cmd = m.openSaved()
	case key.Matches(msg, m.keys.history):
		cmd = m.loadHistory()
	}

	m.syncKeys()
	return m, cmd
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.back) && !m.historyList.SettingFilter():
		m.view = WorkflowView
		return m, nil
	}

	var cmd tea.Cmd
	m.historyList, cmd = m.historyList.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgHistoryLoaded:
		data := msg.data.(struct {
			runs []*models.Run
			err  error
		})
		if data.err != nil {
			m.pushNotice(workflow.Notice{Level: workflow.LevelError, Text: fmt.Sprintf("Failed to load history: %v", data.err)})
			return m, nil
		}

		items := make([]list.Item, len(data.runs))
		for i, run := range data.runs {
			items[i] = runItem{run: run}
		}
		m.historyList = list.New(items, list.NewDefaultDelegate(), max(m.width-4, 20), max(m.height-6, 10))
		m.historyList.Title = "Run History"
		m.view = HistoryView

	case MsgFileOpened:
		data := msg.data.(struct {
			path string
			err  error
		})
		if data.err != nil {
			m.pushNotice(workflow.Notice{Level: workflow.LevelWarning, Text: fmt.Sprintf("Could not open %s: %v", data.path, data.err)})
		}
	}
	return m, nil
}

// selectAndSubmit selects the typed path and starts the upload when it validates.
func (m *Model) selectAndSubmit() tea.Cmd {
	if err := m.ctrl.SelectPath(m.input.Value()); err != nil {
		m.syncKeys()
		return nil
	}
	m.input.Blur()

	cmd := m.start(m.ctrl.Submit())
	m.syncKeys()
	return cmd
}

// start converts a controller action into a command. Disabled actions are ignored; failures already produced a notice.
func (m *Model) start(task workflow.Task, err error) tea.Cmd {
	if err != nil {
		return nil
	}
	return m.run(task)
}

func (m *Model) run(task workflow.Task) tea.Cmd {
	if task == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg { return task(ctx) }
}

func (m *Model) openSaved() tea.Cmd {
	path := m.ctrl.Session().SavedPath
	open := m.openFile
	return func() tea.Msg {
		return fileOpenedMsg(path, open(path))
	}
}

func (m *Model) loadHistory() tea.Cmd {
	if m.history == nil {
		return nil
	}
	history := m.history
	return func() tea.Msg {
		runs, err := history()
		return historyLoadedMsg(runs, err)
	}
}

// dispatch forwards progress without blocking the reporter; a full buffer drops the update.
func (m *Model) dispatch(msg workflow.Msg) {
	select {
	case m.progressCh <- msg:
	default:
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	ch, ctx := m.progressCh, m.ctx
	return func() tea.Msg {
		select {
		case msg := <-ch:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *Model) pushNotice(n workflow.Notice) {
	m.notices = append(m.notices, n)
	if len(m.notices) > maxNotices {
		m.notices = m.notices[len(m.notices)-maxNotices:]
	}
}

func (m *Model) syncKeys() {
	m.keys.sync(m.ctrl.Controls(), m.ctrl.Session(), m.history != nil)
}

func (m *Model) renderWorkflow() string {
	s := m.ctrl.Session()
	var b strings.Builder

	b.WriteString(styles.title.Render("IFC Material List"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	if s.File != nil {
		b.WriteString("\n")
		b.WriteString(styles.help.Render(fmt.Sprintf("Selected %s (%s)", s.File.Name, shared.FormatBytes(s.File.Size))))
	}
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Upload  %s\n", m.bar.ViewAs(s.Progress/100)))
	b.WriteString(fmt.Sprintf("Stage   %s", styles.stage(s.Stage).Render(s.Stage.String())))
	if status := m.status(s); status != "" {
		b.WriteString(fmt.Sprintf("  %s %s", m.spinner.View(), status))
	}
	b.WriteString("\n")

	if s.ResultVisible {
		b.WriteString("\n")
		b.WriteString(formatter.NewTable(s.Materials).Render())
		b.WriteString("\n")
	}

	if s.SavedPath != "" {
		b.WriteString("\n")
		b.WriteString(styles.ok.Render("CSV: " + s.SavedPath))
		b.WriteString("\n")
	}

	if len(m.notices) > 0 {
		b.WriteString("\n")
		for _, n := range m.notices {
			b.WriteString(styles.notice(n.Level).Render(n.Text))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *Model) renderHistory() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.historyList.View(), helpView)
}

func (m *Model) status(s workflow.Session) string {
	switch {
	case s.Stage == workflow.Uploading && s.Progress >= 100:
		return "Upload complete"
	case s.Stage == workflow.Uploading:
		return fmt.Sprintf("Uploading %.0f%%", s.Progress)
	case s.ProcessBusy:
		return "Extracting materials..."
	case s.Downloading:
		return "Downloading CSV..."
	default:
		return ""
	}
}
