package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"mediacrate/internal/batch"
	"mediacrate/internal/config"
	"mediacrate/internal/model"
	"mediacrate/internal/ytdlp"
)

type monitorMode int

const (
	monitorModeBrowse monitorMode = iota
	monitorModeAdd
)

type monitorRow struct {
	jobID   string
	url     string
	state   model.State
	percent float64
	message string
}

type monitorModel struct {
	svc      *batch.Service
	settings config.Settings
	format   string
	quality  string

	rows   []monitorRow
	index  map[string]int
	cursor int
	width  int
	height int

	mode     monitorMode
	input    textinput.Model
	logTail  []string
	summary  *model.Summary
	errorMsg string
}

type monitorStatusMsg struct {
	jobID string
	state model.State
}

type monitorProgressMsg struct {
	jobID   string
	percent float64
	message string
}

type monitorLogMsg struct {
	line string
}

type monitorDoneMsg struct {
	summary model.Summary
}

var (
	monitorTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	monitorMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	monitorErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	monitorOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	monitorSelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
	monitorPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func runMonitor(args []string) error {
	f := newRunFlags("monitor")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	if !stdinIsTTY() {
		return errors.New("monitor requires an interactive terminal (TTY)")
	}
	settings, err := f.resolve()
	if err != nil {
		return err
	}
	jobs, rejected, err := f.collectJobs(settings, f.fs.Args())
	if err != nil {
		return err
	}
	if len(rejected) > 0 {
		return fmt.Errorf("invalid URL: %s", rejected[0])
	}
	if len(jobs) == 0 {
		return errors.New("no valid URLs given (pass URLs as arguments or via --urls-file)")
	}

	client := ytdlp.NewClient()
	if err := client.CheckDependencies(); err != nil {
		return err
	}
	logger := newLogger(false)
	defer func() { _ = logger.Sync() }()
	svc := batch.New(client, logger)

	m := newMonitorModel(svc, settings, f.format, f.quality, jobs)
	p := tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		summary := svc.Run(context.Background(), jobs, batch.Options{
			Concurrency: batch.EffectiveConcurrency(
				settings.Concurrency, len(jobs), settings.SpeedLimitKBps, settings.AdaptiveConcurrency,
			),
			RetryCount:       settings.RetryCount,
			RetryProfile:     model.RetryProfile(settings.RetryProfile),
			SkipExisting:     settings.SkipExisting,
			FilenameTemplate: settings.FilenameTemplate,
			ConflictPolicy:   settings.ConflictPolicy,
			SpeedLimitKBps:   settings.SpeedLimitKBps,
			OnStatus: func(jobID string, state model.State) {
				p.Send(monitorStatusMsg{jobID: jobID, state: state})
			},
			OnProgress: func(jobID string, percent float64, message string) {
				p.Send(monitorProgressMsg{jobID: jobID, percent: percent, message: message})
			},
			OnLog: func(message string) {
				p.Send(monitorLogMsg{line: message})
			},
		})
		if !settings.DisableHistory {
			recordHistory(config.DefaultHistoryPath(), summary)
		}
		p.Send(monitorDoneMsg{summary: summary})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(monitorModel); ok && fm.summary != nil {
		printSummary(*fm.summary)
	}
	return nil
}

func newMonitorModel(svc *batch.Service, settings config.Settings, format, quality string, jobs []model.Job) monitorModel {
	input := textinput.New()
	input.Placeholder = "https://..."
	input.CharLimit = 2048
	input.Width = 60

	rows := make([]monitorRow, 0, len(jobs))
	index := map[string]int{}
	for _, job := range jobs {
		index[job.JobID] = len(rows)
		rows = append(rows, monitorRow{jobID: job.JobID, url: job.URL, state: model.StateQueued})
	}
	return monitorModel{
		svc:      svc,
		settings: settings,
		format:   format,
		quality:  quality,
		rows:     rows,
		index:    index,
		input:    input,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return nil
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case monitorStatusMsg:
		if i, ok := m.index[msg.jobID]; ok {
			// requeues may deliver a late QUEUED after a terminal state
			if model.CanTransition(m.rows[i].state, msg.state) {
				m.rows[i].state = msg.state
			}
		}
		return m, nil
	case monitorProgressMsg:
		if i, ok := m.index[msg.jobID]; ok {
			m.rows[i].percent = msg.percent
			m.rows[i].message = msg.message
		}
		return m, nil
	case monitorLogMsg:
		m.logTail = append(m.logTail, msg.line)
		if len(m.logTail) > 5 {
			m.logTail = m.logTail[len(m.logTail)-5:]
		}
		return m, nil
	case monitorDoneMsg:
		summary := msg.summary
		m.summary = &summary
		for _, r := range summary.Results {
			if i, ok := m.index[r.JobID]; ok {
				m.rows[i].state = r.State
				if r.State == model.StateDone {
					m.rows[i].percent = 100
				}
			}
		}
		return m, nil
	case tea.KeyMsg:
		if m.mode == monitorModeAdd {
			return m.updateAddForm(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m monitorModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "p":
		if row := m.selectedRow(); row != nil {
			m.svc.PauseJob(row.jobID)
		}
	case "r":
		if row := m.selectedRow(); row != nil {
			m.svc.ResumeJob(row.jobID)
		}
	case "s":
		if row := m.selectedRow(); row != nil {
			m.svc.StopJob(row.jobID)
		}
	case "c":
		if m.summary == nil {
			m.svc.CancelAll()
		}
	case "a":
		if m.summary == nil {
			m.mode = monitorModeAdd
			m.input.SetValue("")
			m.errorMsg = ""
			return m, m.input.Focus()
		}
	case "q", "ctrl+c":
		if m.summary == nil {
			m.svc.CancelAll()
			return m, nil
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m monitorModel) updateAddForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = monitorModeBrowse
		m.input.Blur()
		return m, nil
	case "enter":
		raw := strings.TrimSpace(m.input.Value())
		coerced := model.CoerceHTTPURL(raw)
		if !model.ValidateURL(coerced) {
			m.errorMsg = "not a valid URL"
			return m, nil
		}
		job := model.Job{
			JobID:         uuid.NewString(),
			URL:           coerced,
			FormatChoice:  m.format,
			QualityChoice: m.quality,
			OutputDir:     m.settings.DownloadDir,
		}
		if !m.svc.EnqueueJob(job) {
			m.errorMsg = "batch is no longer accepting jobs"
			return m, nil
		}
		m.index[job.JobID] = len(m.rows)
		m.rows = append(m.rows, monitorRow{jobID: job.JobID, url: job.URL, state: model.StateQueued})
		m.mode = monitorModeBrowse
		m.errorMsg = ""
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *monitorModel) selectedRow() *monitorRow {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return &m.rows[m.cursor]
}

func (m monitorModel) View() string {
	var b strings.Builder
	b.WriteString(monitorTitleStyle.Render("mediacrate monitor"))
	b.WriteString("  ")
	b.WriteString(monitorMutedStyle.Render(m.statsLine()))
	b.WriteString("\n\n")

	for i, row := range m.rows {
		line := fmt.Sprintf("%-11s %5.1f%%  %s", row.state, row.percent, truncateCell(row.url, 60))
		if i == m.cursor {
			line = monitorSelStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(m.logTail) > 0 {
		b.WriteString("\n")
		for _, line := range m.logTail {
			b.WriteString(monitorMutedStyle.Render(truncateCell(line, 90)))
			b.WriteString("\n")
		}
	}

	if m.errorMsg != "" {
		b.WriteString("\n")
		b.WriteString(monitorErrStyle.Render(m.errorMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.mode == monitorModeAdd:
		b.WriteString(monitorPanelStyle.Render("add URL\n" + m.input.View() + "\n" + monitorMutedStyle.Render("enter: queue  esc: cancel")))
	case m.summary != nil:
		b.WriteString(monitorOKStyle.Render(fmt.Sprintf(
			"finished: %d completed, %d skipped, %d failed, %d cancelled",
			m.summary.Completed, m.summary.Skipped, m.summary.Failed, m.summary.Cancelled,
		)))
		b.WriteString("\n")
		b.WriteString(monitorMutedStyle.Render("q: quit"))
	default:
		b.WriteString(monitorMutedStyle.Render("p: pause  r: resume  s: stop  a: add URL  c: cancel all  q: cancel+quit"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m monitorModel) statsLine() string {
	states := make([]model.State, 0, len(m.rows))
	for _, row := range m.rows {
		states = append(states, row.state)
	}
	stats := model.ComputeBatchStats(states)
	return fmt.Sprintf("active %d  done %d  skipped %d  failed %d  cancelled %d",
		stats.InProgress, stats.Done, stats.Skipped, stats.Failed, stats.Cancelled)
}

func truncateCell(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
