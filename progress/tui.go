package progress

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// snapshotMsg carries one render-ready copy of the session state.
type snapshotMsg struct {
	label      string
	totalFiles int64
	completed  int64
	bytes      int64
	active     []slotState
}

// tickMsg asks the model to request a fresh snapshot.
type tickMsg time.Time

const refreshInterval = 100 * time.Millisecond

// uiModel implements the tea.Model interface for one session.
type uiModel struct {
	session *Session
	state   snapshotMsg
	spinner spinner.Model
	bar     progress.Model

	width int

	labelStyle lipgloss.Style
	infoStyle  lipgloss.Style
	fileStyle  lipgloss.Style
}

func newUIModel(s *Session) uiModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return uiModel{
		session:    s,
		spinner:    sp,
		bar:        progress.New(progress.WithDefaultGradient()),
		labelStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		infoStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		fileStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
	}
}

func (m uiModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 24

	case tickMsg:
		m.state = m.session.snapshot()
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		barModel, cmd := m.bar.Update(msg)
		m.bar = barModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m uiModel) View() string {
	var sb strings.Builder

	label := m.state.label
	if label == "" {
		label = "Transferring"
	}
	sb.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), m.labelStyle.Render(label)))

	if m.state.totalFiles > 0 {
		pct := float64(m.state.completed) / float64(m.state.totalFiles)
		info := fmt.Sprintf("%d/%d files | %s",
			m.state.completed, m.state.totalFiles, humanize.Bytes(uint64(m.state.bytes)))
		sb.WriteString(m.infoStyle.Render(info) + "\n")
		sb.WriteString(m.bar.ViewAs(pct) + "\n")
	}

	for _, st := range m.state.active {
		var pct float64
		if st.total > 0 {
			pct = float64(st.done) / float64(st.total)
		}
		name := st.label
		if len(name) > 32 {
			name = "..." + name[len(name)-29:]
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", m.bar.ViewAs(pct), m.fileStyle.Render(name)))
	}

	return sb.String()
}

// startUI spins up the bubbletea program that renders this session until
// Close quits it.
func (s *Session) startUI() {
	s.program = tea.NewProgram(newUIModel(s), tea.WithOutput(os.Stderr))
	s.uiDone = make(chan struct{})

	go func() {
		defer close(s.uiDone)
		_, _ = s.program.Run()
	}()
}
