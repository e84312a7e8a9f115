// Package tui is the operator dashboard: a terminal view of the
// daemon's window roles, display topology, component registry, and
// reliability statistics, refreshed by polling the IPC socket.
package tui

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/taskdesk/taskdesk/internal/ipc"
)

const pollInterval = 2 * time.Second

// Run starts the dashboard, blocking until the user quits.
func Run(client *ipc.Client) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	p := tea.NewProgram(newModel(client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// snapshot is one complete poll of the daemon.
type snapshot struct {
	status     *ipc.StatusData
	displays   *ipc.DisplaysData
	stats      *ipc.StatsData
	health     *ipc.HealthData
	components *ipc.ComponentsData
	err        error
	taken      time.Time
}

type snapshotMsg snapshot

type tickMsg time.Time

// model is the root bubbletea model for the dashboard.
type model struct {
	client *ipc.Client

	activeTab Tab
	snap      snapshot

	width  int
	height int
}

func newModel(client *ipc.Client) model {
	return model{
		client:    client,
		activeTab: TabOverview,
	}
}

func (m model) poll() tea.Msg {
	snap := snapshot{taken: time.Now()}

	status, err := m.client.GetStatus()
	if err != nil {
		snap.err = err
		return snapshotMsg(snap)
	}
	snap.status = status

	// Partial failures keep the rest of the snapshot usable.
	snap.displays, _ = m.client.GetDisplays()
	snap.stats, _ = m.client.GetStats()
	snap.health, _ = m.client.Health()
	snap.components, _ = m.client.Components()

	return snapshotMsg(snap)
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.poll, tick())
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit

		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil

		case "shift+tab":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
			return m, nil

		case "1":
			m.activeTab = TabOverview
			return m, nil
		case "2":
			m.activeTab = TabComponents
			return m, nil
		case "3":
			m.activeTab = TabReliability
			return m, nil

		case "r":
			return m, m.poll
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		m.snap = snapshot(msg)
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.poll, tick())
	}

	return m, nil
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.snap, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.width)

	var content string
	switch m.activeTab {
	case TabOverview:
		content = renderOverview(m.snap, m.width)
	case TabComponents:
		content = renderComponents(m.snap, m.width)
	case TabReliability:
		content = renderReliability(m.snap, m.width)
	}

	return joinScreen(statusBar, tabBar, content, helpBar)
}
