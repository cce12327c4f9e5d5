package main

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	nativesync "github.com/wippyai/native-sync"
	"github.com/wippyai/native-sync/thread"
	"github.com/wippyai/native-sync/timer"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type dashboardModel struct {
	rt      *nativesync.Runtime
	spin    spinner.Model
	ticks   *atomic.Int64
	timers  []timer.Handle
	lastErr error
}

type refreshMsg time.Time

type threadDoneMsg struct {
	handle thread.Handle
	code   int
	err    error
}

func newDashboardModel() *dashboardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	return &dashboardModel{
		rt:    nativesync.New(),
		spin:  sp,
		ticks: &atomic.Int64{},
	}
}

func refreshEvery() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m *dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, refreshEvery())
}

func (m *dashboardModel) spawnThread() tea.Cmd {
	ctx := context.Background()
	h, err := m.rt.CreateThread(ctx, func() (int, error) {
		time.Sleep(2 * time.Second)
		return 0, nil
	})
	if err != nil {
		m.lastErr = err
		return nil
	}
	// Join in the background so the table entry disappears once the
	// thread finishes.
	return func() tea.Msg {
		code, err := m.rt.JoinThread(ctx, h)
		return threadDoneMsg{handle: h, code: code, err: err}
	}
}

func (m *dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	ctx := context.Background()

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.rt.Close()
			return m, tea.Quit

		case "t":
			return m, m.spawnThread()

		case "m":
			if _, err := m.rt.CreateMutex(ctx, false); err != nil {
				m.lastErr = err
			}

		case "s":
			if _, err := m.rt.CreateSemaphore(ctx, 0, 4); err != nil {
				m.lastErr = err
			}

		case "p":
			h, _, err := m.rt.CreateTimer(ctx, func() error {
				m.ticks.Add(1)
				return nil
			}, (250 * time.Millisecond).Microseconds())
			if err != nil {
				m.lastErr = err
				break
			}
			m.timers = append(m.timers, h)

		case "d":
			if n := len(m.timers); n > 0 {
				h := m.timers[n-1]
				m.timers = m.timers[:n-1]
				if !m.rt.DestroyTimer(ctx, h) {
					m.lastErr = fmt.Errorf("destroy timer %d failed", h)
				}
			}
		}

	case refreshMsg:
		return m, refreshEvery()

	case threadDoneMsg:
		if msg.err != nil {
			m.lastErr = msg.err
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *dashboardModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("native-sync"))
	b.WriteString(" ")
	b.WriteString(m.spin.View())
	b.WriteString("\n\n")

	rows := []struct {
		label string
		count int
	}{
		{"Threads", m.rt.Threads.Len()},
		{"Mutexes", m.rt.Mutexes.Len()},
		{"Semaphores", m.rt.Semaphores.Len()},
		{"Timers", m.rt.Timers.Len()},
	}
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			labelStyle.Render(fmt.Sprintf("%-11s", row.label)),
			countStyle.Render(fmt.Sprintf("%d", row.count))))
	}
	b.WriteString(fmt.Sprintf("\n  %s %s\n",
		labelStyle.Render("Timer ticks"),
		countStyle.Render(fmt.Sprintf("%d", m.ticks.Load()))))

	if m.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("  %v", m.lastErr)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("t thread • m mutex • s semaphore • p timer • d destroy timer • q quit"))
	b.WriteString("\n")

	return b.String()
}

func runInteractive() error {
	p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
