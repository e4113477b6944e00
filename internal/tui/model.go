// Package tui provides the Bubble Tea mashing interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/mashr/internal/model"
	"github.com/verte-zerg/mashr/internal/session"
	statsPkg "github.com/verte-zerg/mashr/internal/stats"
)

// Store persists results and replays them for the footer summary.
type Store interface {
	session.Sink
	statsPkg.Source
}

// Options configures a Model.
type Options struct {
	Config        model.SessionConfig
	ReleaseWindow time.Duration
	// RetryBackOff builds the policy used when re-saving a failed result.
	RetryBackOff func() backoff.BackOff
	Now          func() time.Time
}

type phase int

const (
	phaseReady phase = iota
	phaseRunning
	phaseFinished
)

const (
	warningSeconds = 10
	saveRetries    = 3
)

type tickMsg struct {
	gen int
	at  time.Time
}

type releaseMsg struct {
	seq int
	at  time.Time
}

type saveResultMsg struct {
	err error
}

// Model implements the Bubble Tea mashing UI.
type Model struct {
	cfg          model.SessionConfig
	store        Store
	now          func() time.Time
	retryBackOff func() backoff.BackOff

	engine  *session.Engine
	release releaseDetector
	phase   phase
	gen     int

	width  int
	height int

	result  *model.SessionResult
	saveErr error
	saving  bool
	notice  string

	summary    statsPkg.Summary
	summaryErr error
}

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#C89A3A")).Padding(0, 3)
	timerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// NewModel constructs a mashing TUI model. The configuration is validated
// up front so an invalid key or duration fails before the UI starts.
func NewModel(opts Options, store Store) (*Model, error) {
	target, err := session.ValidateConfig(opts.Config)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	cfg := opts.Config
	cfg.TargetKey = strings.ToUpper(string(target))
	m := &Model{
		cfg:          cfg,
		store:        store,
		now:          opts.Now,
		retryBackOff: opts.RetryBackOff,
		release:      newReleaseDetector(opts.ReleaseWindow),
		phase:        phaseReady,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.retryBackOff == nil {
		m.retryBackOff = func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), saveRetries-1)
		}
	}
	m.loadFooterStats()
	return m, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		return m, m.handleTick(msg)
	case releaseMsg:
		if m.phase != phaseRunning {
			return m, nil
		}
		if ev, ok := m.release.expire(msg.seq, msg.at); ok {
			m.engine.HandleEvent(ev)
		}
		return m, nil
	case saveResultMsg:
		m.saving = false
		m.saveErr = msg.err
		if msg.err != nil {
			logErrf("failed to save result: %v\n", msg.err)
			return m, nil
		}
		m.notice = "Result saved."
		m.loadFooterStats()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			if m.phase == phaseRunning {
				m.engine.Abort()
			}
			return m, tea.Quit
		}
		switch m.phase {
		case phaseReady:
			return m.updateReady(msg)
		case phaseRunning:
			return m.updateRunning(msg)
		default:
			return m.updateFinished(msg)
		}
	default:
		return m, nil
	}
}

func (m *Model) updateReady(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeySpace, tea.KeyEnter:
		return m, m.startSession()
	case tea.KeyLeft:
		m.cycleDuration(-1)
	case tea.KeyRight:
		m.cycleDuration(1)
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyRunes:
		if string(msg.Runes) == "q" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) updateRunning(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.engine.Abort()
		m.release.reset()
		m.gen++
		m.phase = phaseReady
		m.notice = "Session aborted."
		return m, nil
	case tea.KeySpace:
		return m, m.press(' ')
	case tea.KeyRunes:
		cmds := make([]tea.Cmd, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			cmds = append(cmds, m.press(r))
		}
		return m, tea.Batch(cmds...)
	default:
		return m, nil
	}
}

func (m *Model) updateFinished(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		m.reset()
		return m, nil
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "q":
			return m, tea.Quit
		case "r":
			m.reset()
		case "s":
			return m, m.retrySave()
		}
	}
	return m, nil
}

func (m *Model) startSession() tea.Cmd {
	engine, err := session.New(m.cfg, m.store)
	if err != nil {
		m.notice = err.Error()
		return nil
	}
	if err := engine.Start(m.now()); err != nil {
		m.notice = err.Error()
		return nil
	}
	m.engine = engine
	m.release.reset()
	m.phase = phaseRunning
	m.result = nil
	m.saveErr = nil
	m.notice = ""
	m.gen++
	return tickCmd(m.gen)
}

func (m *Model) press(r rune) tea.Cmd {
	events, seq := m.release.press(r, m.now())
	for _, ev := range events {
		m.engine.HandleEvent(ev)
	}
	return tea.Tick(m.release.window, func(t time.Time) tea.Msg {
		return releaseMsg{seq: seq, at: t}
	})
}

func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	if m.phase != phaseRunning || msg.gen != m.gen {
		return nil
	}
	finished, err := m.engine.Tick(context.Background(), msg.at)
	if !finished {
		return tickCmd(m.gen)
	}
	m.phase = phaseFinished
	m.release.reset()
	if result, ok := m.engine.Result(); ok {
		m.result = &result
	}
	if err != nil {
		logErrf("%v\n", err)
		m.saveErr = err
		return nil
	}
	m.loadFooterStats()
	return nil
}

func (m *Model) retrySave() tea.Cmd {
	if m.result == nil || m.saveErr == nil || m.saving {
		return nil
	}
	m.saving = true
	m.notice = "Saving..."
	result := *m.result
	store := m.store
	policy := m.retryBackOff()
	return func() tea.Msg {
		ctx := context.Background()
		err := backoff.Retry(func() error {
			return store.Append(ctx, result)
		}, backoff.WithContext(policy, ctx))
		return saveResultMsg{err: err}
	}
}

func (m *Model) reset() {
	m.engine = nil
	m.release.reset()
	m.phase = phaseReady
	m.result = nil
	m.saveErr = nil
	m.saving = false
	m.notice = ""
}

func (m *Model) cycleDuration(step int) {
	idx := slices.Index(model.AllowedDurations, m.cfg.DurationSeconds)
	if idx < 0 {
		idx = 0
	}
	n := len(model.AllowedDurations)
	idx = ((idx+step)%n + n) % n
	m.cfg.DurationSeconds = model.AllowedDurations[idx]
}

func tickCmd(gen int) tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg{gen: gen, at: t}
	})
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.phase {
	case phaseReady:
		content = m.renderReady()
	case phaseRunning:
		content = m.renderRunning()
	default:
		content = m.renderFinished()
	}
	if m.width == 0 || m.height == 0 {
		return content + "\n" + m.renderFooter()
	}
	footer := m.renderFooter()
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderReady() string {
	lines := []string{
		titleStyle.Render("Mash the key"),
		keyStyle.Render(m.cfg.TargetKey),
		valueStyle.Render(fmt.Sprintf("%d seconds", m.cfg.DurationSeconds)),
		"",
		hintStyle.Render("space start · ←/→ duration · q quit"),
	}
	if m.notice != "" {
		lines = append(lines, hintStyle.Render(m.notice))
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *Model) renderRunning() string {
	snap := m.engine.Snapshot()
	timer := timerStyle
	if snap.SecondsRemaining <= warningSeconds {
		timer = warningStyle
	}
	return lipgloss.JoinVertical(lipgloss.Center,
		keyStyle.Render(m.cfg.TargetKey),
		timer.Render(fmt.Sprintf("%ds", snap.SecondsRemaining)),
		"",
		valueStyle.Render(fmt.Sprintf("Presses %d · Correct %d · Accuracy %.1f%%", snap.TotalPresses, snap.CorrectPresses, snap.Accuracy)),
		"",
		hintStyle.Render("esc abort"),
	)
}

func (m *Model) renderFinished() string {
	if m.result == nil {
		return hintStyle.Render("Session ended. r play again · q quit")
	}
	r := m.result
	rows := [][]string{
		{"Key:", r.TargetKey},
		{"Duration:", fmt.Sprintf("%ds", r.DurationSeconds)},
		{"Total presses:", fmt.Sprintf("%d", r.TotalPresses)},
		{"Correct:", fmt.Sprintf("%d", r.CorrectPresses)},
		{"Wrong:", fmt.Sprintf("%d", r.WrongPresses)},
		{"Accuracy:", fmt.Sprintf("%.1f%%", r.Accuracy)},
		{"Keys/sec:", fmt.Sprintf("%.2f", r.KeysPerSecond)},
	}
	lines := []string{titleStyle.Render("Time's up!"), ""}
	for _, line := range statsPkg.FormatTable(nil, rows, map[int]bool{1: true}) {
		lines = append(lines, valueStyle.Render(line))
	}
	lines = append(lines, "")
	switch {
	case m.saving:
		lines = append(lines, hintStyle.Render("Saving..."))
	case m.saveErr != nil:
		lines = append(lines, errorStyle.Render("Result not saved: "+m.saveErr.Error()))
		lines = append(lines, hintStyle.Render("s retry save · r play again · q quit"))
	default:
		if m.notice != "" {
			lines = append(lines, hintStyle.Render(m.notice))
		}
		lines = append(lines, hintStyle.Render("r play again · q quit"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) loadFooterStats() {
	report, err := statsPkg.BuildReport(context.Background(), m.store, model.StatsConfig{})
	if err != nil {
		logErrf("failed to load session stats: %v\n", err)
		m.summaryErr = err
		return
	}
	m.summaryErr = nil
	m.summary = report.Summary
}

func (m *Model) renderFooter() string {
	if m.summaryErr != nil {
		return footerStyle.Render("All-time stats unavailable")
	}
	if m.summary.Empty() {
		return footerStyle.Render("No games yet")
	}
	s := m.summary
	segments := []string{
		fmt.Sprintf("Games %d", s.TotalGames),
		fmt.Sprintf("Avg %.1f KPS · %.1f%%", s.AverageKPS, s.AverageAccuracy),
		fmt.Sprintf("Best %.2f KPS · %.1f%%", s.BestKPS, s.BestAccuracy),
	}
	return footerStyle.Render("All-time " + strings.Join(segments, "  "))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
