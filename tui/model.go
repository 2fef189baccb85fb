package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kbukum/pipestudio/errors"
	"github.com/kbukum/pipestudio/notify"
	"github.com/kbukum/pipestudio/preview"
)

// maxNotes is the number of notifications kept on screen.
const maxNotes = 5

// Options configures a watcher Model.
type Options struct {
	Source SnapshotSource
	// Feed supplies notifications. Nil hides the notification list.
	Feed *notify.Feed
	// Stop is bound to the s key. Nil disables it.
	Stop func(ctx context.Context) error
	// ExitWhenIdle quits once a run that was seen active returns to idle.
	ExitWhenIdle bool
}

// Model is the bubbletea model of the watcher.
type Model struct {
	ctx          context.Context
	snap         preview.Snapshot
	sawActive    bool
	exitWhenIdle bool
	stop         func(context.Context) error
	stopErr      string
	notes        []notify.Entry

	spinner  spinner.Model
	snaps    *latest
	noteCh   <-chan notify.Entry
	done     chan struct{}
	closer   *sync.Once
	cleanup  func()
	quitting bool
}

// NewModel subscribes to opts.Source and opts.Feed. Close releases the
// subscriptions; Run does that itself.
func NewModel(ctx context.Context, opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = ActiveStyle

	m := Model{
		ctx:          ctx,
		snap:         opts.Source.Snapshot(),
		exitWhenIdle: opts.ExitWhenIdle,
		stop:         opts.Stop,
		spinner:      s,
		snaps:        newLatest(),
		done:         make(chan struct{}),
		closer:       &sync.Once{},
	}
	m.sawActive = m.snap.Active()

	unsubSnap := opts.Source.Subscribe(m.snaps.put)
	unsubFeed := func() {}
	if opts.Feed != nil {
		m.noteCh, unsubFeed = opts.Feed.Subscribe(16)
	}
	m.cleanup = func() {
		unsubSnap()
		unsubFeed()
	}
	return m
}

// Close releases the subscriptions and ends pending listeners. It is
// idempotent.
func (m Model) Close() {
	m.closer.Do(func() {
		close(m.done)
		m.cleanup()
	})
}

// Snapshot returns the snapshot on screen.
func (m Model) Snapshot() preview.Snapshot { return m.snap }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForSnapshot(m.snaps, m.done), waitForNotification(m.noteCh))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "s":
			if m.stop != nil && m.snap.State == preview.StateRunning {
				m.stopErr = ""
				return m, stopCmd(m.ctx, m.stop)
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SnapshotMsg:
		// Drop copies older than the one on screen.
		if msg.Snapshot.Version >= m.snap.Version {
			m.snap = msg.Snapshot
		}
		if m.snap.Active() {
			m.sawActive = true
		} else if m.exitWhenIdle && m.sawActive {
			m.quitting = true
			return m, tea.Quit
		}
		return m, waitForSnapshot(m.snaps, m.done)

	case NotificationMsg:
		m.notes = append(m.notes, msg.Entry)
		if len(m.notes) > maxNotes {
			m.notes = m.notes[len(m.notes)-maxNotes:]
		}
		return m, waitForNotification(m.noteCh)

	case StopResultMsg:
		if msg.Err != nil {
			m.stopErr = errors.Wrap(msg.Err).Message
		}
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	title := "Pipeline preview"
	if m.snap.PipelineName != "" {
		title += " · " + m.snap.PipelineName
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(m.stateLine())
	b.WriteString("\n")
	if run := m.snap.Run; run != nil {
		b.WriteString(field("run", run.ID))
		b.WriteString(field("status", string(run.Status)))
	} else if last := m.snap.LastRun; last != nil {
		b.WriteString(field("last run", last.ID))
		b.WriteString(field("status", string(last.Status)))
	} else if m.snap.PreviewID != "" {
		b.WriteString(field("preview", m.snap.PreviewID))
	}
	if m.snap.LastError != "" {
		b.WriteString(ErrorStyle.Render(m.snap.LastError))
		b.WriteString("\n")
	}
	if m.stopErr != "" {
		b.WriteString(ErrorStyle.Render(m.stopErr))
		b.WriteString("\n")
	}

	if len(m.notes) > 0 {
		lines := make([]string, 0, len(m.notes))
		for _, e := range m.notes {
			style := SuccessStyle
			if e.Type == notify.Danger {
				style = ErrorStyle
			}
			lines = append(lines, style.Render(notify.Render(e.Notification)))
		}
		b.WriteString("\n")
		b.WriteString(BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(FooterStyle.Render(m.help()))
	b.WriteString("\n")
	return b.String()
}

func (m Model) stateLine() string {
	badge := "○"
	if m.snap.Loading || m.snap.State == preview.StateRunning {
		badge = m.spinner.View()
	}
	label := string(m.snap.State)
	if m.snap.LoadingLabel != "" {
		label = m.snap.LoadingLabel
	}
	return fmt.Sprintf("%s %s  %s",
		badge,
		StyleForState(m.snap.State).Render(label),
		DurationStyle.Render(m.snap.Duration.String()),
	)
}

func (m Model) help() string {
	if m.stop != nil && m.snap.State == preview.StateRunning {
		return "s stop · q quit"
	}
	return "q quit"
}

func field(label, value string) string {
	return LabelStyle.Render(label) + ValueStyle.Render(value) + "\n"
}

// Run shows the watcher until the user quits or, with ExitWhenIdle, the run
// ends. It returns the last snapshot shown.
func Run(ctx context.Context, opts Options, programOpts ...tea.ProgramOption) (preview.Snapshot, error) {
	m := NewModel(ctx, opts)
	defer m.Close()

	programOpts = append([]tea.ProgramOption{tea.WithContext(ctx)}, programOpts...)
	final, err := tea.NewProgram(m, programOpts...).Run()
	if fm, ok := final.(Model); ok {
		return fm.snap, err
	}
	return m.snap, err
}
