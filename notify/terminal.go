package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	dangerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	contentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

// Terminal prints one line per notification.
type Terminal struct {
	mu      sync.Mutex
	w       io.Writer
	noColor bool
}

// NewTerminal creates a Terminal notifier writing to w.
func NewTerminal(w io.Writer, noColor bool) *Terminal {
	return &Terminal{w: w, noColor: noColor}
}

// Show implements Notifier.
func (t *Terminal) Show(n Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, t.render(n)) //nolint:errcheck // best effort output
}

func (t *Terminal) render(n Notification) string {
	tag, tagStyle := "✔", successStyle
	if n.Type == Danger {
		tag, tagStyle = "✘", dangerStyle
	}
	if t.noColor {
		return Render(n)
	}
	return tagStyle.Render(tag) + " " + contentStyle.Render(n.Content)
}

// Render returns the plain one-line form of n, without styling.
func Render(n Notification) string {
	tag := "✔"
	if n.Type == Danger {
		tag = "✘"
	}
	return tag + " " + n.Content
}
