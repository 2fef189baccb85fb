// Package metadata holds the edit session for a pipeline's name and
// description. Edits go to a working copy; only Save writes them back.
package metadata

import (
	"strings"
	"sync"
)

// Metadata is the user-editable part of a pipeline.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Committer owns the committed metadata.
type Committer interface {
	Metadata() Metadata
	SetMetadata(m Metadata)
}

// Key is an input key the session reacts to.
type Key int

const (
	KeyOther Key = iota
	KeyEnter
	KeyEscape
)

// Session is one metadata editor. It is safe for concurrent use.
type Session struct {
	committer Committer

	mu       sync.Mutex
	working  Metadata
	expanded bool
	display  string
	tooltip  string
}

// NewSession creates a closed session and derives the display forms of the
// committed description.
func NewSession(c Committer) *Session {
	s := &Session{committer: c}
	m := c.Metadata()
	s.working = m
	s.display, s.tooltip = DisplayDescription(m.Description), TooltipDescription(m.Description)
	return s
}

// Open snapshots the committed values into the working copy.
func (s *Session) Open() Metadata {
	m := s.committer.Metadata()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.working = m
	s.expanded = true
	return m
}

// SetName edits the working name.
func (s *Session) SetName(name string) {
	s.mu.Lock()
	s.working.Name = name
	s.mu.Unlock()
}

// SetDescription edits the working description.
func (s *Session) SetDescription(desc string) {
	s.mu.Lock()
	s.working.Description = desc
	s.mu.Unlock()
}

// Save commits the working copy and closes the editor.
func (s *Session) Save() Metadata {
	s.mu.Lock()
	m := s.working
	s.display = DisplayDescription(m.Description)
	s.tooltip = TooltipDescription(m.Description)
	s.expanded = false
	s.mu.Unlock()

	s.committer.SetMetadata(m)
	return m
}

// Cancel discards the working copy and closes the editor.
func (s *Session) Cancel() {
	m := s.committer.Metadata()
	s.mu.Lock()
	s.working = m
	s.expanded = false
	s.mu.Unlock()
}

// HandleKey saves on Enter and cancels on Escape. It reports whether the
// key was consumed.
func (s *Session) HandleKey(k Key) bool {
	switch k {
	case KeyEnter:
		s.Save()
		return true
	case KeyEscape:
		s.Cancel()
		return true
	default:
		return false
	}
}

// Working returns the working copy.
func (s *Session) Working() Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.working
}

// Expanded reports whether the editor is open.
func (s *Session) Expanded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded
}

// Display returns the single-line description of the last save.
func (s *Session) Display() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display
}

// Tooltip returns the description of the last save with line breaks as
// "<br />".
func (s *Session) Tooltip() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tooltip
}

// DisplayDescription replaces each newline with a space.
func DisplayDescription(desc string) string {
	return strings.ReplaceAll(normalizeNewlines(desc), "\n", " ")
}

// TooltipDescription replaces each newline with "<br />".
func TooltipDescription(desc string) string {
	return strings.ReplaceAll(normalizeNewlines(desc), "\n", "<br />")
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
