package studio

import (
	"sync"

	"github.com/kbukum/pipestudio/graph"
	"github.com/kbukum/pipestudio/metadata"
	"github.com/kbukum/pipestudio/preview"
)

// Store holds the pipeline being edited. It is safe for concurrent use.
// Change listeners run after the lock is released.
type Store struct {
	defaults graph.Artifact
	roles    graph.RoleMap

	mu        sync.Mutex
	pipeline  graph.Pipeline
	draftID   string
	dirty     bool
	listeners map[int]func()
	nextID    int
}

var (
	_ preview.ConfigProvider = (*Store)(nil)
	_ metadata.Committer     = (*Store)(nil)
)

// NewStore creates a store holding the defaults for artifact. Nil roles
// means graph.DefaultPluginRoles.
func NewStore(artifact graph.Artifact, roles graph.RoleMap) *Store {
	if roles == nil {
		roles = graph.DefaultPluginRoles()
	}
	s := &Store{defaults: artifact, roles: roles, listeners: make(map[int]func())}
	s.pipeline = s.Defaults()
	return s
}

// Defaults returns an empty pipeline on the default artifact.
func (s *Store) Defaults() graph.Pipeline {
	return graph.Pipeline{
		Artifact: s.defaults,
		Config:   graph.Config{Stages: []graph.Stage{}, Connections: []graph.Connection{}},
	}
}

// SetState replaces the pipeline and clears the dirty flag.
func (s *Store) SetState(p graph.Pipeline) {
	s.mu.Lock()
	s.pipeline = p
	s.dirty = false
	s.mu.Unlock()
	s.changed()
}

// Reset replaces the pipeline with the defaults and forgets the draft id.
func (s *Store) Reset() {
	s.mu.Lock()
	s.pipeline = s.Defaults()
	s.draftID = ""
	s.dirty = false
	s.mu.Unlock()
	s.changed()
}

// Update applies an edit and marks the store dirty.
func (s *Store) Update(fn func(p *graph.Pipeline)) {
	s.mu.Lock()
	fn(&s.pipeline)
	s.dirty = true
	s.mu.Unlock()
	s.changed()
}

// Metadata implements metadata.Committer.
func (s *Store) Metadata() metadata.Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return metadata.Metadata{Name: s.pipeline.Name, Description: s.pipeline.Description}
}

// SetMetadata implements metadata.Committer.
func (s *Store) SetMetadata(m metadata.Metadata) {
	s.Update(func(p *graph.Pipeline) {
		p.Name = m.Name
		p.Description = m.Description
	})
}

// Pipeline implements preview.ConfigProvider. It is ConfigForExport
// without the error.
func (s *Store) Pipeline() graph.Pipeline {
	p, err := s.ConfigForExport()
	if err != nil {
		s.mu.Lock()
		p = s.pipeline
		s.mu.Unlock()
		p.UI = nil
	}
	return p
}

// ConfigForExport returns a deep copy without editor state.
func (s *Store) ConfigForExport() (graph.Pipeline, error) {
	s.mu.Lock()
	p := s.pipeline
	s.mu.Unlock()
	return p.ForExport()
}

// DisplayConfig returns a deep copy including editor state.
func (s *Store) DisplayConfig() (graph.Pipeline, error) {
	s.mu.Lock()
	p := s.pipeline
	s.mu.Unlock()
	return p.Clone()
}

// Artifact implements preview.ConfigProvider.
func (s *Store) Artifact() graph.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline.Artifact
}

// Name implements preview.ConfigProvider.
func (s *Store) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipeline.Name
}

// PluginRoles implements preview.ConfigProvider.
func (s *Store) PluginRoles() graph.RoleMap { return s.roles }

// DraftID implements preview.ConfigProvider.
func (s *Store) DraftID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftID
}

// SetDraftID records the id the pipeline is saved under. Listeners are not
// notified.
func (s *Store) SetDraftID(id string) {
	s.mu.Lock()
	s.draftID = id
	s.mu.Unlock()
}

// IsDirty reports unsaved edits.
func (s *Store) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// MarkClean clears the dirty flag after a save. Listeners are not notified.
func (s *Store) MarkClean() {
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
}

// OnChange implements preview.ConfigProvider.
func (s *Store) OnChange(fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) changed() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
