package bootstrap

import (
	"context"
	"fmt"

	"github.com/kbukum/pipestudio/cdap"
	"github.com/kbukum/pipestudio/component"
	"github.com/kbukum/pipestudio/graph"
	"github.com/kbukum/pipestudio/importer"
	"github.com/kbukum/pipestudio/logger"
	"github.com/kbukum/pipestudio/preview"
	"github.com/kbukum/pipestudio/store"
	"github.com/kbukum/pipestudio/studio"
)

// State buckets on the backend.
const (
	DraftsBucket = "drafts"
	MarkerBucket = "markers"
)

// DefaultArtifactVersion is the data pipeline version a new pipeline is
// created for when no artifacts are configured.
const DefaultArtifactVersion = "6.10.0"

// DefaultArtifact is the artifact new pipelines start from: the first
// configured one, or the system data pipeline.
func (a *App) DefaultArtifact() graph.Artifact {
	if list := cdap.ConfiguredArtifacts(a.Cfg.Artifacts); len(list) > 0 {
		return list[0]
	}
	return graph.Artifact{Name: preview.ArtifactDataPipeline, Version: DefaultArtifactVersion, Scope: "SYSTEM"}
}

// Artifacts lists the artifacts an import may use. Offline apps serve the
// configured list; otherwise the backend is asked and the configured list is
// the fallback.
func (a *App) Artifacts() importer.ArtifactSource {
	fallback := cdap.ConfiguredArtifacts(a.Cfg.Artifacts)
	if len(fallback) == 0 {
		fallback = []graph.Artifact{a.DefaultArtifact()}
	}
	if a.offline {
		return importer.Static(fallback...)
	}
	return importer.ArtifactFunc(func(ctx context.Context) []graph.Artifact {
		return a.Backend.KnownArtifacts(ctx, a.Cfg.Namespace, fallback)
	})
}

// OpenSession opens a studio session on the app's state backend. A non-empty
// draftID loads that draft; otherwise the session starts from defaults. The
// session is disposed on shutdown. The app must be started.
func (a *App) OpenSession(ctx context.Context, draftID string) (*studio.Session, error) {
	a.mu.Lock()
	started := a.started
	a.mu.Unlock()
	if !started || a.State == nil {
		return nil, fmt.Errorf("bootstrap: open session before %s is started", a.Name)
	}

	drafts, err := store.Open[graph.Pipeline](a.State, DraftsBucket)
	if err != nil {
		return nil, err
	}
	markers, err := store.Open[string](a.State, MarkerBucket)
	if err != nil {
		return nil, err
	}

	poller := a.Backend.NewStatusPoller(a.Cfg.Namespace)
	s, err := studio.NewSession(ctx, studio.Options{
		Namespace: a.Cfg.Namespace,
		Store:     studio.NewStore(a.DefaultArtifact(), nil),
		Runs:      a.Backend,
		Poller:    poller,
		Importer:  importer.New(a.Artifacts()),
		Notifier:  a.notifier(),
		Drafts:    drafts,
		State:     markers,
		Preview:   a.Cfg.Preview,
		Metrics:   a.PreviewMetrics,
		Logger:    a.Logger.WithComponent("studio"),
	})
	if err != nil {
		return nil, err
	}
	if draftID != "" {
		if err := s.LoadDraft(ctx, draftID); err != nil {
			s.Dispose()
			poller.StopAll()
			return nil, err
		}
	}

	name := "session"
	for i := 2; a.Components.Get(name) != nil; i++ {
		name = fmt.Sprintf("session-%d", i)
	}
	comp := &component.Func{
		ComponentName: name,
		OnStop: func(ctx context.Context) error {
			s.Dispose()
			poller.StopAll()
			return s.Wait(ctx)
		},
		Desc: component.Description{Name: "Studio session", Type: "session", Details: sessionDetails(s)},
	}
	if err := a.Components.Register(comp); err != nil {
		s.Dispose()
		poller.StopAll()
		return nil, err
	}
	// Marks the session component started so StopAll disposes it.
	if err := a.Components.StartAll(ctx); err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.sessions = append(a.sessions, s)
	a.mu.Unlock()

	a.Logger.Info("Session opened", logger.Fields(
		logger.FieldDraftID, s.Store().DraftID(),
		"resumable", s.ResumableID(),
	))
	return s, nil
}

func sessionDetails(s *studio.Session) string {
	d := "artifact " + s.Store().Artifact().String()
	if id := s.Store().DraftID(); id != "" {
		d += ", draft " + id
	}
	return d
}

// Sessions returns the sessions opened since the app started.
func (a *App) Sessions() []*studio.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*studio.Session(nil), a.sessions...)
}

// LastDraftID returns the draft saved most recently on the state backend,
// or "" when none was recorded.
func (a *App) LastDraftID(ctx context.Context) (string, error) {
	if a.State == nil {
		return "", fmt.Errorf("bootstrap: %s is not started", a.Name)
	}
	markers, err := store.Open[string](a.State, MarkerBucket)
	if err != nil {
		return "", err
	}
	id, err := markers.Load(ctx, store.LastDraftID)
	if err != nil || id == nil {
		return "", err
	}
	return *id, nil
}
