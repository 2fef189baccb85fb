package studio

import (
	"context"
	stderrors "errors"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/pipestudio/config"
	"github.com/kbukum/pipestudio/errors"
	"github.com/kbukum/pipestudio/graph"
	"github.com/kbukum/pipestudio/importer"
	"github.com/kbukum/pipestudio/logger"
	"github.com/kbukum/pipestudio/metadata"
	"github.com/kbukum/pipestudio/notify"
	"github.com/kbukum/pipestudio/observability"
	"github.com/kbukum/pipestudio/preview"
	"github.com/kbukum/pipestudio/store"
)

// ErrImportCancelled is returned by Import when the confirmation declined
// to replace unsaved edits.
var ErrImportCancelled = stderrors.New("studio: import cancelled")

// Choice answers the unsaved-changes confirmation.
type Choice int

const (
	ChoiceCancel Choice = iota
	ChoiceDiscard
	ChoiceSave
)

// ConfirmFunc decides what happens to unsaved edits before an import.
type ConfirmFunc func() Choice

// Options configures a Session. Store, Runs and Poller are required.
type Options struct {
	Namespace string
	Store     *Store
	Runs      preview.RunService
	Poller    preview.StatusPoller
	Importer  *importer.Importer
	Notifier  notify.Notifier
	// Drafts holds saved pipelines under store.DraftKey.
	Drafts store.ContextStore[graph.Pipeline]
	// State holds LastDraftId and LastPreviewId.
	State   store.ContextStore[string]
	Preview config.PreviewConfig
	Metrics *observability.PreviewMetrics
	Clock   preview.Clock
	Logger  *logger.Logger
}

// Session is one open pipeline.
type Session struct {
	store    *Store
	coord    *preview.Coordinator
	meta     *metadata.Session
	importer *importer.Importer
	drafts   store.ContextStore[graph.Pipeline]
	state    store.ContextStore[string]
	notifier notify.Notifier
	log      *logger.Logger

	previewEnabled bool
	autosaveDelay  time.Duration

	mu              sync.Mutex
	invalidName     bool
	showRuntimeArgs bool
	previewMode     bool
	runtimeArgs     map[string]string
	messages        []Message
	resumableID     string
	autosave        *time.Timer
	disposed        bool
}

// NewSession wires a session around opts.Store. When the store's draft is
// the one the last preview ran for, that preview is resumed.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	if opts.Store == nil {
		return nil, errors.Validation("studio session requires a store")
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop
	}
	log := opts.Logger
	if log == nil {
		log = logger.Get("studio")
	}

	coord, err := preview.New(preview.Options{
		Namespace:         opts.Namespace,
		Provider:          opts.Store,
		Runs:              opts.Runs,
		Poller:            opts.Poller,
		Notifier:          opts.Notifier,
		State:             opts.State,
		Clock:             opts.Clock,
		Metrics:           opts.Metrics,
		Logger:            log.WithComponent("preview"),
		PollInterval:      opts.Preview.PollInterval,
		TimerInterval:     opts.Preview.TimerInterval,
		StreamingTimeout:  opts.Preview.StreamingTimeoutMinutes,
		LegacyStatusCheck: opts.Preview.LegacyStatusCheck,
	})
	if err != nil {
		return nil, err
	}

	s := &Session{
		store:          opts.Store,
		coord:          coord,
		meta:           metadata.NewSession(opts.Store),
		importer:       opts.Importer,
		drafts:         opts.Drafts,
		state:          opts.State,
		notifier:       opts.Notifier,
		log:            log,
		previewEnabled: opts.Preview.Enabled,
		autosaveDelay:  opts.Preview.AutosaveDelay,
		runtimeArgs:    map[string]string{},
	}

	if s.autosaveDelay > 0 && s.drafts != nil {
		unsub := s.store.OnChange(s.scheduleAutosave)
		coord.OnDispose(unsub)
	}
	coord.OnDispose(s.cancelAutosave)

	s.resume(ctx)
	return s, nil
}

// Store returns the pipeline store.
func (s *Session) Store() *Store { return s.store }

// Coordinator returns the preview coordinator.
func (s *Session) Coordinator() *preview.Coordinator { return s.coord }

// Metadata returns the metadata editor.
func (s *Session) Metadata() *metadata.Session { return s.meta }

// OpenMetadata opens the metadata editor and clears the invalid-name flag.
func (s *Session) OpenMetadata() metadata.Metadata {
	s.mu.Lock()
	s.invalidName = false
	s.mu.Unlock()
	return s.meta.Open()
}

// LoadDraft replaces the pipeline with a saved draft.
func (s *Session) LoadDraft(ctx context.Context, id string) error {
	if s.drafts == nil {
		return errors.NotFound("draft", id)
	}
	p, err := s.drafts.Load(ctx, store.DraftKey(id))
	if err != nil {
		return errors.Internal(err)
	}
	if p == nil {
		return errors.NotFound("draft", id)
	}
	s.store.SetState(*p)
	s.store.SetDraftID(id)
	s.resume(ctx)
	return nil
}

// SaveDraft saves the pipeline under its draft id, assigning one if it has
// none, and records LastDraftId and LastPreviewId. The invalid-name flag is
// recomputed from the pipeline name.
func (s *Session) SaveDraft(ctx context.Context) (string, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanDraftSave)
	id, err := s.saveDraft(ctx)
	observability.EndSpan(span, err)
	return id, err
}

func (s *Session) saveDraft(ctx context.Context) (string, error) {
	if s.drafts == nil {
		return "", errors.Validation("no draft storage configured")
	}
	id := s.store.DraftID()
	if id == "" {
		id = uuid.NewString()
		s.store.SetDraftID(id)
	}
	observability.SetSpanAttribute(ctx, logger.FieldDraftID, id)

	p, err := s.store.DisplayConfig()
	if err != nil {
		return "", errors.Internal(err)
	}
	if err := s.drafts.Save(ctx, store.DraftKey(id), &p, 0); err != nil {
		s.log.Error("Draft save failed", logger.MergeWithError(logger.Fields(logger.FieldDraftID, id), err))
		return "", errors.Internal(err)
	}
	s.store.MarkClean()

	nameMsgs := nameMessages(p.Name)
	s.mu.Lock()
	s.invalidName = hasNameError(nameMsgs)
	s.messages = nameMsgs
	s.mu.Unlock()

	if s.state != nil {
		previewID := s.coord.PreviewID()
		if err := s.state.Save(ctx, store.LastDraftID, &id, 0); err != nil {
			s.log.Warn("Failed to persist last draft id", logger.ErrorFields("save_draft", err))
		}
		if err := s.state.Save(ctx, store.LastPreviewID, &previewID, 0); err != nil {
			s.log.Warn("Failed to persist last preview id", logger.ErrorFields("save_draft", err))
		}
	}
	s.log.Info("Draft saved", logger.Fields(logger.FieldDraftID, id, logger.FieldPipeline, p.Name))
	return id, nil
}

// Validate checks the pipeline and replaces the message list. On success
// the list holds the success message.
func (s *Session) Validate() ([]Message, bool) {
	p := s.store.Pipeline()
	msgs := ValidatePipeline(p)
	ok := len(msgs) == 0

	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.messages = []Message{successMessage(p.Name)}
	} else {
		s.messages = msgs
		s.invalidName = hasNameError(msgs)
	}
	return append([]Message(nil), s.messages...), ok
}

// Import replaces the pipeline with an uploaded document. With unsaved
// edits, confirm decides first; a nil confirm cancels. Choosing save on an
// unnamed pipeline saves the draft and cancels the import. Failures are
// notified.
func (s *Session) Import(ctx context.Context, filename string, data []byte, confirm ConfirmFunc) (graph.Pipeline, error) {
	if s.importer == nil {
		return graph.Pipeline{}, errors.Validation("import is not configured")
	}
	if s.store.IsDirty() {
		choice := ChoiceCancel
		if confirm != nil {
			choice = confirm()
		}
		switch choice {
		case ChoiceDiscard:
		case ChoiceSave:
			if _, err := s.SaveDraft(ctx); err != nil {
				return graph.Pipeline{}, err
			}
			if s.store.Name() == "" {
				return graph.Pipeline{}, ErrImportCancelled
			}
		default:
			return graph.Pipeline{}, ErrImportCancelled
		}
	}

	p, err := s.importer.ImportFile(ctx, filename, data)
	if err != nil {
		s.notifier.Show(notify.DangerNote(errors.Wrap(err).Message))
		return graph.Pipeline{}, err
	}
	s.store.Reset()
	s.store.SetState(p)
	return p, nil
}

// StartPreview submits a preview with the current runtime arguments.
func (s *Session) StartPreview(ctx context.Context) (*preview.Run, error) {
	if !s.previewEnabled {
		return nil, errors.PreviewDisabled()
	}
	s.mu.Lock()
	s.showRuntimeArgs = false
	args := maps.Clone(s.runtimeArgs)
	s.mu.Unlock()
	return s.coord.Submit(ctx, args)
}

// StopPreview stops the active preview.
func (s *Session) StopPreview(ctx context.Context) error {
	return s.coord.Stop(ctx)
}

// ToggleRuntimeArguments stops a running preview, or otherwise toggles the
// runtime arguments panel. It returns the panel state.
func (s *Session) ToggleRuntimeArguments(ctx context.Context) (bool, error) {
	if s.coord.State() == preview.StateRunning {
		err := s.coord.Stop(ctx)
		return s.ShowRuntimeArguments(), err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showRuntimeArgs = !s.showRuntimeArgs
	return s.showRuntimeArgs, nil
}

// SetRuntimeArgs replaces the runtime arguments of the next preview.
func (s *Session) SetRuntimeArgs(args map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runtimeArgs = maps.Clone(args)
	if s.runtimeArgs == nil {
		s.runtimeArgs = map[string]string{}
	}
}

// RuntimeArgs returns a copy of the runtime arguments.
func (s *Session) RuntimeArgs() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.runtimeArgs)
}

// TogglePreviewMode flips the preview mode flag and returns it.
func (s *Session) TogglePreviewMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previewMode = !s.previewMode
	return s.previewMode
}

// PreviewMode reports the preview mode flag.
func (s *Session) PreviewMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previewMode
}

// IsPreviewEnabled reports whether previews are enabled by configuration.
func (s *Session) IsPreviewEnabled() bool { return s.previewEnabled }

// InvalidName reports whether the last save or validation flagged the name.
func (s *Session) InvalidName() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidName
}

// ShowRuntimeArguments reports the runtime arguments panel state.
func (s *Session) ShowRuntimeArguments() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showRuntimeArgs
}

// Messages returns the current validation messages.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// ResumableID returns the preview id resumed when the session opened.
func (s *Session) ResumableID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resumableID
}

// Dispose tears the session down. It is idempotent.
func (s *Session) Dispose() {
	s.mu.Lock()
	s.disposed = true
	s.mu.Unlock()
	s.coord.Dispose()
}

// Wait blocks until the backend stop issued by Dispose has returned or ctx
// is done.
func (s *Session) Wait(ctx context.Context) error {
	return s.coord.Wait(ctx)
}

// resume picks up the last preview if it ran for the current draft.
func (s *Session) resume(ctx context.Context) {
	draftID := s.store.DraftID()
	if draftID == "" || s.state == nil {
		return
	}
	last, err := s.state.Load(ctx, store.LastDraftID)
	if err != nil || last == nil || *last != draftID {
		return
	}
	previewID, err := s.state.Load(ctx, store.LastPreviewID)
	if err != nil || previewID == nil || *previewID == "" {
		return
	}
	s.mu.Lock()
	s.resumableID = *previewID
	s.mu.Unlock()
	if s.coord.Resume(*previewID) {
		s.log.Info("Resuming last preview", logger.Fields(logger.FieldDraftID, draftID, logger.FieldRunID, *previewID))
	}
}

func (s *Session) scheduleAutosave() {
	if !s.store.IsDirty() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	if s.autosave != nil {
		s.autosave.Stop()
	}
	s.autosave = time.AfterFunc(s.autosaveDelay, func() {
		if _, err := s.SaveDraft(context.Background()); err != nil {
			s.log.Warn("Autosave failed", logger.ErrorFields("autosave", err))
		}
	})
}

func (s *Session) cancelAutosave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.autosave != nil {
		s.autosave.Stop()
		s.autosave = nil
	}
}
