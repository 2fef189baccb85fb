package api

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pipestudio/errors"
	"github.com/kbukum/pipestudio/graph"
	"github.com/kbukum/pipestudio/importer"
	"github.com/kbukum/pipestudio/logger"
	"github.com/kbukum/pipestudio/notify"
	"github.com/kbukum/pipestudio/preview"
	"github.com/kbukum/pipestudio/studio"
)

// ErrCodeImportCancelled is returned when an import is refused because of
// unsaved edits.
const ErrCodeImportCancelled errors.ErrorCode = "IMPORT_CANCELLED"

// Handler serves the routes of one studio session.
type Handler struct {
	session   *studio.Session
	feed      *notify.Feed
	artifacts importer.ArtifactSource
	log       *logger.Logger
}

// NewHandler creates a Handler. feed and artifacts may be nil, in which case
// the notification and artifact routes return empty lists.
func NewHandler(session *studio.Session, feed *notify.Feed, artifacts importer.ArtifactSource) *Handler {
	return &Handler{
		session:   session,
		feed:      feed,
		artifacts: artifacts,
		log:       logger.Get(ComponentName),
	}
}

// Register adds the routes to r. guard runs in front of every mutating
// route.
func (h *Handler) Register(r gin.IRouter, guard ...gin.HandlerFunc) {
	r.GET("/pipeline", h.getPipeline)
	r.GET("/pipeline/export", h.exportPipeline)
	r.GET("/preview", h.getPreview)
	r.GET("/notifications", h.listNotifications)
	r.GET("/artifacts", h.listArtifacts)

	w := r.Group("", guard...)
	w.PUT("/pipeline/metadata", h.updateMetadata)
	w.POST("/pipeline/validate", h.validate)
	w.POST("/pipeline/import", h.importPipeline)
	w.POST("/drafts", h.saveDraft)
	w.POST("/drafts/:id/open", h.openDraft)
	w.POST("/preview", h.startPreview)
	w.POST("/preview/stop", h.stopPreview)
	w.PUT("/preview/runtime-args", h.setRuntimeArgs)
	w.POST("/preview/runtime-args/toggle", h.toggleRuntimeArgs)
	w.POST("/preview/mode/toggle", h.togglePreviewMode)
}

// PipelineView is the pipeline as shown to a shell.
type PipelineView struct {
	Pipeline    graph.Pipeline `json:"pipeline"`
	DraftID     string         `json:"draftId,omitempty"`
	Dirty       bool           `json:"dirty"`
	InvalidName bool           `json:"invalidName"`
	Description string         `json:"description"`
	Tooltip     string         `json:"tooltip"`
}

// PreviewView is the coordinator snapshot plus the session's preview flags.
type PreviewView struct {
	preview.Snapshot
	Enabled              bool              `json:"enabled"`
	PreviewMode          bool              `json:"previewMode"`
	ShowRuntimeArguments bool              `json:"showRuntimeArguments"`
	RuntimeArgs          map[string]string `json:"runtimeArgs"`
	ResumableID          string            `json:"resumableId,omitempty"`
}

// ValidationView is the result of a validation request.
type ValidationView struct {
	Valid    bool             `json:"valid"`
	Messages []studio.Message `json:"messages"`
}

type metadataRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type runtimeArgsRequest struct {
	Args map[string]string `json:"args"`
}

func (h *Handler) pipelineView() (PipelineView, error) {
	p, err := h.session.Store().DisplayConfig()
	if err != nil {
		return PipelineView{}, errors.Internal(err)
	}
	st := h.session.Store()
	m := h.session.Metadata()
	return PipelineView{
		Pipeline:    p,
		DraftID:     st.DraftID(),
		Dirty:       st.IsDirty(),
		InvalidName: h.session.InvalidName(),
		Description: m.Display(),
		Tooltip:     m.Tooltip(),
	}, nil
}

func (h *Handler) previewView() PreviewView {
	return PreviewView{
		Snapshot:             h.session.Coordinator().Snapshot(),
		Enabled:              h.session.IsPreviewEnabled(),
		PreviewMode:          h.session.PreviewMode(),
		ShowRuntimeArguments: h.session.ShowRuntimeArguments(),
		RuntimeArgs:          h.session.RuntimeArgs(),
		ResumableID:          h.session.ResumableID(),
	}
}

func (h *Handler) getPipeline(c *gin.Context) {
	view, err := h.pipelineView()
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, view)
}

func (h *Handler) exportPipeline(c *gin.Context) {
	p, err := h.session.Store().ConfigForExport()
	if err != nil {
		RespondWithError(c, errors.Internal(err))
		return
	}
	name := p.Name
	if name == "" {
		name = "pipeline"
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`.json"`)
	c.JSON(http.StatusOK, p)
}

func (h *Handler) updateMetadata(c *gin.Context) {
	var req metadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, errors.InvalidInput("body", err.Error()))
		return
	}
	h.session.OpenMetadata()
	m := h.session.Metadata()
	m.SetName(req.Name)
	m.SetDescription(req.Description)
	saved := m.Save()
	h.log.Debug("Metadata updated", logger.Fields(logger.FieldPipeline, saved.Name))

	view, err := h.pipelineView()
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, view)
}

func (h *Handler) validate(c *gin.Context) {
	msgs, ok := h.session.Validate()
	RespondOK(c, ValidationView{Valid: ok, Messages: msgs})
}

// importPipeline takes the raw document as the body. The filename query
// parameter names the upload and on_dirty picks what happens to unsaved
// edits: discard, save or cancel (the default).
func (h *Handler) importPipeline(c *gin.Context) {
	filename := c.DefaultQuery("filename", "pipeline.json")
	choice, err := parseChoice(c.DefaultQuery("on_dirty", "cancel"))
	if err != nil {
		RespondWithError(c, err)
		return
	}
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			RespondWithError(c, errors.InvalidInput("body", "request body too large"))
			return
		}
		RespondWithError(c, errors.InvalidInput("body", err.Error()))
		return
	}

	p, err := h.session.Import(c.Request.Context(), filename, data, func() studio.Choice { return choice })
	if stderrors.Is(err, studio.ErrImportCancelled) {
		RespondWithError(c, errors.New(ErrCodeImportCancelled,
			"Import cancelled: the pipeline has unsaved changes.", http.StatusConflict))
		return
	}
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, p)
}

func parseChoice(s string) (studio.Choice, error) {
	switch s {
	case "discard":
		return studio.ChoiceDiscard, nil
	case "save":
		return studio.ChoiceSave, nil
	case "cancel":
		return studio.ChoiceCancel, nil
	}
	return studio.ChoiceCancel, errors.InvalidInput("on_dirty", "must be one of discard, save, cancel")
}

func (h *Handler) saveDraft(c *gin.Context) {
	id, err := h.session.SaveDraft(c.Request.Context())
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondCreated(c, gin.H{"id": id, "invalidName": h.session.InvalidName()})
}

func (h *Handler) openDraft(c *gin.Context) {
	if err := h.session.LoadDraft(c.Request.Context(), c.Param("id")); err != nil {
		RespondWithError(c, err)
		return
	}
	view, err := h.pipelineView()
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, view)
}

func (h *Handler) getPreview(c *gin.Context) {
	RespondOK(c, h.previewView())
}

func (h *Handler) startPreview(c *gin.Context) {
	if _, err := h.session.StartPreview(c.Request.Context()); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondAccepted(c, h.previewView())
}

func (h *Handler) stopPreview(c *gin.Context) {
	if err := h.session.StopPreview(c.Request.Context()); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondAccepted(c, h.previewView())
}

func (h *Handler) setRuntimeArgs(c *gin.Context) {
	var req runtimeArgsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, errors.InvalidInput("body", err.Error()))
		return
	}
	h.session.SetRuntimeArgs(req.Args)
	RespondOK(c, h.previewView())
}

func (h *Handler) toggleRuntimeArgs(c *gin.Context) {
	if _, err := h.session.ToggleRuntimeArguments(c.Request.Context()); err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, h.previewView())
}

func (h *Handler) togglePreviewMode(c *gin.Context) {
	h.session.TogglePreviewMode()
	RespondOK(c, h.previewView())
}

// listNotifications returns the entries after the since query parameter.
func (h *Handler) listNotifications(c *gin.Context) {
	var since uint64
	if raw := c.Query("since"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			RespondWithError(c, errors.InvalidInput("since", "must be a non-negative integer"))
			return
		}
		since = n
	}
	entries := []notify.Entry{}
	if h.feed != nil {
		entries = h.feed.Since(since)
	}
	RespondOK(c, entries)
}

func (h *Handler) listArtifacts(c *gin.Context) {
	list := []graph.Artifact{}
	if h.artifacts != nil {
		if known := h.artifacts.KnownArtifacts(c.Request.Context()); known != nil {
			list = known
		}
	}
	RespondOK(c, list)
}
