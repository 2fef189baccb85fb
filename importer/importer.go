package importer

import (
	"context"
	"strings"

	"github.com/kbukum/pipestudio/errors"
	"github.com/kbukum/pipestudio/graph"
	"github.com/kbukum/pipestudio/logger"
	"github.com/kbukum/pipestudio/observability"
)

// ArtifactSource lists the artifacts an imported pipeline may use.
type ArtifactSource interface {
	KnownArtifacts(ctx context.Context) []graph.Artifact
}

// ArtifactFunc adapts a function to ArtifactSource.
type ArtifactFunc func(ctx context.Context) []graph.Artifact

// KnownArtifacts implements ArtifactSource.
func (f ArtifactFunc) KnownArtifacts(ctx context.Context) []graph.Artifact { return f(ctx) }

// Static serves a fixed artifact list.
func Static(list ...graph.Artifact) ArtifactSource {
	return ArtifactFunc(func(context.Context) []graph.Artifact { return list })
}

// Importer validates pipeline documents against the known artifacts.
type Importer struct {
	artifacts ArtifactSource
	log       *logger.Logger
}

// New creates an Importer.
func New(artifacts ArtifactSource) *Importer {
	return &Importer{artifacts: artifacts, log: logger.Get("importer")}
}

// Import parses data and checks its artifact.
func (i *Importer) Import(ctx context.Context, data []byte) (graph.Pipeline, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanImport)
	p, err := i.importDoc(ctx, data)
	observability.EndSpan(span, err)
	if err != nil {
		i.log.Info("Pipeline import rejected", logger.ErrorFields("import", err))
		return graph.Pipeline{}, err
	}
	i.log.Info("Pipeline imported", logger.Fields(
		logger.FieldPipeline, p.Name,
		logger.FieldArtifact, p.Artifact.String(),
	))
	return p, nil
}

func (i *Importer) importDoc(ctx context.Context, data []byte) (graph.Pipeline, error) {
	p, err := Parse(data)
	if err != nil {
		return graph.Pipeline{}, err
	}
	observability.SetSpanAttribute(ctx, observability.AttrArtifact, p.Artifact.String())
	var known []graph.Artifact
	if i.artifacts != nil {
		known = i.artifacts.KnownArtifacts(ctx)
	}
	if err := CheckArtifact(p.Artifact, known); err != nil {
		return graph.Pipeline{}, err
	}
	return p, nil
}

// ImportFile is Import for an uploaded file. The file name must mention
// ".json".
func (i *Importer) ImportFile(ctx context.Context, filename string, data []byte) (graph.Pipeline, error) {
	if !strings.Contains(filename, ".json") {
		return graph.Pipeline{}, errors.NotJSON(filename)
	}
	return i.Import(ctx, data)
}
