package preview

import (
	"fmt"

	"github.com/kbukum/pipestudio/errors"
	"github.com/kbukum/pipestudio/graph"
)

// Artifact names that select a preview program.
const (
	ArtifactDataPipeline = "cdap-data-pipeline"
	ArtifactDataStreams  = "cdap-data-streams"
)

// DefaultStreamingTimeout is the run limit in minutes for streaming previews.
const DefaultStreamingTimeout = 15

// Config selects the part of the pipeline a preview executes.
type Config struct {
	StartStages []string          `json:"startStages"`
	EndStages   []string          `json:"endStages"`
	RuntimeArgs map[string]string `json:"runtimeArgs"`
}

// DeriveConfig classifies the stages of p: sources become start stages and
// sinks end stages, in declaration order. It fails with NO_SOURCE_OR_SINK if
// either list is empty.
func DeriveConfig(p graph.Pipeline, roles graph.RoleMap, runtimeArgs map[string]string) (Config, error) {
	if roles == nil {
		roles = graph.DefaultPluginRoles()
	}
	args := make(map[string]string, len(runtimeArgs))
	for k, v := range runtimeArgs {
		args[k] = v
	}
	cfg := Config{
		StartStages: roles.StagesWithRole(p.Config.Stages, graph.RoleSource),
		EndStages:   roles.StagesWithRole(p.Config.Stages, graph.RoleSink),
		RuntimeArgs: args,
	}
	if len(cfg.StartStages) == 0 || len(cfg.EndStages) == 0 {
		return Config{}, errors.NoSourceOrSink().WithDetails(map[string]any{
			"sources": len(cfg.StartStages),
			"sinks":   len(cfg.EndStages),
		})
	}
	return cfg, nil
}

// Program is the backend program a preview runs.
type Program struct {
	Name string
	Type string
}

// ProgramFor returns the preview program of an artifact. Unknown artifacts
// have none.
func ProgramFor(artifactName string) (Program, bool) {
	switch artifactName {
	case ArtifactDataPipeline:
		return Program{Name: "DataPipelineWorkflow", Type: "Workflow"}, true
	case ArtifactDataStreams:
		return Program{Name: "DataStreamsSparkStreaming", Type: "Spark"}, true
	default:
		return Program{}, false
	}
}

// section is the config.preview member of a submitted pipeline.
type section struct {
	Config
	RealDatasets []string `json:"realDatasets"`
	ProgramName  string   `json:"programName,omitempty"`
	ProgramType  string   `json:"programType,omitempty"`
	Timeout      *int     `json:"timeout,omitempty"`
}

// BuildPayload returns the export form of p with cfg merged in as
// config.preview. streamingTimeout is used only for the streaming artifact;
// zero or less means DefaultStreamingTimeout.
func BuildPayload(p graph.Pipeline, cfg Config, streamingTimeout int) (graph.Pipeline, error) {
	out, err := p.ForExport()
	if err != nil {
		return graph.Pipeline{}, fmt.Errorf("preview: copy pipeline: %w", err)
	}

	sec := section{Config: cfg, RealDatasets: []string{}}
	if sec.RuntimeArgs == nil {
		sec.RuntimeArgs = map[string]string{}
	}
	if prog, ok := ProgramFor(p.Artifact.Name); ok {
		sec.ProgramName = prog.Name
		sec.ProgramType = prog.Type
	}
	if p.Artifact.Name == ArtifactDataStreams {
		if streamingTimeout <= 0 {
			streamingTimeout = DefaultStreamingTimeout
		}
		sec.Timeout = &streamingTimeout
	}

	if err := out.Config.Set("preview", sec); err != nil {
		return graph.Pipeline{}, fmt.Errorf("preview: set preview section: %w", err)
	}
	return out, nil
}
