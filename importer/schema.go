package importer

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/kbukum/pipestudio/errors"
	"github.com/kbukum/pipestudio/graph"
	"github.com/kbukum/pipestudio/validation"
)

// schema is the minimal shape of an importable document. A stage needs only
// a name; a missing artifact is left to the artifact check.
type schema struct {
	Name     string          `json:"name"`
	Artifact *schemaArtifact `json:"artifact" validate:"omitempty"`
	Config   *schemaConfig   `json:"config" validate:"required"`
}

type schemaArtifact struct {
	Name    string `json:"name" validate:"required"`
	Version string `json:"version" validate:"required"`
	Scope   string `json:"scope" validate:"required"`
}

type schemaConfig struct {
	Stages      []schemaStage      `json:"stages" validate:"required,min=1,unique=Name,dive"`
	Connections []schemaConnection `json:"connections" validate:"omitempty,dive"`
}

type schemaStage struct {
	Name   string        `json:"name" validate:"required"`
	Plugin *schemaPlugin `json:"plugin" validate:"omitempty"`
}

type schemaPlugin struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required"`
}

type schemaConnection struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// Parse decodes and shape-checks a pipeline document. Connections are
// synthesized as a linear chain when the document has none; an explicit
// empty list is kept.
func Parse(data []byte) (graph.Pipeline, error) {
	if !json.Valid(data) {
		return graph.Pipeline{}, errors.MalformedInput(nil)
	}

	var doc schema
	if err := json.Unmarshal(data, &doc); err != nil {
		return graph.Pipeline{}, shapeError(err)
	}
	if appErr := validation.ValidateStruct(doc); appErr != nil {
		return graph.Pipeline{}, errors.InvalidSchema(appErr.Message).WithDetails(appErr.Details)
	}

	p, err := graph.Parse(data)
	if err != nil {
		return graph.Pipeline{}, shapeError(err)
	}
	if p.Config.Connections == nil {
		p.Config.Connections = graph.LinearConnections(p.Config.Stages)
	}
	if err := graph.CheckConnections(&p.Config); err != nil {
		return graph.Pipeline{}, errors.InvalidSchema(err.Error())
	}
	return p, nil
}

func shapeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "document"
		}
		return errors.InvalidSchema(fmt.Sprintf("%s: must be %s", field, jsonKind(typeErr.Type.Kind().String())))
	}
	return errors.InvalidSchema(err.Error())
}

func jsonKind(goKind string) string {
	switch goKind {
	case "struct", "map", "ptr":
		return "an object"
	case "slice", "array":
		return "an array"
	case "string":
		return "a string"
	default:
		return "a " + goKind
	}
}
