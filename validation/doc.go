// Package validation provides input validation for pipeline documents and
// control API requests.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection.
//
// # Struct Tag Validation
//
//	type Stage struct {
//	    Name string `json:"name" validate:"required"`
//	}
//	err := validation.Validate(stage)
//
// Field paths in errors use json names, e.g. "config.stages[1].name".
// The custom tag "pipelinename" accepts letters, digits, underscores and
// hyphens.
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("name", name).Pattern("name", name, validation.PipelineNamePattern)
//	err := v.Validate()
package validation
