package graph

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Artifact identifies the application template a pipeline runs on.
type Artifact struct {
	Name    string `json:"name" validate:"required"`
	Version string `json:"version" validate:"required"`
	Scope   string `json:"scope" validate:"required"`
}

// String formats the artifact as name:version (scope).
func (a Artifact) String() string {
	return fmt.Sprintf("%s:%s (%s)", a.Name, a.Version, a.Scope)
}

// Plugin is the implementation behind a stage.
type Plugin struct {
	Name       string                     `json:"name" validate:"required"`
	Type       string                     `json:"type" validate:"required"`
	Label      string                     `json:"label,omitempty"`
	Artifact   *Artifact                  `json:"artifact,omitempty"`
	Properties map[string]any             `json:"properties,omitempty"`
	Extra      map[string]json.RawMessage `json:"-"`
}

var pluginKeys = []string{"name", "type", "label", "artifact", "properties"}

func (p *Plugin) UnmarshalJSON(data []byte) error {
	type alias Plugin
	extra, err := unmarshalExtra(data, (*alias)(p), pluginKeys...)
	p.Extra = extra
	return err
}

func (p Plugin) MarshalJSON() ([]byte, error) {
	type alias Plugin
	return marshalExtra(alias(p), p.Extra)
}

// Stage is a named node of the pipeline.
type Stage struct {
	Name   string                     `json:"name" validate:"required"`
	Plugin Plugin                     `json:"plugin"`
	Extra  map[string]json.RawMessage `json:"-"`
}

var stageKeys = []string{"name", "plugin"}

func (s *Stage) UnmarshalJSON(data []byte) error {
	type alias Stage
	extra, err := unmarshalExtra(data, (*alias)(s), stageKeys...)
	s.Extra = extra
	return err
}

func (s Stage) MarshalJSON() ([]byte, error) {
	type alias Stage
	return marshalExtra(alias(s), s.Extra)
}

// Connection is a directed edge between two stages.
type Connection struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// Config is the executable part of a pipeline document.
type Config struct {
	Stages      []Stage                    `json:"stages"`
	Connections []Connection               `json:"connections"`
	Extra       map[string]json.RawMessage `json:"-"`
}

var configKeys = []string{"stages", "connections"}

func (c *Config) UnmarshalJSON(data []byte) error {
	type alias Config
	extra, err := unmarshalExtra(data, (*alias)(c), configKeys...)
	c.Extra = extra
	return err
}

func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	if c.Stages == nil {
		c.Stages = []Stage{}
	}
	if c.Connections == nil {
		c.Connections = []Connection{}
	}
	return marshalExtra(alias(c), c.Extra)
}

// Set stores an arbitrary member of the config, such as the preview section.
func (c *Config) Set(key string, v any) error {
	if slices.Contains(configKeys, key) {
		return fmt.Errorf("graph: %q is a modeled config field", key)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if c.Extra == nil {
		c.Extra = make(map[string]json.RawMessage)
	}
	c.Extra[key] = data
	return nil
}

// Get decodes an extra member into v. It reports false when the key is absent.
func (c *Config) Get(key string, v any) (bool, error) {
	raw, ok := c.Extra[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

// Stage returns the stage with the given name.
func (c *Config) Stage(name string) (Stage, bool) {
	for _, s := range c.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return Stage{}, false
}

// StageNames returns stage names in declaration order.
func (c *Config) StageNames() []string {
	names := make([]string, len(c.Stages))
	for i, s := range c.Stages {
		names[i] = s.Name
	}
	return names
}

// Pipeline is a full pipeline document.
type Pipeline struct {
	Name        string                     `json:"name"`
	Description string                     `json:"description,omitempty"`
	Artifact    Artifact                   `json:"artifact"`
	Config      Config                     `json:"config"`
	UI          json.RawMessage            `json:"__ui__,omitempty"`
	Extra       map[string]json.RawMessage `json:"-"`
}

var pipelineKeys = []string{"name", "description", "artifact", "config", "__ui__"}

func (p *Pipeline) UnmarshalJSON(data []byte) error {
	type alias Pipeline
	extra, err := unmarshalExtra(data, (*alias)(p), pipelineKeys...)
	p.Extra = extra
	return err
}

func (p Pipeline) MarshalJSON() ([]byte, error) {
	type alias Pipeline
	return marshalExtra(alias(p), p.Extra)
}

// Clone returns a deep copy.
func (p Pipeline) Clone() (Pipeline, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return Pipeline{}, err
	}
	var out Pipeline
	if err := json.Unmarshal(data, &out); err != nil {
		return Pipeline{}, err
	}
	return out, nil
}

// ForExport returns a deep copy without editor-only state.
func (p Pipeline) ForExport() (Pipeline, error) {
	out, err := p.Clone()
	if err != nil {
		return Pipeline{}, err
	}
	out.UI = nil
	return out, nil
}

// Parse decodes a pipeline document.
func Parse(data []byte) (Pipeline, error) {
	var p Pipeline
	err := json.Unmarshal(data, &p)
	return p, err
}
