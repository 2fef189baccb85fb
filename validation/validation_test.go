package validation

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/kbukum/pipestudio/errors"
)

func TestValidatorRequired(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"present", "Sales ETL", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New().Required("name", tt.value)
			if v.HasErrors() != tt.wantErr {
				t.Errorf("HasErrors() = %v, want %v", v.HasErrors(), tt.wantErr)
			}
		})
	}
}

func TestValidatorOptionalUUID(t *testing.T) {
	if New().OptionalUUID("draft_id", "").HasErrors() {
		t.Error("expected no error for empty optional UUID")
	}
	if New().OptionalUUID("draft_id", uuid.New().String()).HasErrors() {
		t.Error("expected no error for valid optional UUID")
	}
	if !New().OptionalUUID("draft_id", "bad-uuid").HasErrors() {
		t.Error("expected error for invalid optional UUID")
	}
}

func TestValidatorPattern(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"sales_etl-2", false},
		{"", false},
		{"Sales ETL", true},
		{"bad/name", true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			v := New().Pattern("name", tt.value, PipelineNamePattern)
			if v.HasErrors() != tt.wantErr {
				t.Errorf("Pattern(%q) errors = %v, want %v", tt.value, v.HasErrors(), tt.wantErr)
			}
		})
	}
}

func TestValidatorOneOf(t *testing.T) {
	if New().OneOf("driver", "file", []string{"memory", "file"}).HasErrors() {
		t.Error("expected no error for allowed value")
	}
	if !New().OneOf("driver", "etcd", []string{"memory", "file"}).HasErrors() {
		t.Error("expected error for value outside the set")
	}
}

func TestValidatorValidate_CodeAndDetails(t *testing.T) {
	v := New().WithCode(errors.ErrCodeInvalidSchema)
	v.Required("name", "")
	v.Custom(false, "config.stages", "must not be empty")

	appErr := v.Validate()
	if appErr == nil {
		t.Fatal("expected error")
	}
	if appErr.Code != errors.ErrCodeInvalidSchema {
		t.Errorf("expected INVALID_SCHEMA, got %s", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "name: is required") || !strings.Contains(appErr.Message, "config.stages") {
		t.Errorf("unexpected message %q", appErr.Message)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Errorf("expected two field errors, got %v", appErr.Details["fields"])
	}
	if !v.HasErrorFor("name") || v.HasErrorFor("description") {
		t.Error("HasErrorFor mismatch")
	}
}

func TestValidatorValidate_NoErrors(t *testing.T) {
	if New().Required("name", "x").Validate() != nil {
		t.Error("expected nil for valid input")
	}
}

type testStage struct {
	Name string `json:"name" validate:"required"`
}

type testConfig struct {
	Stages []testStage `json:"stages" validate:"required,min=1,unique=Name,dive"`
}

type testDocument struct {
	Name   string     `json:"name" validate:"omitempty,pipelinename"`
	Config testConfig `json:"config" validate:"required"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		doc       testDocument
		wantField string
	}{
		{"valid", testDocument{Name: "p1", Config: testConfig{Stages: []testStage{{Name: "a"}, {Name: "b"}}}}, ""},
		{"missing stage name", testDocument{Config: testConfig{Stages: []testStage{{Name: "a"}, {}}}}, "config.stages[1].name"},
		{"duplicate stage names", testDocument{Config: testConfig{Stages: []testStage{{Name: "a"}, {Name: "a"}}}}, "config.stages"},
		{"no stages", testDocument{Config: testConfig{Stages: []testStage{}}}, "config.stages"},
		{"bad pipeline name", testDocument{Name: "a b", Config: testConfig{Stages: []testStage{{Name: "a"}}}}, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := ValidateStruct(tt.doc)
			if tt.wantField == "" {
				if appErr != nil {
					t.Fatalf("unexpected error: %v", appErr)
				}
				return
			}
			if appErr == nil {
				t.Fatal("expected validation error")
			}
			fields := appErr.Details["fields"].([]FieldError)
			found := false
			for _, f := range fields {
				if f.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %q, got %+v", tt.wantField, fields)
			}
		})
	}
}

func TestValidate_NilInterfaceOnSuccess(t *testing.T) {
	if err := Validate(testStage{Name: "x"}); err != nil {
		t.Errorf("expected untyped nil, got %v", err)
	}
}

func TestPipelineName(t *testing.T) {
	if !PipelineName("Sales_ETL-1") {
		t.Error("expected valid name")
	}
	if PipelineName("") || PipelineName("sales etl") {
		t.Error("expected invalid names to be rejected")
	}
}
