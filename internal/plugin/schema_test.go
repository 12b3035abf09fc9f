// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package plugin_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/forgekit/buildplugin/internal/plugin"
)

func TestValidateSchema_Valid(t *testing.T) {
	yaml := `
name: gen-protos
version: 1.0.0
tools-version: 2.0.0
sources:
  - main.go
requested-tools:
  - protoc
`
	if err := plugin.ValidateSchema([]byte(yaml)); err != nil {
		t.Errorf("ValidateSchema() error = %v, want nil", err)
	}
}

func TestValidateSchema_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing name", yaml: "version: 1.0.0\ntools-version: 2.0.0\nsources: [main.go]\n"},
		{name: "missing version", yaml: "name: test\ntools-version: 2.0.0\nsources: [main.go]\n"},
		{name: "missing tools-version", yaml: "name: test\nversion: 1.0.0\nsources: [main.go]\n"},
		{name: "missing sources", yaml: "name: test\nversion: 1.0.0\ntools-version: 2.0.0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := plugin.ValidateSchema([]byte(tt.yaml)); err == nil {
				t.Errorf("ValidateSchema() expected error for %s", tt.name)
			}
		})
	}
}

func TestValidateSchema_EmptyInput(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{name: "nil input", input: nil},
		{name: "empty slice", input: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := plugin.ValidateSchema(tt.input); err == nil {
				t.Error("ValidateSchema() expected error for empty input")
			}
		})
	}
}

func TestValidateSchema_InvalidYAML(t *testing.T) {
	yaml := `name: test
version: 1.0.0
sources: [invalid`
	if err := plugin.ValidateSchema([]byte(yaml)); err == nil {
		t.Error("ValidateSchema() expected error for invalid YAML")
	}
}

func TestGenerateSchema(t *testing.T) {
	schema, err := plugin.GenerateSchema()
	if err != nil {
		t.Fatalf("GenerateSchema() error = %v", err)
	}

	if len(schema) == 0 {
		t.Error("GenerateSchema() returned empty schema")
	}

	schemaStr := string(schema)
	expectedFields := []string{
		`"name"`,
		`"version"`,
		`"tools-version"`,
		`"sources"`,
		`"$schema"`,
	}
	for _, field := range expectedFields {
		if !strings.Contains(schemaStr, field) {
			t.Errorf("GenerateSchema() missing expected field %s", field)
		}
	}
}

func TestResetSchemaCache(t *testing.T) {
	yaml := "name: test\nversion: 1.0.0\ntools-version: 2.0.0\nsources: [main.go]\n"
	if err := plugin.ValidateSchema([]byte(yaml)); err != nil {
		t.Fatalf("ValidateSchema() error = %v", err)
	}

	plugin.ResetSchemaCache()

	if err := plugin.ValidateSchema([]byte(yaml)); err != nil {
		t.Errorf("ValidateSchema() after reset error = %v", err)
	}
}

func TestGetSchemaID(t *testing.T) {
	id := plugin.GetSchemaID()
	if id == "" {
		t.Error("GetSchemaID() returned empty string")
	}
	if !strings.Contains(id, "buildplugin") {
		t.Errorf("GetSchemaID() = %q, want to contain 'buildplugin'", id)
	}
}

func TestFormatSchemaError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil error", err: nil, want: ""},
		{name: "simple error", err: fmt.Errorf("test error"), want: "test error"},
		{
			name: "schema validation error",
			err:  fmt.Errorf("schema validation failed: missing required field"),
			want: "missing required field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := plugin.FormatSchemaError(tt.err); got != tt.want {
				t.Errorf("FormatSchemaError() = %q, want %q", got, tt.want)
			}
		})
	}
}
