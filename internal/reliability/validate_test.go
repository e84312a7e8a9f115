package reliability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateInput(t *testing.T) {
	todoSchema := Schema{
		Type: "object",
		Properties: map[string]Schema{
			"title":     {Type: "string", Required: true},
			"completed": {Type: "boolean"},
			"priority":  {Type: "number"},
			"tags":      {Type: "array"},
			"meta": {
				Type: "object",
				Properties: map[string]Schema{
					"createdBy": {Type: "string", Required: true},
				},
			},
		},
	}

	tests := []struct {
		name    string
		input   any
		schema  Schema
		valid   bool
		errPart string
	}{
		{
			name:   "empty schema accepts anything",
			input:  42,
			schema: Schema{},
			valid:  true,
		},
		{
			name:   "valid object",
			input:  map[string]any{"title": "buy milk", "completed": false, "priority": 2.0},
			schema: todoSchema,
			valid:  true,
		},
		{
			name:    "nil value with required schema",
			input:   nil,
			schema:  Schema{Required: true, Type: "object"},
			valid:   false,
			errPart: "required",
		},
		{
			name:    "missing required field",
			input:   map[string]any{"completed": true},
			schema:  todoSchema,
			valid:   false,
			errPart: "title",
		},
		{
			name:    "wrong type",
			input:   map[string]any{"title": 7},
			schema:  todoSchema,
			valid:   false,
			errPart: "title",
		},
		{
			name:    "not an object",
			input:   "just a string",
			schema:  todoSchema,
			valid:   false,
			errPart: "object",
		},
		{
			name:   "nested object valid",
			input:  map[string]any{"title": "x", "meta": map[string]any{"createdBy": "cli"}},
			schema: todoSchema,
			valid:  true,
		},
		{
			name:    "nested missing required uses dotted path",
			input:   map[string]any{"title": "x", "meta": map[string]any{}},
			schema:  todoSchema,
			valid:   false,
			errPart: "meta.createdBy",
		},
		{
			name:   "optional nested object may be absent",
			input:  map[string]any{"title": "x"},
			schema: todoSchema,
			valid:  true,
		},
		{
			name:   "array accepts slices",
			input:  map[string]any{"title": "x", "tags": []any{"home", "urgent"}},
			schema: todoSchema,
			valid:  true,
		},
		{
			name:   "unknown type tag is not enforced",
			input:  map[string]any{"title": "x"},
			schema: Schema{Type: "object", Properties: map[string]Schema{"title": {Type: "uuid"}}},
			valid:  true,
		},
		{
			name:   "extra fields are allowed",
			input:  map[string]any{"title": "x", "unexpected": true},
			schema: todoSchema,
			valid:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateInput(tt.input, tt.schema)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.errPart != "" {
				assert.Contains(t, res.Error, tt.errPart)
			}
		})
	}
}
