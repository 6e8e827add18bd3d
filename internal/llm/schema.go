package llm

import (
	"github.com/joseph-ayodele/immigration-docs/internal/entity"
)

// BuildVisionJSONSchema returns a JSON-Schema (draft 2020-12 subset) for the
// sanitized vision answer. Dates stay strings here; they are parsed when the
// answer is mapped so a bad date becomes a warning rather than a rejection.
func BuildVisionJSONSchema() map[string]any {
	props := map[string]any{
		"document_type": map[string]any{"type": "string"},
		"confidence_scores": map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
	}
	for _, f := range entity.ExtractedFields() {
		props[f.Name] = map[string]any{"type": "string", "minLength": 1}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}
