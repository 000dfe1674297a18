// internal/api/schemas.go
package api

import (
	"art-of-prompting/internal/common/validation"
)

const maxFieldLength = 20000

func promptField() map[string]interface{} {
	return map[string]interface{}{"type": "string", "maxLength": maxFieldLength}
}

// promptRequestSchema type-checks the eight prompt fields. Presence of role
// and task is enforced by the composer so blank values get the same error.
var promptRequestSchema = validation.MustCompile("prompt-request", map[string]interface{}{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type":    "object",
	"properties": map[string]interface{}{
		"role":        promptField(),
		"context":     promptField(),
		"example":     promptField(),
		"audience":    promptField(),
		"format":      promptField(),
		"style":       promptField(),
		"constraints": promptField(),
		"task":        promptField(),
	},
})

var reportRequestSchema = validation.MustCompile("report-request", map[string]interface{}{
	"$schema":  "http://json-schema.org/draft-07/schema#",
	"type":     "object",
	"required": []interface{}{"format", "results"},
	"properties": map[string]interface{}{
		"format": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"prompt": map[string]interface{}{"type": "string"},
		"generatedAt": map[string]interface{}{
			"type":   "string",
			"format": "date-time",
		},
		"results": map[string]interface{}{
			"type":     "array",
			"minItems": 1,
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"model"},
				"properties": map[string]interface{}{
					"model":      map[string]interface{}{"type": "string", "minLength": 1},
					"label":      map[string]interface{}{"type": "string"},
					"text":       map[string]interface{}{"type": "string"},
					"durationMs": map[string]interface{}{"type": "integer"},
					"error": map[string]interface{}{
						"type": []interface{}{"object", "null"},
						"properties": map[string]interface{}{
							"code":    map[string]interface{}{"type": "string"},
							"message": map[string]interface{}{"type": "string"},
						},
					},
				},
			},
		},
	},
})
