// Package prompt assembles the structured prompt sent to every model.
package prompt

import (
	"strings"

	apperrors "art-of-prompting/internal/common/errors"
	"art-of-prompting/internal/models"
)

// Section labels in the order they appear in a composed prompt.
const (
	LabelRole        = "Role"
	LabelContext     = "Context"
	LabelExample     = "Example"
	LabelAudience    = "Audience"
	LabelFormat      = "Format"
	LabelStyle       = "Style"
	LabelConstraints = "Constraints"
	LabelTask        = "Task"
)

// Composer is a pure function of its configuration and the request fields.
type Composer struct {
	closing string
}

// NewComposer returns a Composer that appends closingInstruction, if non-empty, after the Task section.
func NewComposer(closingInstruction string) *Composer {
	return &Composer{closing: strings.TrimSpace(closingInstruction)}
}

type section struct {
	label string
	value string
}

// Compose builds the prompt. Role and Task are required; empty optional
// fields are left out entirely.
func (c *Composer) Compose(req models.PromptRequest) (string, error) {
	if err := Validate(req); err != nil {
		return "", err
	}

	sections := []section{
		{LabelRole, req.Role},
		{LabelContext, req.Context},
		{LabelExample, req.Example},
		{LabelAudience, req.Audience},
		{LabelFormat, req.Format},
		{LabelStyle, req.Style},
		{LabelConstraints, req.Constraints},
		{LabelTask, req.Task},
	}

	var parts []string
	for _, s := range sections {
		value := normalize(s.value)
		if value == "" {
			continue
		}
		parts = append(parts, s.label+": "+value)
	}

	if c.closing != "" {
		parts = append(parts, c.closing)
	}

	return strings.Join(parts, "\n\n"), nil
}

// Validate checks the two mandatory fields.
func Validate(req models.PromptRequest) error {
	var missing []string
	if strings.TrimSpace(req.Role) == "" {
		missing = append(missing, "role")
	}
	if strings.TrimSpace(req.Task) == "" {
		missing = append(missing, "task")
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError(strings.Join(missing, " and ") + " required")
	}
	return nil
}

// normalize trims the value and unifies line endings so multi-line fields keep their shape.
func normalize(value string) string {
	value = strings.ReplaceAll(value, "\r\n", "\n")
	return strings.TrimSpace(value)
}
