package archive

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError aggregates every field-level problem found while
// validating a model, so a failed import names all invalid fields at
// once instead of one per attempt.
type ValidationError struct {
	Model  string
	Fields map[string]string
}

func NewValidationError(model string) *ValidationError {
	return &ValidationError{
		Model:  model,
		Fields: make(map[string]string),
	}
}

func (e *ValidationError) Add(field, reason string) {
	e.Fields[field] = reason
}

func (e *ValidationError) IsEmpty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	message := fmt.Sprintf("A %s could not be created:", e.Model)
	for _, name := range names {
		message += fmt.Sprintf("\n- %s: %s", name, e.Fields[name])
	}
	return message
}

// checkRequired and checkMaxLength add errors to err for fields that
// fail the constraint. Field lengths mirror the relational schema.
func checkRequired(err *ValidationError, field, value string) {
	if strings.TrimSpace(value) == "" {
		err.Add(field, "This field cannot be blank.")
	}
}

func checkMaxLength(err *ValidationError, field, value string, max int) {
	if len(value) > max {
		err.Add(field, fmt.Sprintf(
			"Ensure this value has at most %d characters (it has %d).",
			max, len(value)))
	}
}
