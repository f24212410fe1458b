package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLoad indicates a schema source could not be resolved or evaluated.
	ErrLoad = errors.New("crudsmith: schema load failed")

	// ErrIdentifier indicates a model does not flag exactly one identifier.
	ErrIdentifier = errors.New("crudsmith: invalid identifier")
)

// LoadError reports a schema source that could not be turned into models.
type LoadError struct {
	Source string
	Cause  error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("crudsmith: load schema")
	if e.Source != "" {
		b.WriteString(" from ")
		b.WriteString(e.Source)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

// NewLoadError wraps cause as a LoadError for source. It returns nil for a nil
// cause and passes an existing LoadError through untouched.
func NewLoadError(source string, cause error) error {
	if cause == nil {
		return nil
	}
	var le *LoadError
	if errors.As(cause, &le) {
		return cause
	}
	return &LoadError{Source: source, Cause: cause}
}

// IdentifierError reports a model that violates the strict identifier rule.
type IdentifierError struct {
	Model string
	Count int
}

func (e *IdentifierError) Error() string {
	if e.Count == 0 {
		return fmt.Sprintf("crudsmith: model %s declares no identifier field", e.Model)
	}
	return fmt.Sprintf("crudsmith: model %s declares %d identifier fields, want 1", e.Model, e.Count)
}

func (e *IdentifierError) Is(target error) bool {
	return target == ErrIdentifier
}
