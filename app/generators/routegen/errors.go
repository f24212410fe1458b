package routegen

import (
	"errors"
	"strings"
)

// ErrInvalidModel indicates a model that cannot be turned into routes.
var ErrInvalidModel = errors.New("crudsmith: invalid model")

// EmitError reports why a model or one of its verbs could not be emitted.
type EmitError struct {
	Model   string
	Verb    Verb
	Field   string
	Message string
}

func (e *EmitError) Error() string {
	var b strings.Builder
	b.WriteString("crudsmith: emit")
	if e.Verb != "" {
		b.WriteString(" ")
		b.WriteString(string(e.Verb))
	}
	if e.Model != "" {
		b.WriteString(" for model ")
		b.WriteString(e.Model)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *EmitError) Is(target error) bool {
	return target == ErrInvalidModel
}
