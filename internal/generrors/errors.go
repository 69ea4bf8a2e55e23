// Package generrors holds the error taxonomy shared by the generation pipeline.
//
// Callers distinguish categories with errors.Is against the sentinels, or pull
// the structured detail out with errors.As:
//
//	var mde *generrors.MalformedDocumentError
//	if errors.As(err, &mde) {
//	    fmt.Println(mde.Method, mde.Path)
//	}
package generrors

import (
	"errors"
	"strings"
)

var (
	// ErrConfiguration indicates the run could not start because of missing
	// or invalid configuration.
	ErrConfiguration = errors.New("configuration error")

	// ErrMalformedDocument indicates the schema document has a shape the
	// generator cannot turn into routes.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrCollaborator indicates rendering or writing output failed.
	ErrCollaborator = errors.New("collaborator error")
)

// ConfigurationError reports a missing or invalid configuration value.
type ConfigurationError struct {
	// Field is the configuration key at fault (e.g. "input").
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Field != "" {
		msg += " for " + e.Field
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// MalformedDocumentError identifies the path+method entry of the document
// that could not be interpreted.
type MalformedDocumentError struct {
	Path   string
	Method string
	// Field names the offending part of the operation, such as "operationId"
	// or "parameters[1]".
	Field   string
	Message string
}

func (e *MalformedDocumentError) Error() string {
	var b strings.Builder
	b.WriteString("malformed document")
	if e.Method != "" || e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(strings.ToUpper(e.Method))
		if e.Method != "" && e.Path != "" {
			b.WriteString(" ")
		}
		b.WriteString(e.Path)
	}
	if e.Field != "" {
		b.WriteString(" (")
		b.WriteString(e.Field)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *MalformedDocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}

// CollaboratorError wraps a failure from the template engine or the file
// writer. Unit is the output unit (controller name) being produced.
type CollaboratorError struct {
	// Stage is "render" or "write".
	Stage string
	Unit  string
	Cause error
}

func (e *CollaboratorError) Error() string {
	msg := e.Stage + " failed"
	if e.Stage == "" {
		msg = "collaborator failed"
	}
	if e.Unit != "" {
		msg += " for " + e.Unit
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *CollaboratorError) Unwrap() error {
	return e.Cause
}

func (e *CollaboratorError) Is(target error) bool {
	return target == ErrCollaborator
}
