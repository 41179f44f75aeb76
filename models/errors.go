package models

import (
	"fmt"
	"strings"
)

// ErrorValidation is returned when a required field is missing or an enum value is not recognised.
type ErrorValidation struct {
	Message string
	Fields  []string
	// Details holds human readable messages keyed by field, when known.
	Details map[string][]string
}

func (e ErrorValidation) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

// ErrorNotFound ...
type ErrorNotFound struct {
	Resource string
}

func (e ErrorNotFound) Error() string {
	return e.Resource + " not found"
}

// ErrorUnauthorized ...
type ErrorUnauthorized struct {
	Message string
}

func (e ErrorUnauthorized) Error() string {
	return e.Message
}

// ErrorForbidden ...
type ErrorForbidden struct {
	Message string
}

func (e ErrorForbidden) Error() string {
	return e.Message
}

// ErrorConflict ...
type ErrorConflict struct {
	Message string
}

func (e ErrorConflict) Error() string {
	return e.Message
}

// ErrorInternalServer wraps storage failures. Err is kept for logging and never shown to callers.
type ErrorInternalServer struct {
	Message string
	Err     error
}

func (e ErrorInternalServer) Error() string {
	return e.Message
}

func (e ErrorInternalServer) Unwrap() error {
	return e.Err
}

func NewValidationError(message string, fields ...string) error {
	return ErrorValidation{Message: message, Fields: fields}
}

func NewStorageError(err error) error {
	return ErrorInternalServer{Message: "storage failure", Err: err}
}
