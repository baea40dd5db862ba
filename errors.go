package stepdoc

import (
	"errors"
	"fmt"
)

// ValidationError reports invalid input to a create or update command.
type ValidationError struct {
	Field  string
	Reason string
	Hint   string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// WithHint adds a helpful hint to the error.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

// NotFoundError reports a command that referenced a missing step, group,
// container or index.
type NotFoundError struct {
	Kind string // "step", "group", "index", "document"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// SerializationError reports an import that does not match the wire schema.
type SerializationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *SerializationError) Error() string {
	var msg string
	if e.Field != "" {
		msg = fmt.Sprintf("import rejected: %s: %s", e.Field, e.Reason)
	} else {
		msg = "import rejected: " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// IOError wraps a failure of an external collaborator such as a storage adapter.
type IOError struct {
	Op  string // "save", "load", "list", "delete", "read", ...
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsSerialization reports whether err is or wraps a SerializationError.
func IsSerialization(err error) bool {
	var se *SerializationError
	return errors.As(err, &se)
}

// UserMessage returns a message suitable for showing in a UI.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return fmt.Sprintf("Please check the %s: %s.", ve.Field, ve.Reason)
	}

	var nf *NotFoundError
	if errors.As(err, &nf) {
		return fmt.Sprintf("The %s no longer exists.", nf.Kind)
	}

	var se *SerializationError
	if errors.As(err, &se) {
		return "This file is not a valid step document export."
	}

	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return fmt.Sprintf("Could not %s the document. Please try again.", ioErr.Op)
	}

	return "Something went wrong."
}
