package serializer

import (
	"errors"
	"fmt"
)

// Errors returned by serializer operations.
var (
	// ErrMalformedLine indicates a line that is neither an entry, a header,
	// nor a sequence element.
	ErrMalformedLine = errors.New("malformed line")

	// ErrIndentation indicates indentation that is not a multiple of the
	// indentation unit, contains tabs, or skips a level.
	ErrIndentation = errors.New("invalid indentation")

	// ErrStructuralMismatch indicates the stored shape does not match the
	// shape requested by the caller, e.g. a record list whose elements are
	// not records.
	ErrStructuralMismatch = errors.New("structural mismatch")

	// ErrUnsupportedType indicates a value type the scalar codec cannot handle.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrInvalidTarget indicates a load target that is not a settable pointer.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrInvalidKey indicates a key that cannot be written without breaking
	// the line format.
	ErrInvalidKey = errors.New("invalid key")

	// ErrClosed indicates an operation on a closed document.
	ErrClosed = errors.New("document closed")
)

// ParseError describes a problem found while reading a state file.
type ParseError struct {
	// Path is the file that failed to parse.
	Path string
	// Line is the 1-based line number, 0 when unknown.
	Line int
	// Message describes the problem.
	Message string
	// Err is the sentinel classifying the problem.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	path := e.Path
	if path == "" {
		path = "<input>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValueError is returned when a stored value cannot be converted to the
// requested type, or a value cannot be written.
type ValueError struct {
	// Key is the dotted path of the entry inside the section.
	Key string
	// Line is the 1-based source line for load errors.
	Line int
	// Type is the Go type involved.
	Type string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ValueError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("value error for %s (%s) at line %d: %v", e.Key, e.Type, e.Line, e.Err)
	}
	return fmt.Sprintf("value error for %s (%s): %v", e.Key, e.Type, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValueError) Unwrap() error {
	return e.Err
}

// structureError builds the error reported when a stored block does not have
// the shape a protocol call expects.
func structureError(file, key string, line int, msg string) error {
	return &ParseError{
		Path:    file,
		Line:    line,
		Message: fmt.Sprintf("%s: %s", key, msg),
		Err:     ErrStructuralMismatch,
	}
}
