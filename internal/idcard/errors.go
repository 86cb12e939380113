package idcard

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes failures raised while parsing an ID card document.
type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindDocumentOpen
	ErrorKindImageDecode
	ErrorKindBackgroundRemoval
	ErrorKindLayoutMismatch
	ErrorKindGrammarMismatch
)

// String returns a string representation of the ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindDocumentOpen:
		return "DOCUMENT_OPEN"
	case ErrorKindImageDecode:
		return "IMAGE_DECODE"
	case ErrorKindBackgroundRemoval:
		return "BACKGROUND_REMOVAL"
	case ErrorKindLayoutMismatch:
		return "LAYOUT_MISMATCH"
	case ErrorKindGrammarMismatch:
		return "GRAMMAR_MISMATCH"
	default:
		return "UNKNOWN"
	}
}

// Recoverable reports whether a failure of this kind degrades a single field
// instead of failing the whole request.
func (k ErrorKind) Recoverable() bool {
	switch k {
	case ErrorKindImageDecode, ErrorKindBackgroundRemoval,
		ErrorKindLayoutMismatch, ErrorKindGrammarMismatch:
		return true
	default:
		return false
	}
}

// Error is a categorized parsing failure
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Recoverable reports whether the failure only affects part of the record.
func (e *Error) Recoverable() bool {
	return e.Kind.Recoverable()
}

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Common layout and grammar errors
var (
	ErrAnchorNotFound  = errors.New("anchor line not found")
	ErrTooFewLines     = errors.New("not enough lines after anchor")
	ErrMarkerNotFound  = errors.New("QR payload has no DLT: marker")
	ErrTooFewSegments  = errors.New("QR structured part has too few segments")
	ErrNilCollaborator = errors.New("collaborator cannot be nil")
)

// IsDocumentOpen reports whether err (or anything it wraps) is a fatal
// document-open failure.
func IsDocumentOpen(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == ErrorKindDocumentOpen
}
