package types

import "fmt"

// ErrorCode classifies a fault raised by one of the engine stages.
type ErrorCode string

// Pre-execution fault codes (parser and validator).
const (
	ErrSyntax             ErrorCode = "SYNTAX"
	ErrForbiddenModule    ErrorCode = "FORBIDDEN_MODULE"
	ErrForbiddenName      ErrorCode = "FORBIDDEN_NAME"
	ErrCallBudgetExceeded ErrorCode = "CALL_BUDGET_EXCEEDED"
)

// Transform-time fault codes.
const (
	ErrUnknownParameter  ErrorCode = "UNKNOWN_PARAMETER"
	ErrKeywordNotAllowed ErrorCode = "KEYWORD_NOT_ALLOWED"
)

// Execution fault codes.
const (
	ErrCompile ErrorCode = "COMPILE"
	ErrRuntime ErrorCode = "RUNTIME"
	ErrTimeout ErrorCode = "TIMEOUT"
)

// Error is a structured fault with code, message, and the source position
// the fault was attributed to. Line and Column are 1-based; zero means the
// fault has no meaningful position (e.g. a budget violation).
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Line    int       `json:"line,omitempty"`
	Column  int       `json:"column,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d, col %d)", e.Message, e.Line, e.Column)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates a new Error with a formatted message.
func NewErrorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithPos attaches a source position to the error.
func (e *Error) WithPos(line, column int) *Error {
	e.Line = line
	e.Column = column
	return e
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// GetErrorCode extracts the error code from an error. Returns the empty
// code for errors that did not originate in the engine.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// IsPolicyViolation reports whether the error is one of the validation
// faults detected before any execution occurs.
func IsPolicyViolation(err error) bool {
	switch GetErrorCode(err) {
	case ErrForbiddenModule, ErrForbiddenName, ErrCallBudgetExceeded:
		return true
	}
	return false
}
