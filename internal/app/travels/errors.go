package travels

import (
	"errors"
	"fmt"
)

// Kind classifies an application error so adapters can map it without
// inspecting message text.
type Kind int

const (
	// KindValidation means one or more input fields were missing or malformed.
	KindValidation Kind = iota + 1
	// KindNotFoundOrUnauthorized is the fused existence/ownership miss. It does not
	// say whether the id exists under another subject.
	KindNotFoundOrUnauthorized
	// KindStorage is an unexpected backend failure.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFoundOrUnauthorized:
		return "not_found_or_unauthorized"
	case KindStorage:
		return "storage"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const (
	CodeValidation             = "VALIDATION_ERROR"
	CodeNotFoundOrUnauthorized = "NOT_FOUND_OR_UNAUTHORIZED"
	CodeInternal               = "INTERNAL"
)

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// Details maps each offending field to a reason (validation errors only).
	Details map[string]any
	// Err is the underlying cause for storage errors. It is for server-side logs only.
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}

func validationError(details map[string]any) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: "invalid travel fields", Details: details}
}

func notFoundOrUnauthorized() *Error {
	return &Error{Kind: KindNotFoundOrUnauthorized, Code: CodeNotFoundOrUnauthorized, Message: "travel not found or unauthorized"}
}

func storageError(op string, err error) *Error {
	return &Error{Kind: KindStorage, Code: CodeInternal, Message: op + " failed", Err: err}
}
