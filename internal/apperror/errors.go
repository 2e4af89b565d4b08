package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindStorage
	KindUnavailable
)

// Sentinels for errors.Is. Both resolve to 404 for the caller.
var (
	ErrUnknownVariant = errors.New("unknown variant")
	ErrItemNotFound   = errors.New("item not found")
)

// Error carries an HTTP status with a caller-safe message. Reason is for logs only.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Reason  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Code: http.StatusBadRequest, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Code: http.StatusNotFound, Message: msg}
}

// UnknownVariant is returned when a variant tag is not registered.
func UnknownVariant(tag string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    http.StatusNotFound,
		Message: "Object not found",
		Reason:  fmt.Sprintf("unknown variant %q", tag),
		Err:     ErrUnknownVariant,
	}
}

// ItemNotFound is returned when the variant exists but the id does not.
func ItemNotFound(tag string, id uint) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    http.StatusNotFound,
		Message: "Object not found",
		Reason:  fmt.Sprintf("%s %d does not exist", tag, id),
		Err:     ErrItemNotFound,
	}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Code: http.StatusUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Code: http.StatusForbidden, Message: msg}
}

// Storage wraps a database failure. The message never leaks the driver error.
func Storage(op string, err error) *Error {
	return &Error{
		Kind:    KindStorage,
		Code:    http.StatusInternalServerError,
		Message: "Internal server error",
		Reason:  op,
		Err:     err,
	}
}

// Unavailable is returned when an optional backend is not configured.
func Unavailable(msg string) *Error {
	return &Error{Kind: KindUnavailable, Code: http.StatusServiceUnavailable, Message: msg}
}

// As extracts an *Error from err, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
