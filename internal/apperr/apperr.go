// Package apperr defines the error kinds domain operations return and the
// HTTP status each kind maps to at the boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	Validation
	DuplicateIdentity
	InvalidCredentials
	Unauthorized
	TokenExpired
	TokenInvalid
	Forbidden
	NotFound
	InvalidTransition
	EmptyOrder
	ShopNotFound
	MultipleShopsUnsupported
	OutOfStock
	Conflict
)

var kindNames = map[Kind]string{
	Internal:                 "InternalFault",
	Validation:               "ValidationError",
	DuplicateIdentity:        "DuplicateIdentity",
	InvalidCredentials:       "InvalidCredentials",
	Unauthorized:             "Unauthorized",
	TokenExpired:             "TokenExpired",
	TokenInvalid:             "TokenInvalid",
	Forbidden:                "Forbidden",
	NotFound:                 "NotFound",
	InvalidTransition:        "InvalidTransition",
	EmptyOrder:               "EmptyOrder",
	ShopNotFound:             "ShopNotFound",
	MultipleShopsUnsupported: "MultipleShopsUnsupported",
	OutOfStock:               "OutOfStock",
	Conflict:                 "Conflict",
}

var statusByKind = map[Kind]int{
	Internal:                 http.StatusInternalServerError,
	Validation:               http.StatusBadRequest,
	DuplicateIdentity:        http.StatusBadRequest,
	InvalidCredentials:       http.StatusUnauthorized,
	Unauthorized:             http.StatusUnauthorized,
	TokenExpired:             http.StatusUnauthorized,
	TokenInvalid:             http.StatusUnauthorized,
	Forbidden:                http.StatusForbidden,
	NotFound:                 http.StatusNotFound,
	InvalidTransition:        http.StatusBadRequest,
	EmptyOrder:               http.StatusBadRequest,
	ShopNotFound:             http.StatusNotFound,
	MultipleShopsUnsupported: http.StatusConflict,
	OutOfStock:               http.StatusBadRequest,
	Conflict:                 http.StatusConflict,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Status is the HTTP status code for the kind. Unknown kinds are 500.
func (k Kind) Status() int {
	if status, ok := statusByKind[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type Error struct {
	Kind    Kind
	Message string
	// Details lists per-field problems for Validation errors.
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
