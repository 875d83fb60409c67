package domain

import (
	"errors"
	"fmt"
)

// ErrValueNotFound is returned by repositories when no row exists for a (code, scope) pair.
var ErrValueNotFound = errors.New("stored value not found")

// ErrorKind classifies configuration failures so callers can react without matching messages.
type ErrorKind string

const (
	KindUnknownKey           ErrorKind = "unknown_key"
	KindMissingRequiredValue ErrorKind = "missing_required_value"
	KindInvalidValue         ErrorKind = "invalid_value"
	KindNotScoped            ErrorKind = "not_scoped"
	KindUnknownScope         ErrorKind = "unknown_scope"
	KindNoValueAtScope       ErrorKind = "no_value_at_scope"
	KindFileNotAllowed       ErrorKind = "file_not_allowed"
	KindFileTypeNotAllowed   ErrorKind = "file_type_not_allowed"
	KindStorageUnwritable    ErrorKind = "storage_unwritable"
)

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrUnknownKey           = &Error{Kind: KindUnknownKey, Message: "unknown configuration key"}
	ErrMissingRequiredValue = &Error{Kind: KindMissingRequiredValue, Message: "value is required"}
	ErrInvalidValue         = &Error{Kind: KindInvalidValue, Message: "invalid value"}
	ErrNotScoped            = &Error{Kind: KindNotScoped, Message: "This configuration key is not scoped"}
	ErrUnknownScope         = &Error{Kind: KindUnknownScope, Message: "unknown scope"}
	ErrNoValueAtScope       = &Error{Kind: KindNoValueAtScope, Message: "no value at this scope"}
	ErrFileNotAllowed       = &Error{Kind: KindFileNotAllowed, Message: "file uploads are not allowed"}
	ErrFileTypeNotAllowed   = &Error{Kind: KindFileTypeNotAllowed, Message: "file type is not allowed"}
	ErrStorageUnwritable    = &Error{Kind: KindStorageUnwritable, Message: "file storage is not writable"}
)

// Error is a configuration failure with its kind and the key/scope it concerns.
type Error struct {
	Kind    ErrorKind
	Code    string
	Scope   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Code)
	}
	if e.Scope != "" {
		msg = fmt.Sprintf("%s (scope %s)", msg, e.Scope)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func UnknownKey(code string) *Error {
	return newError(KindUnknownKey, code, "unknown configuration key")
}

func MissingRequiredValue(code string) *Error {
	return newError(KindMissingRequiredValue, code, "value is required")
}

func InvalidValue(code, message string) *Error {
	return newError(KindInvalidValue, code, message)
}

func NotScoped(code, scope string) *Error {
	e := newError(KindNotScoped, code, "This configuration key is not scoped")
	e.Scope = scope
	return e
}

func UnknownScope(scope string) *Error {
	e := newError(KindUnknownScope, "", "unknown scope")
	e.Scope = scope
	return e
}

func NoValueAtScope(code, scope string) *Error {
	e := newError(KindNoValueAtScope, code, "no value at this scope")
	e.Scope = scope
	return e
}

func FileNotAllowed(code string) *Error {
	return newError(KindFileNotAllowed, code, "file uploads are not allowed")
}

func FileTypeNotAllowed(code, ext string) *Error {
	return newError(KindFileTypeNotAllowed, code, fmt.Sprintf("file type %q is not allowed", ext))
}

func StorageUnwritable(dir string, cause error) *Error {
	return &Error{Kind: KindStorageUnwritable, Message: fmt.Sprintf("directory %s is not writable", dir), Cause: cause}
}

// KindOf returns the kind of a configuration error, or "" for any other error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
