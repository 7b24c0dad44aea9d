package store

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yanni/community/utils"
)

// Kind classifies a failure so callers can react without string matching.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindAuth
	KindForbidden
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by the store layer.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind when the target carries no message, so
// errors.Is(err, store.ErrNotFound) works for every not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" {
		return e.Kind == t.Kind
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrForbidden  = &Error{Kind: KindForbidden}
	ErrStorage    = &Error{Kind: KindStorage}
)

func ValidationError(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundError(what string) error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func AuthError(msg string) error {
	return &Error{Kind: KindAuth, Message: msg}
}

func ForbiddenError(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// StorageError logs the underlying failure and hides it behind a generic message.
func StorageError(op string, err error) error {
	utils.Logger.Error("storage failure", zap.String("op", op), zap.Error(err))
	return &Error{Kind: KindStorage, Message: "internal storage error", Err: err}
}

// KindOf reports the kind of err, or zero when err is not a store error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// wrap converts a gorm error into a store error. Errors that already carry a
// kind pass through untouched.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ValidationError("duplicate value")
	}
	return StorageError(op, err)
}
