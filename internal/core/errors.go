package core

import (
	"context"
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Kind classifies every failure the core can surface. NotFound deliberately
// covers both "does not exist" and "exists but belongs to someone else".
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindNotFound
	KindRejected
	KindUnavailable
)

const (
	TextCodeUnauthenticated = "UNAUTHENTICATED"
	TextCodeNotFound        = "NOT_FOUND"
	TextCodeRejected        = "REJECTED"
	TextCodeUnavailable     = "UNAVAILABLE"
	TextCodeInternal        = "INTERNAL"
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNotFound:
		return "not_found"
	case KindRejected:
		return "rejected"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// HTTPStatus is the outward status for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindRejected:
		return http.StatusUnprocessableEntity
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) textCode() string {
	switch k {
	case KindUnauthenticated:
		return TextCodeUnauthenticated
	case KindNotFound:
		return TextCodeNotFound
	case KindRejected:
		return TextCodeRejected
	case KindUnavailable:
		return TextCodeUnavailable
	default:
		return TextCodeInternal
	}
}

func (k Kind) category() goerrors.Category {
	switch k {
	case KindUnauthenticated:
		return goerrors.CategoryAuth
	case KindNotFound:
		return goerrors.CategoryNotFound
	case KindRejected:
		return goerrors.CategoryValidation
	case KindUnavailable:
		return goerrors.CategoryExternal
	default:
		return goerrors.CategoryInternal
	}
}

func newError(kind Kind, message string) *goerrors.Error {
	return goerrors.New(message, kind.category()).
		WithCode(kind.HTTPStatus()).
		WithTextCode(kind.textCode())
}

func wrapError(kind Kind, source error, message string) *goerrors.Error {
	return goerrors.Wrap(source, kind.category(), message).
		WithCode(kind.HTTPStatus()).
		WithTextCode(kind.textCode())
}

// Unauthenticated reports a missing, malformed, expired or orphaned credential.
func Unauthenticated(message string) error {
	return newError(KindUnauthenticated, message)
}

// NotFound is returned for absent resources and for resources owned by another
// user alike. The message depends only on the resource kind.
func NotFound(resource ResourceKind) error {
	return newError(KindNotFound, string(resource)+" not found")
}

// Rejected reports a well-formed request that violates a foreign-key or
// invariant rule.
func Rejected(reason string) error {
	return newError(KindRejected, reason)
}

// Unavailable wraps a failure to reach the entity store.
func Unavailable(source error) error {
	return wrapError(KindUnavailable, source, "entity store unavailable")
}

// Internal wraps anything unexpected.
func Internal(source error) error {
	return wrapError(KindInternal, source, "An unexpected error occurred")
}

// KindOf classifies err. Context expiry counts as Unavailable, unknown errors
// as Internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		switch rich.TextCode {
		case TextCodeUnauthenticated:
			return KindUnauthenticated
		case TextCodeNotFound:
			return KindNotFound
		case TextCodeRejected:
			return KindRejected
		case TextCodeUnavailable:
			return KindUnavailable
		case TextCodeInternal:
			return KindInternal
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindUnavailable
	}
	return KindInternal
}

// HasKind reports whether err was built by one of the kind constructors.
func HasKind(err error) bool {
	var rich *goerrors.Error
	return goerrors.As(err, &rich) && rich.TextCode != ""
}

// Is reports whether err is of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message is the client-safe message for err. Internal and Unavailable
// failures never expose their source.
func Message(err error) string {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Message != "" {
		return rich.Message
	}
	switch KindOf(err) {
	case KindUnavailable:
		return "entity store unavailable"
	default:
		return "An unexpected error occurred"
	}
}
