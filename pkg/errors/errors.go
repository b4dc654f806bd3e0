package errors

import (
	"errors"
	"fmt"
)

// Kind classifies failures that can occur while rendering a course
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindServerError         Kind = "server_error"
	KindNetwork             Kind = "network"
	KindVideoUnavailable    Kind = "video_unavailable"
	KindVideoPrivate        Kind = "video_private"
	KindVideoDownloadFailed Kind = "video_download_failed"
	KindInvalidSourceTree   Kind = "invalid_source_tree"
	KindTargetConflict      Kind = "target_conflict"
	KindParsing             Kind = "parsing"
	KindUnknown             Kind = "unknown"
)

// Error is a classified failure with the URI or path it relates to
type Error struct {
	Kind    Kind
	Message string
	URI     string
	Code    int
	// DNS is set when the host name could not be resolved.
	DNS bool
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s error (code %d): %s", e.Kind, e.Code, e.Message)
	}
	if e.URI != "" {
		msg += " [" + e.URI + "]"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind that keeps err as its cause
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsFatal reports whether the error must abort the whole run
func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindInvalidSourceTree, KindTargetConflict:
		return true
	default:
		return false
	}
}

// IsRetryable checks if an error kind should be retried
func IsRetryable(kind Kind) bool {
	switch kind {
	case KindNetwork, KindServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429:
		return true
	case 401, 403, 404, 410:
		return false
	default:
		return statusCode >= 500
	}
}
