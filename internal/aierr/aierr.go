// Package aierr classifies failures of the generative-AI backend into a small
// set of kinds that callers can branch on.
package aierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// Kind is the classification of a backend failure.
type Kind string

const (
	KindNone          Kind = ""
	KindConfiguration Kind = "configuration"
	KindQuotaExceeded Kind = "quota_exceeded"
	KindParse         Kind = "parse"
	KindNetwork       Kind = "network"
	KindBackend       Kind = "backend"
)

// quotaMarkers are matched against the raw error text.
var quotaMarkers = []string{"quota", "429", "RESOURCE_EXHAUSTED", "limit"}

// credentialMarkers identify a rejected or missing key, e.g. a 400 with
// "API key not valid".
var credentialMarkers = []string{"API key", "API_KEY_INVALID"}

// Error is a classified gateway failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a classified error for op.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrap classifies err and returns it as an *Error. An error that is already
// classified keeps its kind.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	return New(Classify(err), op, err)
}

// KindOf returns the kind carried by err, or KindNone when err is nil or was
// never classified.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindNone
}

// Classify maps a raw error to a Kind. The same error value always yields the
// same kind.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return KindQuotaExceeded
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return KindConfiguration
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}

	msg := err.Error()
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return KindQuotaExceeded
		}
	}
	for _, marker := range credentialMarkers {
		if strings.Contains(msg, marker) {
			return KindConfiguration
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}

	return KindBackend
}

// Message is the short text shown next to fallback content.
func (k Kind) Message() string {
	switch k {
	case KindConfiguration:
		return "AI features are not set up. Add an API key to enable live suggestions."
	case KindQuotaExceeded:
		return "AI quota reached. Showing saved suggestions for now."
	case KindParse:
		return "The AI returned an unreadable answer. Showing saved suggestions."
	case KindNetwork:
		return "Could not reach the AI service. Showing saved suggestions."
	case KindBackend:
		return "The AI service failed. Showing saved suggestions."
	}
	return ""
}

// Retryable reports whether repeating the same request may succeed.
func (k Kind) Retryable() bool {
	switch k {
	case KindQuotaExceeded, KindNetwork, KindBackend:
		return true
	}
	return false
}

// HTTPStatus is the status used when a failure has no fallback to serve.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindConfiguration:
		return http.StatusServiceUnavailable
	case KindQuotaExceeded:
		return http.StatusTooManyRequests
	case KindNone:
		return http.StatusOK
	}
	return http.StatusBadGateway
}
