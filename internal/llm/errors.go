package llm

import (
	"context"
	"errors"
	"fmt"
)

type Kind string

const (
	KindQuotaExceeded     Kind = "quota_exceeded"
	KindInvalidRequest    Kind = "invalid_request"
	KindRateLimited       Kind = "rate_limited"
	KindMalformedResponse Kind = "malformed_response"
	KindTimeout           Kind = "timeout"
	KindProvider          Kind = "provider_error"
)

// Error is a classified generation failure. Compare with errors.Is against
// the Err* sentinels, which match on Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrQuotaExceeded     = &Error{Kind: KindQuotaExceeded, Message: "API quota exhausted, check the API key and billing"}
	ErrInvalidRequest    = &Error{Kind: KindInvalidRequest, Message: "invalid request, check the parameters"}
	ErrRateLimited       = &Error{Kind: KindRateLimited, Message: "too many requests, try again later"}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse, Message: "model returned an unexpected response"}
	ErrTimeout           = &Error{Kind: KindTimeout, Message: "generation timed out"}
	ErrProvider          = &Error{Kind: KindProvider, Message: "provider error"}
)

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func malformed(format string, args ...any) *Error {
	return newError(KindMalformedResponse, fmt.Sprintf(format, args...), nil)
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// classify normalizes any error coming out of a provider call.
func classify(p Provider, err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, ErrTimeout.Message, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if c := p.Classify(err); c != nil {
		return c
	}
	return newError(KindProvider, fmt.Sprintf("%s API error: %v", p.Name(), err), err)
}
