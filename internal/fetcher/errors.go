package fetcher

import (
	"context"
	"errors"
	"fmt"
)

const (
	errorMessageRequestTimeout   = "fetcher: request timed out"
	errorMessageRetriesExhausted = "fetcher: retries exhausted"
	errorMessageMissingOrigin    = "fetcher: missing api origin"
	errorMessageEmptyPayload     = "fetcher: payload has neither widgetSettings nor reviews"

	ErrorKindTimeout    = "timeout"
	ErrorKindStatus     = "status"
	ErrorKindDecode     = "decode"
	ErrorKindConnection = "connection"
	ErrorKindCanceled   = "canceled"
	ErrorKindOther      = "other"
)

var (
	// ErrRequestTimeout marks an attempt that exceeded the client-side request timeout.
	ErrRequestTimeout = errors.New(errorMessageRequestTimeout)
	// ErrRetriesExhausted wraps the last failure once every attempt failed.
	ErrRetriesExhausted = errors.New(errorMessageRetriesExhausted)
	// ErrMissingOrigin indicates a client built without an API origin.
	ErrMissingOrigin = errors.New(errorMessageMissingOrigin)
	// ErrEmptyPayload marks a 2xx body such as null or {} that carries no widget data.
	ErrEmptyPayload = errors.New(errorMessageEmptyPayload)
)

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (statusError *StatusError) Error() string {
	return fmt.Sprintf("fetcher: unexpected status %d", statusError.StatusCode)
}

// DecodeError reports a response body that is not a widget payload.
type DecodeError struct {
	Err error
}

func (decodeError *DecodeError) Error() string {
	return fmt.Errorf("fetcher: decode response: %w", decodeError.Err).Error()
}

func (decodeError *DecodeError) Unwrap() error {
	return decodeError.Err
}

// ConnectionError reports a transport failure.
type ConnectionError struct {
	Err error
}

func (connectionError *ConnectionError) Error() string {
	return fmt.Errorf("fetcher: connection: %w", connectionError.Err).Error()
}

func (connectionError *ConnectionError) Unwrap() error {
	return connectionError.Err
}

// ErrorKind labels a fetch error for logs and metrics.
func ErrorKind(err error) string {
	if err == nil {
		return ErrorKindOther
	}
	if errors.Is(err, ErrRequestTimeout) {
		return ErrorKindTimeout
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindCanceled
	}
	var statusError *StatusError
	if errors.As(err, &statusError) {
		return ErrorKindStatus
	}
	var decodeError *DecodeError
	if errors.As(err, &decodeError) {
		return ErrorKindDecode
	}
	var connectionError *ConnectionError
	if errors.As(err, &connectionError) {
		return ErrorKindConnection
	}
	return ErrorKindOther
}
