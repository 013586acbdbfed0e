package domain

import (
	"errors"
	"fmt"
)

var (
	// Watchlist errors
	ErrWatchlistNotFound    = errors.New("watchlist not found")
	ErrInvalidWatchlistName = errors.New("invalid watchlist name")
	ErrNoSymbols            = errors.New("no symbols given")

	// Remote errors
	ErrRemote          = errors.New("remote request failed")
	ErrTransport       = errors.New("transport failure")
	ErrRateLimited     = errors.New("rate limited by broker")
	ErrInvalidResponse = errors.New("invalid response from broker")

	// Auth errors
	ErrAuthUnavailable = errors.New("credentials unavailable")
)

// RemoteError reports a non-success answer from the broker for one operation.
type RemoteError struct {
	Op      string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: broker returned status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: broker returned status %d: %s", e.Op, e.Status, e.Message)
}

// Is makes errors.Is(err, ErrRemote) hold for every RemoteError.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// NewRemoteError creates a remote error for op
func NewRemoteError(op string, status int, message string) *RemoteError {
	return &RemoteError{Op: op, Status: status, Message: message}
}

// TransportError wraps a network or authentication failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTransport) hold for every TransportError.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// NewTransportError wraps err as a transport failure of op
func NewTransportError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// IsRemoteError checks if the error came back from the broker
func IsRemoteError(err error) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr)
}

// IsTransportError checks if the error is a transport failure
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
