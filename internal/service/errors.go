package service

import (
	"errors"
)

// ErrorKind classifies a failed transfer
type ErrorKind string

const (
	InvalidRequest      ErrorKind = "InvalidRequest"
	SameAccount         ErrorKind = "SameAccount"
	InvalidAmount       ErrorKind = "InvalidAmount"
	SourceNotFound      ErrorKind = "SourceNotFound"
	DestinationNotFound ErrorKind = "DestinationNotFound"
	InsufficientFunds   ErrorKind = "InsufficientFunds"
	TransferFailed      ErrorKind = "TransferFailed"
)

const transferFailedMessage = "Transfer failed. Please try again later."

// TransferError is returned by Transfer for every failure. Message is safe
// to show to the caller; Err carries the underlying cause for
// TransferFailed and is never part of Message.
type TransferError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *TransferError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *TransferError) Unwrap() error { return e.Err }

// Is matches any TransferError of the same kind, so callers can write
// errors.Is(err, service.ErrInsufficientFunds).
func (e *TransferError) Is(target error) bool {
	t, ok := target.(*TransferError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidRequest      = &TransferError{Kind: InvalidRequest}
	ErrSameAccount         = &TransferError{Kind: SameAccount}
	ErrInvalidAmount       = &TransferError{Kind: InvalidAmount}
	ErrSourceNotFound      = &TransferError{Kind: SourceNotFound}
	ErrDestinationNotFound = &TransferError{Kind: DestinationNotFound}
	ErrInsufficientFunds   = &TransferError{Kind: InsufficientFunds}
	ErrTransferFailed      = &TransferError{Kind: TransferFailed}
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidDate        = errors.New("dates must use the YYYY-MM-DD format")
)

// KindOf returns the kind of a transfer error, or "" when err is nil or not
// a TransferError.
func KindOf(err error) ErrorKind {
	var te *TransferError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}

func newTransferError(kind ErrorKind, msg string) *TransferError {
	return &TransferError{Kind: kind, Message: msg}
}
