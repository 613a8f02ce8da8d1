// Package apperr holds the typed errors returned by the ledger usecases.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidState      Kind = "invalid_state"
	KindInsufficientStock Kind = "insufficient_stock"
	KindAlreadyBlocked    Kind = "already_blocked"
	KindAlreadyProcessed  Kind = "already_processed"
	KindInvalidRequest    Kind = "invalid_request"
	KindDuplicateLocation Kind = "duplicate_location"
	KindStorageFailure    Kind = "storage_failure"
	KindBlocked           Kind = "blocked"
	KindConflict          Kind = "conflict"
	KindInactive          Kind = "inactive"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error

	// Set for KindInsufficientStock.
	Shortage *Shortage
	// Set for KindAlreadyBlocked and KindBlocked.
	BlockID int64
}

type Shortage struct {
	QRCode    string `json:"qr_code"`
	Bucket    string `json:"bucket"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
	Shortfall int64  `json:"shortfall"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can write errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is. They carry no message.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrAlreadyBlocked    = &Error{Kind: KindAlreadyBlocked}
	ErrAlreadyProcessed  = &Error{Kind: KindAlreadyProcessed}
	ErrInvalidRequest    = &Error{Kind: KindInvalidRequest}
	ErrDuplicateLocation = &Error{Kind: KindDuplicateLocation}
	ErrStorageFailure    = &Error{Kind: KindStorageFailure}
	ErrBlocked           = &Error{Kind: KindBlocked}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrInactive          = &Error{Kind: KindInactive}
)

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func InvalidRequest(format string, args ...interface{}) *Error {
	return New(KindInvalidRequest, format, args...)
}

func InvalidState(format string, args ...interface{}) *Error {
	return New(KindInvalidState, format, args...)
}

func InsufficientStock(s Shortage) *Error {
	return &Error{
		Kind: KindInsufficientStock,
		Message: fmt.Sprintf("insufficient stock for %s - %s: available %d, requested %d (short by %d)",
			s.QRCode, s.Bucket, s.Available, s.Requested, s.Shortfall),
		Shortage: &s,
	}
}

func AlreadyBlocked(qrCode string, blockID int64) *Error {
	return &Error{
		Kind:    KindAlreadyBlocked,
		Message: fmt.Sprintf("item %s already has an active block", qrCode),
		BlockID: blockID,
	}
}

func Blocked(qrCode string, blockID int64) *Error {
	return &Error{
		Kind:    KindBlocked,
		Message: fmt.Sprintf("item %s is blocked", qrCode),
		BlockID: blockID,
	}
}

// Storage wraps a persistence error. Errors that already carry a Kind are
// returned unchanged.
func Storage(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindStorageFailure, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of err, or KindStorageFailure for untyped errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindStorageFailure
}
