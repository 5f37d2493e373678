package domain

import "errors"

// Generic sentinel errors shared by repositories and services.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)

// Reservation conflicts. Callers must not retry these blindly; the client is expected
// to re-fetch the event and reconcile its state.
var (
	ErrAlreadyReserved       = errors.New("already reserved")
	ErrEventFull             = errors.New("event is full")
	ErrNotReserved           = errors.New("not reserved")
	ErrCapacityBelowReserved = errors.New("capacity below reserved count")
)

// ErrTxAborted is returned when the store aborted a transaction because of a
// serialization failure or deadlock. Nothing was committed.
var ErrTxAborted = errors.New("transaction aborted")

// ErrTransactionsUnavailable signals a deployment problem: the store cannot run the
// read-write transactions the reservation protocol depends on (read-only session,
// hot standby, unsupported feature).
var ErrTransactionsUnavailable = errors.New("transactions unavailable")
