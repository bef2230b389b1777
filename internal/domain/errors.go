package domain

import (
	"errors"
	"fmt"
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// CapacityError reports an atomic seat reservation that found fewer seats
// than requested. Available is the count observed at the moment of the check.
type CapacityError struct {
	TripID    int64
	Requested int
	Available int
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("trip %d: kursi tidak cukup (minta %d, tersedia %d)", e.TripID, e.Requested, e.Available)
}

// PolicyViolation covers state-machine and time-window rules: cancelling
// past the cutoff, booking a trip that is not scheduled, refunding an
// unsettled payment.
type PolicyViolation struct {
	Rule string
	Msg  string
}

func (e PolicyViolation) Error() string {
	switch {
	case e.Rule != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Rule, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Rule != "":
		return e.Rule
	default:
		return "policy violation"
	}
}

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// PaymentError wraps failures reported by the payment gateway itself.
// It never implies anything about booking state; a failed gateway call
// leaves the booking pending for retry.
type PaymentError struct {
	Provider string
	Msg      string
	Err      error
}

func (e PaymentError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("payment (%s): %s", e.Provider, e.Msg)
	}
	return fmt.Sprintf("payment (%s) failed", e.Provider)
}

func (e PaymentError) Unwrap() error { return e.Err }

// PersistenceError marks storage I/O failures. Callers translate it into a
// generic retryable error; the wrapped cause stays in logs only.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("persistence: %s", e.Op)
	}
	return "persistence error"
}

func (e PersistenceError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsCapacity(err error) bool {
	var target CapacityError
	return errors.As(err, &target)
}

func IsPolicyViolation(err error) bool {
	var target PolicyViolation
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsPayment(err error) bool {
	var target PaymentError
	return errors.As(err, &target)
}

func IsPersistence(err error) bool {
	var target PersistenceError
	return errors.As(err, &target)
}
