package services

import (
	"crypto/rand"

	"tiketku/internal/domain"
)

// Reference alphabet drops 0/O, 1/I/L so codes survive being read over the
// phone at a counter.
const refAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	refPrefix = "TK-"
	refLength = 8

	// Attempts before a reference collision is surfaced to the caller.
	refMaxAttempts = 5
)

// NewBookingReference returns a human-presentable booking code such as
// "TK-7GXKQ2MN". Uniqueness is ultimately enforced by the DB unique index;
// the coordinator regenerates on collision.
func NewBookingReference() (string, error) {
	buf := make([]byte, refLength)
	if _, err := rand.Read(buf); err != nil {
		return "", domain.PersistenceError{Op: "generate booking reference", Err: err}
	}
	out := make([]byte, refLength)
	for i, b := range buf {
		out[i] = refAlphabet[int(b)%len(refAlphabet)]
	}
	return refPrefix + string(out), nil
}
