package itemfactory

import (
	"errors"

	"milkfactory/native/access"
)

var (
	// ErrUnauthorized aliases the shared access error so callers of this
	// package can match on it without importing access.
	ErrUnauthorized = access.ErrUnauthorized

	ErrClaimTooSoon       = errors.New("itemfactory: last claimed before 24 hours")
	ErrNoRewardConfigured = errors.New("itemfactory: no reward configured")
	ErrInvalidWeights     = errors.New("itemfactory: invalid type weights")
	ErrInvalidPetID       = errors.New("itemfactory: invalid pet id")
	ErrInvalidSeed        = errors.New("itemfactory: invalid roll seed")
	ErrZeroRecipient      = errors.New("itemfactory: zero recipient")
)
