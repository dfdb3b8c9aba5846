package milk

import "errors"

var (
	ErrInsufficientBalance   = errors.New("milk: amount exceeds balance")
	ErrInsufficientAllowance = errors.New("milk: insufficient allowance")
	ErrZeroAddress           = errors.New("milk: zero address")
	ErrInvalidAmount         = errors.New("milk: invalid amount")
	ErrSupplyOverflow        = errors.New("milk: total supply overflow")
	// ErrInvalidPayload is returned when a deposit payload is not a single
	// ABI encoded uint256.
	ErrInvalidPayload = errors.New("milk: invalid deposit payload")
)
