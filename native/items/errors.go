package items

import "errors"

var (
	ErrInsufficientBalance = errors.New("items: burn amount exceeds balance")
	ErrNotApproved         = errors.New("items: caller is not owner nor approved")
	ErrZeroAddress         = errors.New("items: zero address")
	ErrSelfApproval        = errors.New("items: setting approval status for self")
	ErrInvalidAmount       = errors.New("items: invalid amount")
	ErrSupplyOverflow      = errors.New("items: total supply overflow")
)
