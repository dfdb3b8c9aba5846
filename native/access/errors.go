package access

import "errors"

var (
	// ErrUnauthorized is returned whenever the caller lacks the role an
	// operation requires. Other modules wrap it so callers can match with
	// errors.Is regardless of where the check happened.
	ErrUnauthorized     = errors.New("access: unauthorized")
	ErrZeroAccount      = errors.New("access: zero account")
	ErrRenounceForOther = errors.New("access: can only renounce roles for self")

	// ErrAlreadyBootstrapped is returned when Bootstrap names an owner for a
	// table whose default admin role is already held by someone else.
	ErrAlreadyBootstrapped = errors.New("access: role table already has a default admin")
)
