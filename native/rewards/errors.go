package rewards

import "errors"

var (
	// ErrInvalidThresholds wraps a message naming the adjacent pair that
	// violated the ordering.
	ErrInvalidThresholds = errors.New("rewards: invalid rarity thresholds")
	ErrInvalidRange      = errors.New("rewards: min can not be greater than max")
	ErrEmptyRewardSet    = errors.New("rewards: empty reward")
	ErrInvalidPayload    = errors.New("rewards: invalid reward payload")
	ErrInvalidRewardKey  = errors.New("rewards: unknown reward type or rarity")
	ErrRollOutOfRange    = errors.New("rewards: roll exceeds max roll")
)
