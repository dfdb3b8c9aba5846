package rewards

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Reward is the decoded {min, max, ids} description of a grantable reward.
type Reward struct {
	Min *big.Int
	Max *big.Int
	IDs []*big.Int
}

// Configured reports whether r came from a stored entry. Unconfigured keys
// decode to the zero Reward.
func (r Reward) Configured() bool {
	return len(r.IDs) > 0
}

// Validate checks min <= max and a non-empty id set.
func (r Reward) Validate() error {
	if r.Min == nil || r.Max == nil || r.Min.Sign() < 0 || r.Max.Sign() < 0 {
		return fmt.Errorf("%w: min and max are required", ErrInvalidPayload)
	}
	if r.Min.Cmp(r.Max) > 0 {
		return fmt.Errorf("%w: min %s, max %s", ErrInvalidRange, r.Min, r.Max)
	}
	if len(r.IDs) == 0 {
		return ErrEmptyRewardSet
	}
	return nil
}

var rewardArguments = func() abi.Arguments {
	uintType, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	sliceType, err := abi.NewType("uint256[]", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: uintType}, {Type: uintType}, {Type: sliceType}}
}()

// EncodeReward produces the ABI encoding of (uint256 min, uint256 max,
// uint256[] ids).
func EncodeReward(r Reward) ([]byte, error) {
	lo, hi := r.Min, r.Max
	if lo == nil {
		lo = new(big.Int)
	}
	if hi == nil {
		hi = new(big.Int)
	}
	ids := r.IDs
	if ids == nil {
		ids = []*big.Int{}
	}
	data, err := rewardArguments.Pack(lo, hi, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return data, nil
}

// DecodeReward parses an ABI encoded reward. Any layout the ABI decoder
// accepts is valid; EncodeReward gives the canonical bytes.
func DecodeReward(data []byte) (Reward, error) {
	values, err := rewardArguments.Unpack(data)
	if err != nil {
		return Reward{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	lo, okMin := values[0].(*big.Int)
	hi, okMax := values[1].(*big.Int)
	ids, okIDs := values[2].([]*big.Int)
	if !okMin || !okMax || !okIDs {
		return Reward{}, ErrInvalidPayload
	}
	return Reward{Min: lo, Max: hi, IDs: ids}, nil
}
