package common

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	ErrInvalidAmount = errors.New("amount must be a non-negative uint256")
	ErrOverflow      = errors.New("uint256 overflow")
)

// NormalizeAmount copies v after checking it fits in an unsigned 256-bit word.
func NormalizeAmount(v *big.Int) (*big.Int, error) {
	if v == nil || v.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if _, overflow := uint256.FromBig(v); overflow {
		return nil, ErrInvalidAmount
	}
	return new(big.Int).Set(v), nil
}

// AddChecked returns a+b, failing with ErrOverflow when the sum exceeds the
// uint256 range.
func AddChecked(a, b *big.Int) (*big.Int, error) {
	x, overflow := uint256.FromBig(a)
	if overflow {
		return nil, ErrOverflow
	}
	y, overflow := uint256.FromBig(b)
	if overflow {
		return nil, ErrOverflow
	}
	sum, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return sum.ToBig(), nil
}

// SubChecked returns a-b, failing with ErrOverflow when b exceeds a.
func SubChecked(a, b *big.Int) (*big.Int, error) {
	x, overflow := uint256.FromBig(a)
	if overflow {
		return nil, ErrOverflow
	}
	y, overflow := uint256.FromBig(b)
	if overflow {
		return nil, ErrOverflow
	}
	diff, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, ErrOverflow
	}
	return diff.ToBig(), nil
}
