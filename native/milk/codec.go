package milk

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var depositArguments = mustArguments("uint256")

func mustArguments(types ...string) abi.Arguments {
	args := make(abi.Arguments, 0, len(types))
	for _, t := range types {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(fmt.Sprintf("milk: abi type %s: %v", t, err))
		}
		args = append(args, abi.Argument{Type: typ})
	}
	return args
}

// EncodeDepositPayload ABI-encodes amount the way the bridge relayer submits
// deposits.
func EncodeDepositPayload(amount *big.Int) ([]byte, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	data, err := depositArguments.Pack(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return data, nil
}

// DecodeDepositPayload extracts the deposited amount. The payload must be
// exactly one 32-byte word.
func DecodeDepositPayload(data []byte) (*big.Int, error) {
	if len(data) != 32 {
		return nil, fmt.Errorf("%w: expected 32 bytes, got %d", ErrInvalidPayload, len(data))
	}
	values, err := depositArguments.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	amount, ok := values[0].(*big.Int)
	if !ok || amount == nil {
		return nil, ErrInvalidPayload
	}
	return amount, nil
}
