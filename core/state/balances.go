package state

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	balancePrefix   = []byte("balance:")
	supplyPrefix    = []byte("supply:")
	allowancePrefix = []byte("allowance:")
)

func normalizeSymbol(symbol string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return "", fmt.Errorf("token symbol must not be empty")
	}
	return normalized, nil
}

func balanceKey(symbol string, addr common.Address) []byte {
	buf := make([]byte, 0, len(balancePrefix)+len(symbol)+1+common.AddressLength)
	buf = append(buf, balancePrefix...)
	buf = append(buf, symbol...)
	buf = append(buf, ':')
	return append(buf, addr.Bytes()...)
}

func supplyKey(symbol string) []byte {
	return append(append([]byte(nil), supplyPrefix...), symbol...)
}

func allowanceKey(symbol string, owner, spender common.Address) []byte {
	buf := make([]byte, 0, len(allowancePrefix)+len(symbol)+2+2*common.AddressLength)
	buf = append(buf, allowancePrefix...)
	buf = append(buf, symbol...)
	buf = append(buf, ':')
	buf = append(buf, owner.Bytes()...)
	buf = append(buf, ':')
	return append(buf, spender.Bytes()...)
}

func (tx *Tx) loadAmount(key []byte) (*big.Int, error) {
	amount := new(big.Int)
	found, err := tx.KVGet(key, amount)
	if err != nil {
		return nil, err
	}
	if !found {
		return big.NewInt(0), nil
	}
	return amount, nil
}

func (tx *Tx) storeAmount(key []byte, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("negative amount not allowed")
	}
	return tx.KVPut(key, amount)
}

// Balance retrieves a token balance for the provided account and token.
func (tx *Tx) Balance(symbol string, addr common.Address) (*big.Int, error) {
	normalized, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return tx.loadAmount(balanceKey(normalized, addr))
}

// SetBalance stores an account balance for the provided token. Negative
// balances are rejected.
func (tx *Tx) SetBalance(symbol string, addr common.Address, amount *big.Int) error {
	normalized, err := normalizeSymbol(symbol)
	if err != nil {
		return err
	}
	return tx.storeAmount(balanceKey(normalized, addr), amount)
}

// TotalSupply retrieves the tracked supply for the provided token.
func (tx *Tx) TotalSupply(symbol string) (*big.Int, error) {
	normalized, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return tx.loadAmount(supplyKey(normalized))
}

// SetTotalSupply stores the tracked supply for the provided token.
func (tx *Tx) SetTotalSupply(symbol string, amount *big.Int) error {
	normalized, err := normalizeSymbol(symbol)
	if err != nil {
		return err
	}
	return tx.storeAmount(supplyKey(normalized), amount)
}

// Allowance retrieves the amount spender may move on behalf of owner.
func (tx *Tx) Allowance(symbol string, owner, spender common.Address) (*big.Int, error) {
	normalized, err := normalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return tx.loadAmount(allowanceKey(normalized, owner, spender))
}

// SetAllowance stores the amount spender may move on behalf of owner.
func (tx *Tx) SetAllowance(symbol string, owner, spender common.Address, amount *big.Int) error {
	normalized, err := normalizeSymbol(symbol)
	if err != nil {
		return err
	}
	return tx.storeAmount(allowanceKey(normalized, owner, spender), amount)
}
