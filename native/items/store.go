package items

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"milkfactory/core/events"
	"milkfactory/core/state"
	nativecommon "milkfactory/native/common"
)

type storeState interface {
	Update(fn func(tx *state.Tx) error) error
	View(fn func(tx *state.Tx) error) error
}

// Store is a multi-token balance table that tracks the circulating supply of
// every id. Items only enter circulation through ApplyMint, which the claim
// engine calls while fulfilling rewards.
type Store struct {
	st storeState
}

// NewStore constructs an item store backed by st.
func NewStore(st storeState) *Store {
	return &Store{st: st}
}

// BalanceOf returns the number of id held by account.
func (s *Store) BalanceOf(account common.Address, id *big.Int) (*big.Int, error) {
	var balance *big.Int
	err := s.st.View(func(tx *state.Tx) error {
		var err error
		balance, err = load(tx, balanceKey(id, account))
		return err
	})
	return balance, err
}

// BalanceOfBatch returns balances for paired accounts and ids.
func (s *Store) BalanceOfBatch(accounts []common.Address, ids []*big.Int) ([]*big.Int, error) {
	if len(accounts) != len(ids) {
		return nil, fmt.Errorf("items: accounts and ids length mismatch")
	}
	out := make([]*big.Int, len(ids))
	err := s.st.View(func(tx *state.Tx) error {
		for i := range ids {
			balance, err := load(tx, balanceKey(ids[i], accounts[i]))
			if err != nil {
				return err
			}
			out[i] = balance
		}
		return nil
	})
	return out, err
}

// TotalSupply returns the circulating amount of id.
func (s *Store) TotalSupply(id *big.Int) (*big.Int, error) {
	var supply *big.Int
	err := s.st.View(func(tx *state.Tx) error {
		var err error
		supply, err = load(tx, supplyKey(id))
		return err
	})
	return supply, err
}

// Exists reports whether any amount of id is in circulation.
func (s *Store) Exists(id *big.Int) (bool, error) {
	supply, err := s.TotalSupply(id)
	if err != nil {
		return false, err
	}
	return supply.Sign() > 0, nil
}

// IsApprovedForAll reports whether operator may move every id held by owner.
func (s *Store) IsApprovedForAll(owner, operator common.Address) (bool, error) {
	var approved bool
	err := s.st.View(func(tx *state.Tx) error {
		_, err := tx.KVGet(approvalKey(owner, operator), &approved)
		return err
	})
	return approved, err
}

// SetApprovalForAll grants or revokes operator's control over the caller's
// items.
func (s *Store) SetApprovalForAll(caller, operator common.Address, approved bool) error {
	if caller == operator {
		return ErrSelfApproval
	}
	if operator == (common.Address{}) {
		return ErrZeroAddress
	}
	return s.st.Update(func(tx *state.Tx) error {
		if approved {
			if err := tx.KVPut(approvalKey(caller, operator), true); err != nil {
				return err
			}
		} else if err := tx.KVDelete(approvalKey(caller, operator)); err != nil {
			return err
		}
		tx.Emit(events.ItemApprovalForAll{Owner: caller, Operator: operator, Approved: approved})
		return nil
	})
}

// SafeTransferFrom moves amount of id between accounts. The caller must be
// from or an approved operator.
func (s *Store) SafeTransferFrom(caller, from, to common.Address, id, amount *big.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	return s.st.Update(func(tx *state.Tx) error {
		if err := checkOperator(tx, caller, from); err != nil {
			return err
		}
		value, err := normalize(amount)
		if err != nil {
			return err
		}
		if err := debit(tx, from, id, value); err != nil {
			return err
		}
		if err := credit(tx, to, id, value); err != nil {
			return err
		}
		tx.Emit(events.ItemTransfer{Operator: caller, From: from, To: to, ID: copyInt(id), Amount: value})
		return nil
	})
}

// Burn destroys amount of id held by from and reduces its supply.
func (s *Store) Burn(caller, from common.Address, id, amount *big.Int) error {
	return s.st.Update(func(tx *state.Tx) error {
		if err := checkOperator(tx, caller, from); err != nil {
			return err
		}
		value, err := normalize(amount)
		if err != nil {
			return err
		}
		if err := debit(tx, from, id, value); err != nil {
			return err
		}
		supply, err := load(tx, supplyKey(id))
		if err != nil {
			return err
		}
		remaining, err := nativecommon.SubChecked(supply, value)
		if err != nil {
			return fmt.Errorf("items: supply accounting underflow for id %s", id)
		}
		if err := tx.KVPut(supplyKey(id), remaining); err != nil {
			return err
		}
		tx.Emit(events.ItemTransfer{Operator: caller, From: from, ID: copyInt(id), Amount: value})
		return nil
	})
}

// ApplyMint credits amount of id to to inside an existing transaction.
// Authorisation is the caller's responsibility.
func (s *Store) ApplyMint(tx *state.Tx, operator, to common.Address, id, amount *big.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if id == nil || id.Sign() < 0 {
		return fmt.Errorf("%w: id must be a non-negative integer", ErrInvalidAmount)
	}
	value, err := normalize(amount)
	if err != nil {
		return err
	}
	supply, err := load(tx, supplyKey(id))
	if err != nil {
		return err
	}
	newSupply, err := nativecommon.AddChecked(supply, value)
	if err != nil {
		return ErrSupplyOverflow
	}
	if err := credit(tx, to, id, value); err != nil {
		return err
	}
	if err := tx.KVPut(supplyKey(id), newSupply); err != nil {
		return err
	}
	tx.Emit(events.ItemTransfer{Operator: operator, To: to, ID: copyInt(id), Amount: value})
	return nil
}

func checkOperator(tx *state.Tx, caller, from common.Address) error {
	if from == (common.Address{}) {
		return ErrZeroAddress
	}
	if caller == from {
		return nil
	}
	var approved bool
	if _, err := tx.KVGet(approvalKey(from, caller), &approved); err != nil {
		return err
	}
	if !approved {
		return ErrNotApproved
	}
	return nil
}

func debit(tx *state.Tx, from common.Address, id, value *big.Int) error {
	balance, err := load(tx, balanceKey(id, from))
	if err != nil {
		return err
	}
	remaining, err := nativecommon.SubChecked(balance, value)
	if err != nil {
		return fmt.Errorf("%w: id %s balance %s, amount %s", ErrInsufficientBalance, id, balance, value)
	}
	return tx.KVPut(balanceKey(id, from), remaining)
}

func credit(tx *state.Tx, to common.Address, id, value *big.Int) error {
	balance, err := load(tx, balanceKey(id, to))
	if err != nil {
		return err
	}
	updated, err := nativecommon.AddChecked(balance, value)
	if err != nil {
		return ErrSupplyOverflow
	}
	return tx.KVPut(balanceKey(id, to), updated)
}

func load(tx *state.Tx, key []byte) (*big.Int, error) {
	value := new(big.Int)
	found, err := tx.KVGet(key, value)
	if err != nil {
		return nil, err
	}
	if !found {
		return big.NewInt(0), nil
	}
	return value, nil
}

func normalize(amount *big.Int) (*big.Int, error) {
	value, err := nativecommon.NormalizeAmount(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return value, nil
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
