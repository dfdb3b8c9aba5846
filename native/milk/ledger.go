package milk

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"milkfactory/core/events"
	"milkfactory/core/state"
	"milkfactory/native/access"
	nativecommon "milkfactory/native/common"
)

const (
	DefaultName     = "Milk"
	DefaultSymbol   = "MLK"
	DefaultDecimals = 18
)

// DefaultAddress is the account the ledger uses for itself when none is
// configured. gameBurn routes balances through it before destroying them.
var DefaultAddress = common.BytesToAddress(ethcrypto.Keccak256([]byte("milk"))[12:])

var maxAllowance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

type ledgerState interface {
	Update(fn func(tx *state.Tx) error) error
	View(fn func(tx *state.Tx) error) error
}

// Config describes the token metadata of a ledger deployment.
type Config struct {
	Name     string
	Symbol   string
	Decimals uint8
	Address  common.Address
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Name) == "" {
		c.Name = DefaultName
	}
	c.Symbol = strings.ToUpper(strings.TrimSpace(c.Symbol))
	if c.Symbol == "" {
		c.Symbol = DefaultSymbol
	}
	if c.Decimals == 0 {
		c.Decimals = DefaultDecimals
	}
	if c.Address == (common.Address{}) {
		c.Address = DefaultAddress
	}
	return c
}

// Ledger owns the Milk balance table. Every mutation goes through one of the
// exported entry points and runs inside a single state transaction.
type Ledger struct {
	st         ledgerState
	roles      *access.Registry
	cfg        Config
	interfaces nativecommon.InterfaceSet
}

// NewLedger wires a ledger to its state manager and role registry.
func NewLedger(st ledgerState, roles *access.Registry, cfg Config) *Ledger {
	return &Ledger{
		st:    st,
		roles: roles,
		cfg:   cfg.withDefaults(),
		interfaces: nativecommon.NewInterfaceSet(
			nativecommon.InterfaceERC20,
			nativecommon.InterfaceIAccessControl,
		),
	}
}

func (l *Ledger) Name() string            { return l.cfg.Name }
func (l *Ledger) Symbol() string          { return l.cfg.Symbol }
func (l *Ledger) Decimals() uint8         { return l.cfg.Decimals }
func (l *Ledger) Address() common.Address { return l.cfg.Address }

// Roles exposes the registry guarding the ledger.
func (l *Ledger) Roles() *access.Registry { return l.roles }

// SupportsInterface reports whether the ledger advertises id. Unknown ids
// return false.
func (l *Ledger) SupportsInterface(id nativecommon.InterfaceID) bool {
	return l.interfaces.Supports(id)
}

// BalanceOf returns the balance held by account.
func (l *Ledger) BalanceOf(account common.Address) (*big.Int, error) {
	var balance *big.Int
	err := l.st.View(func(tx *state.Tx) error {
		var err error
		balance, err = tx.Balance(l.cfg.Symbol, account)
		return err
	})
	return balance, err
}

// TotalSupply returns the outstanding supply.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	var supply *big.Int
	err := l.st.View(func(tx *state.Tx) error {
		var err error
		supply, err = tx.TotalSupply(l.cfg.Symbol)
		return err
	})
	return supply, err
}

// Allowance returns the amount spender may move on behalf of owner.
func (l *Ledger) Allowance(owner, spender common.Address) (*big.Int, error) {
	var allowance *big.Int
	err := l.st.View(func(tx *state.Tx) error {
		var err error
		allowance, err = tx.Allowance(l.cfg.Symbol, owner, spender)
		return err
	})
	return allowance, err
}

// Transfer moves amount from caller to to.
func (l *Ledger) Transfer(caller, to common.Address, amount *big.Int) error {
	return l.st.Update(func(tx *state.Tx) error {
		return l.move(tx, caller, to, amount)
	})
}

// Approve sets the allowance of spender over the caller's balance.
func (l *Ledger) Approve(caller, spender common.Address, amount *big.Int) error {
	value, err := normalize(amount)
	if err != nil {
		return err
	}
	if caller == (common.Address{}) || spender == (common.Address{}) {
		return ErrZeroAddress
	}
	return l.st.Update(func(tx *state.Tx) error {
		if err := tx.SetAllowance(l.cfg.Symbol, caller, spender, value); err != nil {
			return err
		}
		tx.Emit(events.Approval{Asset: l.cfg.Symbol, Owner: caller, Spender: spender, Amount: value})
		return nil
	})
}

// TransferFrom moves amount from from to to, spending the caller's allowance.
// An allowance of 2^256-1 is treated as unlimited.
func (l *Ledger) TransferFrom(caller, from, to common.Address, amount *big.Int) error {
	value, err := normalize(amount)
	if err != nil {
		return err
	}
	return l.st.Update(func(tx *state.Tx) error {
		allowance, err := tx.Allowance(l.cfg.Symbol, from, caller)
		if err != nil {
			return err
		}
		if allowance.Cmp(value) < 0 {
			return ErrInsufficientAllowance
		}
		if allowance.Cmp(maxAllowance) != 0 {
			remaining := new(big.Int).Sub(allowance, value)
			if err := tx.SetAllowance(l.cfg.Symbol, from, caller, remaining); err != nil {
				return err
			}
			tx.Emit(events.Approval{Asset: l.cfg.Symbol, Owner: from, Spender: caller, Amount: remaining})
		}
		return l.move(tx, from, to, value)
	})
}

// Deposit credits to with the amount ABI-encoded in payload. Only DEPOSITOR
// holders may call it.
func (l *Ledger) Deposit(caller, to common.Address, payload []byte) error {
	return l.st.Update(func(tx *state.Tx) error {
		if err := l.roles.Check(tx, access.DepositorRole, caller); err != nil {
			return err
		}
		amount, err := DecodeDepositPayload(payload)
		if err != nil {
			return err
		}
		return l.mint(tx, to, amount, events.SupplyReasonDeposit)
	})
}

// Withdraw burns amount from the caller's own balance.
func (l *Ledger) Withdraw(caller common.Address, amount *big.Int) error {
	return l.st.Update(func(tx *state.Tx) error {
		return l.burn(tx, caller, amount, events.SupplyReasonWithdraw)
	})
}

// GameWithdraw burns amount from from on behalf of a CONTRACT holder.
func (l *Ledger) GameWithdraw(caller, from common.Address, amount *big.Int) error {
	return l.st.Update(func(tx *state.Tx) error {
		if err := l.roles.Check(tx, access.ContractRole, caller); err != nil {
			return err
		}
		return l.burn(tx, from, amount, events.SupplyReasonWithdraw)
	})
}

// GameTransferFrom moves balance between accounts without consulting the
// allowance table. CONTRACT only.
func (l *Ledger) GameTransferFrom(caller, from, to common.Address, amount *big.Int) error {
	return l.st.Update(func(tx *state.Tx) error {
		if err := l.roles.Check(tx, access.ContractRole, caller); err != nil {
			return err
		}
		return l.move(tx, from, to, amount)
	})
}

// GameBurn destroys amount of from's balance. The balance first moves to the
// ledger's own address and is then burnt from there, so observers see two
// transfers.
func (l *Ledger) GameBurn(caller, from common.Address, amount *big.Int) error {
	return l.st.Update(func(tx *state.Tx) error {
		if err := l.roles.Check(tx, access.ContractRole, caller); err != nil {
			return err
		}
		value, err := normalize(amount)
		if err != nil {
			return err
		}
		if err := l.move(tx, from, l.cfg.Address, value); err != nil {
			return err
		}
		return l.burn(tx, l.cfg.Address, value, events.SupplyReasonBurn)
	})
}

// GameMint mints amount to to. CONTRACT only.
func (l *Ledger) GameMint(caller, to common.Address, amount *big.Int) error {
	return l.st.Update(func(tx *state.Tx) error {
		return l.ApplyGameMint(tx, caller, to, amount)
	})
}

// ApplyGameMint performs GameMint inside an existing transaction so other
// engines can mint as part of a larger atomic operation.
func (l *Ledger) ApplyGameMint(tx *state.Tx, caller, to common.Address, amount *big.Int) error {
	if err := l.roles.Check(tx, access.ContractRole, caller); err != nil {
		return err
	}
	return l.mint(tx, to, amount, events.SupplyReasonMint)
}

// Mint creates new supply for to. Reserved for MASTER holders.
func (l *Ledger) Mint(caller, to common.Address, amount *big.Int) error {
	return l.st.Update(func(tx *state.Tx) error {
		if err := l.roles.Check(tx, access.MasterRole, caller); err != nil {
			return err
		}
		return l.mint(tx, to, amount, events.SupplyReasonMint)
	})
}

func normalize(amount *big.Int) (*big.Int, error) {
	value, err := nativecommon.NormalizeAmount(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return value, nil
}

func (l *Ledger) mint(tx *state.Tx, to common.Address, amount *big.Int, reason string) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	value, err := normalize(amount)
	if err != nil {
		return err
	}
	supply, err := tx.TotalSupply(l.cfg.Symbol)
	if err != nil {
		return err
	}
	newSupply, err := nativecommon.AddChecked(supply, value)
	if err != nil {
		return ErrSupplyOverflow
	}
	balance, err := tx.Balance(l.cfg.Symbol, to)
	if err != nil {
		return err
	}
	if err := tx.SetBalance(l.cfg.Symbol, to, new(big.Int).Add(balance, value)); err != nil {
		return err
	}
	if err := tx.SetTotalSupply(l.cfg.Symbol, newSupply); err != nil {
		return err
	}
	tx.Emit(events.Transfer{Asset: l.cfg.Symbol, To: to, Amount: value})
	tx.Emit(events.TokenSupply{Token: l.cfg.Symbol, Total: newSupply, Delta: value, Reason: reason})
	return nil
}

func (l *Ledger) burn(tx *state.Tx, from common.Address, amount *big.Int, reason string) error {
	if from == (common.Address{}) {
		return ErrZeroAddress
	}
	value, err := normalize(amount)
	if err != nil {
		return err
	}
	balance, err := tx.Balance(l.cfg.Symbol, from)
	if err != nil {
		return err
	}
	remaining, err := nativecommon.SubChecked(balance, value)
	if err != nil {
		return fmt.Errorf("%w: balance %s, amount %s", ErrInsufficientBalance, balance, value)
	}
	supply, err := tx.TotalSupply(l.cfg.Symbol)
	if err != nil {
		return err
	}
	newSupply, err := nativecommon.SubChecked(supply, value)
	if err != nil {
		return errors.New("milk: supply accounting underflow")
	}
	if err := tx.SetBalance(l.cfg.Symbol, from, remaining); err != nil {
		return err
	}
	if err := tx.SetTotalSupply(l.cfg.Symbol, newSupply); err != nil {
		return err
	}
	tx.Emit(events.Transfer{Asset: l.cfg.Symbol, From: from, Amount: value})
	tx.Emit(events.TokenSupply{Token: l.cfg.Symbol, Total: newSupply, Delta: new(big.Int).Neg(value), Reason: reason})
	return nil
}

func (l *Ledger) move(tx *state.Tx, from, to common.Address, amount *big.Int) error {
	if from == (common.Address{}) || to == (common.Address{}) {
		return ErrZeroAddress
	}
	value, err := normalize(amount)
	if err != nil {
		return err
	}
	fromBalance, err := tx.Balance(l.cfg.Symbol, from)
	if err != nil {
		return err
	}
	remaining, err := nativecommon.SubChecked(fromBalance, value)
	if err != nil {
		return fmt.Errorf("%w: balance %s, amount %s", ErrInsufficientBalance, fromBalance, value)
	}
	if err := tx.SetBalance(l.cfg.Symbol, from, remaining); err != nil {
		return err
	}
	toBalance, err := tx.Balance(l.cfg.Symbol, to)
	if err != nil {
		return err
	}
	credited, err := nativecommon.AddChecked(toBalance, value)
	if err != nil {
		return ErrSupplyOverflow
	}
	if err := tx.SetBalance(l.cfg.Symbol, to, credited); err != nil {
		return err
	}
	tx.Emit(events.Transfer{Asset: l.cfg.Symbol, From: from, To: to, Amount: value})
	return nil
}
