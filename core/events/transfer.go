package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"milkfactory/core/types"
)

const (
	// TypeTransfer is emitted for every fungible balance movement. Mints are
	// transfers from the zero address and burns are transfers to it.
	TypeTransfer = "transfer.fungible"
	// TypeApproval is emitted when an owner sets a spender allowance.
	TypeApproval = "transfer.approval"
)

type Transfer struct {
	Asset  string
	From   common.Address
	To     common.Address
	Amount *big.Int
}

func (Transfer) EventType() string { return TypeTransfer }

func (e Transfer) Event() *types.Event {
	attrs := map[string]string{}
	if asset := normalizeAsset(e.Asset); asset != "" {
		attrs["asset"] = asset
	}
	attrs["from"] = formatAddress(e.From)
	attrs["to"] = formatAddress(e.To)
	attrs["amount"] = formatAmount(e.Amount)
	return &types.Event{Type: TypeTransfer, Attributes: attrs}
}

// IsMint reports whether the transfer created new supply.
func (e Transfer) IsMint() bool { return e.From == (common.Address{}) }

// IsBurn reports whether the transfer destroyed supply.
func (e Transfer) IsBurn() bool { return e.To == (common.Address{}) }

type Approval struct {
	Asset   string
	Owner   common.Address
	Spender common.Address
	Amount  *big.Int
}

func (Approval) EventType() string { return TypeApproval }

func (e Approval) Event() *types.Event {
	attrs := map[string]string{
		"owner":   formatAddress(e.Owner),
		"spender": formatAddress(e.Spender),
		"amount":  formatAmount(e.Amount),
	}
	if asset := normalizeAsset(e.Asset); asset != "" {
		attrs["asset"] = asset
	}
	return &types.Event{Type: TypeApproval, Attributes: attrs}
}
