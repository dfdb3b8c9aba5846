package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"milkfactory/core/types"
)

const (
	// TypeItemTransfer mirrors the multi-token TransferSingle log.
	TypeItemTransfer = "items.transfer_single"
	// TypeItemApprovalForAll is emitted when an operator approval changes.
	TypeItemApprovalForAll = "items.approval_for_all"
)

type ItemTransfer struct {
	Operator common.Address
	From     common.Address
	To       common.Address
	ID       *big.Int
	Amount   *big.Int
}

func (ItemTransfer) EventType() string { return TypeItemTransfer }

func (e ItemTransfer) Event() *types.Event {
	return &types.Event{
		Type: TypeItemTransfer,
		Attributes: map[string]string{
			"operator": formatAddress(e.Operator),
			"from":     formatAddress(e.From),
			"to":       formatAddress(e.To),
			"id":       formatAmount(e.ID),
			"amount":   formatAmount(e.Amount),
		},
	}
}

type ItemApprovalForAll struct {
	Owner    common.Address
	Operator common.Address
	Approved bool
}

func (ItemApprovalForAll) EventType() string { return TypeItemApprovalForAll }

func (e ItemApprovalForAll) Event() *types.Event {
	return &types.Event{
		Type: TypeItemApprovalForAll,
		Attributes: map[string]string{
			"owner":    formatAddress(e.Owner),
			"operator": formatAddress(e.Operator),
			"approved": strconv.FormatBool(e.Approved),
		},
	}
}
