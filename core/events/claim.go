package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"milkfactory/core/types"
)

const (
	// TypeDailyClaim is emitted once per successful pet claim and carries the
	// resolved reward so downstream fulfilment and auditors can replay it.
	TypeDailyClaim = "itemfactory.daily_claim"
)

type DailyClaim struct {
	Caller    common.Address
	Recipient common.Address
	PetID     *big.Int
	Type      string
	Rarity    string
	Roll      uint64
	Min       *big.Int
	Max       *big.Int
	IDs       []*big.Int
	GrantedID *big.Int
	Quantity  *big.Int
	ClaimedAt uint64
}

func (DailyClaim) EventType() string { return TypeDailyClaim }

func (e DailyClaim) Event() *types.Event {
	attrs := map[string]string{
		"caller":    formatAddress(e.Caller),
		"recipient": formatAddress(e.Recipient),
		"petId":     formatAmount(e.PetID),
		"type":      e.Type,
		"rarity":    e.Rarity,
		"roll":      strconv.FormatUint(e.Roll, 10),
		"min":       formatAmount(e.Min),
		"max":       formatAmount(e.Max),
		"ids":       formatIDs(e.IDs),
		"quantity":  formatAmount(e.Quantity),
		"claimedAt": strconv.FormatUint(e.ClaimedAt, 10),
	}
	if e.GrantedID != nil {
		attrs["grantedId"] = e.GrantedID.String()
	}
	return &types.Event{Type: TypeDailyClaim, Attributes: attrs}
}
