package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"milkfactory/core/types"
)

const (
	// TypeRarityRollsUpdated is emitted when the rarity threshold table changes.
	TypeRarityRollsUpdated = "rewards.rolls.updated"
	// TypeRewardUpdated is emitted when a catalog entry is written.
	TypeRewardUpdated = "rewards.entry.updated"
	// TypeTypeWeightsUpdated is emitted when the reward type weighting changes.
	TypeTypeWeightsUpdated = "rewards.weights.updated"
)

type RarityRollsUpdated struct {
	Caller    common.Address
	Common    uint64
	Uncommon  uint64
	Rare      uint64
	Epic      uint64
	Legendary uint64
	MaxRoll   uint64
}

func (RarityRollsUpdated) EventType() string { return TypeRarityRollsUpdated }

func (e RarityRollsUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeRarityRollsUpdated,
		Attributes: map[string]string{
			"caller":    formatAddress(e.Caller),
			"common":    strconv.FormatUint(e.Common, 10),
			"uncommon":  strconv.FormatUint(e.Uncommon, 10),
			"rare":      strconv.FormatUint(e.Rare, 10),
			"epic":      strconv.FormatUint(e.Epic, 10),
			"legendary": strconv.FormatUint(e.Legendary, 10),
			"maxRoll":   strconv.FormatUint(e.MaxRoll, 10),
		},
	}
}

type RewardUpdated struct {
	Caller common.Address
	Type   string
	Rarity string
	Min    *big.Int
	Max    *big.Int
	IDs    []*big.Int
}

func (RewardUpdated) EventType() string { return TypeRewardUpdated }

func (e RewardUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeRewardUpdated,
		Attributes: map[string]string{
			"caller": formatAddress(e.Caller),
			"type":   e.Type,
			"rarity": e.Rarity,
			"min":    formatAmount(e.Min),
			"max":    formatAmount(e.Max),
			"ids":    formatIDs(e.IDs),
		},
	}
}

type TypeWeightsUpdated struct {
	Caller common.Address
	Items  uint64
	Milk   uint64
	Box    uint64
}

func (TypeWeightsUpdated) EventType() string { return TypeTypeWeightsUpdated }

func (e TypeWeightsUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeTypeWeightsUpdated,
		Attributes: map[string]string{
			"caller": formatAddress(e.Caller),
			"items":  strconv.FormatUint(e.Items, 10),
			"milk":   strconv.FormatUint(e.Milk, 10),
			"box":    strconv.FormatUint(e.Box, 10),
		},
	}
}
