package rewards

import (
	"fmt"
	"strconv"
	"strings"
)

// RewardType selects which kind of asset a claim grants.
type RewardType uint8

const (
	RewardItems RewardType = iota
	RewardMilk
	RewardBox
	rewardTypeCount
)

var rewardTypeNames = [...]string{"ITEMS", "MILK", "BOX"}

func (t RewardType) Valid() bool { return t < rewardTypeCount }

func (t RewardType) String() string {
	if !t.Valid() {
		return "UNKNOWN(" + strconv.Itoa(int(t)) + ")"
	}
	return rewardTypeNames[t]
}

// RewardTypes lists every reward type in declaration order.
func RewardTypes() []RewardType {
	return []RewardType{RewardItems, RewardMilk, RewardBox}
}

// ParseRewardType accepts a case-insensitive name or the numeric index.
func ParseRewardType(value string) (RewardType, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	for i, name := range rewardTypeNames {
		if trimmed == name {
			return RewardType(i), nil
		}
	}
	if n, err := strconv.ParseUint(trimmed, 10, 8); err == nil && RewardType(n).Valid() {
		return RewardType(n), nil
	}
	return 0, fmt.Errorf("%w: type %q", ErrInvalidRewardKey, value)
}

// RewardRarity is one of the five ordered quality tiers.
type RewardRarity uint8

const (
	RarityCommon RewardRarity = iota
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
	rarityCount
)

var rarityNames = [...]string{"COMMON", "UNCOMMON", "RARE", "EPIC", "LEGENDARY"}

func (r RewardRarity) Valid() bool { return r < rarityCount }

func (r RewardRarity) String() string {
	if !r.Valid() {
		return "UNKNOWN(" + strconv.Itoa(int(r)) + ")"
	}
	return rarityNames[r]
}

// Rarities lists every tier from most to least common.
func Rarities() []RewardRarity {
	return []RewardRarity{RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary}
}

// ParseRarity accepts a case-insensitive name or the numeric index.
func ParseRarity(value string) (RewardRarity, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	for i, name := range rarityNames {
		if trimmed == name {
			return RewardRarity(i), nil
		}
	}
	if n, err := strconv.ParseUint(trimmed, 10, 8); err == nil && RewardRarity(n).Valid() {
		return RewardRarity(n), nil
	}
	return 0, fmt.Errorf("%w: rarity %q", ErrInvalidRewardKey, value)
}
