package rewards

import "fmt"

// RarityRolls partitions [0, MaxRoll) into the five rarity bands.
type RarityRolls struct {
	Common    uint64
	Uncommon  uint64
	Rare      uint64
	Epic      uint64
	Legendary uint64
	MaxRoll   uint64
}

// DefaultRarityRolls is used until an admin configures the table.
var DefaultRarityRolls = RarityRolls{
	Common:    60,
	Uncommon:  80,
	Rare:      90,
	Epic:      98,
	Legendary: 99,
	MaxRoll:   100,
}

// Validate enforces common < uncommon < rare < epic < legendary <= maxRoll and
// names the first pair that breaks the ordering.
func (r RarityRolls) Validate() error {
	switch {
	case r.Common >= r.Uncommon:
		return fmt.Errorf("%w: common (%d) must be less than uncommon (%d)", ErrInvalidThresholds, r.Common, r.Uncommon)
	case r.Uncommon >= r.Rare:
		return fmt.Errorf("%w: uncommon (%d) must be less than rare (%d)", ErrInvalidThresholds, r.Uncommon, r.Rare)
	case r.Rare >= r.Epic:
		return fmt.Errorf("%w: rare (%d) must be less than epic (%d)", ErrInvalidThresholds, r.Rare, r.Epic)
	case r.Epic >= r.Legendary:
		return fmt.Errorf("%w: epic (%d) must be less than legendary (%d)", ErrInvalidThresholds, r.Epic, r.Legendary)
	case r.Legendary > r.MaxRoll:
		return fmt.Errorf("%w: legendary (%d) must be less than or equal to max roll (%d)", ErrInvalidThresholds, r.Legendary, r.MaxRoll)
	}
	return nil
}

// Resolve maps roll onto a tier using upper-exclusive band boundaries:
// below common is COMMON, below uncommon is UNCOMMON, below rare is RARE,
// below legendary is EPIC and everything else up to MaxRoll is LEGENDARY.
func (r RarityRolls) Resolve(roll uint64) (RewardRarity, error) {
	if roll >= r.MaxRoll {
		return 0, fmt.Errorf("%w: roll %d, max %d", ErrRollOutOfRange, roll, r.MaxRoll)
	}
	switch {
	case roll < r.Common:
		return RarityCommon, nil
	case roll < r.Uncommon:
		return RarityUncommon, nil
	case roll < r.Rare:
		return RarityRare, nil
	case roll < r.Legendary:
		return RarityEpic, nil
	default:
		return RarityLegendary, nil
	}
}
