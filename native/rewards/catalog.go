package rewards

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"milkfactory/core/events"
	"milkfactory/core/state"
	"milkfactory/native/access"
)

var (
	rollsKey          = []byte("rewards:rolls")
	rewardEntryPrefix = []byte("rewards:entry:")
)

func rewardKey(t RewardType, r RewardRarity) []byte {
	return append(append([]byte(nil), rewardEntryPrefix...), byte(t), ':', byte(r))
}

type catalogState interface {
	Update(fn func(tx *state.Tx) error) error
	View(fn func(tx *state.Tx) error) error
}

// Catalog stores the rarity threshold table and the reward entry for every
// (type, rarity) pair. Writes require ADMIN.
type Catalog struct {
	st       catalogState
	roles    *access.Registry
	defaults RarityRolls
}

// NewCatalog creates a catalog guarded by roles.
func NewCatalog(st catalogState, roles *access.Registry) *Catalog {
	return &Catalog{st: st, roles: roles, defaults: DefaultRarityRolls}
}

// SetDefaultRarityRolls changes the table reported until an admin stores
// one. It does not touch state.
func (c *Catalog) SetDefaultRarityRolls(rolls RarityRolls) error {
	if err := rolls.Validate(); err != nil {
		return err
	}
	c.defaults = rolls
	return nil
}

// SetRarityRolls replaces the threshold table. On validation failure the
// previous table is left untouched.
func (c *Catalog) SetRarityRolls(caller common.Address, rolls RarityRolls) error {
	return c.st.Update(func(tx *state.Tx) error {
		if err := c.roles.Check(tx, access.AdminRole, caller); err != nil {
			return err
		}
		if err := rolls.Validate(); err != nil {
			return err
		}
		if err := tx.KVPut(rollsKey, rolls); err != nil {
			return err
		}
		tx.Emit(events.RarityRollsUpdated{
			Caller:    caller,
			Common:    rolls.Common,
			Uncommon:  rolls.Uncommon,
			Rare:      rolls.Rare,
			Epic:      rolls.Epic,
			Legendary: rolls.Legendary,
			MaxRoll:   rolls.MaxRoll,
		})
		return nil
	})
}

// RarityRolls returns the active threshold table.
func (c *Catalog) RarityRolls() (RarityRolls, error) {
	var rolls RarityRolls
	err := c.st.View(func(tx *state.Tx) error {
		var err error
		rolls, err = c.LoadRarityRolls(tx)
		return err
	})
	return rolls, err
}

// LoadRarityRolls reads the threshold table inside tx, falling back to the
// catalog defaults when none has been stored.
func (c *Catalog) LoadRarityRolls(tx *state.Tx) (RarityRolls, error) {
	var rolls RarityRolls
	found, err := tx.KVGet(rollsKey, &rolls)
	if err != nil {
		return RarityRolls{}, err
	}
	if !found {
		return c.defaults, nil
	}
	return rolls, nil
}

// ResolveRarity maps roll onto a tier using the active table.
func (c *Catalog) ResolveRarity(roll uint64) (RewardRarity, error) {
	rolls, err := c.RarityRolls()
	if err != nil {
		return 0, err
	}
	return rolls.Resolve(roll)
}

// SetReward decodes and validates payload and stores its canonical encoding
// under (t, r), replacing any earlier entry.
func (c *Catalog) SetReward(caller common.Address, t RewardType, r RewardRarity, payload []byte) error {
	if !t.Valid() || !r.Valid() {
		return fmt.Errorf("%w: %s/%s", ErrInvalidRewardKey, t, r)
	}
	return c.st.Update(func(tx *state.Tx) error {
		if err := c.roles.Check(tx, access.AdminRole, caller); err != nil {
			return err
		}
		reward, err := DecodeReward(payload)
		if err != nil {
			return err
		}
		if err := reward.Validate(); err != nil {
			return err
		}
		canonical, err := EncodeReward(reward)
		if err != nil {
			return err
		}
		if err := tx.KVPut(rewardKey(t, r), canonical); err != nil {
			return err
		}
		tx.Emit(events.RewardUpdated{
			Caller: caller,
			Type:   t.String(),
			Rarity: r.String(),
			Min:    new(big.Int).Set(reward.Min),
			Max:    new(big.Int).Set(reward.Max),
			IDs:    reward.IDs,
		})
		return nil
	})
}

// RawReward returns the stored payload bytes, or nil when the key was never
// configured.
func (c *Catalog) RawReward(t RewardType, r RewardRarity) ([]byte, error) {
	if !t.Valid() || !r.Valid() {
		return nil, fmt.Errorf("%w: %s/%s", ErrInvalidRewardKey, t, r)
	}
	var payload []byte
	err := c.st.View(func(tx *state.Tx) error {
		var err error
		payload, err = loadRaw(tx, t, r)
		return err
	})
	return payload, err
}

// Reward returns the decoded entry for (t, r). Unconfigured keys yield the
// zero Reward and no error; callers treat that as "no reward configured".
func (c *Catalog) Reward(t RewardType, r RewardRarity) (Reward, error) {
	if !t.Valid() || !r.Valid() {
		return Reward{}, fmt.Errorf("%w: %s/%s", ErrInvalidRewardKey, t, r)
	}
	var reward Reward
	err := c.st.View(func(tx *state.Tx) error {
		var err error
		reward, err = LoadReward(tx, t, r)
		return err
	})
	return reward, err
}

// LoadReward reads the decoded entry for (t, r) inside tx.
func LoadReward(tx *state.Tx, t RewardType, r RewardRarity) (Reward, error) {
	payload, err := loadRaw(tx, t, r)
	if err != nil || len(payload) == 0 {
		return Reward{}, err
	}
	return DecodeReward(payload)
}

func loadRaw(tx *state.Tx, t RewardType, r RewardRarity) ([]byte, error) {
	var payload []byte
	if _, err := tx.KVGet(rewardKey(t, r), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
