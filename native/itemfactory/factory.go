package itemfactory

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"milkfactory/core/events"
	"milkfactory/core/state"
	"milkfactory/native/access"
	nativecommon "milkfactory/native/common"
	"milkfactory/native/items"
	"milkfactory/native/milk"
	"milkfactory/native/rewards"
)

// ClaimCooldown is the minimum time between two claims for the same pet.
const ClaimCooldown = 24 * time.Hour

// DefaultAddress is the factory's own account when none is configured. It is
// the operator recorded on item mints and must hold CONTRACT on the Milk
// ledger for MILK rewards to be fulfilled.
var DefaultAddress = common.BytesToAddress(ethcrypto.Keccak256([]byte("itemfactory"))[12:])

var (
	claimPrefix = []byte("itemfactory:claim:")
	weightsKey  = []byte("itemfactory:weights")
)

func claimKey(petID *big.Int) []byte {
	return append(append([]byte(nil), claimPrefix...), common.BigToHash(petID).Bytes()...)
}

type factoryState interface {
	Update(fn func(tx *state.Tx) error) error
	View(fn func(tx *state.Tx) error) error
}

// Config carries the deployment parameters of the factory.
type Config struct {
	BaseURI string
	Address common.Address
}

// ClaimResult describes what a successful claim granted.
type ClaimResult struct {
	Recipient common.Address
	PetID     *big.Int
	Type      rewards.RewardType
	Rarity    rewards.RewardRarity
	Roll      uint64
	Reward    rewards.Reward
	GrantedID *big.Int
	Quantity  *big.Int
	ClaimedAt uint64
}

// Factory resolves and fulfils daily pet claims.
type Factory struct {
	st         factoryState
	roles      *access.Registry
	catalog    *rewards.Catalog
	ledger     *milk.Ledger
	items      *items.Store
	cfg        Config
	weights    TypeWeights
	nowFn      func() int64
	interfaces nativecommon.InterfaceSet
}

// NewFactory wires the claim engine to its collaborators. roles must manage
// the itemfactory namespace and be the same registry the catalog uses.
func NewFactory(st factoryState, roles *access.Registry, catalog *rewards.Catalog, ledger *milk.Ledger, store *items.Store, cfg Config) *Factory {
	if cfg.Address == (common.Address{}) {
		cfg.Address = DefaultAddress
	}
	return &Factory{
		st:      st,
		roles:   roles,
		catalog: catalog,
		ledger:  ledger,
		items:   store,
		cfg:     cfg,
		weights: DefaultTypeWeights,
		nowFn: func() int64 {
			return time.Now().Unix()
		},
		interfaces: nativecommon.NewInterfaceSet(
			nativecommon.InterfaceERC1155,
			nativecommon.InterfaceERC1155Metadata,
			nativecommon.InterfaceIAccessControl,
		),
	}
}

// SetNowFunc overrides the time source used for deterministic testing.
func (f *Factory) SetNowFunc(now func() int64) {
	if now == nil {
		f.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	f.nowFn = now
}

func (f *Factory) now() uint64 {
	ts := f.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (f *Factory) Roles() *access.Registry   { return f.roles }
func (f *Factory) Catalog() *rewards.Catalog { return f.catalog }
func (f *Factory) Items() *items.Store       { return f.items }
func (f *Factory) Address() common.Address   { return f.cfg.Address }
func (f *Factory) BaseURI() string           { return f.cfg.BaseURI }

// MilkContractAddress returns the account of the ledger MILK rewards are
// minted on.
func (f *Factory) MilkContractAddress() common.Address {
	if f.ledger == nil {
		return common.Address{}
	}
	return f.ledger.Address()
}

// URI returns the metadata location for id.
func (f *Factory) URI(id *big.Int) string {
	if id == nil {
		id = new(big.Int)
	}
	return f.cfg.BaseURI + id.String()
}

// SupportsInterface reports whether the factory advertises id.
func (f *Factory) SupportsInterface(id nativecommon.InterfaceID) bool {
	return f.interfaces.Supports(id)
}

// SetTypeWeights replaces the reward type weighting. ADMIN only.
func (f *Factory) SetTypeWeights(caller common.Address, weights TypeWeights) error {
	if err := weights.Validate(); err != nil {
		return err
	}
	return f.st.Update(func(tx *state.Tx) error {
		if err := f.roles.Check(tx, access.AdminRole, caller); err != nil {
			return err
		}
		if err := tx.KVPut(weightsKey, weights); err != nil {
			return err
		}
		tx.Emit(events.TypeWeightsUpdated{Caller: caller, Items: weights.Items, Milk: weights.Milk, Box: weights.Box})
		return nil
	})
}

// TypeWeights returns the active reward type weighting.
func (f *Factory) TypeWeights() (TypeWeights, error) {
	var weights TypeWeights
	err := f.st.View(func(tx *state.Tx) error {
		var err error
		weights, err = f.loadWeights(tx)
		return err
	})
	return weights, err
}

// SetDefaultTypeWeights changes the weighting used until an admin stores
// one. It does not touch state.
func (f *Factory) SetDefaultTypeWeights(weights TypeWeights) error {
	if err := weights.Validate(); err != nil {
		return err
	}
	f.weights = weights
	return nil
}

func (f *Factory) loadWeights(tx *state.Tx) (TypeWeights, error) {
	var weights TypeWeights
	found, err := tx.KVGet(weightsKey, &weights)
	if err != nil {
		return TypeWeights{}, err
	}
	if !found {
		return f.weights, nil
	}
	return weights, nil
}

// LastClaim returns the timestamp of the last successful claim for petID.
func (f *Factory) LastClaim(petID *big.Int) (uint64, bool, error) {
	if err := checkPetID(petID); err != nil {
		return 0, false, err
	}
	var (
		last  uint64
		found bool
	)
	err := f.st.View(func(tx *state.Tx) error {
		var err error
		found, err = tx.KVGet(claimKey(petID), &last)
		return err
	})
	return last, found, err
}

// NextClaimAt returns the earliest timestamp at which petID may claim again.
// Pets that never claimed may claim immediately and report zero.
func (f *Factory) NextClaimAt(petID *big.Int) (uint64, error) {
	last, found, err := f.LastClaim(petID)
	if err != nil || !found {
		return 0, err
	}
	return last + uint64(ClaimCooldown/time.Second), nil
}

// Claim resolves and fulfils the daily reward for petID. The cooldown
// check, the fulfilment mint and the claim record commit together or not at
// all.
func (f *Factory) Claim(caller, recipient common.Address, petID, seed *big.Int) (*ClaimResult, error) {
	if recipient == (common.Address{}) {
		return nil, ErrZeroRecipient
	}
	if err := checkPetID(petID); err != nil {
		return nil, err
	}
	if _, err := nativecommon.NormalizeAmount(seed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	var result *ClaimResult
	err := f.st.Update(func(tx *state.Tx) error {
		if err := f.authorizeClaim(tx, caller); err != nil {
			return err
		}
		now := f.now()
		var last uint64
		found, err := tx.KVGet(claimKey(petID), &last)
		if err != nil {
			return err
		}
		cooldown := uint64(ClaimCooldown / time.Second)
		if found && (now < last || now-last < cooldown) {
			return fmt.Errorf("%w: pet %s may claim again at %d", ErrClaimTooSoon, petID, last+cooldown)
		}

		rolls, err := f.catalog.LoadRarityRolls(tx)
		if err != nil {
			return err
		}
		roll := rollFromSeed(seed, rolls.MaxRoll)
		rarity, err := rolls.Resolve(roll)
		if err != nil {
			return err
		}
		weights, err := f.loadWeights(tx)
		if err != nil {
			return err
		}
		rewardType := pickType(weights, derive(seed, petID, domainType))
		reward, err := rewards.LoadReward(tx, rewardType, rarity)
		if err != nil {
			return err
		}
		if !reward.Configured() {
			return fmt.Errorf("%w: %s/%s", ErrNoRewardConfigured, rewardType, rarity)
		}

		quantity := pickQuantity(reward, derive(seed, petID, domainQuantity))
		var grantedID *big.Int
		switch rewardType {
		case rewards.RewardMilk:
			if f.ledger == nil {
				return fmt.Errorf("itemfactory: milk ledger not configured")
			}
			if err := f.ledger.ApplyGameMint(tx, f.cfg.Address, recipient, quantity); err != nil {
				return err
			}
		default:
			grantedID = pickID(reward, derive(seed, petID, domainID))
			if err := f.items.ApplyMint(tx, f.cfg.Address, recipient, grantedID, quantity); err != nil {
				return err
			}
		}

		if err := tx.KVPut(claimKey(petID), now); err != nil {
			return err
		}
		result = &ClaimResult{
			Recipient: recipient,
			PetID:     new(big.Int).Set(petID),
			Type:      rewardType,
			Rarity:    rarity,
			Roll:      roll,
			Reward:    reward,
			GrantedID: grantedID,
			Quantity:  quantity,
			ClaimedAt: now,
		}
		tx.Emit(events.DailyClaim{
			Caller:    caller,
			Recipient: recipient,
			PetID:     result.PetID,
			Type:      rewardType.String(),
			Rarity:    rarity.String(),
			Roll:      roll,
			Min:       reward.Min,
			Max:       reward.Max,
			IDs:       reward.IDs,
			GrantedID: grantedID,
			Quantity:  quantity,
			ClaimedAt: now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// authorizeClaim admits CONTRACT holders (the pet collection) and the owner.
func (f *Factory) authorizeClaim(tx *state.Tx, caller common.Address) error {
	err := f.roles.Check(tx, access.ContractRole, caller)
	if err == nil {
		return nil
	}
	if f.roles.Check(tx, access.DefaultAdminRole, caller) == nil {
		return nil
	}
	return err
}

func checkPetID(petID *big.Int) error {
	if _, err := nativecommon.NormalizeAmount(petID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPetID, err)
	}
	return nil
}

// ParseUint256 parses a decimal or 0x-prefixed hex integer, the form pet ids
// and seeds arrive in over the wire.
func ParseUint256(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	base := 10
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		trimmed = trimmed[2:]
		base = 16
	}
	n, ok := new(big.Int).SetString(trimmed, base)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", value)
	}
	return nativecommon.NormalizeAmount(n)
}
