package itemfactory

import (
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"milkfactory/native/rewards"
)

// Derivation domains. Each draw hashes the seed and pet id with its own tag
// so the type, quantity and id picks are independent of the rarity roll.
const (
	domainType     = "type"
	domainQuantity = "quantity"
	domainID       = "id"
)

func toWord(v *big.Int) *uint256.Int {
	word, overflow := uint256.FromBig(v)
	if overflow {
		return new(uint256.Int)
	}
	return word
}

func derive(seed, petID *big.Int, domain string) *uint256.Int {
	seedWord := toWord(seed).Bytes32()
	petWord := toWord(petID).Bytes32()
	digest := ethcrypto.Keccak256(seedWord[:], petWord[:], []byte(domain))
	return new(uint256.Int).SetBytes(digest)
}

// rollFromSeed reduces seed into [0, maxRoll).
func rollFromSeed(seed *big.Int, maxRoll uint64) uint64 {
	if maxRoll == 0 {
		return 0
	}
	return new(uint256.Int).Mod(toWord(seed), uint256.NewInt(maxRoll)).Uint64()
}

func pickType(weights TypeWeights, draw *uint256.Int) rewards.RewardType {
	total := weights.total()
	point := new(uint256.Int).Mod(draw, uint256.NewInt(total)).Uint64()
	if point < weights.Items {
		return rewards.RewardItems
	}
	point -= weights.Items
	if point < weights.Milk {
		return rewards.RewardMilk
	}
	return rewards.RewardBox
}

// pickQuantity draws a value in [min, max].
func pickQuantity(reward rewards.Reward, draw *uint256.Int) *big.Int {
	lo := toWord(reward.Min)
	hi := toWord(reward.Max)
	span := new(uint256.Int).Sub(hi, lo)
	if span.Eq(new(uint256.Int).SetAllOne()) {
		return draw.ToBig()
	}
	span.AddUint64(span, 1)
	offset := new(uint256.Int).Mod(draw, span)
	return new(uint256.Int).Add(lo, offset).ToBig()
}

func pickID(reward rewards.Reward, draw *uint256.Int) *big.Int {
	index := new(uint256.Int).Mod(draw, uint256.NewInt(uint64(len(reward.IDs)))).Uint64()
	return new(big.Int).Set(reward.IDs[index])
}
