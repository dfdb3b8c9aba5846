package itemfactory_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"milkfactory/core/events"
	"milkfactory/core/state"
	"milkfactory/native/access"
	nativecommon "milkfactory/native/common"
	"milkfactory/native/itemfactory"
	"milkfactory/native/items"
	"milkfactory/native/milk"
	"milkfactory/native/rewards"
	"milkfactory/storage"
)

const baseURI = "https://assets.example.com/"

var (
	owner    = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	admin    = common.HexToAddress("0x00000000000000000000000000000000000000d2")
	petProxy = common.HexToAddress("0x00000000000000000000000000000000000000d3")
	user     = common.HexToAddress("0x00000000000000000000000000000000000000d4")
)

type capturingEmitter struct {
	events []events.Event
}

func (c *capturingEmitter) Emit(e events.Event) {
	c.events = append(c.events, e)
}

func (c *capturingEmitter) claims() []events.DailyClaim {
	var out []events.DailyClaim
	for _, evt := range c.events {
		if claim, ok := evt.(events.DailyClaim); ok {
			out = append(out, claim)
		}
	}
	return out
}

type fixture struct {
	factory *itemfactory.Factory
	ledger  *milk.Ledger
	items   *items.Store
	emitter *capturingEmitter
	clock   int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	manager := state.NewManager(db)
	emitter := &capturingEmitter{}
	manager.SetEmitter(emitter)

	milkRoles := access.NewRegistry(manager, access.NamespaceMilk)
	factoryRoles := access.NewRegistry(manager, access.NamespaceItemFactory)
	for _, registry := range []*access.Registry{milkRoles, factoryRoles} {
		if err := registry.Bootstrap(owner); err != nil {
			t.Fatalf("bootstrap %s: %v", registry.Namespace(), err)
		}
	}
	if err := factoryRoles.GrantRole(owner, access.AdminRole, admin); err != nil {
		t.Fatalf("grant admin: %v", err)
	}
	if err := factoryRoles.GrantRole(owner, access.ContractRole, petProxy); err != nil {
		t.Fatalf("grant contract: %v", err)
	}

	ledger := milk.NewLedger(manager, milkRoles, milk.Config{Name: "Milk", Symbol: "MLK"})
	store := items.NewStore(manager)
	catalog := rewards.NewCatalog(manager, factoryRoles)
	factory := itemfactory.NewFactory(manager, factoryRoles, catalog, ledger, store, itemfactory.Config{BaseURI: baseURI})
	if err := milkRoles.GrantRole(owner, access.ContractRole, factory.Address()); err != nil {
		t.Fatalf("grant factory contract role: %v", err)
	}

	fx := &fixture{factory: factory, ledger: ledger, items: store, emitter: emitter, clock: 1_700_000_000}
	factory.SetNowFunc(func() int64 { return fx.clock })
	emitter.events = nil
	return fx
}

func (fx *fixture) configure(t *testing.T, types ...rewards.RewardType) {
	t.Helper()
	payload, err := rewards.EncodeReward(rewards.Reward{
		Min: big.NewInt(1),
		Max: big.NewInt(100),
		IDs: []*big.Int{big.NewInt(1), big.NewInt(2)},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for _, typ := range types {
		for _, rarity := range rewards.Rarities() {
			if err := fx.factory.Catalog().SetReward(admin, typ, rarity, payload); err != nil {
				t.Fatalf("set reward %s/%s: %v", typ, rarity, err)
			}
		}
	}
	fx.emitter.events = nil
}

func TestMetadata(t *testing.T) {
	fx := newFixture(t)
	if fx.factory.MilkContractAddress() != fx.ledger.Address() {
		t.Fatalf("unexpected milk address %s", fx.factory.MilkContractAddress().Hex())
	}
	if fx.factory.BaseURI() != baseURI {
		t.Fatalf("unexpected base uri %q", fx.factory.BaseURI())
	}
	if got := fx.factory.URI(big.NewInt(42)); got != baseURI+"42" {
		t.Fatalf("unexpected uri %q", got)
	}
}

func TestSupportsInterface(t *testing.T) {
	fx := newFixture(t)
	for _, raw := range []string{"0x01ffc9a7", "0xd9b67a26"} {
		id, err := nativecommon.ParseInterfaceID(raw)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if !fx.factory.SupportsInterface(id) {
			t.Fatalf("expected %s to be supported", raw)
		}
	}
	for _, raw := range []string{"0x01fdcaa7", "0xffffffff", "0x36372b07"} {
		id, _ := nativecommon.ParseInterfaceID(raw)
		if fx.factory.SupportsInterface(id) {
			t.Fatalf("expected %s to be unsupported", raw)
		}
	}
}

func TestClaimOncePerDay(t *testing.T) {
	fx := newFixture(t)
	fx.configure(t, rewards.RewardItems, rewards.RewardMilk)
	pet := big.NewInt(1)
	start := fx.clock

	if _, err := fx.factory.Claim(owner, user, pet, big.NewInt(12)); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if len(fx.emitter.claims()) != 1 {
		t.Fatalf("expected daily claim event")
	}

	fx.clock = start + 1
	if _, err := fx.factory.Claim(owner, user, pet, big.NewInt(11)); !errors.Is(err, itemfactory.ErrClaimTooSoon) {
		t.Fatalf("expected ErrClaimTooSoon, got %v", err)
	}
	fx.clock = start + 24*60*60 - 1
	if _, err := fx.factory.Claim(owner, user, pet, big.NewInt(11)); !errors.Is(err, itemfactory.ErrClaimTooSoon) {
		t.Fatalf("expected ErrClaimTooSoon one second early, got %v", err)
	}

	fx.clock = start + 24*60*60
	if _, err := fx.factory.Claim(owner, user, pet, big.NewInt(12)); err != nil {
		t.Fatalf("claim after cooldown: %v", err)
	}
	if len(fx.emitter.claims()) != 2 {
		t.Fatalf("expected two daily claim events, got %d", len(fx.emitter.claims()))
	}
	last, found, err := fx.factory.LastClaim(pet)
	if err != nil || !found || last != uint64(fx.clock) {
		t.Fatalf("unexpected last claim %d (found=%v err=%v)", last, found, err)
	}
	next, err := fx.factory.NextClaimAt(pet)
	if err != nil || next != uint64(fx.clock)+24*60*60 {
		t.Fatalf("unexpected next claim %d (err=%v)", next, err)
	}
}

func TestCooldownIsPerPet(t *testing.T) {
	fx := newFixture(t)
	fx.configure(t, rewards.RewardItems, rewards.RewardMilk)
	if _, err := fx.factory.Claim(petProxy, user, big.NewInt(1), big.NewInt(3)); err != nil {
		t.Fatalf("claim pet 1: %v", err)
	}
	if _, err := fx.factory.Claim(petProxy, user, big.NewInt(2), big.NewInt(3)); err != nil {
		t.Fatalf("claim pet 2: %v", err)
	}
}

func TestClaimRequiresContractOrOwner(t *testing.T) {
	fx := newFixture(t)
	fx.configure(t, rewards.RewardItems, rewards.RewardMilk)
	if _, err := fx.factory.Claim(user, user, big.NewInt(1), big.NewInt(1)); !errors.Is(err, itemfactory.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, found, _ := fx.factory.LastClaim(big.NewInt(1)); found {
		t.Fatalf("rejected claim must not record a timestamp")
	}
}

func TestClaimFulfilsItems(t *testing.T) {
	fx := newFixture(t)
	fx.configure(t, rewards.RewardItems)
	if err := fx.factory.SetTypeWeights(admin, itemfactory.TypeWeights{Items: 1}); err != nil {
		t.Fatalf("weights: %v", err)
	}

	result, err := fx.factory.Claim(petProxy, user, big.NewInt(7), big.NewInt(12))
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if result.Type != rewards.RewardItems || result.Rarity != rewards.RarityCommon || result.Roll != 12 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Quantity.Cmp(big.NewInt(1)) < 0 || result.Quantity.Cmp(big.NewInt(100)) > 0 {
		t.Fatalf("quantity %s outside [1, 100]", result.Quantity)
	}
	if id := result.GrantedID.Int64(); id != 1 && id != 2 {
		t.Fatalf("granted id %d not in id set", id)
	}
	balance, err := fx.items.BalanceOf(user, result.GrantedID)
	if err != nil || balance.Cmp(result.Quantity) != 0 {
		t.Fatalf("expected %s items, got %v (err=%v)", result.Quantity, balance, err)
	}
	supply, _ := fx.items.TotalSupply(result.GrantedID)
	if supply.Cmp(result.Quantity) != 0 {
		t.Fatalf("expected supply %s, got %s", result.Quantity, supply)
	}

	claims := fx.emitter.claims()
	if len(claims) != 1 || claims[0].Recipient != user || claims[0].Type != "ITEMS" || claims[0].Rarity != "COMMON" {
		t.Fatalf("unexpected claim events %+v", claims)
	}
}

func TestClaimFulfilsMilk(t *testing.T) {
	fx := newFixture(t)
	fx.configure(t, rewards.RewardMilk)
	if err := fx.factory.SetTypeWeights(admin, itemfactory.TypeWeights{Milk: 1}); err != nil {
		t.Fatalf("weights: %v", err)
	}
	result, err := fx.factory.Claim(petProxy, user, big.NewInt(9), big.NewInt(99))
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if result.Type != rewards.RewardMilk || result.Rarity != rewards.RarityLegendary {
		t.Fatalf("unexpected result %+v", result)
	}
	balance, _ := fx.ledger.BalanceOf(user)
	supply, _ := fx.ledger.TotalSupply()
	if balance.Cmp(result.Quantity) != 0 || supply.Cmp(result.Quantity) != 0 {
		t.Fatalf("expected %s MLK minted, balance %s supply %s", result.Quantity, balance, supply)
	}
}

func TestClaimWithoutConfiguredRewardFails(t *testing.T) {
	fx := newFixture(t)
	pet := big.NewInt(5)
	if _, err := fx.factory.Claim(owner, user, pet, big.NewInt(1)); !errors.Is(err, itemfactory.ErrNoRewardConfigured) {
		t.Fatalf("expected ErrNoRewardConfigured, got %v", err)
	}
	if _, found, _ := fx.factory.LastClaim(pet); found {
		t.Fatalf("cooldown must not be consumed")
	}
	if len(fx.emitter.events) != 0 {
		t.Fatalf("failed claim must not emit events")
	}

	// Once configured the same pet may claim straight away.
	fx.configure(t, rewards.RewardItems, rewards.RewardMilk)
	if _, err := fx.factory.Claim(owner, user, pet, big.NewInt(1)); err != nil {
		t.Fatalf("claim: %v", err)
	}
}

func TestClaimRollsBackWhenMilkMintIsRejected(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	manager := state.NewManager(db)
	milkRoles := access.NewRegistry(manager, access.NamespaceMilk)
	factoryRoles := access.NewRegistry(manager, access.NamespaceItemFactory)
	_ = milkRoles.Bootstrap(owner)
	_ = factoryRoles.Bootstrap(owner)
	_ = factoryRoles.GrantRole(owner, access.AdminRole, admin)

	ledger := milk.NewLedger(manager, milkRoles, milk.Config{})
	catalog := rewards.NewCatalog(manager, factoryRoles)
	factory := itemfactory.NewFactory(manager, factoryRoles, catalog, ledger, items.NewStore(manager), itemfactory.Config{})
	payload, _ := rewards.EncodeReward(rewards.Reward{Min: big.NewInt(5), Max: big.NewInt(5), IDs: []*big.Int{big.NewInt(1)}})
	for _, rarity := range rewards.Rarities() {
		if err := catalog.SetReward(admin, rewards.RewardMilk, rarity, payload); err != nil {
			t.Fatalf("set reward: %v", err)
		}
	}
	if err := factory.SetTypeWeights(admin, itemfactory.TypeWeights{Milk: 1}); err != nil {
		t.Fatalf("weights: %v", err)
	}

	// The factory account was never granted CONTRACT on the ledger.
	if _, err := factory.Claim(owner, user, big.NewInt(1), big.NewInt(1)); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized from the ledger, got %v", err)
	}
	if _, found, _ := factory.LastClaim(big.NewInt(1)); found {
		t.Fatalf("failed fulfilment must not record the claim")
	}
}

func TestSetTypeWeights(t *testing.T) {
	fx := newFixture(t)
	weights, err := fx.factory.TypeWeights()
	if err != nil || weights != itemfactory.DefaultTypeWeights {
		t.Fatalf("expected default weights, got %+v (err=%v)", weights, err)
	}
	if err := fx.factory.SetTypeWeights(owner, itemfactory.TypeWeights{Box: 1}); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := fx.factory.SetTypeWeights(admin, itemfactory.TypeWeights{}); !errors.Is(err, itemfactory.ErrInvalidWeights) {
		t.Fatalf("expected ErrInvalidWeights, got %v", err)
	}
	if err := fx.factory.SetTypeWeights(admin, itemfactory.TypeWeights{Items: 3, Box: 1}); err != nil {
		t.Fatalf("set weights: %v", err)
	}
	weights, _ = fx.factory.TypeWeights()
	if weights.Items != 3 || weights.Box != 1 || weights.Milk != 0 {
		t.Fatalf("unexpected weights %+v", weights)
	}
}

func TestClaimIsDeterministicForSeed(t *testing.T) {
	first := newFixture(t)
	second := newFixture(t)
	first.configure(t, rewards.RewardItems, rewards.RewardMilk)
	second.configure(t, rewards.RewardItems, rewards.RewardMilk)

	a, err := first.factory.Claim(owner, user, big.NewInt(77), big.NewInt(123456789))
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	b, err := second.factory.Claim(owner, user, big.NewInt(77), big.NewInt(123456789))
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if a.Type != b.Type || a.Rarity != b.Rarity || a.Quantity.Cmp(b.Quantity) != 0 {
		t.Fatalf("same seed produced different rewards: %+v vs %+v", a, b)
	}
}

func TestParseUint256(t *testing.T) {
	v, err := itemfactory.ParseUint256("0xff")
	if err != nil || v.Int64() != 255 {
		t.Fatalf("hex: %v %v", v, err)
	}
	if _, err := itemfactory.ParseUint256("-1"); err == nil {
		t.Fatalf("expected negative value to be rejected")
	}
}
