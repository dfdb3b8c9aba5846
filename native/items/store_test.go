package items_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"milkfactory/core/state"
	"milkfactory/native/items"
	"milkfactory/storage"
)

var (
	factory = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	holder  = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	other   = common.HexToAddress("0x00000000000000000000000000000000000000f2")
)

func newTestStore(t *testing.T) (*items.Store, *state.Manager) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	manager := state.NewManager(db)
	return items.NewStore(manager), manager
}

func mint(t *testing.T, store *items.Store, manager *state.Manager, to common.Address, id, amount int64) {
	t.Helper()
	err := manager.Update(func(tx *state.Tx) error {
		return store.ApplyMint(tx, factory, to, big.NewInt(id), big.NewInt(amount))
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
}

func supplyOf(t *testing.T, store *items.Store, id int64) int64 {
	t.Helper()
	supply, err := store.TotalSupply(big.NewInt(id))
	if err != nil {
		t.Fatalf("supply: %v", err)
	}
	return supply.Int64()
}

func TestTotalSupplyTracksMints(t *testing.T) {
	store, manager := newTestStore(t)
	mint(t, store, manager, holder, 0, 2)
	mint(t, store, manager, other, 1, 100)

	if got := supplyOf(t, store, 0); got != 2 {
		t.Fatalf("supply of 0: got %d", got)
	}
	if got := supplyOf(t, store, 1); got != 100 {
		t.Fatalf("supply of 1: got %d", got)
	}
}

func TestBurnReducesSupply(t *testing.T) {
	store, manager := newTestStore(t)
	mint(t, store, manager, holder, 0, 100)

	if err := store.Burn(holder, holder, big.NewInt(0), big.NewInt(20)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if got := supplyOf(t, store, 0); got != 80 {
		t.Fatalf("supply after burn: got %d", got)
	}
	if err := store.Burn(holder, holder, big.NewInt(0), big.NewInt(81)); !errors.Is(err, items.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := store.Burn(other, holder, big.NewInt(0), big.NewInt(1)); !errors.Is(err, items.ErrNotApproved) {
		t.Fatalf("expected ErrNotApproved, got %v", err)
	}
}

func TestExists(t *testing.T) {
	store, manager := newTestStore(t)
	mint(t, store, manager, holder, 0, 100)
	mint(t, store, manager, holder, 1, 20)
	mint(t, store, manager, holder, 2, 30)

	burns := []struct{ id, amount int64 }{{0, 20}, {1, 20}, {2, 29}}
	for _, b := range burns {
		if err := store.Burn(holder, holder, big.NewInt(b.id), big.NewInt(b.amount)); err != nil {
			t.Fatalf("burn %d: %v", b.id, err)
		}
	}

	want := map[int64]bool{0: true, 1: false, 2: true, 3: false}
	for id, expected := range want {
		exists, err := store.Exists(big.NewInt(id))
		if err != nil {
			t.Fatalf("exists: %v", err)
		}
		if exists != expected {
			t.Fatalf("exists(%d): got %v want %v", id, exists, expected)
		}
	}
}

func TestOperatorTransfer(t *testing.T) {
	store, manager := newTestStore(t)
	mint(t, store, manager, holder, 7, 10)

	if err := store.SafeTransferFrom(other, holder, other, big.NewInt(7), big.NewInt(4)); !errors.Is(err, items.ErrNotApproved) {
		t.Fatalf("expected ErrNotApproved, got %v", err)
	}
	if err := store.SetApprovalForAll(holder, holder, true); !errors.Is(err, items.ErrSelfApproval) {
		t.Fatalf("expected ErrSelfApproval, got %v", err)
	}
	if err := store.SetApprovalForAll(holder, other, true); err != nil {
		t.Fatalf("approve: %v", err)
	}
	approved, err := store.IsApprovedForAll(holder, other)
	if err != nil || !approved {
		t.Fatalf("expected approval (err=%v)", err)
	}
	if err := store.SafeTransferFrom(other, holder, other, big.NewInt(7), big.NewInt(4)); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	balances, err := store.BalanceOfBatch([]common.Address{holder, other}, []*big.Int{big.NewInt(7), big.NewInt(7)})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if balances[0].Int64() != 6 || balances[1].Int64() != 4 {
		t.Fatalf("unexpected balances %v", balances)
	}
	if got := supplyOf(t, store, 7); got != 10 {
		t.Fatalf("transfers must not change supply, got %d", got)
	}

	if err := store.SetApprovalForAll(holder, other, false); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if approved, _ := store.IsApprovedForAll(holder, other); approved {
		t.Fatalf("expected approval revoked")
	}
}
