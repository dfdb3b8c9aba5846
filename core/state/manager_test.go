package state

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"milkfactory/core/events"
	"milkfactory/storage"
)

type capturingEmitter struct {
	events []events.Event
}

func (c *capturingEmitter) Emit(e events.Event) {
	c.events = append(c.events, e)
}

func newTestManager(t *testing.T) (*Manager, *capturingEmitter) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	manager := NewManager(db)
	emitter := &capturingEmitter{}
	manager.SetEmitter(emitter)
	return manager, emitter
}

func TestUpdateCommitsWritesAndEvents(t *testing.T) {
	manager, emitter := newTestManager(t)
	user := common.HexToAddress("0x1111111111111111111111111111111111111111")

	err := manager.Update(func(tx *Tx) error {
		if err := tx.SetBalance("mlk", user, big.NewInt(100)); err != nil {
			return err
		}
		tx.Emit(events.TokenSupply{Token: "MLK", Total: big.NewInt(100)})
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected one event, got %d", len(emitter.events))
	}

	var balance *big.Int
	if err := manager.View(func(tx *Tx) error {
		var err error
		balance, err = tx.Balance("MLK", user)
		return err
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("unexpected balance: %s", balance)
	}
}

func TestUpdateDiscardsWritesOnError(t *testing.T) {
	manager, emitter := newTestManager(t)
	user := common.HexToAddress("0x2222222222222222222222222222222222222222")
	boom := errors.New("boom")

	err := manager.Update(func(tx *Tx) error {
		if err := tx.SetBalance("MLK", user, big.NewInt(5)); err != nil {
			return err
		}
		tx.Emit(events.TokenSupply{Token: "MLK"})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("expected no events after failed update")
	}
	_ = manager.View(func(tx *Tx) error {
		balance, err := tx.Balance("MLK", user)
		if err != nil {
			t.Fatalf("balance: %v", err)
		}
		if balance.Sign() != 0 {
			t.Fatalf("expected rollback, got balance %s", balance)
		}
		return nil
	})
}

func TestViewRejectsWrites(t *testing.T) {
	manager, _ := newTestManager(t)
	err := manager.View(func(tx *Tx) error {
		return tx.SetTotalSupply("MLK", big.NewInt(1))
	})
	if !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
}

func TestTxReadsItsOwnWrites(t *testing.T) {
	manager, _ := newTestManager(t)
	err := manager.Update(func(tx *Tx) error {
		if err := tx.KVPut([]byte("claim"), uint64(42)); err != nil {
			return err
		}
		var got uint64
		found, err := tx.KVGet([]byte("claim"), &got)
		if err != nil {
			return err
		}
		if !found || got != 42 {
			t.Fatalf("expected staged value, got %d (found=%v)", got, found)
		}
		if err := tx.KVDelete([]byte("claim")); err != nil {
			return err
		}
		found, err = tx.KVGet([]byte("claim"), &got)
		if err != nil {
			return err
		}
		if found {
			t.Fatalf("expected staged delete to hide value")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestRoleMembershipLifecycle(t *testing.T) {
	manager, _ := newTestManager(t)
	role := common.BytesToHash(ethcrypto.Keccak256([]byte("ADMIN_ROLE")))
	a := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	b := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	err := manager.Update(func(tx *Tx) error {
		for _, addr := range []common.Address{a, b, a} {
			if _, err := tx.SetRole("milk", role, addr); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("set role: %v", err)
	}

	_ = manager.View(func(tx *Tx) error {
		members, err := tx.RoleMembers("MILK", role)
		if err != nil {
			t.Fatalf("members: %v", err)
		}
		if len(members) != 2 || members[0] != b || members[1] != a {
			t.Fatalf("expected sorted unique members, got %v", members)
		}
		if tx.HasRole("itemfactory", role, a) {
			t.Fatalf("namespaces must be isolated")
		}
		return nil
	})

	err = manager.Update(func(tx *Tx) error {
		removed, err := tx.RemoveRole("milk", role, a)
		if err != nil {
			return err
		}
		if !removed {
			t.Fatalf("expected removal")
		}
		removed, err = tx.RemoveRole("milk", role, a)
		if err != nil {
			return err
		}
		if removed {
			t.Fatalf("expected second removal to be a no-op")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("remove role: %v", err)
	}
}

func TestNegativeBalanceRejected(t *testing.T) {
	manager, _ := newTestManager(t)
	err := manager.Update(func(tx *Tx) error {
		return tx.SetBalance("MLK", common.Address{1}, big.NewInt(-1))
	})
	if err == nil {
		t.Fatalf("expected negative balance to be rejected")
	}
}
