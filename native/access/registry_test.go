package access_test

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"milkfactory/core/events"
	"milkfactory/core/state"
	"milkfactory/native/access"
	"milkfactory/storage"
)

type capturingEmitter struct {
	events []events.Event
}

func (c *capturingEmitter) Emit(e events.Event) {
	c.events = append(c.events, e)
}

var (
	owner  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	admin  = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	master = common.HexToAddress("0x00000000000000000000000000000000000000a3")
)

func newTestRegistry(t *testing.T) (*access.Registry, *capturingEmitter) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	manager := state.NewManager(db)
	emitter := &capturingEmitter{}
	manager.SetEmitter(emitter)
	registry := access.NewRegistry(manager, access.NamespaceMilk)
	if err := registry.Bootstrap(owner); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return registry, emitter
}

func TestRoleIdentifiersMatchKeccakNames(t *testing.T) {
	want := common.HexToHash("0xa49807205ce4d355092ef5a8a18f56e8913cf4a201fbe287825b095693c21775")
	if access.AdminRole.Hash() != want {
		t.Fatalf("unexpected ADMIN_ROLE id: %s", access.AdminRole.Hex())
	}
	if access.DefaultAdminRole.Hash() != (common.Hash{}) {
		t.Fatalf("default admin role must be zero")
	}
	if access.MasterRole.String() != "MASTER_ROLE" {
		t.Fatalf("unexpected role name %s", access.MasterRole)
	}
}

func TestParseRole(t *testing.T) {
	cases := map[string]access.Role{
		"owner":          access.DefaultAdminRole,
		"master":         access.MasterRole,
		"CONTRACT_ROLE":  access.ContractRole,
		"depositor_role": access.DepositorRole,
	}
	cases[access.AdminRole.Hex()] = access.AdminRole
	for input, want := range cases {
		got, err := access.ParseRole(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %s want %s", input, got, want)
		}
	}
	if _, err := access.ParseRole("janitor"); err == nil {
		t.Fatalf("expected unknown role to fail")
	}
}

func TestOwnerGrantsAndRevokes(t *testing.T) {
	registry, emitter := newTestRegistry(t)
	emitter.events = nil

	if err := registry.GrantRole(owner, access.MasterRole, master); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !registry.HasRole(access.MasterRole, master) {
		t.Fatalf("expected master role")
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType() != events.TypeRoleGranted {
		t.Fatalf("expected role granted event, got %+v", emitter.events)
	}

	// Re-granting is a no-op without an event.
	if err := registry.GrantRole(owner, access.MasterRole, master); err != nil {
		t.Fatalf("regrant: %v", err)
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected no duplicate event")
	}

	if err := registry.RevokeRole(owner, access.MasterRole, master); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if registry.HasRole(access.MasterRole, master) {
		t.Fatalf("expected master role revoked")
	}
	revoked, ok := emitter.events[1].(events.RoleRevoked)
	if !ok || revoked.Account != master || revoked.Sender != owner {
		t.Fatalf("unexpected revoke event %+v", emitter.events[1])
	}
}

func TestNonAdminCannotGrant(t *testing.T) {
	registry, _ := newTestRegistry(t)
	if err := registry.GrantRole(owner, access.AdminRole, admin); err != nil {
		t.Fatalf("grant admin: %v", err)
	}
	err := registry.GrantRole(admin, access.MasterRole, master)
	if !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if registry.HasRole(access.MasterRole, master) {
		t.Fatalf("failed grant must not mutate membership")
	}
	if err := registry.RevokeRole(master, access.AdminRole, admin); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized on revoke, got %v", err)
	}
}

func TestOwnerDoesNotImplicitlyHoldOperationalRoles(t *testing.T) {
	registry, _ := newTestRegistry(t)
	if err := registry.Authorize(access.AdminRole, owner); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("expected owner to need an explicit ADMIN grant, got %v", err)
	}
	if err := registry.Authorize(access.DefaultAdminRole, owner); err != nil {
		t.Fatalf("owner should hold default admin: %v", err)
	}
}

func TestHasRoleIsIdempotent(t *testing.T) {
	registry, emitter := newTestRegistry(t)
	before := len(emitter.events)
	for i := 0; i < 5; i++ {
		if registry.HasRole(access.MasterRole, master) {
			t.Fatalf("unexpected membership")
		}
	}
	members, err := registry.Members(access.MasterRole)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 0 || len(emitter.events) != before {
		t.Fatalf("role checks must not mutate state")
	}
}

func TestRoleAdminDelegation(t *testing.T) {
	registry, emitter := newTestRegistry(t)
	if err := registry.SetRoleAdmin(admin, access.MasterRole, access.AdminRole); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("expected non-owner to be rejected, got %v", err)
	}
	if err := registry.SetRoleAdmin(owner, access.MasterRole, access.AdminRole); err != nil {
		t.Fatalf("set role admin: %v", err)
	}
	last := emitter.events[len(emitter.events)-1]
	if last.EventType() != events.TypeRoleAdminChanged {
		t.Fatalf("expected admin changed event, got %s", last.EventType())
	}
	if err := registry.GrantRole(owner, access.AdminRole, admin); err != nil {
		t.Fatalf("grant admin: %v", err)
	}
	if err := registry.GrantRole(admin, access.MasterRole, master); err != nil {
		t.Fatalf("delegated grant: %v", err)
	}
	if err := registry.GrantRole(owner, access.MasterRole, owner); !errors.Is(err, access.ErrUnauthorized) {
		t.Fatalf("owner no longer administers MASTER_ROLE, got %v", err)
	}
	got, err := registry.RoleAdmin(access.MasterRole)
	if err != nil || got != access.AdminRole {
		t.Fatalf("unexpected role admin %s (err=%v)", got, err)
	}
}

func TestRenounceRole(t *testing.T) {
	registry, _ := newTestRegistry(t)
	if err := registry.GrantRole(owner, access.MasterRole, master); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := registry.RenounceRole(owner, access.MasterRole, master); !errors.Is(err, access.ErrRenounceForOther) {
		t.Fatalf("expected ErrRenounceForOther, got %v", err)
	}
	if err := registry.RenounceRole(master, access.MasterRole, master); err != nil {
		t.Fatalf("renounce: %v", err)
	}
	if registry.HasRole(access.MasterRole, master) {
		t.Fatalf("expected role renounced")
	}
}

func TestBootstrapKeepsExistingOwner(t *testing.T) {
	registry, _ := newTestRegistry(t)
	if err := registry.Bootstrap(owner); err != nil {
		t.Fatalf("repeat bootstrap: %v", err)
	}
	if err := registry.Bootstrap(admin); !errors.Is(err, access.ErrAlreadyBootstrapped) {
		t.Fatalf("expected ErrAlreadyBootstrapped, got %v", err)
	}
	members, err := registry.Members(access.DefaultAdminRole)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 1 || members[0] != owner {
		t.Fatalf("default admins = %v, want [%s]", members, owner.Hex())
	}
	if registry.HasRole(access.DefaultAdminRole, admin) {
		t.Fatalf("second bootstrap must not grant the default admin role")
	}
}
