package access

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"milkfactory/core/events"
	"milkfactory/core/state"
)

// Namespaces used by the two contracts. Each contract keeps its own
// membership table so a MASTER on the ledger holds no power over the factory.
const (
	NamespaceMilk        = "milk"
	NamespaceItemFactory = "itemfactory"
)

type registryState interface {
	Update(fn func(tx *state.Tx) error) error
	View(fn func(tx *state.Tx) error) error
}

// Registry manages role membership for one namespace.
type Registry struct {
	st        registryState
	namespace string
}

// NewRegistry creates a registry backed by the provided state manager.
func NewRegistry(st registryState, namespace string) *Registry {
	return &Registry{st: st, namespace: strings.ToLower(strings.TrimSpace(namespace))}
}

// Namespace returns the membership table this registry manages.
func (r *Registry) Namespace() string { return r.namespace }

// Bootstrap grants the default admin role to owner when the table has no
// default admin yet. Repeating it for the same owner is a no-op; naming a
// different owner once the table is claimed returns ErrAlreadyBootstrapped.
func (r *Registry) Bootstrap(owner common.Address) error {
	if owner == (common.Address{}) {
		return ErrZeroAccount
	}
	return r.st.Update(func(tx *state.Tx) error {
		admins, err := tx.RoleMembers(r.namespace, DefaultAdminRole.Hash())
		if err != nil {
			return err
		}
		if len(admins) > 0 {
			for _, admin := range admins {
				if admin == owner {
					return nil
				}
			}
			return fmt.Errorf("%w: %s", ErrAlreadyBootstrapped, r.namespace)
		}
		return r.grant(tx, DefaultAdminRole, owner, owner)
	})
}

// HasRole reports whether account holds role. It never mutates state.
func (r *Registry) HasRole(role Role, account common.Address) bool {
	var ok bool
	_ = r.st.View(func(tx *state.Tx) error {
		ok = r.Check(tx, role, account) == nil
		return nil
	})
	return ok
}

// Authorize returns ErrUnauthorized unless caller holds role.
func (r *Registry) Authorize(role Role, caller common.Address) error {
	return r.st.View(func(tx *state.Tx) error {
		return r.Check(tx, role, caller)
	})
}

// Check is the capability check consulted at the start of every privileged
// operation. It runs inside the caller's transaction so the check and the
// mutation observe the same membership table.
func (r *Registry) Check(tx *state.Tx, role Role, caller common.Address) error {
	if tx.HasRole(r.namespace, role.Hash(), caller) {
		return nil
	}
	return fmt.Errorf("%w: account %s is missing role %s", ErrUnauthorized, strings.ToLower(caller.Hex()), role)
}

// RoleAdmin returns the role that may grant and revoke role.
func (r *Registry) RoleAdmin(role Role) (Role, error) {
	var admin Role
	err := r.st.View(func(tx *state.Tx) error {
		hash, err := tx.RoleAdmin(r.namespace, role.Hash())
		admin = Role(hash)
		return err
	})
	return admin, err
}

// Members lists the accounts holding role in deterministic order.
func (r *Registry) Members(role Role) ([]common.Address, error) {
	var members []common.Address
	err := r.st.View(func(tx *state.Tx) error {
		var err error
		members, err = tx.RoleMembers(r.namespace, role.Hash())
		return err
	})
	return members, err
}

// GrantRole adds account to role. The caller must hold the role's admin role.
func (r *Registry) GrantRole(caller common.Address, role Role, account common.Address) error {
	if account == (common.Address{}) {
		return ErrZeroAccount
	}
	return r.st.Update(func(tx *state.Tx) error {
		if err := r.checkAdmin(tx, role, caller); err != nil {
			return err
		}
		return r.grant(tx, role, account, caller)
	})
}

// RevokeRole removes account from role. The caller must hold the role's admin
// role.
func (r *Registry) RevokeRole(caller common.Address, role Role, account common.Address) error {
	return r.st.Update(func(tx *state.Tx) error {
		if err := r.checkAdmin(tx, role, caller); err != nil {
			return err
		}
		return r.revoke(tx, role, account, caller)
	})
}

// RenounceRole lets an account give up one of its own roles.
func (r *Registry) RenounceRole(caller common.Address, role Role, account common.Address) error {
	if caller != account {
		return ErrRenounceForOther
	}
	return r.st.Update(func(tx *state.Tx) error {
		return r.revoke(tx, role, account, caller)
	})
}

// SetRoleAdmin replaces the admin role of role. Only default admins may
// restructure the hierarchy.
func (r *Registry) SetRoleAdmin(caller common.Address, role, adminRole Role) error {
	return r.st.Update(func(tx *state.Tx) error {
		if err := r.Check(tx, DefaultAdminRole, caller); err != nil {
			return err
		}
		previous, err := tx.RoleAdmin(r.namespace, role.Hash())
		if err != nil {
			return err
		}
		if Role(previous) == adminRole {
			return nil
		}
		if err := tx.SetRoleAdmin(r.namespace, role.Hash(), adminRole.Hash()); err != nil {
			return err
		}
		tx.Emit(events.RoleAdminChanged{
			Namespace:     r.namespace,
			Role:          role.Hash(),
			PreviousAdmin: previous,
			NewAdmin:      adminRole.Hash(),
		})
		return nil
	})
}

func (r *Registry) checkAdmin(tx *state.Tx, role Role, caller common.Address) error {
	admin, err := tx.RoleAdmin(r.namespace, role.Hash())
	if err != nil {
		return err
	}
	return r.Check(tx, Role(admin), caller)
}

func (r *Registry) grant(tx *state.Tx, role Role, account, sender common.Address) error {
	added, err := tx.SetRole(r.namespace, role.Hash(), account)
	if err != nil || !added {
		return err
	}
	tx.Emit(events.RoleGranted{
		Namespace: r.namespace,
		Role:      role.Hash(),
		RoleName:  role.Name(),
		Account:   account,
		Sender:    sender,
	})
	return nil
}

func (r *Registry) revoke(tx *state.Tx, role Role, account, sender common.Address) error {
	removed, err := tx.RemoveRole(r.namespace, role.Hash(), account)
	if err != nil || !removed {
		return err
	}
	tx.Emit(events.RoleRevoked{
		Namespace: r.namespace,
		Role:      role.Hash(),
		RoleName:  role.Name(),
		Account:   account,
		Sender:    sender,
	})
	return nil
}
