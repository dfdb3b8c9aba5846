package events

import (
	"github.com/ethereum/go-ethereum/common"

	"milkfactory/core/types"
)

const (
	// TypeRoleGranted is emitted when an account joins a role.
	TypeRoleGranted = "access.role.granted"
	// TypeRoleRevoked is emitted when an account leaves a role, either by
	// revocation or renouncement.
	TypeRoleRevoked = "access.role.revoked"
	// TypeRoleAdminChanged is emitted when the admin role of a role is replaced.
	TypeRoleAdminChanged = "access.role.admin_changed"
)

// RoleGranted records a membership addition in a registry namespace.
type RoleGranted struct {
	Namespace string
	Role      common.Hash
	RoleName  string
	Account   common.Address
	Sender    common.Address
}

func (RoleGranted) EventType() string { return TypeRoleGranted }

func (e RoleGranted) Event() *types.Event {
	return &types.Event{Type: TypeRoleGranted, Attributes: roleAttrs(e.Namespace, e.Role, e.RoleName, e.Account, e.Sender)}
}

// RoleRevoked records a membership removal in a registry namespace.
type RoleRevoked struct {
	Namespace string
	Role      common.Hash
	RoleName  string
	Account   common.Address
	Sender    common.Address
}

func (RoleRevoked) EventType() string { return TypeRoleRevoked }

func (e RoleRevoked) Event() *types.Event {
	return &types.Event{Type: TypeRoleRevoked, Attributes: roleAttrs(e.Namespace, e.Role, e.RoleName, e.Account, e.Sender)}
}

// RoleAdminChanged records the replacement of the role that administers Role.
type RoleAdminChanged struct {
	Namespace     string
	Role          common.Hash
	PreviousAdmin common.Hash
	NewAdmin      common.Hash
}

func (RoleAdminChanged) EventType() string { return TypeRoleAdminChanged }

func (e RoleAdminChanged) Event() *types.Event {
	return &types.Event{
		Type: TypeRoleAdminChanged,
		Attributes: map[string]string{
			"namespace":     e.Namespace,
			"role":          e.Role.Hex(),
			"previousAdmin": e.PreviousAdmin.Hex(),
			"newAdmin":      e.NewAdmin.Hex(),
		},
	}
}

func roleAttrs(namespace string, role common.Hash, name string, account, sender common.Address) map[string]string {
	attrs := map[string]string{
		"namespace": namespace,
		"role":      role.Hex(),
		"account":   formatAddress(account),
		"sender":    formatAddress(sender),
	}
	if name != "" {
		attrs["roleName"] = name
	}
	return attrs
}
