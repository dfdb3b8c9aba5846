package access

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Role identifies a capability tier. Named roles are keccak256 of their
// canonical name so identifiers match the ones used by EVM AccessControl
// deployments; the default admin role is the zero value.
type Role common.Hash

var (
	// DefaultAdminRole is held by the deployer (OWNER) and administers every
	// role unless an explicit admin role is configured.
	DefaultAdminRole Role
	AdminRole        = RoleFromName("ADMIN_ROLE")
	MasterRole       = RoleFromName("MASTER_ROLE")
	ContractRole     = RoleFromName("CONTRACT_ROLE")
	DepositorRole    = RoleFromName("DEPOSITOR_ROLE")
)

var knownRoles = map[Role]string{
	DefaultAdminRole: "DEFAULT_ADMIN_ROLE",
	AdminRole:        "ADMIN_ROLE",
	MasterRole:       "MASTER_ROLE",
	ContractRole:     "CONTRACT_ROLE",
	DepositorRole:    "DEPOSITOR_ROLE",
}

// RoleFromName derives the role identifier for the provided canonical name.
func RoleFromName(name string) Role {
	return Role(common.BytesToHash(ethcrypto.Keccak256([]byte(name))))
}

// Hash returns the role identifier as a 32-byte hash.
func (r Role) Hash() common.Hash { return common.Hash(r) }

// Hex renders the role identifier as 0x-prefixed hex.
func (r Role) Hex() string { return common.Hash(r).Hex() }

// Name returns the canonical name for well-known roles and an empty string
// otherwise.
func (r Role) Name() string { return knownRoles[r] }

func (r Role) String() string {
	if name := r.Name(); name != "" {
		return name
	}
	return r.Hex()
}

// ParseRole accepts a canonical role name ("MASTER_ROLE"), its short form
// ("master"), "owner" for the default admin role, or a 0x-prefixed 32-byte
// identifier.
func ParseRole(value string) (Role, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Role{}, fmt.Errorf("access: role required")
	}
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		raw, err := hex.DecodeString(trimmed[2:])
		if err != nil || len(raw) != common.HashLength {
			return Role{}, fmt.Errorf("access: invalid role id %q", value)
		}
		return Role(common.BytesToHash(raw)), nil
	}
	upper := strings.ToUpper(trimmed)
	switch upper {
	case "OWNER", "DEFAULT_ADMIN", "DEFAULT_ADMIN_ROLE":
		return DefaultAdminRole, nil
	}
	if !strings.HasSuffix(upper, "_ROLE") {
		upper += "_ROLE"
	}
	role := RoleFromName(upper)
	if _, ok := knownRoles[role]; !ok {
		return Role{}, fmt.Errorf("access: unknown role %q", value)
	}
	return role, nil
}
