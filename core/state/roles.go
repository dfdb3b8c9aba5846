package state

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	rolePrefix      = []byte("role:")
	roleAdminPrefix = []byte("role-admin:")
)

func roleKey(namespace string, role common.Hash) []byte {
	buf := make([]byte, 0, len(rolePrefix)+len(namespace)+1+common.HashLength)
	buf = append(buf, rolePrefix...)
	buf = append(buf, namespace...)
	buf = append(buf, ':')
	return append(buf, role.Bytes()...)
}

func roleAdminKey(namespace string, role common.Hash) []byte {
	buf := make([]byte, 0, len(roleAdminPrefix)+len(namespace)+1+common.HashLength)
	buf = append(buf, roleAdminPrefix...)
	buf = append(buf, namespace...)
	buf = append(buf, ':')
	return append(buf, role.Bytes()...)
}

func normalizeNamespace(namespace string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(namespace))
	if trimmed == "" {
		return "", fmt.Errorf("role namespace must not be empty")
	}
	return trimmed, nil
}

// RoleMembers returns all addresses assigned to the provided role in sorted
// order.
func (tx *Tx) RoleMembers(namespace string, role common.Hash) ([]common.Address, error) {
	ns, err := normalizeNamespace(namespace)
	if err != nil {
		return nil, err
	}
	var members []common.Address
	if err := tx.KVGetList(roleKey(ns, role), &members); err != nil {
		return nil, err
	}
	return members, nil
}

// HasRole reports whether the provided address is associated with the
// specified role. Errors while reading the underlying state result in a false
// return, matching the best-effort semantics required by the callers.
func (tx *Tx) HasRole(namespace string, role common.Hash, addr common.Address) bool {
	members, err := tx.RoleMembers(namespace, role)
	if err != nil {
		return false
	}
	for _, member := range members {
		if member == addr {
			return true
		}
	}
	return false
}

// SetRole associates an address with the specified role. It reports whether
// the membership set changed; duplicate assignments are ignored while the
// stored list remains sorted for determinism.
func (tx *Tx) SetRole(namespace string, role common.Hash, addr common.Address) (bool, error) {
	ns, err := normalizeNamespace(namespace)
	if err != nil {
		return false, err
	}
	members, err := tx.RoleMembers(ns, role)
	if err != nil {
		return false, err
	}
	for _, existing := range members {
		if existing == addr {
			return false, nil
		}
	}
	members = append(members, addr)
	sort.Slice(members, func(i, j int) bool {
		return bytes.Compare(members[i].Bytes(), members[j].Bytes()) < 0
	})
	return true, tx.KVPut(roleKey(ns, role), members)
}

// RemoveRole drops an address from the specified role and reports whether it
// was a member.
func (tx *Tx) RemoveRole(namespace string, role common.Hash, addr common.Address) (bool, error) {
	ns, err := normalizeNamespace(namespace)
	if err != nil {
		return false, err
	}
	members, err := tx.RoleMembers(ns, role)
	if err != nil {
		return false, err
	}
	kept := members[:0]
	removed := false
	for _, existing := range members {
		if existing == addr {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	if !removed {
		return false, nil
	}
	return true, tx.KVPut(roleKey(ns, role), kept)
}

// RoleAdmin returns the role that administers role. Roles without an explicit
// admin are administered by the zero role.
func (tx *Tx) RoleAdmin(namespace string, role common.Hash) (common.Hash, error) {
	ns, err := normalizeNamespace(namespace)
	if err != nil {
		return common.Hash{}, err
	}
	var admin common.Hash
	if _, err := tx.KVGet(roleAdminKey(ns, role), &admin); err != nil {
		return common.Hash{}, err
	}
	return admin, nil
}

// SetRoleAdmin records adminRole as the administering role for role.
func (tx *Tx) SetRoleAdmin(namespace string, role, adminRole common.Hash) error {
	ns, err := normalizeNamespace(namespace)
	if err != nil {
		return err
	}
	return tx.KVPut(roleAdminKey(ns, role), adminRole)
}
