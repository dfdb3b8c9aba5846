package common

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// InterfaceID is an ERC-165 interface identifier.
type InterfaceID [4]byte

var (
	InterfaceERC165          = InterfaceID{0x01, 0xff, 0xc9, 0xa7}
	InterfaceERC20           = InterfaceID{0x36, 0x37, 0x2b, 0x07}
	InterfaceERC1155         = InterfaceID{0xd9, 0xb6, 0x7a, 0x26}
	InterfaceERC1155Metadata = InterfaceID{0x0e, 0x89, 0x34, 0x1c}
	InterfaceIAccessControl  = InterfaceID{0x79, 0x65, 0xdb, 0x0b}
	interfaceInvalidSentinel = InterfaceID{0xff, 0xff, 0xff, 0xff}
)

func (id InterfaceID) String() string { return "0x" + hex.EncodeToString(id[:]) }

// ParseInterfaceID decodes a 0x-prefixed 4-byte identifier.
func ParseInterfaceID(value string) (InterfaceID, error) {
	var id InterfaceID
	trimmed := strings.TrimSpace(value)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	raw, err := hex.DecodeString(trimmed)
	if err != nil || len(raw) != len(id) {
		return id, fmt.Errorf("interface id must be 4 bytes of hex: %q", value)
	}
	copy(id[:], raw)
	return id, nil
}

// InterfaceSet answers ERC-165 style introspection queries. Unknown ids,
// including the 0xffffffff sentinel, report false.
type InterfaceSet map[InterfaceID]struct{}

// NewInterfaceSet builds a set that always includes ERC-165 itself.
func NewInterfaceSet(ids ...InterfaceID) InterfaceSet {
	set := InterfaceSet{InterfaceERC165: {}}
	for _, id := range ids {
		if id == interfaceInvalidSentinel {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}

// Supports reports whether id is advertised.
func (s InterfaceSet) Supports(id InterfaceID) bool {
	_, ok := s[id]
	return ok
}
