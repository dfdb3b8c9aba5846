package common

import (
	"errors"
	"math/big"
	"testing"
)

func TestInterfaceSet(t *testing.T) {
	set := NewInterfaceSet(InterfaceERC1155)
	if !set.Supports(InterfaceERC165) || !set.Supports(InterfaceERC1155) {
		t.Fatalf("expected ERC165 and ERC1155 support")
	}
	random, err := ParseInterfaceID("0x01fdcaa7")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if set.Supports(random) {
		t.Fatalf("random ids must not be supported")
	}
	if set.Supports(InterfaceID{0xff, 0xff, 0xff, 0xff}) {
		t.Fatalf("invalid sentinel must not be supported")
	}
	if _, err := ParseInterfaceID("0x01"); err == nil {
		t.Fatalf("expected short id to fail")
	}
	if InterfaceERC1155.String() != "0xd9b67a26" {
		t.Fatalf("unexpected rendering %s", InterfaceERC1155)
	}
}

func TestAmountBounds(t *testing.T) {
	maxUint := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	if _, err := NormalizeAmount(maxUint); err != nil {
		t.Fatalf("max uint256 must be accepted: %v", err)
	}
	if _, err := NormalizeAmount(new(big.Int).Add(maxUint, big.NewInt(1))); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected overflow rejection, got %v", err)
	}
	if _, err := NormalizeAmount(big.NewInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected negative rejection, got %v", err)
	}
	if _, err := AddChecked(maxUint, big.NewInt(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected add overflow, got %v", err)
	}
	if _, err := SubChecked(big.NewInt(1), big.NewInt(2)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected sub underflow, got %v", err)
	}
	diff, err := SubChecked(big.NewInt(100), big.NewInt(80))
	if err != nil || diff.Int64() != 20 {
		t.Fatalf("unexpected diff %v (err=%v)", diff, err)
	}
}
