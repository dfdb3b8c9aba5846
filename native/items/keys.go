package items

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	itemBalancePrefix  = []byte("items:balance:")
	itemSupplyPrefix   = []byte("items:supply:")
	itemApprovalPrefix = []byte("items:approval:")
)

func idBytes(id *big.Int) []byte {
	if id == nil {
		return make([]byte, common.HashLength)
	}
	return common.BigToHash(id).Bytes()
}

func balanceKey(id *big.Int, account common.Address) []byte {
	buf := append(append([]byte(nil), itemBalancePrefix...), idBytes(id)...)
	buf = append(buf, ':')
	return append(buf, account.Bytes()...)
}

func supplyKey(id *big.Int) []byte {
	return append(append([]byte(nil), itemSupplyPrefix...), idBytes(id)...)
}

func approvalKey(owner, operator common.Address) []byte {
	buf := append(append([]byte(nil), itemApprovalPrefix...), owner.Bytes()...)
	buf = append(buf, ':')
	return append(buf, operator.Bytes()...)
}
