package events

import (
	"math/big"

	"pharos/crypto"
)

func formatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

func zeroAddress(addr [20]byte) bool {
	for _, b := range addr {
		if b != 0 {
			return false
		}
	}
	return true
}

func formatAddress(addr [20]byte) string {
	if zeroAddress(addr) {
		return ""
	}
	return crypto.MustNewAddress(crypto.AccountPrefix, addr[:]).String()
}
