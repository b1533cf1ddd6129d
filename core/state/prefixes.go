package state

import ethcrypto "github.com/ethereum/go-ethereum/crypto"

var (
	accountPrefix       = []byte("account:")
	tokenPrefix         = []byte("token:")
	allowancePrefix     = []byte("allowance:")
	delegationPrefix    = []byte("restaking/delegation/")
	delegatorFlagPrefix = []byte("restaking/member/")
	delegatorListKey    = ethcrypto.Keccak256([]byte("restaking/delegators"))
	totalDelegatedKey   = ethcrypto.Keccak256([]byte("restaking/total"))
	loanRecordKey       = ethcrypto.Keccak256([]byte("loan/record"))
	loanParamsKey       = ethcrypto.Keccak256([]byte("loan/params"))
	operatorRecordKey   = ethcrypto.Keccak256([]byte("operator/record"))
	paramPrefix         = []byte("param:")
	pausePrefix         = []byte("pause:")
)

func prefixedKey(prefix []byte, suffix []byte) []byte {
	buf := make([]byte, len(prefix)+len(suffix))
	copy(buf, prefix)
	copy(buf[len(prefix):], suffix)
	return ethcrypto.Keccak256(buf)
}

func accountKey(addr [20]byte) []byte {
	return prefixedKey(accountPrefix, addr[:])
}

func tokenKey(symbol string) []byte {
	return prefixedKey(tokenPrefix, []byte(symbol))
}

func allowanceKey(symbol string, owner, spender [20]byte) []byte {
	buf := make([]byte, 0, len(symbol)+2*20+2)
	buf = append(buf, symbol...)
	buf = append(buf, ':')
	buf = append(buf, owner[:]...)
	buf = append(buf, ':')
	buf = append(buf, spender[:]...)
	return prefixedKey(allowancePrefix, buf)
}

func delegationKey(addr [20]byte) []byte {
	return prefixedKey(delegationPrefix, addr[:])
}

func delegatorFlagKey(addr [20]byte) []byte {
	return prefixedKey(delegatorFlagPrefix, addr[:])
}

func paramKey(name string) []byte {
	return prefixedKey(paramPrefix, []byte(name))
}

func pauseKey(module string) []byte {
	return prefixedKey(pausePrefix, []byte(module))
}
