package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"pharos/core"
	"pharos/crypto"
	nativecommon "pharos/native/common"
	"pharos/native/loan"
	"pharos/native/operator"
	"pharos/native/restaking"
)

// decodeParams unmarshals the single positional parameter object every
// method here accepts.
func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected exactly one parameter object")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(raw string) ([20]byte, error) {
	decoded, err := crypto.DecodeAddress(raw)
	if err != nil {
		return [20]byte{}, err
	}
	return decoded.Array(), nil
}

func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

func formatAddress(addr [20]byte, prefix crypto.AddressPrefix) string {
	return crypto.MustNewAddress(prefix, addr[:]).String()
}

// writeNodeError maps engine sentinels onto JSON-RPC error codes. Identity
// gates surface as unauthorized; everything else is a server-side rejection
// with the sentinel text as the message.
func writeNodeError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, core.ErrUnauthorized),
		errors.Is(err, loan.ErrUnauthorized),
		errors.Is(err, restaking.ErrUnauthorized),
		errors.Is(err, operator.ErrUnauthorized):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, err.Error(), nil)
	case errors.Is(err, restaking.ErrInvalidAmount),
		errors.Is(err, loan.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, id, codeInvalidParams, err.Error(), nil)
	case errors.Is(err, nativecommon.ErrModulePaused),
		errors.Is(err, restaking.ErrInsufficientBalance),
		errors.Is(err, restaking.ErrInsufficientDelegation),
		errors.Is(err, loan.ErrExceedsLTV),
		errors.Is(err, loan.ErrInsufficientFunds),
		errors.Is(err, loan.ErrInvalidState),
		errors.Is(err, operator.ErrNotRegistered),
		errors.Is(err, operator.ErrAlreadyRegistered):
		writeError(w, http.StatusBadRequest, id, codeServerError, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, err.Error(), nil)
	}
}

// loanResult is the wire form of a loan record.
type loanResult struct {
	Principal               string `json:"principal"`
	InterestRateBps         uint64 `json:"interestRateBps"`
	StartTime               uint64 `json:"startTime"`
	DueTime                 uint64 `json:"dueTime"`
	CollateralAtOrigination string `json:"collateralAtOrigination"`
	Status                  string `json:"status"`
}

func loanResultFrom(record *loan.Loan) *loanResult {
	if record == nil {
		return nil
	}
	return &loanResult{
		Principal:               record.Principal.String(),
		InterestRateBps:         record.InterestRateBps,
		StartTime:               record.StartTime,
		DueTime:                 record.DueTime,
		CollateralAtOrigination: record.CollateralAtOrigination.String(),
		Status:                  record.Status().String(),
	}
}
