package rpc

import (
	"net/http"

	"pharos/core/state"
	"pharos/crypto"
)

type operatorInfoResult struct {
	Address        string `json:"address"`
	Active         bool   `json:"active"`
	DelegatedTotal string `json:"delegatedTotal"`
	RegisteredAt   uint64 `json:"registeredAt"`
}

type operatorSetActiveParams struct {
	Caller string `json:"caller"`
	Active bool   `json:"active"`
}

type balanceParams struct {
	Address string `json:"address"`
}

type balanceResult struct {
	Address     string `json:"address"`
	BalanceLST  string `json:"balanceLST"`
	BalancePUSD string `json:"balancePUSD"`
	BalanceUSD  string `json:"balanceUSD"`
}

func (s *Server) handleOperatorInfo(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	record, err := s.node.OperatorInfo()
	if err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	if record == nil {
		writeResult(w, req.ID, nil)
		return
	}
	writeResult(w, req.ID, operatorInfoResult{
		Address:        formatAddress(record.Address, crypto.OperatorPrefix),
		Active:         record.Active,
		DelegatedTotal: record.DelegatedTotal.String(),
		RegisteredAt:   record.RegisteredAt,
	})
}

func (s *Server) handleOperatorSetActive(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params operatorSetActiveParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.node.SetOperatorActive(caller, params.Active); err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params balanceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	result := balanceResult{Address: params.Address}
	for _, entry := range []struct {
		symbol string
		field  *string
	}{
		{state.TokenLST, &result.BalanceLST},
		{state.TokenPUSD, &result.BalancePUSD},
		{state.TokenUSD, &result.BalanceUSD},
	} {
		balance, err := s.node.Balance(entry.symbol, addr)
		if err != nil {
			writeNodeError(w, req.ID, err)
			return
		}
		*entry.field = balance.String()
	}
	writeResult(w, req.ID, result)
}
