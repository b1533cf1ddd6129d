package rpc

import (
	"net/http"

	"pharos/crypto"
)

type delegateParams struct {
	Delegator string `json:"delegator"`
	Amount    string `json:"amount"`
}

type delegationResult struct {
	Delegator string `json:"delegator,omitempty"`
	Amount    string `json:"amount"`
}

func (s *Server) handleRestakingDelegate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params delegateParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	delegator, err := parseAddress(params.Delegator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid delegator address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	if err := s.node.Delegate(delegator, amount); err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	current, err := s.node.DelegationOf(delegator)
	if err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, delegationResult{Delegator: params.Delegator, Amount: current.String()})
}

func (s *Server) handleRestakingUndelegate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params delegateParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	delegator, err := parseAddress(params.Delegator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid delegator address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	if err := s.node.Undelegate(delegator, amount); err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	current, err := s.node.DelegationOf(delegator)
	if err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, delegationResult{Delegator: params.Delegator, Amount: current.String()})
}

func (s *Server) handleRestakingTotalDelegated(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	total, err := s.node.TotalDelegated()
	if err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, delegationResult{Amount: total.String()})
}

func (s *Server) handleRestakingDelegationOf(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params struct {
		Delegator string `json:"delegator"`
	}
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	delegator, err := parseAddress(params.Delegator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid delegator address", err.Error())
		return
	}
	amount, err := s.node.DelegationOf(delegator)
	if err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, delegationResult{Delegator: params.Delegator, Amount: amount.String()})
}

func (s *Server) handleRestakingDelegators(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	list, err := s.node.Delegators()
	if err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	out := make([]string, 0, len(list))
	for _, addr := range list {
		out = append(out, formatAddress(addr, crypto.AccountPrefix))
	}
	writeResult(w, req.ID, out)
}
