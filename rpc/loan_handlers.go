package rpc

import (
	"net/http"
)

type loanCreateParams struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

type loanCallerParams struct {
	Caller string `json:"caller"`
}

type loanAmountResult struct {
	Amount string `json:"amount"`
}

type loanParamsResult struct {
	BaseInterestRateBps uint64 `json:"baseInterestRateBps"`
	LTVRatioPercent     uint64 `json:"ltvRatioPercent"`
	LoanDurationSeconds uint64 `json:"loanDurationSeconds"`
}

type loanRateParams struct {
	Caller string `json:"caller"`
	Bps    uint64 `json:"bps"`
}

type loanLTVParams struct {
	Caller  string `json:"caller"`
	Percent uint64 `json:"percent"`
}

func (s *Server) handleLoanCreate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params loanCreateParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	created, err := s.node.CreateLoan(caller, amount)
	if err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, loanResultFrom(created))
}

func (s *Server) handleLoanRepay(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params loanCallerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	repaid, err := s.node.RepayLoan(caller)
	if err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, loanAmountResult{Amount: repaid.String()})
}

func (s *Server) handleLoanSlash(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params loanCallerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	seized, err := s.node.SlashLoan(caller)
	if err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, loanAmountResult{Amount: seized.String()})
}

func (s *Server) handleLoanGet(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	record, err := s.node.GetLoan()
	if err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, loanResultFrom(record))
}

func (s *Server) handleLoanParams(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	params, err := s.node.LoanParams()
	if err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, loanParamsResult{
		BaseInterestRateBps: params.BaseInterestRateBps,
		LTVRatioPercent:     params.LTVRatioPercent,
		LoanDurationSeconds: params.LoanDurationSeconds,
	})
}

func (s *Server) handleLoanRepayment(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	repayment, err := s.node.Repayment()
	if err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, loanAmountResult{Amount: repayment.String()})
}

func (s *Server) handleLoanDueAmount(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	due, err := s.node.DueAmount()
	if err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, loanAmountResult{Amount: due.String()})
}

func (s *Server) handleLoanSetBaseRate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params loanRateParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.node.UpdateBaseRate(caller, params.Bps); err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleLoanSetLTVRatio(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params loanLTVParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.node.UpdateLTVRatio(caller, params.Percent); err != nil {
		writeNodeError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}
