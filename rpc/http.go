package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"pharos/core"
	"pharos/observability/metrics"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
)

// Server exposes the node over JSON-RPC with a websocket event stream
// alongside.
type Server struct {
	node      *core.Node
	authToken string
	logger    *slog.Logger
	metrics   *metrics.ProtocolMetrics

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rpcRate  rate.Limit
	rpcBurst int
}

// NewServer constructs an RPC server over node. An empty authToken disables
// the mutating methods rather than leaving them open.
func NewServer(node *core.Node, authToken string, rpcRate float64, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if rpcRate <= 0 {
		rpcRate = 50
	}
	return &Server{
		node:      node,
		authToken: strings.TrimSpace(authToken),
		logger:    logger,
		metrics:   metrics.Protocol(),
		limiters:  make(map[string]*rate.Limiter),
		rpcRate:   rate.Limit(rpcRate),
		rpcBurst:  int(rpcRate),
	}
}

// Router assembles the HTTP surface: the JSON-RPC endpoint, the websocket
// event stream, prometheus metrics, and a liveness probe.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/rpc", s.handle)
	r.Get("/ws/events", s.handleEventsWS)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// Start serves the router on addr and blocks.
func (s *Server) Start(addr string) error {
	s.logger.Info("rpc server listening", "addr", addr)
	return http.ListenAndServe(addr, s.Router())
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}
	if !s.allowSource(clientSource(r)) {
		writeError(w, http.StatusTooManyRequests, req.ID, codeRateLimited, "rate limit exceeded", nil)
		return
	}
	s.observeRequest(req.Method)

	switch req.Method {
	case "restaking_delegate":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleRestakingDelegate(w, r, req)
	case "restaking_undelegate":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleRestakingUndelegate(w, r, req)
	case "restaking_totalDelegated":
		s.handleRestakingTotalDelegated(w, r, req)
	case "restaking_delegationOf":
		s.handleRestakingDelegationOf(w, r, req)
	case "restaking_delegators":
		s.handleRestakingDelegators(w, r, req)
	case "loan_create":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleLoanCreate(w, r, req)
	case "loan_repay":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleLoanRepay(w, r, req)
	case "loan_slash":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleLoanSlash(w, r, req)
	case "loan_get":
		s.handleLoanGet(w, r, req)
	case "loan_params":
		s.handleLoanParams(w, r, req)
	case "loan_repayment":
		s.handleLoanRepayment(w, r, req)
	case "loan_dueAmount":
		s.handleLoanDueAmount(w, r, req)
	case "loan_setBaseRate":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleLoanSetBaseRate(w, r, req)
	case "loan_setLTVRatio":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleLoanSetLTVRatio(w, r, req)
	case "operator_info":
		s.handleOperatorInfo(w, r, req)
	case "operator_setActive":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleOperatorSetActive(w, r, req)
	case "pharos_getBalance":
		s.handleGetBalance(w, r, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil)
	}
}

// rpcMethods bounds the request-counter label set; anything a client sends
// outside it is folded into "unknown".
var rpcMethods = map[string]struct{}{
	"restaking_delegate":       {},
	"restaking_undelegate":     {},
	"restaking_totalDelegated": {},
	"restaking_delegationOf":   {},
	"restaking_delegators":     {},
	"loan_create":              {},
	"loan_repay":               {},
	"loan_slash":               {},
	"loan_get":                 {},
	"loan_params":              {},
	"loan_repayment":           {},
	"loan_dueAmount":           {},
	"loan_setBaseRate":         {},
	"loan_setLTVRatio":         {},
	"operator_info":            {},
	"operator_setActive":       {},
	"pharos_getBalance":        {},
}

func (s *Server) observeRequest(method string) {
	if _, ok := rpcMethods[method]; !ok {
		method = "unknown"
	}
	s.metrics.ObserveRPCRequest(method)
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}

func clientSource(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) allowSource(source string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	limiter, ok := s.limiters[source]
	if !ok {
		limiter = rate.NewLimiter(s.rpcRate, s.rpcBurst)
		s.limiters[source] = limiter
	}
	return limiter.Allow()
}
