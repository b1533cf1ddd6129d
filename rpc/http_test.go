package rpc

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pharos/core"
	"pharos/core/state"
	"pharos/crypto"
	"pharos/native/loan"
	"pharos/storage"
)

const testAuthToken = "test-token"

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

func bech(a [20]byte) string {
	return crypto.MustNewAddress(crypto.AccountPrefix, a[:]).String()
}

var (
	testOwner    = addr(0x01)
	testOperator = addr(0x02)
	testAlice    = addr(0x0A)
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	node, err := core.NewNode(storage.NewMemDB(), core.GenesisConfig{
		Owner:    testOwner,
		Operator: testOperator,
		Allocations: []core.GenesisAllocation{
			{Address: testAlice, Token: state.TokenLST, Amount: big.NewInt(1000)},
		},
		StablePool: big.NewInt(10_000),
		LoanParams: &loan.Params{
			BaseInterestRateBps: 500,
			LTVRatioPercent:     50,
			LoanDurationSeconds: 3600,
		},
	})
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	node.SetNowFunc(func() time.Time { return time.Unix(1_700_000_000, 0) })

	server := NewServer(node, testAuthToken, 1000, nil)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return server, ts
}

func post(t *testing.T, ts *httptest.Server, method string, params interface{}, token string) *RPCResponse {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  []interface{}{params},
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/rpc", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("call %s: %v", method, err)
	}
	defer resp.Body.Close()

	out := &RPCResponse{}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func resultInto(t *testing.T, resp *RPCResponse, out interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("unexpected rpc error: %+v", resp.Error)
	}
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("remarshal result: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode result: %v", err)
	}
}

func TestMethodNotFound(t *testing.T) {
	_, ts := newTestServer(t)
	resp := post(t, ts, "bogus_method", map[string]string{}, "")
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method-not-found, got %+v", resp.Error)
	}
}

func TestMutationsRequireAuth(t *testing.T) {
	_, ts := newTestServer(t)
	params := map[string]string{"delegator": bech(testAlice), "amount": "100"}

	resp := post(t, ts, "restaking_delegate", params, "")
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized without token, got %+v", resp.Error)
	}
	resp = post(t, ts, "restaking_delegate", params, "wrong-token")
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized with bad token, got %+v", resp.Error)
	}
	resp = post(t, ts, "restaking_delegate", params, testAuthToken)
	if resp.Error != nil {
		t.Fatalf("expected success with token, got %+v", resp.Error)
	}
}

func TestDelegateAndQueries(t *testing.T) {
	_, ts := newTestServer(t)

	resp := post(t, ts, "restaking_delegate", map[string]string{
		"delegator": bech(testAlice),
		"amount":    "600",
	}, testAuthToken)
	var delegation delegationResult
	resultInto(t, resp, &delegation)
	if delegation.Amount != "600" {
		t.Fatalf("expected delegation 600, got %s", delegation.Amount)
	}

	resp = post(t, ts, "restaking_totalDelegated", map[string]string{}, "")
	var total delegationResult
	resultInto(t, resp, &total)
	if total.Amount != "600" {
		t.Fatalf("expected total 600, got %s", total.Amount)
	}

	resp = post(t, ts, "restaking_delegators", map[string]string{}, "")
	var delegators []string
	resultInto(t, resp, &delegators)
	if len(delegators) != 1 || delegators[0] != bech(testAlice) {
		t.Fatalf("unexpected delegators %v", delegators)
	}

	resp = post(t, ts, "pharos_getBalance", map[string]string{"address": bech(testAlice)}, "")
	var balance balanceResult
	resultInto(t, resp, &balance)
	if balance.BalanceLST != "400" {
		t.Fatalf("expected LST balance 400, got %s", balance.BalanceLST)
	}
}

func TestLoanLifecycleOverRPC(t *testing.T) {
	_, ts := newTestServer(t)

	resp := post(t, ts, "restaking_delegate", map[string]string{
		"delegator": bech(testAlice),
		"amount":    "1000",
	}, testAuthToken)
	if resp.Error != nil {
		t.Fatalf("delegate: %+v", resp.Error)
	}

	resp = post(t, ts, "loan_create", map[string]string{
		"caller": bech(testOperator),
		"amount": "500",
	}, testAuthToken)
	var created loanResult
	resultInto(t, resp, &created)
	if created.Principal != "500" || created.Status != "active" {
		t.Fatalf("unexpected loan %+v", created)
	}

	resp = post(t, ts, "loan_repay", map[string]string{"caller": bech(testOperator)}, testAuthToken)
	var repaid loanAmountResult
	resultInto(t, resp, &repaid)
	if repaid.Amount != "500" {
		t.Fatalf("expected flat repayment 500, got %s", repaid.Amount)
	}

	resp = post(t, ts, "loan_get", map[string]string{}, "")
	var record loanResult
	resultInto(t, resp, &record)
	if record.Status != "repaid" {
		t.Fatalf("expected repaid loan, got %s", record.Status)
	}
}

func TestLoanCreateRejectionsOverRPC(t *testing.T) {
	_, ts := newTestServer(t)

	resp := post(t, ts, "restaking_delegate", map[string]string{
		"delegator": bech(testAlice),
		"amount":    "1000",
	}, testAuthToken)
	if resp.Error != nil {
		t.Fatalf("delegate: %+v", resp.Error)
	}

	// Above the loan-to-value cap.
	resp = post(t, ts, "loan_create", map[string]string{
		"caller": bech(testOperator),
		"amount": "501",
	}, testAuthToken)
	if resp.Error == nil || resp.Error.Code != codeServerError {
		t.Fatalf("expected server error above cap, got %+v", resp.Error)
	}

	// Non-operator identity.
	resp = post(t, ts, "loan_create", map[string]string{
		"caller": bech(testAlice),
		"amount": "100",
	}, testAuthToken)
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized for non-operator, got %+v", resp.Error)
	}

	// Malformed amount never reaches the node.
	resp = post(t, ts, "loan_create", map[string]string{
		"caller": bech(testOperator),
		"amount": "not-a-number",
	}, testAuthToken)
	if resp.Error == nil || resp.Error.Code != codeInvalidParams {
		t.Fatalf("expected invalid params, got %+v", resp.Error)
	}
}

func TestAdminMethodsOverRPC(t *testing.T) {
	_, ts := newTestServer(t)

	resp := post(t, ts, "loan_setBaseRate", map[string]interface{}{
		"caller": bech(testOwner),
		"bps":    750,
	}, testAuthToken)
	if resp.Error != nil {
		t.Fatalf("set base rate: %+v", resp.Error)
	}

	resp = post(t, ts, "loan_params", map[string]string{}, "")
	var params loanParamsResult
	resultInto(t, resp, &params)
	if params.BaseInterestRateBps != 750 {
		t.Fatalf("expected rate 750, got %d", params.BaseInterestRateBps)
	}

	// Non-owner callers are rejected even with a valid bearer token.
	resp = post(t, ts, "loan_setBaseRate", map[string]interface{}{
		"caller": bech(testAlice),
		"bps":    100,
	}, testAuthToken)
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized, got %+v", resp.Error)
	}

	resp = post(t, ts, "operator_setActive", map[string]interface{}{
		"caller": bech(testOwner),
		"active": false,
	}, testAuthToken)
	if resp.Error != nil {
		t.Fatalf("deactivate: %+v", resp.Error)
	}
	resp = post(t, ts, "operator_info", map[string]string{}, "")
	var info operatorInfoResult
	resultInto(t, resp, &info)
	if info.Active {
		t.Fatalf("expected inactive operator")
	}
}

func TestRequestCounterTracksMethods(t *testing.T) {
	_, ts := newTestServer(t)

	if resp := post(t, ts, "loan_params", map[string]string{}, ""); resp.Error != nil {
		t.Fatalf("loan_params: %+v", resp.Error)
	}
	post(t, ts, "no_such_method", map[string]string{}, "")

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	exposition := string(body)
	if !strings.Contains(exposition, `pharos_rpc_requests_total{method="loan_params"}`) {
		t.Fatalf("expected loan_params request counted:\n%s", exposition)
	}
	if !strings.Contains(exposition, `pharos_rpc_requests_total{method="unknown"}`) {
		t.Fatalf("expected unrecognized method folded into unknown:\n%s", exposition)
	}
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", resp.StatusCode)
	}
}
