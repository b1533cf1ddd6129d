package config

import (
	"os"
	"path/filepath"
	"testing"

	"pharos/crypto"
	"pharos/native/loan"
)

func testAddress(t *testing.T) string {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key.PubKey().Address().String()
}

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config written to disk: %v", err)
	}
	if cfg.RPCAddress != ":8080" {
		t.Fatalf("unexpected rpc address %q", cfg.RPCAddress)
	}
	if cfg.Loan != loan.DefaultParams() {
		t.Fatalf("expected default loan params, got %+v", cfg.Loan)
	}
	if cfg.Genesis.Operator == "" || cfg.Genesis.Owner == "" {
		t.Fatalf("expected generated genesis identities")
	}

	// The generated file loads back cleanly.
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Genesis.Operator != cfg.Genesis.Operator {
		t.Fatalf("operator changed across reload")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[genesis]
Operator = "` + testAddress(t) + `"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "./pharos-data" || cfg.NetworkName != "pharos-local" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Loan != loan.DefaultParams() {
		t.Fatalf("expected default loan params, got %+v", cfg.Loan)
	}
	if cfg.RPCRateLimit != 50 {
		t.Fatalf("expected default rate limit, got %f", cfg.RPCRateLimit)
	}
}

func TestValidateRejectsMissingOperator(t *testing.T) {
	cfg := &Config{Loan: loan.DefaultParams()}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing operator")
	}
}

func TestValidateRejectsExcessiveLTV(t *testing.T) {
	cfg := &Config{
		Genesis: Genesis{Operator: testAddress(t)},
		Loan: loan.Params{
			BaseInterestRateBps: 500,
			LTVRatioPercent:     81,
			LoanDurationSeconds: 3600,
		},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error above the hard loan-to-value cap")
	}
}

func TestValidateRejectsBadAddressesAndAmounts(t *testing.T) {
	operator := testAddress(t)

	cfg := &Config{Genesis: Genesis{Operator: "not-bech32"}, Loan: loan.DefaultParams()}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for malformed operator address")
	}

	cfg = &Config{
		Genesis: Genesis{
			Operator: operator,
			Allocations: []GenesisAllocation{
				{Address: testAddress(t), Token: "DOGE", Amount: "5"},
			},
		},
		Loan: loan.DefaultParams(),
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unknown allocation token")
	}

	cfg = &Config{
		Genesis: Genesis{Operator: operator, StablePool: "-5"},
		Loan:    loan.DefaultParams(),
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for negative stable pool")
	}
}

func TestGenesisConfigConversion(t *testing.T) {
	operator := testAddress(t)
	owner := testAddress(t)
	delegator := testAddress(t)

	cfg := &Config{
		Genesis: Genesis{
			Owner:          owner,
			Operator:       operator,
			StablePool:     "1000",
			ReserveBalance: "2000",
			Allocations: []GenesisAllocation{
				{Address: delegator, Token: "LST", Amount: "500"},
			},
		},
		Loan: loan.DefaultParams(),
	}

	genesis, err := cfg.GenesisConfig()
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	decodedOperator, err := crypto.DecodeAddress(operator)
	if err != nil {
		t.Fatalf("decode operator: %v", err)
	}
	if genesis.Operator != decodedOperator.Array() {
		t.Fatalf("operator mismatch")
	}
	if genesis.StablePool.Int64() != 1000 || genesis.ReserveBalance.Int64() != 2000 {
		t.Fatalf("amount conversion mismatch: %s / %s", genesis.StablePool, genesis.ReserveBalance)
	}
	if len(genesis.Allocations) != 1 || genesis.Allocations[0].Amount.Int64() != 500 {
		t.Fatalf("allocation conversion mismatch: %+v", genesis.Allocations)
	}
	if genesis.LoanParams == nil || *genesis.LoanParams != loan.DefaultParams() {
		t.Fatalf("loan params not carried over")
	}
}
