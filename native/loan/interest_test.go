package loan

import (
	"math/big"
	"testing"
)

func TestMaxLoanAmount(t *testing.T) {
	cases := []struct {
		name      string
		delegated int64
		ltv       uint64
		want      int64
	}{
		{"half", 1000, 50, 500},
		{"floors odd amounts", 999, 50, 499},
		{"full cap", 1000, 80, 800},
		{"zero collateral", 0, 50, 0},
		{"zero ratio", 1000, 0, 0},
		{"small collateral floors to zero", 1, 50, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MaxLoanAmount(big.NewInt(tc.delegated), tc.ltv)
			if got.Cmp(big.NewInt(tc.want)) != 0 {
				t.Fatalf("MaxLoanAmount(%d, %d) = %s, want %d", tc.delegated, tc.ltv, got, tc.want)
			}
		})
	}
	if got := MaxLoanAmount(nil, 50); got.Sign() != 0 {
		t.Fatalf("expected zero for nil collateral, got %s", got)
	}
}

func TestRepaymentAmountIsFlatPrincipal(t *testing.T) {
	active, err := Open(nil, Terms{
		Principal:       big.NewInt(1000),
		InterestRateBps: 500,
		StartTime:       0,
		DurationSeconds: 100,
		Collateral:      big.NewInt(2000),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := RepaymentAmount(active); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected flat principal 1000, got %s", got)
	}
	repaid, err := MarkRepaid(active)
	if err != nil {
		t.Fatalf("mark repaid: %v", err)
	}
	if got := RepaymentAmount(repaid); got.Sign() != 0 {
		t.Fatalf("expected zero after repayment, got %s", got)
	}
	if got := RepaymentAmount(nil); got.Sign() != 0 {
		t.Fatalf("expected zero for empty slot, got %s", got)
	}
}

func TestDueAmountAt(t *testing.T) {
	active, err := Open(nil, Terms{
		Principal:       big.NewInt(1_000_000),
		InterestRateBps: 500,
		StartTime:       1_000,
		DurationSeconds: secondsPerYear,
		Collateral:      big.NewInt(2_000_000),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	// No time elapsed: due equals principal.
	if got := DueAmountAt(active, 1_000); got.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("expected principal at start, got %s", got)
	}
	// Clock behind the start time clamps elapsed to zero.
	if got := DueAmountAt(active, 0); got.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("expected principal for pre-start clock, got %s", got)
	}
	// One full year at 500 bps accrues exactly 5%.
	if got := DueAmountAt(active, 1_000+secondsPerYear); got.Cmp(big.NewInt(1_050_000)) != 0 {
		t.Fatalf("expected 1050000 after a year, got %s", got)
	}
	// Half a year accrues half the interest, floored.
	if got := DueAmountAt(active, 1_000+secondsPerYear/2); got.Cmp(big.NewInt(1_025_000)) != 0 {
		t.Fatalf("expected 1025000 after half a year, got %s", got)
	}

	if got := DueAmountAt(nil, 5_000); got.Sign() != 0 {
		t.Fatalf("expected zero for empty slot, got %s", got)
	}
}
