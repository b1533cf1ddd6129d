package loan

import (
	"errors"
	"math/big"
	"testing"
)

func testTerms(principal int64) Terms {
	return Terms{
		Principal:       big.NewInt(principal),
		InterestRateBps: 500,
		StartTime:       1_700_000_000,
		DurationSeconds: 30 * 24 * 3600,
		Collateral:      big.NewInt(principal * 2),
	}
}

func TestOpenFromEmptySlot(t *testing.T) {
	record, err := Open(nil, testTerms(1000))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if record.Status() != StatusActive {
		t.Fatalf("expected active, got %v", record.Status())
	}
	if record.Principal.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected principal 1000, got %s", record.Principal)
	}
	if record.DueTime != record.StartTime+30*24*3600 {
		t.Fatalf("unexpected due time %d", record.DueTime)
	}
	if record.CollateralAtOrigination.Cmp(big.NewInt(2000)) != 0 {
		t.Fatalf("unexpected collateral snapshot %s", record.CollateralAtOrigination)
	}
}

func TestOpenRejectsActiveLoan(t *testing.T) {
	active, err := Open(nil, testTerms(1000))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := Open(active, testTerms(500)); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestOpenReusesSettledSlot(t *testing.T) {
	first, err := Open(nil, testTerms(1000))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	repaid, err := MarkRepaid(first)
	if err != nil {
		t.Fatalf("mark repaid: %v", err)
	}
	second, err := Open(repaid, testTerms(250))
	if err != nil {
		t.Fatalf("reopen after repayment: %v", err)
	}
	if second.Status() != StatusActive {
		t.Fatalf("expected active, got %v", second.Status())
	}
	if second.Principal.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("expected principal 250, got %s", second.Principal)
	}
}

func TestMarkRepaid(t *testing.T) {
	active, err := Open(nil, testTerms(1000))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	repaid, err := MarkRepaid(active)
	if err != nil {
		t.Fatalf("mark repaid: %v", err)
	}
	if repaid.Status() != StatusRepaid {
		t.Fatalf("expected repaid, got %v", repaid.Status())
	}
	// The input record is not mutated.
	if active.Status() != StatusActive {
		t.Fatalf("input record mutated to %v", active.Status())
	}
	if _, err := MarkRepaid(repaid); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double repay, got %v", err)
	}
}

func TestMarkSlashed(t *testing.T) {
	active, err := Open(nil, testTerms(1000))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	slashed, err := MarkSlashed(active)
	if err != nil {
		t.Fatalf("mark slashed: %v", err)
	}
	if slashed.Status() != StatusSlashed {
		t.Fatalf("expected slashed, got %v", slashed.Status())
	}
	if slashed.Principal.Sign() != 0 {
		t.Fatalf("expected principal wiped, got %s", slashed.Principal)
	}
	if _, err := MarkSlashed(slashed); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double slash, got %v", err)
	}
}

func TestMarkTransitionsRequireActiveLoan(t *testing.T) {
	if _, err := MarkRepaid(nil); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState repaying empty slot, got %v", err)
	}
	if _, err := MarkSlashed(nil); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState slashing empty slot, got %v", err)
	}
}
