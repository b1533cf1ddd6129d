package events

import (
	"math/big"
	"testing"

	"pharos/crypto"
)

func TestDelegationAddedAttributes(t *testing.T) {
	var delegator [20]byte
	delegator[19] = 0x0A

	evt := DelegationAdded{
		Delegator:      delegator,
		Amount:         big.NewInt(100),
		NewAmount:      big.NewInt(250),
		TotalDelegated: big.NewInt(400),
	}.Event()

	want := crypto.MustNewAddress(crypto.AccountPrefix, delegator[:]).String()
	if got := evt.Attributes["delegator"]; got != want {
		t.Fatalf("expected delegator %s, got %s", want, got)
	}
	if got := evt.Attributes["totalDelegated"]; got != "400" {
		t.Fatalf("expected totalDelegated 400, got %s", got)
	}
}

func TestZeroAddressRendersEmpty(t *testing.T) {
	evt := DelegationAdded{Amount: big.NewInt(1)}.Event()
	if got := evt.Attributes["delegator"]; got != "" {
		t.Fatalf("expected empty attribute for unset delegator, got %s", got)
	}
}

func TestNilAmountRendersZero(t *testing.T) {
	evt := LoanRepaid{}.Event()
	if got := evt.Attributes["amount"]; got != "0" {
		t.Fatalf("expected 0 for nil amount, got %s", got)
	}
}
