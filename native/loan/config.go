package loan

import "fmt"

// MaxLTVRatioPercent caps the configurable loan-to-value ratio.
const MaxLTVRatioPercent = 80

// Params groups the owner-mutable configuration read at loan origination.
// Changing them never affects a live loan; terms are snapshotted into the
// record when the loan is created.
type Params struct {
	BaseInterestRateBps uint64 `toml:"BaseInterestRateBps"`
	LTVRatioPercent     uint64 `toml:"LTVRatioPercent"`
	LoanDurationSeconds uint64 `toml:"LoanDurationSeconds"`
}

// DefaultParams returns the parameter set nodes start with before governance
// tunes them.
func DefaultParams() Params {
	return Params{
		BaseInterestRateBps: 500,
		LTVRatioPercent:     50,
		LoanDurationSeconds: 30 * 24 * 60 * 60,
	}
}

// Validate rejects parameter sets the loan engine refuses to run with.
func (p Params) Validate() error {
	if p.LTVRatioPercent == 0 || p.LTVRatioPercent > MaxLTVRatioPercent {
		return fmt.Errorf("loan: ltv ratio must be in (0, %d], got %d", MaxLTVRatioPercent, p.LTVRatioPercent)
	}
	if p.LoanDurationSeconds == 0 {
		return fmt.Errorf("loan: loan duration must be positive")
	}
	return nil
}
