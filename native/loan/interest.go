package loan

import "math/big"

var (
	basisPoints = big.NewInt(10_000)
	oneHundred  = big.NewInt(100)
)

const secondsPerYear = 31_536_000

// MaxLoanAmount computes the borrowing cap for the given aggregate delegated
// collateral: delegated * ltvPercent / 100, floored. Collateral is valued 1:1
// against the stable asset.
func MaxLoanAmount(delegatedTotal *big.Int, ltvPercent uint64) *big.Int {
	if delegatedTotal == nil || delegatedTotal.Sign() <= 0 || ltvPercent == 0 {
		return big.NewInt(0)
	}
	max := new(big.Int).Mul(delegatedTotal, new(big.Int).SetUint64(ltvPercent))
	return max.Quo(max, oneHundred)
}

// RepaymentAmount returns the flat settlement owed on the loan: the principal
// when the loan is active, zero otherwise. Interest fields are snapshotted
// into the record but not charged on this path.
func RepaymentAmount(l *Loan) *big.Int {
	if !l.Active() {
		return big.NewInt(0)
	}
	return new(big.Int).Set(l.Principal)
}

// DueAmountAt computes the interest-bearing amount owed at the given unix
// time: principal + principal * rate * elapsed / (10000 * secondsPerYear),
// with every division floored. Returns zero when no loan is active. The
// multiplications happen before the single division so the result is
// bit-for-bit reproducible.
func DueAmountAt(l *Loan, now uint64) *big.Int {
	if !l.Active() {
		return big.NewInt(0)
	}
	var elapsed uint64
	if now > l.StartTime {
		elapsed = now - l.StartTime
	}
	interest := new(big.Int).Mul(l.Principal, new(big.Int).SetUint64(l.InterestRateBps))
	interest.Mul(interest, new(big.Int).SetUint64(elapsed))
	denominator := new(big.Int).Mul(basisPoints, big.NewInt(secondsPerYear))
	interest.Quo(interest, denominator)
	return interest.Add(interest, l.Principal)
}
