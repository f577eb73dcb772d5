package pipeline

// Referral commission by network depth. Depth 1 is a direct referral;
// nothing is paid beyond depth 7.
var commissionRates = map[int]float64{
	1: 0.10,
	2: 0.05,
	3: 0.03,
	4: 0.02,
	5: 0.015,
	6: 0.01,
	7: 0.005,
}

// CommissionRateFor returns the payout rate for a referral at the given
// network depth, 0 for any level outside 1..7.
func CommissionRateFor(level int) float64 {
	return commissionRates[level]
}
