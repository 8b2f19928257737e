package risk

import "math"

// PlannedRisk computes the cash at risk if the stop is hit.
// Quantity is in units of the traded instrument and prices are in account
// currency, so no quote conversion is applied.
func PlannedRisk(quantity, entry, stop float64) float64 {
	if quantity == 0 || entry == 0 || stop == 0 {
		return 0
	}
	return math.Abs(quantity) * math.Abs(entry-stop)
}

// RR is the planned reward-to-risk ratio of a trade. Zero when the stop equals
// the entry or any price is missing.
func RR(entry, stop, target float64) float64 {
	if entry == 0 || stop == 0 || target == 0 {
		return 0
	}
	risk := math.Abs(entry - stop)
	reward := math.Abs(target - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// RMultiple expresses a realized P/L in units of the initial risk.
func RMultiple(pnl, riskAmount float64) float64 {
	if riskAmount <= 0 || math.IsNaN(pnl) || math.IsInf(pnl, 0) {
		return 0
	}
	return pnl / riskAmount
}
