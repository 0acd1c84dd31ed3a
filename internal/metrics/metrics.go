// Package metrics computes derived advertising ratios from raw counters.
// All functions are pure and define the denominator-zero case as 0: the
// dashboard renders these values directly and must never see NaN or Inf.
package metrics

// CTR returns the click-through rate as a percentage: clicks/impressions*100.
func CTR(clicks, impressions int64) float64 {
	if impressions == 0 {
		return 0
	}
	return float64(clicks) / float64(impressions) * 100
}

// CPC returns the cost per click: spend/clicks.
func CPC(spend float64, clicks int64) float64 {
	if clicks == 0 {
		return 0
	}
	return spend / float64(clicks)
}

// CPA returns the cost per acquisition: spend/conversions.
func CPA(spend, conversions float64) float64 {
	if conversions == 0 {
		return 0
	}
	return spend / conversions
}

// ROAS returns the return on ad spend: conversionValue/spend.
func ROAS(conversionValue, spend float64) float64 {
	if spend == 0 {
		return 0
	}
	return conversionValue / spend
}

// PercentChange returns the relative change from previous to current as a
// percentage. A zero previous value yields 100 for any growth and 0 otherwise.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}
