package progress

import "math"

// Trend labels a series of daily values.
type Trend string

const (
	TrendIncreasing       Trend = "increasing"
	TrendDecreasing       Trend = "decreasing"
	TrendStable           Trend = "stable"
	TrendErratic          Trend = "erratic"
	TrendInsufficientData Trend = "insufficient_data"
)

const (
	trendChangePct   = 10.0
	trendErraticCV   = 0.3
	trendMinForCV    = 3
	trendMinForSplit = 2
)

// ClassifyTrend compares the mean of the second half of values against the
// first half (floor split). A change above 10% either way wins; otherwise,
// with at least 3 points, a coefficient of variation above 0.3 is erratic.
//
// The half-split test runs before the CV test, so a noisy series whose halves
// differ by more than 10% is labelled increasing/decreasing, not erratic.
// Downstream coaching text depends on these exact labels.
func ClassifyTrend(values []float64) Trend {
	if len(values) < trendMinForSplit {
		return TrendInsufficientData
	}
	half := len(values) / 2
	first, second := values[:half], values[half:]

	firstAvg := mean(first)
	var diffPct float64
	if firstAvg > 0 {
		diffPct = (mean(second) - firstAvg) / firstAvg * 100
	}

	switch {
	case diffPct > trendChangePct:
		return TrendIncreasing
	case diffPct < -trendChangePct:
		return TrendDecreasing
	case len(values) >= trendMinForCV:
		if coefficientOfVariation(values) > trendErraticCV {
			return TrendErratic
		}
		return TrendStable
	default:
		return TrendStable
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// coefficientOfVariation is population stddev / mean, 0 when mean <= 0.
func coefficientOfVariation(values []float64) float64 {
	avg := mean(values)
	if avg <= 0 {
		return 0
	}
	var ss float64
	for _, v := range values {
		ss += (v - avg) * (v - avg)
	}
	return math.Sqrt(ss/float64(len(values))) / avg
}
