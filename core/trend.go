package core

import "github.com/prpulse/prpulse/schema"

// Trend classification thresholds. A count change within StableCountDelta
// and a rate change within StableRateDelta points reads as stable; a rate
// move must exceed StableRateDelta points before it qualifies a period as
// quality-up or quality-down.
const (
	StableCountDelta = 2
	StableRateDelta  = 5.0
)

// TrendPoint is one period's aggregate as seen by the classifier.
type TrendPoint struct {
	Count     int64
	MergeRate float64
}

// ClassifyTrend tags a period against its immediate predecessor. The rules
// cascade in order; thresholds are inclusive on the stable side and
// exclusive for the qualifying rules.
func ClassifyTrend(prev, curr TrendPoint) schema.TrendTag {
	dCount := curr.Count - prev.Count
	dRate := curr.MergeRate - prev.MergeRate

	switch {
	case dCount > 0 && dRate >= 0:
		return schema.TrendUp
	case dCount < 0 && dRate < -StableRateDelta:
		return schema.TrendDown
	case abs64(dCount) <= StableCountDelta && absf(dRate) <= StableRateDelta:
		return schema.TrendStable
	case dCount > 0 && dRate < -StableRateDelta:
		return schema.TrendUpQualDown
	case dCount < 0 && dRate > StableRateDelta:
		return schema.TrendDownQualUp
	default:
		return schema.TrendMixed
	}
}

// AnnotateTrends assigns trend tags to a period sequence ordered oldest
// first. The first period has no predecessor and keeps NoTrend. Periods
// with a null merge rate are treated as zero for comparison.
func AnnotateTrends(periods []schema.PeriodStats) {
	for i := range periods {
		if i == 0 {
			periods[i].Trend = schema.NoTrend
			continue
		}
		periods[i].Trend = ClassifyTrend(toTrendPoint(periods[i-1]), toTrendPoint(periods[i]))
	}
}

func toTrendPoint(p schema.PeriodStats) TrendPoint {
	point := TrendPoint{Count: p.PRCount}
	if p.MergeRate != nil {
		point.MergeRate = *p.MergeRate
	}
	return point
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
