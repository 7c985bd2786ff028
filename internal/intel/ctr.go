package intel

// CTRCurve maps an organic SERP position to an assumed click-through rate.
// The default values are rough sales-narrative estimates, not measured data;
// keep them as a named value so they can be recalibrated without touching
// pipeline logic.
type CTRCurve struct {
	// ByPosition holds rates for positions 1..len(ByPosition).
	ByPosition []float64
	// Tail applies to positions beyond ByPosition up to TailLimit.
	Tail      float64
	TailLimit int
}

// DefaultCTRCurve is the standard position-to-CTR mapping used to backfill
// traffic estimates when the provider supplies none.
var DefaultCTRCurve = CTRCurve{
	ByPosition: []float64{0.28, 0.15, 0.11, 0.08, 0.07, 0.05, 0.04, 0.03, 0.03, 0.02},
	Tail:       0.01,
	TailLimit:  20,
}

// Rate returns the assumed CTR for a 1-based rank. Ranks of 0 (unknown)
// and ranks past the tail limit return 0.
func (c CTRCurve) Rate(rank int) float64 {
	if rank <= 0 {
		return 0
	}
	if rank <= len(c.ByPosition) {
		return c.ByPosition[rank-1]
	}
	if rank <= c.TailLimit {
		return c.Tail
	}
	return 0
}

// EstimateTraffic computes monthly visits for a volume/rank pair.
func (c CTRCurve) EstimateTraffic(searchVolume, rank int) float64 {
	return float64(searchVolume) * c.Rate(rank)
}

// DefaultAdCaptureRate is the assumed share of monthly searches a paid ad
// would capture. Like the CTR curve it is an explicit estimate.
const DefaultAdCaptureRate = 0.10

// AnnualAdValue estimates the yearly paid-search value of a keyword set:
// volume x capture rate x average CPC x 12 months. Outputs built on it must
// be labeled estimates.
func AnnualAdValue(totalVolume int, averageCPC, captureRate float64) float64 {
	return float64(totalVolume) * captureRate * averageCPC * 12
}
