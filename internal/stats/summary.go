package stats

import "slices"

// Series is a numeric sequence with the elapsed time of each value.
type Series struct {
	Values []float64
	// Elapsed holds seconds since the start of the run, parallel to Values.
	// When nil, samples are assumed to be one second apart.
	Elapsed []float64
}

// Append adds a value observed at the given elapsed time.
func (s *Series) Append(v, elapsedSeconds float64) {
	s.Values = append(s.Values, v)
	s.Elapsed = append(s.Elapsed, elapsedSeconds)
}

// Len returns the number of values.
func (s Series) Len() int { return len(s.Values) }

func (s Series) elapsed() []float64 {
	if len(s.Elapsed) == len(s.Values) {
		return s.Elapsed
	}
	idx := make([]float64, len(s.Values))
	for i := range idx {
		idx[i] = float64(i)
	}
	return idx
}

// Thresholds are the two policy levels used for high-value ratios.
type Thresholds struct {
	High     float64 `json:"high"`
	Critical float64 `json:"critical"`
}

var (
	// CPUThresholds are expressed in percent.
	CPUThresholds = Thresholds{High: 30, Critical: 60}

	// MemoryThresholdsMiB are expressed in MiB.
	MemoryThresholdsMiB = Thresholds{High: 512, Critical: 1024}
)

// Summary is the full set of statistics of one series. Value fields are nil
// when undefined for the series length.
type Summary struct {
	Count         int      `json:"count"`
	Mean          *float64 `json:"mean"`
	Min           *float64 `json:"min"`
	Max           *float64 `json:"max"`
	P50           *float64 `json:"p50"`
	P90           *float64 `json:"p90"`
	P95           *float64 `json:"p95"`
	P99           *float64 `json:"p99"`
	StdDev        *float64 `json:"stddev"`
	HighRatio     *float64 `json:"high_ratio"`
	CriticalRatio *float64 `json:"critical_ratio"`
	GrowthRate    *float64 `json:"growth_rate"`
}

// Summarize computes every statistic of s against the given thresholds.
func Summarize(s Series, th Thresholds) Summary {
	sum := Summary{Count: s.Len()}
	if sum.Count == 0 {
		return sum
	}

	sorted := slices.Clone(s.Values)
	slices.Sort(sorted)

	sum.Mean = Opt(Mean(s.Values))
	sum.Min = Float(sorted[0])
	sum.Max = Float(sorted[len(sorted)-1])
	sum.P50 = Float(percentileSorted(sorted, 0.50))
	sum.P90 = Float(percentileSorted(sorted, 0.90))
	sum.P95 = Float(percentileSorted(sorted, 0.95))
	sum.P99 = Float(percentileSorted(sorted, 0.99))
	sum.StdDev = Opt(StdDev(s.Values))
	sum.HighRatio = Opt(HighRatio(s.Values, th.High))
	sum.CriticalRatio = Opt(HighRatio(s.Values, th.Critical))
	sum.GrowthRate = Opt(GrowthRate(s.elapsed(), s.Values))
	return sum
}

// Opt converts a (value, defined) pair into a nullable value.
func Opt(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Deref returns *p, or 0 when p is nil.
func Deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
