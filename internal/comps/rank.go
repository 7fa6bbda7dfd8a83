package comps

import (
	"cmp"
	"slices"
)

// rank sorts candidates by descending similarity, keeping enumeration
// order for equal scores, truncates to the requested count, and computes
// the market-rate aggregates over the truncated set.
func (e *Engine) rank(subject Subject, candidates []CandidateComp, requested int) *Result {
	slices.SortStableFunc(candidates, func(a, b CandidateComp) int {
		return cmp.Compare(b.SimilarityScore, a.SimilarityScore)
	})

	result := &Result{CandidatesEvaluated: len(candidates)}
	if len(candidates) > requested {
		candidates = candidates[:requested]
	}
	result.Comparables = candidates

	result.AvgPricePerUnit = meanRate(candidates, func(c *CandidateComp) *float64 { return c.PricePerUnit })
	result.AvgPricePerSqft = meanRate(candidates, func(c *CandidateComp) *float64 { return c.PricePerSqft })
	result.ImpliedValueByUnits = implied(float64(subject.UnitsTotal), result.AvgPricePerUnit)
	result.ImpliedValueBySqft = implied(subject.BuildingArea, result.AvgPricePerSqft)
	return result
}

// meanRate averages the non-nil values of one derived rate, nil when no
// candidate carries it
func meanRate(candidates []CandidateComp, pick func(*CandidateComp) *float64) *float64 {
	var sum float64
	n := 0
	for i := range candidates {
		if v := pick(&candidates[i]); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	m := sum / float64(n)
	return &m
}

// implied projects a mean rate onto the subject's quantity, nil when
// either operand is missing or zero
func implied(quantity float64, meanRate *float64) *float64 {
	if quantity <= 0 || meanRate == nil {
		return nil
	}
	v := quantity * *meanRate
	return &v
}
