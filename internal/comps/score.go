package comps

import (
	"math"
	"strings"
)

// Similarity component weights. The five components sum to at most 100.
const (
	areaSamePoints      = 30
	areaAdjacentPoints  = 15
	classExactPoints    = 25
	classCategoryPoints = 15
	unitPoints          = 20
	sizePoints          = 10
)

// Year-built proximity brackets, widest delta first match
var yearBrackets = []struct {
	maxDelta int
	points   int
}{
	{5, 15},
	{10, 12},
	{20, 8},
	{30, 4},
}

// score rates a joined candidate against the subject in [0,100]. Every
// component degrades to zero contribution when an input is zero or
// unknown; nothing here can fail.
func (e *Engine) score(subject Subject, c *CandidateComp) int {
	total := e.areaScore(c)
	total += classScore(subject.BuildingClass, c.BuildingClass)
	total += ratioScore(unitPoints,
		float64(unitCount(subject.Units, subject.UnitsTotal)),
		float64(unitCount(derefInt(c.ResidentialUnits), derefInt(c.TotalUnits))))
	total += yearScore(subject.YearBuilt, derefInt(c.YearBuilt))
	total += ratioScore(sizePoints, subject.BuildingArea, derefFloat(c.BuildingArea))
	return total
}

func (e *Engine) areaScore(c *CandidateComp) int {
	switch {
	case c.SameNeighborhood:
		return areaSamePoints
	case c.AdjacentNeighborhood:
		return areaAdjacentPoints
	default:
		return 0
	}
}

// classScore awards full points for an exact class code match and partial
// points when only the category letter matches
func classScore(subject, candidate string) int {
	subject = strings.ToUpper(strings.TrimSpace(subject))
	candidate = strings.ToUpper(strings.TrimSpace(candidate))
	if subject == "" || candidate == "" {
		return 0
	}
	if subject == candidate {
		return classExactPoints
	}
	if classCategory(subject) == classCategory(candidate) {
		return classCategoryPoints
	}
	return 0
}

// ratioScore scales weight by min/max of two quantities, zero when either
// side is missing
func ratioScore(weight int, a, b float64) int {
	if a <= 0 || b <= 0 {
		return 0
	}
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return int(math.Round(float64(weight) * lo / hi))
}

// yearScore awards points by construction-year proximity, zero when either
// year is unknown
func yearScore(subject, candidate int) int {
	if subject == 0 || candidate == 0 {
		return 0
	}
	delta := subject - candidate
	if delta < 0 {
		delta = -delta
	}
	for _, b := range yearBrackets {
		if delta <= b.maxDelta {
			return b.points
		}
	}
	return 0
}

// unitCount picks the larger of the residential and total unit counts for
// one side of the comparison
func unitCount(units, unitsTotal int) int {
	if unitsTotal > units {
		return unitsTotal
	}
	return units
}
