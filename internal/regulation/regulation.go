// Package regulation infers a parcel's likely rent-stabilization status
// from structural attributes and tax benefit flags. The rules are pure and
// ordered: public housing short-circuits, then the remaining rules
// accumulate reasons and advisory notes onto one assessment.
package regulation

import (
	"fmt"
	"regexp"
	"strings"
)

// Confidence levels attached to an assessment.
const (
	ConfidenceLow    = "low"
	ConfidenceMedium = "medium"
	ConfidenceHigh   = "high"
)

// Rule thresholds. Buildings of six or more units built before 1974 fall
// under the stabilization statute; 1947 marks the older rent control era.
const (
	stabilizationYearCutoff = 1974
	prewarYearCutoff        = 1947
	stabilizationMinUnits   = 6
)

// publicHousingOwner matches the housing authority ownership spellings
// seen in the parcel registry owner field.
var publicHousingOwner = regexp.MustCompile(`(?i)\b(NYCHA|HOUSING\s+AUTHORITY)\b`)

// Advisory note texts. Reasons explain why the verdict is what it is;
// notes qualify it.
const (
	notePublicHousing = "Parcel is owned by the public housing authority; public housing operates outside rent stabilization."
	noteCondoCoop     = "Building class indicates a condominium or co-op; individually owned units are generally outside stabilization."
	notePrewar        = "Built before 1947; some units may fall under the older rent control regime rather than stabilization."
	note421aExpiry    = "Stabilization tied to the 421-a exemption generally lapses when the benefit period expires; check the benefit schedule."
	noteJ51Extension  = "Stabilization tied to the J-51 abatement can extend past the benefit period when required lease notices were not given."
	noteDeregulation  = "Individual units may have been deregulated over time; status varies unit by unit."
	noteVerify        = "Verify registration with the state housing agency before relying on this assessment."
	noteBenefitPath   = "Buildings of this size built in 1974 or later are typically stabilized only through tax benefit programs such as 421-a or J-51."
	noteBelowMinimum  = "Fewer than six units falls below the mandatory stabilization threshold."
	noteUnknownYear   = "Year built is unknown; stabilization status cannot be assessed reliably."

	reason421a = "Receives the 421-a new construction exemption, which requires rent stabilization during the benefit period."
	reasonJ51  = "Receives the J-51 rehabilitation abatement, which requires rent stabilization during the benefit period."
)

// Facts are the building attributes the rules evaluate. Zero values mean
// unknown.
type Facts struct {
	YearBuilt        int
	ResidentialUnits int
	TotalUnits       int
	BuildingClass    string
	OwnerName        string
	Has421a          bool
	HasJ51           bool
}

// unitCount prefers the total unit figure over residential units when
// both are known.
func (f Facts) unitCount() int {
	if f.TotalUnits > 0 {
		return f.TotalUnits
	}
	return f.ResidentialUnits
}

// Assessment is the inferred stabilization verdict. Reasons and Notes are
// always non-nil so they render as [] rather than null.
type Assessment struct {
	LikelyStabilized bool     `json:"likely_stabilized"`
	Confidence       string   `json:"confidence"`
	Reasons          []string `json:"reasons"`
	Notes            []string `json:"notes"`
}

// Assess runs the ordered rules over the facts. The precedence between the
// pre-1974 rule, the benefit rules, and the condo note follows the
// long-standing behavior of this pipeline rather than a documented policy;
// see DESIGN.md before reordering.
func Assess(f Facts) *Assessment {
	a := &Assessment{
		Confidence: ConfidenceMedium,
		Reasons:    []string{},
		Notes:      []string{},
	}
	units := f.unitCount()

	// Public housing is outside stabilization entirely; nothing below
	// applies.
	if publicHousingOwner.MatchString(f.OwnerName) {
		a.Confidence = ConfidenceHigh
		a.Notes = append(a.Notes, notePublicHousing)
		return a
	}

	condo := isCondoClass(f.BuildingClass)
	if condo {
		a.Notes = append(a.Notes, noteCondoCoop)
	}

	if f.YearBuilt > 0 && f.YearBuilt < stabilizationYearCutoff && units >= stabilizationMinUnits && !condo {
		a.LikelyStabilized = true
		a.Reasons = append(a.Reasons, fmt.Sprintf(
			"Built in %d with %d units; buildings of six or more units built before 1974 are generally subject to rent stabilization.",
			f.YearBuilt, units))
		if f.YearBuilt < prewarYearCutoff {
			a.Notes = append(a.Notes, notePrewar)
		}
	}

	if f.Has421a {
		a.LikelyStabilized = true
		a.Confidence = ConfidenceHigh
		a.Reasons = append(a.Reasons, reason421a)
		a.Notes = append(a.Notes, note421aExpiry)
	}
	if f.HasJ51 {
		a.LikelyStabilized = true
		a.Confidence = ConfidenceHigh
		a.Reasons = append(a.Reasons, reasonJ51)
		a.Notes = append(a.Notes, noteJ51Extension)
	}

	switch {
	case a.LikelyStabilized:
		a.Notes = append(a.Notes, noteDeregulation, noteVerify)
	case units >= stabilizationMinUnits && f.YearBuilt >= stabilizationYearCutoff:
		a.Notes = append(a.Notes, noteBenefitPath)
	case units > 0 && units < stabilizationMinUnits:
		a.Notes = append(a.Notes, noteBelowMinimum)
	}

	if f.YearBuilt == 0 && units < stabilizationMinUnits && !a.LikelyStabilized {
		a.Confidence = ConfidenceLow
		a.Notes = append(a.Notes, noteUnknownYear)
	}

	return a
}

// isCondoClass reports whether the building class sits in the condo/co-op
// category, the classes whose code starts with R.
func isCondoClass(class string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(class)), "R")
}
