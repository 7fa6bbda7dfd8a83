package analysis

import (
	"context"

	"github.com/propscope/propscope/internal/comps"
	"github.com/propscope/propscope/internal/registry"
)

// ComparablesRequest asks for ranked comparable sales around one subject
// address. Count follows the pipeline's defaults and cap when zero or out
// of range.
type ComparablesRequest struct {
	Address string `json:"address"`
	Borough string `json:"borough,omitempty"`
	Count   int    `json:"count,omitempty"`
}

// ComparablesResult pairs the resolved subject with the ranked pipeline
// output. The subject carries the inferred area label.
type ComparablesResult struct {
	Subject comps.Subject `json:"subject"`
	comps.Result
}

// SearchComparables runs the full pipeline: resolve the subject, infer
// its area label, then build, enrich, score and rank the candidate set.
// An exhausted area cascade fails the operation; per-candidate enrichment
// failures degrade only the affected comparables.
func (c *Core) SearchComparables(ctx context.Context, req ComparablesRequest) (*ComparablesResult, error) {
	parcel, err := c.resolve(ctx, req.Address, req.Borough)
	if err != nil {
		return nil, err
	}

	label, err := c.neighbors.Infer(ctx, parcel.Key)
	if err != nil {
		return nil, err
	}

	subject := subjectFrom(parcel, label)
	result, err := c.comps.Find(ctx, subject, req.Count)
	if err != nil {
		return nil, err
	}

	return &ComparablesResult{Subject: subject, Result: *result}, nil
}

// subjectFrom shapes a resolved parcel and inferred area label into the
// pipeline's subject. Nil attributes stay zero, which the scorer reads as
// unknown.
func subjectFrom(p *registry.ParcelRecord, label string) comps.Subject {
	s := comps.Subject{
		Key:           p.Key,
		BBL:           p.BBL,
		Address:       p.Address,
		Neighborhood:  label,
		BuildingClass: p.BuildingClass,
	}
	if p.ResidentialUnits != nil {
		s.Units = *p.ResidentialUnits
	}
	if p.TotalUnits != nil {
		s.UnitsTotal = *p.TotalUnits
	}
	if p.YearBuilt != nil {
		s.YearBuilt = *p.YearBuilt
	}
	if p.BuildingArea != nil {
		s.BuildingArea = *p.BuildingArea
	}
	return s
}
