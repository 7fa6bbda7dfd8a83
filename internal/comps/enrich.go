package comps

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/propscope/propscope/internal/neighborhood"
	"github.com/propscope/propscope/internal/registry"
)

// enrich joins every candidate sale with its parcel inventory record. The
// per-candidate fetches are independent; each result is written back at
// its originating index, so candidate order is preserved regardless of
// completion order. A failed or empty join never aborts the batch — that
// candidate keeps the sale record's own lesser fields and is marked
// degraded.
func (e *Engine) enrich(ctx context.Context, subject Subject, sales []registry.SaleRecord) []CandidateComp {
	comps := make([]CandidateComp, len(sales))

	var g errgroup.Group
	g.SetLimit(e.settings.EnrichConcurrency)
	for i := range sales {
		g.Go(func() error {
			comps[i] = e.joinOne(ctx, subject, &sales[i])
			return nil
		})
	}
	// Workers degrade per-item instead of returning errors
	_ = g.Wait()

	return comps
}

func (e *Engine) joinOne(ctx context.Context, subject Subject, s *registry.SaleRecord) CandidateComp {
	c := CandidateComp{
		Key:              s.Key,
		BBL:              s.BBL,
		Address:          s.Address,
		Neighborhood:     s.Neighborhood,
		BuildingClass:    s.BuildingClass,
		SalePrice:        s.SalePrice,
		SaleDate:         s.SaleDate,
		ResidentialUnits: s.ResidentialUnits,
		TotalUnits:       s.TotalUnits,
		YearBuilt:        s.YearBuilt,
		BuildingArea:     s.GrossSquareFeet,
	}

	parcels, err := e.parcels.Query(ctx, registry.ParcelByKey(s.Key), 1)
	switch {
	case err != nil:
		// Missing enrichment is partial data, not a batch failure
		e.log.Warn("candidate enrichment failed, keeping ledger fields",
			"bbl", s.BBL, "error", err)
		c.Degraded = true
		if e.metrics != nil {
			e.metrics.RecordEnrichment("failed")
		}
	case len(parcels) == 0:
		c.Degraded = true
		if e.metrics != nil {
			e.metrics.RecordEnrichment("missing")
		}
	default:
		p := &parcels[0]
		if p.ResidentialUnits != nil {
			c.ResidentialUnits = p.ResidentialUnits
		}
		if p.TotalUnits != nil {
			c.TotalUnits = p.TotalUnits
		}
		if p.YearBuilt != nil {
			c.YearBuilt = p.YearBuilt
		}
		if p.BuildingArea != nil {
			c.BuildingArea = p.BuildingArea
		}
		if c.BuildingClass == "" {
			c.BuildingClass = p.BuildingClass
		}
		if c.Address == "" {
			c.Address = p.Address
		}
		c.AssessedTotal = p.AssessedTotal
		if e.metrics != nil {
			e.metrics.RecordEnrichment("success")
		}
	}

	c.PricePerUnit = rate(c.SalePrice, float64(derefInt(c.TotalUnits)))
	c.PricePerSqft = rate(c.SalePrice, derefFloat(c.BuildingArea))

	switch e.adjacency.Relation(subject.Neighborhood, c.Neighborhood) {
	case neighborhood.RelationSame:
		c.SameNeighborhood = true
	case neighborhood.RelationAdjacent:
		c.AdjacentNeighborhood = true
	}

	return c
}

// rate divides price by a quantity, nil when either side is missing or the
// quantity is not positive. Unknown never becomes zero.
func rate(price *float64, quantity float64) *float64 {
	if price == nil || quantity <= 0 {
		return nil
	}
	v := *price / quantity
	return &v
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefFloat(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
