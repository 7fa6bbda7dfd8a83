package comps

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propscope/propscope/internal/bbl"
	"github.com/propscope/propscope/internal/conf"
	"github.com/propscope/propscope/internal/errors"
	"github.com/propscope/propscope/internal/registry"
)

func TestEnrichMergesParcelFields(t *testing.T) {
	t.Parallel()

	sale := candidateSale("1", 9000000, 8, 1900, 8000)
	parcels := &fakeParcels{rows: map[string][]registry.ParcelRecord{
		parcelWhere(t, sale.Key): {{
			Key:              sale.Key,
			BBL:              sale.BBL,
			ResidentialUnits: iptr(10),
			TotalUnits:       iptr(12),
			YearBuilt:        iptr(1925),
			BuildingArea:     fptr(11000),
			AssessedTotal:    fptr(2500000),
			BuildingClass:    "D4",
		}},
	}}
	engine := testEngine(t, parcels, &fakeLedger{}, conf.CompsSettings{})

	comps := engine.enrich(context.Background(), evSubject(), []registry.SaleRecord{sale})
	require.Len(t, comps, 1)

	c := comps[0]
	assert.False(t, c.Degraded)
	assert.Equal(t, 12, *c.TotalUnits, "inventory units override the ledger's")
	assert.Equal(t, 10, *c.ResidentialUnits)
	assert.Equal(t, 1925, *c.YearBuilt)
	assert.InDelta(t, 11000, *c.BuildingArea, 0.5)
	assert.InDelta(t, 2500000, *c.AssessedTotal, 0.5)

	require.NotNil(t, c.PricePerUnit)
	assert.InDelta(t, 750000, *c.PricePerUnit, 0.01, "9000000 / 12 resolved units")
	require.NotNil(t, c.PricePerSqft)
	assert.InDelta(t, 818.18, *c.PricePerSqft, 0.01)
}

func TestEnrichFailureDegradesOnlyThatCandidate(t *testing.T) {
	t.Parallel()

	sales := []registry.SaleRecord{
		candidateSale("1", 5000000, 6, 1930, 5000),
		candidateSale("2", 6000000, 8, 1940, 6000),
		candidateSale("3", 7000000, 10, 1950, 7000),
	}
	parcels := &fakeParcels{
		rows: map[string][]registry.ParcelRecord{
			parcelWhere(t, sales[0].Key): {{Key: sales[0].Key, TotalUnits: iptr(7)}},
			parcelWhere(t, sales[2].Key): {{Key: sales[2].Key, TotalUnits: iptr(11)}},
		},
		fail: map[string]error{
			parcelWhere(t, sales[1].Key): errors.NewStd("inventory timeout"),
		},
	}
	engine := testEngine(t, parcels, &fakeLedger{}, conf.CompsSettings{})

	comps := engine.enrich(context.Background(), evSubject(), sales)
	require.Len(t, comps, 3)

	assert.False(t, comps[0].Degraded)
	assert.Equal(t, 7, *comps[0].TotalUnits)

	assert.True(t, comps[1].Degraded, "failed join marks the candidate, not the batch")
	assert.Equal(t, 8, *comps[1].TotalUnits, "ledger fields survive a failed join")

	assert.False(t, comps[2].Degraded)
	assert.Equal(t, 11, *comps[2].TotalUnits)
}

func TestEnrichMissingParcelMarksDegraded(t *testing.T) {
	t.Parallel()

	sale := candidateSale("9", 4000000, 4, 1960, 3000)
	engine := testEngine(t, &fakeParcels{}, &fakeLedger{}, conf.CompsSettings{})

	comps := engine.enrich(context.Background(), evSubject(), []registry.SaleRecord{sale})
	require.Len(t, comps, 1)
	assert.True(t, comps[0].Degraded)
	assert.Equal(t, 4, *comps[0].TotalUnits)
}

func TestEnrichPreservesOrderUnderConcurrency(t *testing.T) {
	t.Parallel()

	sales := make([]registry.SaleRecord, 24)
	for i := range sales {
		sales[i] = candidateSale(fmt.Sprintf("%d", i+1), 1000000, 5, 1950, 4000)
	}
	engine := testEngine(t, &fakeParcels{}, &fakeLedger{}, conf.CompsSettings{EnrichConcurrency: 6})

	comps := engine.enrich(context.Background(), evSubject(), sales)
	require.Len(t, comps, len(sales))
	for i := range comps {
		assert.Equal(t, sales[i].BBL, comps[i].BBL, "results merge back at their originating index")
	}
}

func TestEnrichNeighborhoodFlags(t *testing.T) {
	t.Parallel()

	same := candidateSale("1", 1000000, 5, 1950, 4000)
	adjacent := candidateSale("2", 1000000, 5, 1950, 4000)
	adjacent.Neighborhood = "GRAMERCY"
	elsewhere := candidateSale("3", 1000000, 5, 1950, 4000)
	elsewhere.Neighborhood = "RIVERDALE"

	engine := testEngine(t, &fakeParcels{}, &fakeLedger{}, conf.CompsSettings{})
	comps := engine.enrich(context.Background(), evSubject(), []registry.SaleRecord{same, adjacent, elsewhere})
	require.Len(t, comps, 3)

	assert.True(t, comps[0].SameNeighborhood)
	assert.False(t, comps[0].AdjacentNeighborhood)

	assert.False(t, comps[1].SameNeighborhood)
	assert.True(t, comps[1].AdjacentNeighborhood)

	assert.False(t, comps[2].SameNeighborhood)
	assert.False(t, comps[2].AdjacentNeighborhood)
}

func TestEnrichRatesAreNilNotZero(t *testing.T) {
	t.Parallel()

	noPrice := candidateSale("1", 0, 5, 1950, 4000)
	noPrice.SalePrice = nil
	noUnits := candidateSale("2", 1000000, 0, 1950, 4000)
	noUnits.TotalUnits = nil
	zeroSqft := registry.SaleRecord{
		Key:             bbl.NewKey("1", "392", "3"),
		BBL:             "1003920003",
		SalePrice:       fptr(1000000),
		TotalUnits:      iptr(5),
		GrossSquareFeet: fptr(0),
	}

	engine := testEngine(t, &fakeParcels{}, &fakeLedger{}, conf.CompsSettings{})
	comps := engine.enrich(context.Background(), evSubject(), []registry.SaleRecord{noPrice, noUnits, zeroSqft})
	require.Len(t, comps, 3)

	assert.Nil(t, comps[0].PricePerUnit)
	assert.Nil(t, comps[0].PricePerSqft)
	assert.Nil(t, comps[1].PricePerUnit)
	assert.Nil(t, comps[2].PricePerSqft, "zero square footage never yields a zero rate")
	require.NotNil(t, comps[2].PricePerUnit)
	assert.InDelta(t, 200000, *comps[2].PricePerUnit, 0.01)
}
