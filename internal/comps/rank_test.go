package comps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propscope/propscope/internal/conf"
)

func TestRankSortsByScoreDescending(t *testing.T) {
	t.Parallel()

	engine := testEngine(t, &fakeParcels{}, &fakeLedger{}, conf.CompsSettings{})
	candidates := []CandidateComp{
		{BBL: "a", SimilarityScore: 70},
		{BBL: "b", SimilarityScore: 90},
		{BBL: "c", SimilarityScore: 80},
	}

	result := engine.rank(Subject{}, candidates, 10)
	require.Len(t, result.Comparables, 3)
	assert.Equal(t, "b", result.Comparables[0].BBL)
	assert.Equal(t, "c", result.Comparables[1].BBL)
	assert.Equal(t, "a", result.Comparables[2].BBL)
	assert.Equal(t, 3, result.CandidatesEvaluated)
}

func TestRankAggregates(t *testing.T) {
	t.Parallel()

	engine := testEngine(t, &fakeParcels{}, &fakeLedger{}, conf.CompsSettings{})
	subject := Subject{UnitsTotal: 10, BuildingArea: 10000}
	candidates := []CandidateComp{
		{PricePerUnit: fptr(500000), PricePerSqft: fptr(800), SimilarityScore: 90},
		{PricePerUnit: fptr(700000), SimilarityScore: 80},
		{PricePerSqft: fptr(1000), SimilarityScore: 70},
	}

	result := engine.rank(subject, candidates, 10)

	require.NotNil(t, result.AvgPricePerUnit)
	assert.InDelta(t, 600000, *result.AvgPricePerUnit, 0.01, "mean over non-nil rates only")
	require.NotNil(t, result.AvgPricePerSqft)
	assert.InDelta(t, 900, *result.AvgPricePerSqft, 0.01)

	require.NotNil(t, result.ImpliedValueByUnits)
	assert.InDelta(t, 6000000, *result.ImpliedValueByUnits, 0.01)
	require.NotNil(t, result.ImpliedValueBySqft)
	assert.InDelta(t, 9000000, *result.ImpliedValueBySqft, 0.01)
}

func TestRankAggregatesOverTruncatedSet(t *testing.T) {
	t.Parallel()

	engine := testEngine(t, &fakeParcels{}, &fakeLedger{}, conf.CompsSettings{})
	candidates := []CandidateComp{
		{PricePerUnit: fptr(100), SimilarityScore: 90},
		{PricePerUnit: fptr(200), SimilarityScore: 80},
		{PricePerUnit: fptr(4000), SimilarityScore: 70},
	}

	result := engine.rank(Subject{UnitsTotal: 2}, candidates, 2)

	require.Len(t, result.Comparables, 2)
	assert.Equal(t, 3, result.CandidatesEvaluated)
	require.NotNil(t, result.AvgPricePerUnit)
	assert.InDelta(t, 150, *result.AvgPricePerUnit, 0.01, "the cut candidate does not influence the mean")
}

func TestRankNullAggregates(t *testing.T) {
	t.Parallel()

	engine := testEngine(t, &fakeParcels{}, &fakeLedger{}, conf.CompsSettings{})

	// No candidate carries a rate: means and implied values stay nil
	result := engine.rank(Subject{UnitsTotal: 10, BuildingArea: 10000}, []CandidateComp{
		{SimilarityScore: 50},
	}, 10)
	assert.Nil(t, result.AvgPricePerUnit)
	assert.Nil(t, result.AvgPricePerSqft)
	assert.Nil(t, result.ImpliedValueByUnits)
	assert.Nil(t, result.ImpliedValueBySqft)

	// Means exist but the subject lacks the quantities: implied values nil
	result = engine.rank(Subject{}, []CandidateComp{
		{PricePerUnit: fptr(500000), PricePerSqft: fptr(900), SimilarityScore: 50},
	}, 10)
	require.NotNil(t, result.AvgPricePerUnit)
	require.NotNil(t, result.AvgPricePerSqft)
	assert.Nil(t, result.ImpliedValueByUnits)
	assert.Nil(t, result.ImpliedValueBySqft)
}
