// Package comps discovers and ranks comparable building sales for a subject
// parcel. The pipeline builds a candidate set from the sales ledger, joins
// each candidate with its parcel inventory record, scores every candidate
// against the subject on a 0-100 similarity scale, and ranks the survivors
// with market-rate aggregates.
package comps

import (
	"context"
	"log/slog"
	"time"

	"github.com/propscope/propscope/internal/bbl"
	"github.com/propscope/propscope/internal/conf"
	"github.com/propscope/propscope/internal/logging"
	"github.com/propscope/propscope/internal/neighborhood"
	"github.com/propscope/propscope/internal/observability/metrics"
	"github.com/propscope/propscope/internal/registry"
)

// Subject carries the attributes comparables are scored against. Zero
// values mean unknown; scoring components degrade to zero contribution on
// unknown inputs rather than failing.
type Subject struct {
	Key           bbl.Key `json:"key"`
	BBL           string  `json:"bbl"`
	Address       string  `json:"address"`
	Neighborhood  string  `json:"neighborhood"`
	BuildingClass string  `json:"building_class"`
	Units         int     `json:"units"`
	UnitsTotal    int     `json:"units_total"`
	YearBuilt     int     `json:"year_built"`
	BuildingArea  float64 `json:"building_area"`
}

// CandidateComp is a candidate sale joined with the best-available parcel
// record for its key. Pointer fields are nil when neither registry knows
// the value; derived rates are nil rather than zero whenever an operand is
// missing.
type CandidateComp struct {
	Key              bbl.Key    `json:"key"`
	BBL              string     `json:"bbl"`
	Address          string     `json:"address"`
	Neighborhood     string     `json:"neighborhood"`
	BuildingClass    string     `json:"building_class"`
	SalePrice        *float64   `json:"sale_price"`
	SaleDate         *time.Time `json:"sale_date"`
	ResidentialUnits *int       `json:"residential_units"`
	TotalUnits       *int       `json:"total_units"`
	YearBuilt        *int       `json:"year_built"`
	BuildingArea     *float64   `json:"building_area"`
	AssessedTotal    *float64   `json:"assessed_total"`

	PricePerUnit *float64 `json:"price_per_unit"`
	PricePerSqft *float64 `json:"price_per_sqft"`

	SameNeighborhood     bool `json:"same_neighborhood"`
	AdjacentNeighborhood bool `json:"adjacent_neighborhood"`

	SimilarityScore int `json:"similarity_score"`

	// Degraded marks a candidate whose inventory join failed or came up
	// empty; its attribute fields fall back to the sale record's own.
	Degraded bool `json:"degraded"`
}

// Result is a ranked comparable set with market-rate aggregates. Averages
// and implied values are nil when no candidate carried the underlying rate
// or the subject lacks the corresponding quantity.
type Result struct {
	Comparables         []CandidateComp `json:"comparables"`
	CandidatesEvaluated int             `json:"candidates_evaluated"`
	AvgPricePerUnit     *float64        `json:"avg_price_per_unit"`
	AvgPricePerSqft     *float64        `json:"avg_price_per_sqft"`
	ImpliedValueByUnits *float64        `json:"implied_value_by_units"`
	ImpliedValueBySqft  *float64        `json:"implied_value_by_sqft"`
}

// Tuning defaults, used when the corresponding setting is unset
const (
	defaultCount      = 10
	maxCount          = 50
	overfetchFactor   = 3
	nominalSalePrice  = 10000
	enrichConcurrency = 4
)

// Engine runs the comparable discovery pipeline
type Engine struct {
	sales     registry.SalesLedger
	parcels   registry.ParcelRegistry
	adjacency *neighborhood.AdjacencyTable
	settings  conf.CompsSettings
	log       *slog.Logger
	metrics   *metrics.CompsMetrics
}

// NewEngine creates a comparable discovery engine. Zero-valued settings
// fall back to package defaults; a nil logger falls back to the shared
// structured logger.
func NewEngine(parcels registry.ParcelRegistry, sales registry.SalesLedger, adjacency *neighborhood.AdjacencyTable, settings conf.CompsSettings, logger *slog.Logger) *Engine {
	if settings.DefaultCount <= 0 {
		settings.DefaultCount = defaultCount
	}
	if settings.MaxCount <= 0 {
		settings.MaxCount = maxCount
	}
	if settings.OverfetchFactor <= 0 {
		settings.OverfetchFactor = overfetchFactor
	}
	if settings.NominalSalePrice <= 0 {
		settings.NominalSalePrice = nominalSalePrice
	}
	if settings.EnrichConcurrency <= 0 {
		settings.EnrichConcurrency = enrichConcurrency
	}
	if logger == nil {
		logger = logging.ForService("comps")
	}
	return &Engine{
		sales:     sales,
		parcels:   parcels,
		adjacency: adjacency,
		settings:  settings,
		log:       logger,
	}
}

// SetMetrics attaches a metrics collector. Call before serving; the engine
// works without one.
func (e *Engine) SetMetrics(m *metrics.CompsMetrics) {
	e.metrics = m
}

// Find runs the full pipeline for a subject and returns the ranked
// comparable set. The candidate-set query is the only fatal call;
// per-candidate enrichment failures degrade the affected candidate only.
func (e *Engine) Find(ctx context.Context, subject Subject, requested int) (*Result, error) {
	start := time.Now()
	requested = e.clampCount(requested)

	candidates, err := e.buildCandidates(ctx, subject, requested)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordSearch("error")
		}
		return nil, err
	}

	enriched := e.enrich(ctx, subject, candidates)
	for i := range enriched {
		enriched[i].SimilarityScore = e.score(subject, &enriched[i])
	}
	result := e.rank(subject, enriched, requested)

	if e.metrics != nil {
		e.metrics.RecordSearch("success")
		e.metrics.RecordSearchDuration(time.Since(start).Seconds())
		e.metrics.RecordResultsReturned(len(result.Comparables))
	}
	e.log.Debug("comparable search finished",
		"subject", subject.BBL,
		"evaluated", result.CandidatesEvaluated,
		"returned", len(result.Comparables),
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// clampCount resolves the requested result count against the configured
// default and hard cap
func (e *Engine) clampCount(requested int) int {
	if requested <= 0 {
		return e.settings.DefaultCount
	}
	if requested > e.settings.MaxCount {
		return e.settings.MaxCount
	}
	return requested
}
