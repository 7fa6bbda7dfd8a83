// Package analysis is the orchestration core of propscope. It wires the
// registry collaborators to the inference engines and exposes the four
// caller operations: property lookup, sales search, comparable search,
// and tax benefit lookup. Subject resolution and the candidate-set query
// are the only fatal calls; every secondary fetch degrades visibly in the
// result instead of failing the operation.
package analysis

import (
	"log/slog"

	"github.com/propscope/propscope/internal/comps"
	"github.com/propscope/propscope/internal/conf"
	"github.com/propscope/propscope/internal/logging"
	"github.com/propscope/propscope/internal/neighborhood"
	"github.com/propscope/propscope/internal/observability/metrics"
	"github.com/propscope/propscope/internal/registry"
	"github.com/propscope/propscope/internal/regulation"
	"github.com/propscope/propscope/internal/taxbenefit"
)

// Core bundles the registry collaborators and inference engines behind
// the caller-facing operations.
type Core struct {
	parcels   registry.ParcelRegistry
	sales     registry.SalesLedger
	neighbors *neighborhood.Engine
	comps     *comps.Engine
	benefits  *taxbenefit.Aggregator
	log       *slog.Logger
}

// New assembles the analysis core over the registry bundle. A nil logger
// falls back to the shared analysis service logger.
func New(registries *registry.Registries, settings *conf.Settings, logger *slog.Logger) (*Core, error) {
	if logger == nil {
		logger = logging.ForService("analysis")
	}

	adjacency, err := neighborhood.LoadAdjacencyTable()
	if err != nil {
		return nil, err
	}

	return &Core{
		parcels:   registries.Parcels,
		sales:     registries.Sales,
		neighbors: neighborhood.NewEngine(registries.Sales, logger),
		comps:     comps.NewEngine(registries.Parcels, registries.Sales, adjacency, settings.Comps, logger),
		benefits:  taxbenefit.NewAggregator(registries.Benefits, logger),
		log:       logger,
	}, nil
}

// SetMetrics attaches the comparable pipeline metrics collector.
func (c *Core) SetMetrics(m *metrics.CompsMetrics) {
	c.comps.SetMetrics(m)
}

// regulationFacts maps a parcel record, and optionally a benefit summary,
// onto the inference rule inputs. Nil pointer attributes stay zero, which
// the rules read as unknown.
func regulationFacts(p *registry.ParcelRecord, benefits *taxbenefit.Summary) regulation.Facts {
	f := regulation.Facts{
		BuildingClass: p.BuildingClass,
		OwnerName:     p.OwnerName,
	}
	if p.YearBuilt != nil {
		f.YearBuilt = *p.YearBuilt
	}
	if p.ResidentialUnits != nil {
		f.ResidentialUnits = *p.ResidentialUnits
	}
	if p.TotalUnits != nil {
		f.TotalUnits = *p.TotalUnits
	}
	if benefits != nil {
		f.Has421a = benefits.Has421a
		f.HasJ51 = benefits.HasJ51
	}
	return f
}
