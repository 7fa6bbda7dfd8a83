package comps

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/propscope/propscope/internal/errors"
	"github.com/propscope/propscope/internal/registry"
	"github.com/propscope/propscope/internal/socrata"
)

// buildCandidates queries the ledger for sales plausibly comparable to the
// subject: priced above the nominal-sale threshold, in the subject's
// borough, matching its building-class category, whole-building transfers
// only, in an area compatible with the subject's. Over-fetches at the
// configured multiple of the requested count so self-exclusion and score
// truncation still leave enough results, and drops any sale of the subject
// parcel itself.
func (e *Engine) buildCandidates(ctx context.Context, subject Subject, requested int) ([]registry.SaleRecord, error) {
	labels := e.adjacency.Compatible(subject.Neighborhood, e.settings.IncludeAdjacent)
	if len(labels) == 0 {
		return nil, errors.Newf("subject has no area label to search").
			Category(errors.CategoryValidation).
			Context("bbl", subject.BBL).
			Component("comps").
			Build()
	}

	preds := []socrata.Predicate{
		registry.SalesAboveNominal(e.settings.NominalSalePrice),
		registry.SalesInBorough(subject.Key.Borough),
	}
	if category := classCategory(subject.BuildingClass); category != "" {
		preds = append(preds, registry.SalesClassCategory(category))
	}
	preds = append(preds,
		registry.SalesWholeBuilding(),
		registry.SalesInNeighborhoods(labels),
	)

	limit := requested * e.settings.OverfetchFactor
	records, err := e.sales.Query(ctx, socrata.And(preds...), limit)
	if err != nil {
		return nil, err
	}

	kept := make([]registry.SaleRecord, 0, len(records))
	for i := range records {
		if records[i].Key == subject.Key {
			continue
		}
		kept = append(kept, records[i])
	}

	if e.metrics != nil {
		e.metrics.RecordCandidates("fetched", len(records))
		e.metrics.RecordCandidates("kept", len(kept))
	}
	e.log.Debug("candidate set built",
		"subject", subject.BBL,
		"labels", labels,
		"fetched", len(records),
		"kept", len(kept))
	return kept, nil
}

// classCategory returns the leading character of a building class code,
// empty when the class is unknown
func classCategory(class string) string {
	class = strings.ToUpper(strings.TrimSpace(class))
	if class == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(class)
	return string(r)
}
