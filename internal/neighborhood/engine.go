// Package neighborhood assigns a market micro-area label to a parcel when
// the registries carry none of their own. The parcel inventory has no area
// column, so the label is inferred from nearby entries in the sales ledger
// via a best-effort cascade over the parcel's own sales, its block, and the
// neighboring blocks.
package neighborhood

import (
	"context"
	"log/slog"

	"github.com/propscope/propscope/internal/bbl"
	"github.com/propscope/propscope/internal/errors"
	"github.com/propscope/propscope/internal/logging"
	"github.com/propscope/propscope/internal/registry"
	"github.com/propscope/propscope/internal/socrata"
)

// ErrUndetermined reports that the cascade exhausted every step without
// finding a labeled sale near the parcel. Callers that require a label
// (comparable search) fail explicitly on it rather than guessing.
var ErrUndetermined = errors.NewStd("neighborhood could not be determined")

// Per-step ledger fetch limits. The cascade is a heuristic, not an
// exhaustive search; small samples keep it cheap and deterministic.
const (
	exactSalesLimit    = 10
	blockSalesLimit    = 5
	adjacentBlockLimit = 3
)

// Engine infers a parcel's market micro-area from the sales ledger
type Engine struct {
	sales registry.SalesLedger
	log   *slog.Logger
}

// NewEngine creates an inference engine over the given ledger. A nil logger
// falls back to the shared structured logger.
func NewEngine(sales registry.SalesLedger, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.ForService("neighborhood")
	}
	return &Engine{sales: sales, log: logger}
}

// Infer resolves the micro-area label for a parcel key, stopping at the
// first cascade step that produces one:
//
//  1. sales recorded against the exact key, first non-empty label
//  2. positive-price sales on the same block, mode of their labels
//  3. the preceding block, then the following block, mode of the first
//     block yielding any labeled sale
//
// A failed ledger query counts as an empty step and the cascade continues.
// When every step comes up empty the error wraps ErrUndetermined.
func (e *Engine) Infer(ctx context.Context, key bbl.Key) (string, error) {
	if label := firstLabel(e.step(ctx, "exact_key", registry.SalesByKey(key), exactSalesLimit)); label != "" {
		e.log.Debug("neighborhood inferred from parcel's own sales",
			"bbl", key.BBL(), "neighborhood", label)
		return label, nil
	}

	block := key.BlockNumber()
	sameBlock := socrata.And(registry.SalesOnBlock(key.Borough, block), registry.SalesPositivePrice())
	if label := labelMode(e.step(ctx, "same_block", sameBlock, blockSalesLimit)); label != "" {
		e.log.Debug("neighborhood inferred from block sales",
			"bbl", key.BBL(), "block", block, "neighborhood", label)
		return label, nil
	}

	for _, nb := range []int{block - 1, block + 1} {
		if nb <= 0 {
			continue
		}
		if label := labelMode(e.step(ctx, "adjacent_block", registry.SalesOnBlock(key.Borough, nb), adjacentBlockLimit)); label != "" {
			e.log.Debug("neighborhood inferred from adjacent block sales",
				"bbl", key.BBL(), "block", nb, "neighborhood", label)
			return label, nil
		}
	}

	return "", errors.New(ErrUndetermined).
		Category(errors.CategoryNotFound).
		Context("bbl", key.BBL()).
		Component("neighborhood").
		Build()
}

// step runs one cascade query. Errors degrade to an empty result so a
// transient ledger failure never aborts the cascade.
func (e *Engine) step(ctx context.Context, name string, filter socrata.Predicate, limit int) []registry.SaleRecord {
	records, err := e.sales.Query(ctx, filter, limit)
	if err != nil {
		e.log.Warn("ledger query failed during neighborhood inference, continuing cascade",
			"step", name, "error", err)
		return nil
	}
	return records
}

// firstLabel returns the first non-empty area label in ledger order
func firstLabel(records []registry.SaleRecord) string {
	for i := range records {
		if label := NormalizeLabel(records[i].Neighborhood); label != "" {
			return label
		}
	}
	return ""
}

// labelMode returns the most frequent non-empty label. Ties go to the
// label encountered first, which keeps the result deterministic for a
// fixed ledger response.
func labelMode(records []registry.SaleRecord) string {
	counts := make(map[string]int, len(records))
	order := make([]string, 0, len(records))
	for i := range records {
		label := NormalizeLabel(records[i].Neighborhood)
		if label == "" {
			continue
		}
		if counts[label] == 0 {
			order = append(order, label)
		}
		counts[label]++
	}

	best, bestCount := "", 0
	for _, label := range order {
		if counts[label] > bestCount {
			best, bestCount = label, counts[label]
		}
	}
	return best
}
