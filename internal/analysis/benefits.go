package analysis

import (
	"context"

	"github.com/propscope/propscope/internal/bbl"
	"github.com/propscope/propscope/internal/taxbenefit"
)

// GetTaxBenefits returns the benefit summary for a 10-digit BBL. A
// malformed BBL fails before any registry call; registry failures degrade
// per source inside the summary.
func (c *Core) GetTaxBenefits(ctx context.Context, bblID string) (*taxbenefit.Summary, error) {
	key, err := bbl.ParseBBL(bblID)
	if err != nil {
		return nil, err
	}
	return c.benefits.Summarize(ctx, key), nil
}
