package analysis

import (
	"context"

	"github.com/propscope/propscope/internal/registry"
	"github.com/propscope/propscope/internal/regulation"
	"github.com/propscope/propscope/internal/taxbenefit"
)

// PropertyRequest asks for one property by address. IncludeBenefits also
// queries the benefit registries and folds the program flags into the
// regulation assessment.
type PropertyRequest struct {
	Address         string `json:"address"`
	Borough         string `json:"borough,omitempty"`
	IncludeBenefits bool   `json:"include_benefits,omitempty"`
}

// PropertyResult is the resolved parcel with its regulation assessment.
// Benefits is present only when the request asked for it.
type PropertyResult struct {
	Parcel     *registry.ParcelRecord `json:"parcel"`
	Assessment *regulation.Assessment `json:"regulation_assessment"`
	Benefits   *taxbenefit.Summary    `json:"tax_benefits,omitempty"`
}

// LookupProperty resolves the address and assesses regulation status from
// the parcel's structural attributes. With IncludeBenefits set, the
// benefit flags refine the assessment; a degraded benefit lookup still
// refines with whatever rows arrived, visible in the summary's
// degraded_sources.
func (c *Core) LookupProperty(ctx context.Context, req PropertyRequest) (*PropertyResult, error) {
	parcel, err := c.resolve(ctx, req.Address, req.Borough)
	if err != nil {
		return nil, err
	}

	var summary *taxbenefit.Summary
	if req.IncludeBenefits {
		summary = c.benefits.Summarize(ctx, parcel.Key)
	}

	assessment := regulation.Assess(regulationFacts(parcel, summary))

	c.log.Debug("property lookup complete",
		"bbl", parcel.BBL,
		"likely_stabilized", assessment.LikelyStabilized,
		"benefits_included", req.IncludeBenefits)

	return &PropertyResult{
		Parcel:     parcel,
		Assessment: assessment,
		Benefits:   summary,
	}, nil
}
