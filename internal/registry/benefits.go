package registry

import (
	"context"
	"strings"

	"github.com/propscope/propscope/internal/socrata"
)

// maxBenefitRows caps a per-BBL benefit query. A single parcel rarely
// carries more than a handful of active benefit lines.
const maxBenefitRows = 100

// SocrataTaxBenefitRegistry reads the exemption and abatement datasets
type SocrataTaxBenefitRegistry struct {
	client            *socrata.Client
	exemptionsDataset string
	abatementsDataset string
}

// NewTaxBenefitRegistry creates a benefit registry adapter over the two
// datasets
func NewTaxBenefitRegistry(client *socrata.Client, exemptionsDataset, abatementsDataset string) *SocrataTaxBenefitRegistry {
	return &SocrataTaxBenefitRegistry{
		client:            client,
		exemptionsDataset: exemptionsDataset,
		abatementsDataset: abatementsDataset,
	}
}

type exemptionRow struct {
	ParID       socrata.String `json:"parid"`
	Code        string         `json:"exemption_code"`
	Description string         `json:"exemption_description"`
	Value       socrata.Float  `json:"exempt_value"`
	TaxYear     socrata.String `json:"tax_year"`
}

type abatementRow struct {
	ParID       socrata.String `json:"parid"`
	Code        string         `json:"abatement_code"`
	Description string         `json:"abatement_description"`
	Amount      socrata.Float  `json:"abatement_amount"`
	TaxYear     socrata.String `json:"tax_year"`
}

// QueryExemptions returns every exemption row recorded for a padded BBL
func (r *SocrataTaxBenefitRegistry) QueryExemptions(ctx context.Context, bblID string) ([]ExemptionRow, error) {
	var rows []exemptionRow
	q := socrata.Query{Where: BenefitsByBBL(bblID), Limit: maxBenefitRows}
	if err := r.client.Fetch(ctx, r.exemptionsDataset, q, &rows); err != nil {
		return nil, err
	}

	out := make([]ExemptionRow, 0, len(rows))
	for i := range rows {
		out = append(out, ExemptionRow{
			BBL:         rows[i].ParID.String(),
			Code:        strings.TrimSpace(rows[i].Code),
			Description: strings.TrimSpace(rows[i].Description),
			Value:       rows[i].Value.Ptr(),
			TaxYear:     rows[i].TaxYear.String(),
		})
	}
	return out, nil
}

// QueryAbatements returns every abatement row recorded for a padded BBL
func (r *SocrataTaxBenefitRegistry) QueryAbatements(ctx context.Context, bblID string) ([]AbatementRow, error) {
	var rows []abatementRow
	q := socrata.Query{Where: BenefitsByBBL(bblID), Limit: maxBenefitRows}
	if err := r.client.Fetch(ctx, r.abatementsDataset, q, &rows); err != nil {
		return nil, err
	}

	out := make([]AbatementRow, 0, len(rows))
	for i := range rows {
		out = append(out, AbatementRow{
			BBL:         rows[i].ParID.String(),
			Code:        strings.TrimSpace(rows[i].Code),
			Description: strings.TrimSpace(rows[i].Description),
			Amount:      rows[i].Amount.Ptr(),
			TaxYear:     rows[i].TaxYear.String(),
		})
	}
	return out, nil
}
