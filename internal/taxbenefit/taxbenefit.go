// Package taxbenefit aggregates a parcel's exemption and abatement rows
// into program flags and benefit totals. The two registries are queried
// concurrently and each degrades independently: a failed source yields an
// empty row list and an entry in DegradedSources, never an error to the
// caller.
package taxbenefit

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/propscope/propscope/internal/bbl"
	"github.com/propscope/propscope/internal/logging"
	"github.com/propscope/propscope/internal/registry"
)

// Source names reported in DegradedSources when a registry call fails.
const (
	SourceExemptions = "exemptions"
	SourceAbatements = "abatements"
)

// Summary is the aggregated benefit picture for one parcel. Row lists are
// always non-nil so an empty or degraded source renders as [] rather than
// null. Totals sum every returned row regardless of tax year.
type Summary struct {
	BBL                  string                  `json:"bbl"`
	Exemptions           []registry.ExemptionRow `json:"exemptions"`
	Abatements           []registry.AbatementRow `json:"abatements"`
	Has421a              bool                    `json:"has_421a"`
	HasJ51               bool                    `json:"has_j51"`
	Has420c              bool                    `json:"has_420c"`
	HasSCRIE             bool                    `json:"has_scrie"`
	TotalExemptionValue  float64                 `json:"total_exemption_value"`
	TotalAbatementAmount float64                 `json:"total_abatement_amount"`
	DegradedSources      []string                `json:"degraded_sources,omitempty"`
}

// Aggregator assembles benefit summaries from the exemption and abatement
// registries.
type Aggregator struct {
	benefits registry.TaxBenefitRegistry
	log      *slog.Logger
}

// NewAggregator creates a benefit aggregator. A nil logger falls back to
// the shared taxbenefit service logger.
func NewAggregator(benefits registry.TaxBenefitRegistry, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = logging.ForService("taxbenefit")
	}
	return &Aggregator{benefits: benefits, log: logger}
}

// Summarize queries both benefit registries for the parcel and folds the
// rows into flags and totals. Registry failures degrade the affected
// source only, so the summary itself never fails.
func (a *Aggregator) Summarize(ctx context.Context, key bbl.Key) *Summary {
	id := key.BBL()
	s := &Summary{
		BBL:        id,
		Exemptions: []registry.ExemptionRow{},
		Abatements: []registry.AbatementRow{},
	}

	var (
		exRows []registry.ExemptionRow
		abRows []registry.AbatementRow
		exErr  error
		abErr  error
	)
	var g errgroup.Group
	g.Go(func() error {
		exRows, exErr = a.benefits.QueryExemptions(ctx, id)
		return nil
	})
	g.Go(func() error {
		abRows, abErr = a.benefits.QueryAbatements(ctx, id)
		return nil
	})
	_ = g.Wait()

	if exErr != nil {
		a.log.Warn("exemption registry unavailable, continuing without it",
			"bbl", id, "error", exErr)
		s.DegradedSources = append(s.DegradedSources, SourceExemptions)
	} else {
		s.Exemptions = append(s.Exemptions, exRows...)
	}
	if abErr != nil {
		a.log.Warn("abatement registry unavailable, continuing without it",
			"bbl", id, "error", abErr)
		s.DegradedSources = append(s.DegradedSources, SourceAbatements)
	} else {
		s.Abatements = append(s.Abatements, abRows...)
	}

	text := programText(s.Exemptions, s.Abatements)
	s.Has421a = containsAny(text, "421-A", "421A")
	s.HasJ51 = containsAny(text, "J-51", "J51")
	s.Has420c = containsAny(text, "420-C", "420C")
	s.HasSCRIE = containsAny(text, "SCRIE", "SENIOR CITIZEN RENT INCREASE")

	for i := range s.Exemptions {
		if s.Exemptions[i].Value != nil {
			s.TotalExemptionValue += *s.Exemptions[i].Value
		}
	}
	for i := range s.Abatements {
		if s.Abatements[i].Amount != nil {
			s.TotalAbatementAmount += *s.Abatements[i].Amount
		}
	}

	a.log.Debug("benefit summary assembled",
		"bbl", id,
		"exemptions", len(s.Exemptions),
		"abatements", len(s.Abatements),
		"degraded", len(s.DegradedSources))
	return s
}

// programText joins every code and description from both sources into one
// uppercase haystack. Fields are space separated so tokens cannot form
// across row boundaries.
func programText(exemptions []registry.ExemptionRow, abatements []registry.AbatementRow) string {
	var b strings.Builder
	for i := range exemptions {
		b.WriteString(exemptions[i].Code)
		b.WriteByte(' ')
		b.WriteString(exemptions[i].Description)
		b.WriteByte(' ')
	}
	for i := range abatements {
		b.WriteString(abatements[i].Code)
		b.WriteByte(' ')
		b.WriteString(abatements[i].Description)
		b.WriteByte(' ')
	}
	return strings.ToUpper(b.String())
}

func containsAny(text string, tokens ...string) bool {
	for _, token := range tokens {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}
