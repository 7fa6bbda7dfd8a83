package taxbenefit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propscope/propscope/internal/bbl"
	"github.com/propscope/propscope/internal/registry"
)

// fakeBenefits scripts one reply per source and records which padded BBLs
// were queried. Both sources run concurrently, so call recording locks.
type fakeBenefits struct {
	mu    sync.Mutex
	calls []string

	exRows []registry.ExemptionRow
	exErr  error
	abRows []registry.AbatementRow
	abErr  error
}

func (f *fakeBenefits) QueryExemptions(_ context.Context, bblID string) ([]registry.ExemptionRow, error) {
	f.record("exemptions:" + bblID)
	if f.exErr != nil {
		return nil, f.exErr
	}
	return f.exRows, nil
}

func (f *fakeBenefits) QueryAbatements(_ context.Context, bblID string) ([]registry.AbatementRow, error) {
	f.record("abatements:" + bblID)
	if f.abErr != nil {
		return nil, f.abErr
	}
	return f.abRows, nil
}

func (f *fakeBenefits) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func newTestAggregator(benefits registry.TaxBenefitRegistry) *Aggregator {
	return NewAggregator(benefits, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func fptr(v float64) *float64 { return &v }

func TestSummarizeCollectsBothSources(t *testing.T) {
	t.Parallel()

	fake := &fakeBenefits{
		exRows: []registry.ExemptionRow{
			{BBL: "1003910016", Code: "1017", Description: "421A AFFORDABLE", Value: fptr(12500), TaxYear: "2024"},
			{BBL: "1003910016", Code: "5110", Description: "SCHOOL TAX RELIEF", Value: nil, TaxYear: "2023"},
		},
		abRows: []registry.AbatementRow{
			{BBL: "1003910016", Code: "J51", Description: "ALTERATION ABATEMENT", Amount: fptr(900.50), TaxYear: "2024"},
		},
	}

	s := newTestAggregator(fake).Summarize(context.Background(), bbl.NewKey("1", "391", "16"))

	assert.Equal(t, "1003910016", s.BBL)
	assert.Len(t, s.Exemptions, 2)
	assert.Len(t, s.Abatements, 1)
	assert.True(t, s.Has421a)
	assert.True(t, s.HasJ51)
	assert.False(t, s.Has420c)
	assert.False(t, s.HasSCRIE)
	// The nil-valued exemption contributes nothing to the total.
	assert.InDelta(t, 12500, s.TotalExemptionValue, 0.001)
	assert.InDelta(t, 900.50, s.TotalAbatementAmount, 0.001)
	assert.Empty(t, s.DegradedSources)

	assert.ElementsMatch(t,
		[]string{"exemptions:1003910016", "abatements:1003910016"},
		fake.calls)
}

func TestSummarizeExemptionFailureDegradesOnlyThatSource(t *testing.T) {
	t.Parallel()

	fake := &fakeBenefits{
		exErr: errors.New("portal returned status 503"),
		abRows: []registry.AbatementRow{
			{BBL: "1003910016", Code: "421-A", Description: "NEW CONSTRUCTION", Amount: fptr(1500), TaxYear: "2024"},
		},
	}

	s := newTestAggregator(fake).Summarize(context.Background(), bbl.NewKey("1", "391", "16"))

	require.NotNil(t, s.Exemptions)
	assert.Empty(t, s.Exemptions)
	assert.Len(t, s.Abatements, 1)
	assert.True(t, s.Has421a)
	assert.Zero(t, s.TotalExemptionValue)
	assert.InDelta(t, 1500, s.TotalAbatementAmount, 0.001)
	assert.Equal(t, []string{SourceExemptions}, s.DegradedSources)

	// The failed source must render as an empty list, never null.
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"exemptions":[]`)
	assert.Contains(t, string(data), `"degraded_sources":["exemptions"]`)
}

func TestSummarizeBothSourcesDegraded(t *testing.T) {
	t.Parallel()

	fake := &fakeBenefits{
		exErr: errors.New("connection refused"),
		abErr: errors.New("connection refused"),
	}

	s := newTestAggregator(fake).Summarize(context.Background(), bbl.NewKey("3", "1234", "56"))

	assert.Equal(t, "3012340056", s.BBL)
	require.NotNil(t, s.Exemptions)
	require.NotNil(t, s.Abatements)
	assert.Empty(t, s.Exemptions)
	assert.Empty(t, s.Abatements)
	assert.False(t, s.Has421a)
	assert.False(t, s.HasJ51)
	assert.False(t, s.Has420c)
	assert.False(t, s.HasSCRIE)
	assert.Zero(t, s.TotalExemptionValue)
	assert.Zero(t, s.TotalAbatementAmount)
	assert.Equal(t, []string{SourceExemptions, SourceAbatements}, s.DegradedSources)
}

func TestProgramFlagMatching(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		exemptions []registry.ExemptionRow
		abatements []registry.AbatementRow
		want421a   bool
		wantJ51    bool
		want420c   bool
		wantSCRIE  bool
	}{
		{
			name:       "hyphenated 421-A in exemption code",
			exemptions: []registry.ExemptionRow{{Code: "421-A", Description: "NEW MULTIPLE DWELLINGS"}},
			want421a:   true,
		},
		{
			name:       "compact 421A inside description",
			exemptions: []registry.ExemptionRow{{Code: "1017", Description: "421A PARTIAL EXEMPTION"}},
			want421a:   true,
		},
		{
			name:       "hyphenated J-51 in abatement code",
			abatements: []registry.AbatementRow{{Code: "J-51", Description: "MAJOR CAPITAL IMPROVEMENT"}},
			wantJ51:    true,
		},
		{
			name:       "compact J51 in abatement description",
			abatements: []registry.AbatementRow{{Code: "A1", Description: "J51 ALTERATION"}},
			wantJ51:    true,
		},
		{
			name:       "hyphenated 420-C housing program",
			exemptions: []registry.ExemptionRow{{Code: "420-C", Description: "LOW INCOME HOUSING"}},
			want420c:   true,
		},
		{
			name:       "compact 420C",
			exemptions: []registry.ExemptionRow{{Code: "420C", Description: ""}},
			want420c:   true,
		},
		{
			name:       "SCRIE acronym",
			exemptions: []registry.ExemptionRow{{Code: "SCRIE", Description: "RENT FREEZE"}},
			wantSCRIE:  true,
		},
		{
			name:       "senior citizen long form in mixed case",
			exemptions: []registry.ExemptionRow{{Code: "5129", Description: "Senior Citizen Rent Increase Exemption"}},
			wantSCRIE:  true,
		},
		{
			name:       "unrelated programs set no flags",
			exemptions: []registry.ExemptionRow{{Code: "5110", Description: "BASIC STAR"}},
			abatements: []registry.AbatementRow{{Code: "CR", Description: "COOP CONDO ABATEMENT"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fake := &fakeBenefits{exRows: tt.exemptions, abRows: tt.abatements}
			s := newTestAggregator(fake).Summarize(context.Background(), bbl.NewKey("1", "391", "16"))

			assert.Equal(t, tt.want421a, s.Has421a, "has_421a")
			assert.Equal(t, tt.wantJ51, s.HasJ51, "has_j51")
			assert.Equal(t, tt.want420c, s.Has420c, "has_420c")
			assert.Equal(t, tt.wantSCRIE, s.HasSCRIE, "has_scrie")
		})
	}
}

func TestSummarizeSumsAcrossAllTaxYears(t *testing.T) {
	t.Parallel()

	fake := &fakeBenefits{
		exRows: []registry.ExemptionRow{
			{Code: "1017", Value: fptr(1000), TaxYear: "2022"},
			{Code: "1017", Value: fptr(1100), TaxYear: "2023"},
			{Code: "1017", Value: fptr(1200), TaxYear: "2024"},
		},
		abRows: []registry.AbatementRow{
			{Code: "J51", Amount: fptr(300), TaxYear: "2023"},
			{Code: "J51", Amount: fptr(400), TaxYear: "2024"},
		},
	}

	s := newTestAggregator(fake).Summarize(context.Background(), bbl.NewKey("1", "391", "16"))

	assert.InDelta(t, 3300, s.TotalExemptionValue, 0.001)
	assert.InDelta(t, 700, s.TotalAbatementAmount, 0.001)
}
