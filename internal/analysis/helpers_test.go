package analysis

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/propscope/propscope/internal/bbl"
	"github.com/propscope/propscope/internal/conf"
	"github.com/propscope/propscope/internal/registry"
	"github.com/propscope/propscope/internal/socrata"
)

// fakeInventory serves parcel rows keyed by the rendered filter and
// records every query it sees. Enrichment hits it concurrently.
type fakeInventory struct {
	mu    sync.Mutex
	rows  map[string][]registry.ParcelRecord
	fail  map[string]error
	calls []string
}

func (f *fakeInventory) Query(_ context.Context, filter socrata.Predicate, _ int) ([]registry.ParcelRecord, error) {
	where, err := socrata.Render(filter)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, where)
	if e, ok := f.fail[where]; ok {
		return nil, e
	}
	return f.rows[where], nil
}

// routedLedger answers ledger queries by filter shape: exact-key filters
// feed the area cascade and sales search, price-floor filters feed the
// candidate builder, block-level cascade steps get nothing.
type routedLedger struct {
	mu         sync.Mutex
	keySales   []registry.SaleRecord
	candidates []registry.SaleRecord
	wheres     []string
	limits     []int
}

func (f *routedLedger) Query(_ context.Context, filter socrata.Predicate, limit int) ([]registry.SaleRecord, error) {
	where, err := socrata.Render(filter)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.wheres = append(f.wheres, where)
	f.limits = append(f.limits, limit)
	f.mu.Unlock()

	switch {
	case strings.Contains(where, "lot ="):
		return f.keySales, nil
	case strings.Contains(where, "sale_price"):
		return f.candidates, nil
	default:
		return nil, nil
	}
}

// fakeBenefits scripts one reply per benefit source.
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

func newTestCore(t *testing.T, parcels *fakeInventory, sales *routedLedger, benefits *fakeBenefits) *Core {
	t.Helper()
	if parcels.rows == nil {
		parcels.rows = map[string][]registry.ParcelRecord{}
	}
	core, err := New(
		&registry.Registries{Parcels: parcels, Sales: sales, Benefits: benefits},
		&conf.Settings{},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return core
}

func iptr(v int) *int         { return &v }
func fptr(v float64) *float64 { return &v }

// evParcel is the standing subject fixture: an East Village elevator
// building at 229 East 12th Street.
func evParcel() registry.ParcelRecord {
	return registry.ParcelRecord{
		Key:              bbl.NewKey("1", "391", "16"),
		BBL:              "1003910016",
		Address:          "229 EAST 12 STREET",
		BuildingClass:    "D4",
		OwnerName:        "229 OWNERS CORP",
		ResidentialUnits: iptr(8),
		TotalUnits:       iptr(10),
		YearBuilt:        iptr(1920),
		BuildingArea:     fptr(10000),
		AssessedTotal:    fptr(2500000),
	}
}

// Rendered filters the resolver issues for the standing fixture address.
const (
	evPrimaryWhere    = "(starts_with(address, '229 EAST 12 STREET') AND borocode = 1)"
	evNoBoroughWhere  = "starts_with(address, '229 EAST 12 STREET')"
	evShortenedWhere  = "(starts_with(address, '229 EAST 12') AND borocode = 1)"
	evParcelKeyWhere  = "(borocode = 1 AND block = 391 AND lot = 16)"
	evSalesByKeyWhere = "(borough = '1' AND block = 391 AND lot = 16)"
)
