package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propscope/propscope/internal/bbl"
	apperrors "github.com/propscope/propscope/internal/errors"
	"github.com/propscope/propscope/internal/registry"
)

func saleOn(day int, price float64) registry.SaleRecord {
	date := time.Date(2024, time.March, day, 0, 0, 0, 0, time.UTC)
	return registry.SaleRecord{
		Key:       bbl.NewKey("1", "391", "16"),
		BBL:       "1003910016",
		Address:   "229 EAST 12 STREET",
		SalePrice: fptr(price),
		SaleDate:  &date,
	}
}

func TestSearchSalesByBBL(t *testing.T) {
	t.Parallel()

	parcels := &fakeInventory{}
	ledger := &routedLedger{keySales: []registry.SaleRecord{saleOn(15, 7350000), saleOn(1, 6100000)}}
	core := newTestCore(t, parcels, ledger, &fakeBenefits{})

	result, err := core.SearchSales(context.Background(), SalesRequest{BBL: "1003910016"})

	require.NoError(t, err)
	assert.Equal(t, bbl.NewKey("1", "391", "16"), result.Key)
	assert.Equal(t, "1003910016", result.BBL)
	assert.Len(t, result.Sales, 2)
	assert.Empty(t, result.Address, "no parcel was resolved on the BBL path")
	assert.Empty(t, parcels.calls, "a BBL needs no address resolution")

	require.Len(t, ledger.wheres, 1)
	assert.Equal(t, evSalesByKeyWhere, ledger.wheres[0])
	assert.Equal(t, defaultSalesLimit, ledger.limits[0])
}

func TestSearchSalesByAddress(t *testing.T) {
	t.Parallel()

	parcels := &fakeInventory{rows: map[string][]registry.ParcelRecord{
		evPrimaryWhere: {evParcel()},
	}}
	ledger := &routedLedger{keySales: []registry.SaleRecord{saleOn(15, 7350000)}}
	core := newTestCore(t, parcels, ledger, &fakeBenefits{})

	result, err := core.SearchSales(context.Background(), SalesRequest{
		Address: "229 East 12th St",
		Borough: "Manhattan",
	})

	require.NoError(t, err)
	assert.Equal(t, "229 EAST 12 STREET", result.Address)
	assert.Len(t, result.Sales, 1)
	assert.Equal(t, []string{evPrimaryWhere}, parcels.calls)
}

func TestSearchSalesLimitClamp(t *testing.T) {
	t.Parallel()

	ledger := &routedLedger{}
	core := newTestCore(t, &fakeInventory{}, ledger, &fakeBenefits{})

	_, err := core.SearchSales(context.Background(), SalesRequest{BBL: "1003910016", Limit: 500})
	require.NoError(t, err)
	_, err = core.SearchSales(context.Background(), SalesRequest{BBL: "1003910016", Limit: 5})
	require.NoError(t, err)

	assert.Equal(t, []int{maxSalesLimit, 5}, ledger.limits)
}

func TestSearchSalesEmptyHistory(t *testing.T) {
	t.Parallel()

	core := newTestCore(t, &fakeInventory{}, &routedLedger{}, &fakeBenefits{})

	result, err := core.SearchSales(context.Background(), SalesRequest{BBL: "1003910016"})

	require.NoError(t, err)
	require.NotNil(t, result.Sales)
	assert.Empty(t, result.Sales)
}

func TestSearchSalesInvalidBBL(t *testing.T) {
	t.Parallel()

	ledger := &routedLedger{}
	core := newTestCore(t, &fakeInventory{}, ledger, &fakeBenefits{})

	_, err := core.SearchSales(context.Background(), SalesRequest{BBL: "12345"})

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Empty(t, ledger.wheres)
}

func TestSearchSalesRequiresBBLOrAddress(t *testing.T) {
	t.Parallel()

	core := newTestCore(t, &fakeInventory{}, &routedLedger{}, &fakeBenefits{})

	_, err := core.SearchSales(context.Background(), SalesRequest{})

	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
