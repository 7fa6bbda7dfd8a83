package registry

import (
	"context"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propscope/propscope/internal/bbl"
)

func TestParcelQueryDecodesRecord(t *testing.T) {
	transport := httpmock.NewMockTransport()
	registerDataset(transport, testParcelsDataset, `[{
		"borough": "MN",
		"borocode": "1",
		"block": "00864",
		"lot": "0001",
		"address": "350 5 AVENUE",
		"latitude": "40.748432",
		"longitude": "-73.985618",
		"unitsres": "0",
		"unitstotal": "160",
		"yearbuilt": "1930",
		"bldgclass": "O4",
		"ownername": "ESRT EMPIRE STATE BUILDING, L.L.C.",
		"zonedist1": "C5-3",
		"lotarea": "91351",
		"bldgarea": "2200108",
		"assessland": "7124400",
		"assesstot": "512793000",
		"exempttot": "0"
	}]`)

	reg := NewParcelRegistry(newTestClient(t, transport), testParcelsDataset)

	records, err := reg.Query(context.Background(), ParcelByKey(bbl.NewKey("1", "864", "1")), 1)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, bbl.Key{Borough: "1", Block: "864", Lot: "1"}, rec.Key)
	assert.Equal(t, "1008640001", rec.BBL)
	assert.Equal(t, "350 5 AVENUE", rec.Address)
	require.NotNil(t, rec.Latitude)
	assert.InDelta(t, 40.748432, *rec.Latitude, 0.0001)
	require.NotNil(t, rec.TotalUnits)
	assert.Equal(t, 160, *rec.TotalUnits)
	require.NotNil(t, rec.ResidentialUnits)
	assert.Equal(t, 0, *rec.ResidentialUnits)
	require.NotNil(t, rec.YearBuilt)
	assert.Equal(t, 1930, *rec.YearBuilt)
	assert.Equal(t, "O4", rec.BuildingClass)
	assert.Equal(t, "C5-3", rec.ZoningDistrict)
	require.NotNil(t, rec.BuildingArea)
	assert.InDelta(t, 2200108, *rec.BuildingArea, 0.5)
	require.NotNil(t, rec.ExemptTotal)
	assert.InDelta(t, 0, *rec.ExemptTotal, 0.0001)
}

func TestParcelQueryZeroYearBuiltIsUnknown(t *testing.T) {
	transport := httpmock.NewMockTransport()
	registerDataset(transport, testParcelsDataset, `[{
		"borocode": "2",
		"block": "2893",
		"lot": "25",
		"address": "741 GRAND CONCOURSE",
		"yearbuilt": "0"
	}]`)

	reg := NewParcelRegistry(newTestClient(t, transport), testParcelsDataset)

	records, err := reg.Query(context.Background(), ParcelByKey(bbl.NewKey("2", "2893", "25")), 1)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Nil(t, records[0].YearBuilt, "yearbuilt=0 means unknown in the inventory")
	assert.Nil(t, records[0].TotalUnits, "absent column stays nil")
	assert.Nil(t, records[0].Latitude)
}

func TestParcelQueryBoroughAbbreviationFallback(t *testing.T) {
	transport := httpmock.NewMockTransport()
	registerDataset(transport, testParcelsDataset, `[{
		"borough": "BK",
		"block": "512",
		"lot": "43",
		"address": "100 COURT STREET"
	}]`)

	reg := NewParcelRegistry(newTestClient(t, transport), testParcelsDataset)

	records, err := reg.Query(context.Background(), ParcelByAddressPrefix("100 COURT STREET", ""), 1)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "3", records[0].Key.Borough, "two-letter abbreviation resolves to the numeric code")
	assert.Equal(t, "3005120043", records[0].BBL)
}
