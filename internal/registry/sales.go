package registry

import (
	"context"
	"strings"

	"github.com/propscope/propscope/internal/bbl"
	"github.com/propscope/propscope/internal/socrata"
)

// SocrataSalesLedger reads the rolling deed transfer dataset
type SocrataSalesLedger struct {
	client  *socrata.Client
	dataset string
}

// NewSalesLedger creates a sales ledger adapter for the given dataset
func NewSalesLedger(client *socrata.Client, dataset string) *SocrataSalesLedger {
	return &SocrataSalesLedger{client: client, dataset: dataset}
}

// saleRow mirrors the ledger's column schema. Text columns arrive padded
// with trailing whitespace and are trimmed during conversion.
type saleRow struct {
	Borough      string        `json:"borough"`
	Block        socrata.Int   `json:"block"`
	Lot          socrata.Int   `json:"lot"`
	Address      string        `json:"address"`
	Apartment    string        `json:"apartment_number"`
	SalePrice    socrata.Float `json:"sale_price"`
	SaleDate     socrata.Date  `json:"sale_date"`
	BldgClass    string        `json:"building_class_at_time_of_sale"`
	Neighborhood string        `json:"neighborhood"`
	UnitsRes     socrata.Int   `json:"residential_units"`
	UnitsTotal   socrata.Int   `json:"total_units"`
	GrossSqft    socrata.Float `json:"gross_square_feet"`
	YearBuilt    socrata.Int   `json:"year_built"`
}

// Query runs a filtered read against the ledger, newest sales first
func (l *SocrataSalesLedger) Query(ctx context.Context, filter socrata.Predicate, limit int) ([]SaleRecord, error) {
	var rows []saleRow
	q := socrata.Query{Where: filter, Order: SalesOrderNewestFirst, Limit: limit}
	if err := l.client.Fetch(ctx, l.dataset, q, &rows); err != nil {
		return nil, err
	}

	records := make([]SaleRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].record())
	}
	return records, nil
}

func (s *saleRow) record() SaleRecord {
	key := bbl.NewKey(strings.TrimSpace(s.Borough), formatInt(s.Block), formatInt(s.Lot))
	return SaleRecord{
		Key:              key,
		BBL:              key.BBL(),
		Address:          strings.TrimSpace(s.Address),
		ApartmentNumber:  strings.TrimSpace(s.Apartment),
		SalePrice:        s.SalePrice.Ptr(),
		SaleDate:         s.SaleDate.Ptr(),
		BuildingClass:    strings.TrimSpace(s.BldgClass),
		Neighborhood:     strings.TrimSpace(s.Neighborhood),
		ResidentialUnits: s.UnitsRes.IntPtr(),
		TotalUnits:       s.UnitsTotal.IntPtr(),
		GrossSquareFeet:  s.GrossSqft.Ptr(),
		YearBuilt:        yearPtr(s.YearBuilt),
	}
}
