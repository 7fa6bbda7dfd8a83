package registry

import (
	"context"
	"strconv"
	"strings"

	"github.com/propscope/propscope/internal/bbl"
	"github.com/propscope/propscope/internal/socrata"
)

// SocrataParcelRegistry reads the parcel inventory dataset (PLUTO)
type SocrataParcelRegistry struct {
	client  *socrata.Client
	dataset string
}

// NewParcelRegistry creates a parcel inventory adapter for the given dataset
func NewParcelRegistry(client *socrata.Client, dataset string) *SocrataParcelRegistry {
	return &SocrataParcelRegistry{client: client, dataset: dataset}
}

// parcelRow mirrors the inventory dataset's column schema. The inventory
// uses 0 for an unknown year built, which must not survive into the record.
type parcelRow struct {
	Borough    string        `json:"borough"`
	BoroCode   socrata.Int   `json:"borocode"`
	Block      socrata.Int   `json:"block"`
	Lot        socrata.Int   `json:"lot"`
	Address    string        `json:"address"`
	Latitude   socrata.Float `json:"latitude"`
	Longitude  socrata.Float `json:"longitude"`
	UnitsRes   socrata.Int   `json:"unitsres"`
	UnitsTotal socrata.Int   `json:"unitstotal"`
	YearBuilt  socrata.Int   `json:"yearbuilt"`
	BldgClass  string        `json:"bldgclass"`
	OwnerName  string        `json:"ownername"`
	ZoneDist   string        `json:"zonedist1"`
	LotArea    socrata.Float `json:"lotarea"`
	BldgArea   socrata.Float `json:"bldgarea"`
	AssessLand socrata.Float `json:"assessland"`
	AssessTot  socrata.Float `json:"assesstot"`
	ExemptTot  socrata.Float `json:"exempttot"`
}

// Query runs a filtered read against the inventory
func (r *SocrataParcelRegistry) Query(ctx context.Context, filter socrata.Predicate, limit int) ([]ParcelRecord, error) {
	var rows []parcelRow
	if err := r.client.Fetch(ctx, r.dataset, socrata.Query{Where: filter, Limit: limit}, &rows); err != nil {
		return nil, err
	}

	records := make([]ParcelRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].record())
	}
	return records, nil
}

func (p *parcelRow) record() ParcelRecord {
	key := bbl.NewKey(p.boroughCode(), formatInt(p.Block), formatInt(p.Lot))
	return ParcelRecord{
		Key:              key,
		BBL:              key.BBL(),
		Address:          strings.TrimSpace(p.Address),
		Latitude:         p.Latitude.Ptr(),
		Longitude:        p.Longitude.Ptr(),
		ResidentialUnits: p.UnitsRes.IntPtr(),
		TotalUnits:       p.UnitsTotal.IntPtr(),
		YearBuilt:        yearPtr(p.YearBuilt),
		BuildingClass:    strings.TrimSpace(p.BldgClass),
		OwnerName:        strings.TrimSpace(p.OwnerName),
		ZoningDistrict:   strings.TrimSpace(p.ZoneDist),
		LotArea:          p.LotArea.Ptr(),
		BuildingArea:     p.BldgArea.Ptr(),
		AssessedLand:     p.AssessLand.Ptr(),
		AssessedTotal:    p.AssessTot.Ptr(),
		ExemptTotal:      p.ExemptTot.Ptr(),
	}
}

// boroughCode prefers the numeric borocode column, falling back to the
// two-letter borough abbreviation
func (p *parcelRow) boroughCode() string {
	if p.BoroCode.Valid {
		return strconv.FormatInt(p.BoroCode.Value, 10)
	}
	if code, err := bbl.ParseBorough(p.Borough); err == nil {
		return code
	}
	return strings.TrimSpace(p.Borough)
}

// formatInt renders a nullable integer column for key construction; absent
// components normalize to "0" downstream
func formatInt(i socrata.Int) string {
	if !i.Valid {
		return ""
	}
	return strconv.FormatInt(i.Value, 10)
}

// yearPtr converts a year-built column, folding the registry's 0-for-unknown
// convention into nil
func yearPtr(y socrata.Int) *int {
	if !y.Valid || y.Value == 0 {
		return nil
	}
	v := int(y.Value)
	return &v
}
