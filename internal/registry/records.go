package registry

import (
	"time"

	"github.com/propscope/propscope/internal/bbl"
)

// ParcelRecord is an immutable snapshot of one parcel inventory row. A key
// identifies at most one canonical record per query; there is no cross-call
// identity beyond the key. Numeric attributes the registry did not report
// are nil, never zero.
type ParcelRecord struct {
	Key              bbl.Key  `json:"key"`
	BBL              string   `json:"bbl"`
	Address          string   `json:"address"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	ResidentialUnits *int     `json:"residential_units"`
	TotalUnits       *int     `json:"total_units"`
	YearBuilt        *int     `json:"year_built"`
	BuildingClass    string   `json:"building_class"`
	OwnerName        string   `json:"owner_name"`
	ZoningDistrict   string   `json:"zoning_district"`
	LotArea          *float64 `json:"lot_area"`
	BuildingArea     *float64 `json:"building_area"`
	AssessedLand     *float64 `json:"assessed_land_value"`
	AssessedTotal    *float64 `json:"assessed_total_value"`
	ExemptTotal      *float64 `json:"exempt_total_value"`
}

// SaleRecord is one recorded transaction from the sales ledger. An empty
// ApartmentNumber marks a whole-building sale.
type SaleRecord struct {
	Key              bbl.Key    `json:"key"`
	BBL              string     `json:"bbl"`
	Address          string     `json:"address"`
	ApartmentNumber  string     `json:"apartment_number"`
	SalePrice        *float64   `json:"sale_price"`
	SaleDate         *time.Time `json:"sale_date"`
	BuildingClass    string     `json:"building_class"`
	Neighborhood     string     `json:"neighborhood"`
	ResidentialUnits *int       `json:"residential_units"`
	TotalUnits       *int       `json:"total_units"`
	GrossSquareFeet  *float64   `json:"gross_square_feet"`
	YearBuilt        *int       `json:"year_built"`
}

// ExemptionRow is one exemption entry from the tax benefit registry
type ExemptionRow struct {
	BBL         string   `json:"bbl"`
	Code        string   `json:"code"`
	Description string   `json:"description"`
	Value       *float64 `json:"value"`
	TaxYear     string   `json:"tax_year"`
}

// AbatementRow is one abatement entry from the tax benefit registry
type AbatementRow struct {
	BBL         string   `json:"bbl"`
	Code        string   `json:"code"`
	Description string   `json:"description"`
	Amount      *float64 `json:"amount"`
	TaxYear     string   `json:"tax_year"`
}
