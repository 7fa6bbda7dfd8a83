package registry

import (
	"github.com/propscope/propscope/internal/bbl"
	"github.com/propscope/propscope/internal/socrata"
)

// The predicate helpers below are the only place the core's filter language
// meets dataset column names. The parcel inventory stores its borough as a
// numeric borocode column (its text borough column holds two-letter
// abbreviations); the sales ledger stores the numeric code as text. Block
// and lot are number columns in both.

// Sales ledger column names and ordering clause
const (
	SalesOrderNewestFirst = "sale_date DESC"

	salesFieldBorough       = "borough"
	salesFieldBlock         = "block"
	salesFieldLot           = "lot"
	salesFieldApartment     = "apartment_number"
	salesFieldPrice         = "sale_price"
	salesFieldBuildingClass = "building_class_at_time_of_sale"
	salesFieldNeighborhood  = "neighborhood"
)

// Parcel inventory column names
const (
	parcelFieldBoroCode = "borocode"
	parcelFieldBlock    = "block"
	parcelFieldLot      = "lot"
	parcelFieldAddress  = "address"
)

// Both benefit registries key their rows by padded 10-digit BBL
const benefitsFieldParID = "parid"

// ParcelByKey matches the inventory row for one canonical parcel key
func ParcelByKey(key bbl.Key) socrata.Predicate {
	return socrata.And(
		socrata.Eq(parcelFieldBoroCode, key.BoroughNumber()),
		socrata.Eq(parcelFieldBlock, key.BlockNumber()),
		socrata.Eq(parcelFieldLot, key.LotNumber()),
	)
}

// ParcelByAddressPrefix matches inventory rows whose address starts with the
// given normalized prefix. Prefix anchoring avoids numeric street-number
// collisions ("522 ..." must not match "1522 ..."). An empty borough code
// skips the borough constraint.
func ParcelByAddressPrefix(prefix, boroughCode string) socrata.Predicate {
	addr := socrata.StartsWith(parcelFieldAddress, prefix)
	if boroughCode == "" {
		return addr
	}
	key := bbl.Key{Borough: boroughCode}
	return socrata.And(addr, socrata.Eq(parcelFieldBoroCode, key.BoroughNumber()))
}

// SalesByKey matches ledger rows recorded against one parcel key
func SalesByKey(key bbl.Key) socrata.Predicate {
	return socrata.And(
		socrata.Eq(salesFieldBorough, key.Borough),
		socrata.Eq(salesFieldBlock, key.BlockNumber()),
		socrata.Eq(salesFieldLot, key.LotNumber()),
	)
}

// SalesOnBlock matches ledger rows anywhere on a block
func SalesOnBlock(boroughCode string, block int) socrata.Predicate {
	return socrata.And(
		socrata.Eq(salesFieldBorough, boroughCode),
		socrata.Eq(salesFieldBlock, block),
	)
}

// SalesAboveNominal excludes deed transfers at or below the nominal price
// threshold ($0 and token-consideration transfers between related parties)
func SalesAboveNominal(threshold float64) socrata.Predicate {
	return socrata.Gt(salesFieldPrice, threshold)
}

// SalesPositivePrice excludes zero-consideration transfers
func SalesPositivePrice() socrata.Predicate {
	return socrata.Gt(salesFieldPrice, 0)
}

// SalesInBorough scopes ledger rows to one borough
func SalesInBorough(boroughCode string) socrata.Predicate {
	return socrata.Eq(salesFieldBorough, boroughCode)
}

// SalesWholeBuilding keeps only whole-building transfers (no unit
// designation)
func SalesWholeBuilding() socrata.Predicate {
	return socrata.Eq(salesFieldApartment, "")
}

// SalesClassCategory keeps ledger rows whose building class starts with the
// given category letter
func SalesClassCategory(category string) socrata.Predicate {
	return socrata.StartsWith(salesFieldBuildingClass, category)
}

// SalesInNeighborhoods keeps ledger rows whose area label matches any of the
// given labels by substring. The ledger pads its labels with trailing
// spaces, so equality would miss; substring matching is the reliable form.
func SalesInNeighborhoods(labels []string) socrata.Predicate {
	preds := make([]socrata.Predicate, 0, len(labels))
	for _, label := range labels {
		preds = append(preds, socrata.Contains(salesFieldNeighborhood, label))
	}
	return socrata.Or(preds...)
}

// BenefitsByBBL matches benefit registry rows for one padded 10-digit BBL
func BenefitsByBBL(bblID string) socrata.Predicate {
	return socrata.Eq(benefitsFieldParID, bblID)
}
