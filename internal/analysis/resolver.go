package analysis

import (
	"context"
	"fmt"

	"github.com/propscope/propscope/internal/address"
	"github.com/propscope/propscope/internal/bbl"
	"github.com/propscope/propscope/internal/errors"
	"github.com/propscope/propscope/internal/registry"
	"github.com/propscope/propscope/internal/socrata"
)

// ErrParcelNotFound reports that the resolution cascade matched nothing in
// the parcel inventory. The returned operation error wraps it together with
// the address that failed to resolve.
var ErrParcelNotFound = errors.NewStd("parcel not found")

// resolveLimit caps resolution queries. The first match wins, so one row
// is enough.
const resolveLimit = 1

// resolve finds the canonical parcel for a free-text address. The cascade
// tries the normalized address anchored at the start of the inventory's
// address column, retries without the borough constraint when one was
// supplied (callers get the borough wrong often enough that a mismatch is
// a note, not a failure), and finally falls back to the leading street
// number plus the first two street-name tokens. Resolution failures are
// fatal to the calling operation.
func (c *Core) resolve(ctx context.Context, rawAddress, rawBorough string) (*registry.ParcelRecord, error) {
	normalized := address.Normalize(rawAddress)
	if normalized == "" {
		return nil, errors.Newf("address is empty").
			Component("analysis").
			Category(errors.CategoryValidation).
			Build()
	}

	boroughCode := ""
	if rawBorough != "" {
		code, err := bbl.ParseBorough(rawBorough)
		if err != nil {
			return nil, err
		}
		boroughCode = code
	}

	parcel, err := c.firstParcel(ctx, registry.ParcelByAddressPrefix(normalized, boroughCode))
	if err != nil {
		return nil, err
	}
	if parcel != nil {
		return parcel, nil
	}

	if boroughCode != "" {
		parcel, err = c.firstParcel(ctx, registry.ParcelByAddressPrefix(normalized, ""))
		if err != nil {
			return nil, err
		}
		if parcel != nil {
			c.log.Warn("address resolved outside the supplied borough",
				"address", normalized,
				"requested_borough", bbl.BoroughName(boroughCode),
				"resolved_borough", bbl.BoroughName(parcel.Key.Borough))
			return parcel, nil
		}
	}

	if short := address.Shorten(normalized); short != "" && short != normalized {
		parcel, err = c.firstParcel(ctx, registry.ParcelByAddressPrefix(short, boroughCode))
		if err != nil {
			return nil, err
		}
		if parcel != nil {
			return parcel, nil
		}
	}

	return nil, errors.New(fmt.Errorf("%w for address %q", ErrParcelNotFound, rawAddress)).
		Component("analysis").
		Category(errors.CategoryNotFound).
		Context("address", rawAddress).
		Build()
}

func (c *Core) firstParcel(ctx context.Context, filter socrata.Predicate) (*registry.ParcelRecord, error) {
	records, err := c.parcels.Query(ctx, filter, resolveLimit)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}
