package analysis

import (
	"context"

	"github.com/propscope/propscope/internal/bbl"
	"github.com/propscope/propscope/internal/errors"
	"github.com/propscope/propscope/internal/registry"
)

// Sales search result counts.
const (
	defaultSalesLimit = 20
	maxSalesLimit     = 100
)

// SalesRequest asks for a parcel's transaction history, keyed either by a
// 10-digit BBL or by an address to resolve first.
type SalesRequest struct {
	BBL     string `json:"bbl,omitempty"`
	Address string `json:"address,omitempty"`
	Borough string `json:"borough,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// SalesResult is a parcel's recorded transactions, newest first. Address
// is the inventory's canonical address when the request resolved one.
type SalesResult struct {
	Key     bbl.Key               `json:"key"`
	BBL     string                `json:"bbl"`
	Address string                `json:"address,omitempty"`
	Sales   []registry.SaleRecord `json:"sales"`
}

// SearchSales returns the recorded transactions for one parcel.
func (c *Core) SearchSales(ctx context.Context, req SalesRequest) (*SalesResult, error) {
	var (
		key     bbl.Key
		address string
	)
	switch {
	case req.BBL != "":
		parsed, err := bbl.ParseBBL(req.BBL)
		if err != nil {
			return nil, err
		}
		key = parsed
	case req.Address != "":
		parcel, err := c.resolve(ctx, req.Address, req.Borough)
		if err != nil {
			return nil, err
		}
		key = parcel.Key
		address = parcel.Address
	default:
		return nil, errors.Newf("either bbl or address is required").
			Component("analysis").
			Category(errors.CategoryValidation).
			Build()
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultSalesLimit
	}
	if limit > maxSalesLimit {
		limit = maxSalesLimit
	}

	sales, err := c.sales.Query(ctx, registry.SalesByKey(key), limit)
	if err != nil {
		return nil, err
	}
	if sales == nil {
		// Empty histories render as [] rather than null.
		sales = []registry.SaleRecord{}
	}

	c.log.Debug("sales search complete", "bbl", key.BBL(), "rows", len(sales))

	return &SalesResult{
		Key:     key,
		BBL:     key.BBL(),
		Address: address,
		Sales:   sales,
	}, nil
}
