// Package registry adapts the city's open-data portal datasets into typed
// collaborators for the analysis core: a parcel inventory, a sales ledger,
// and the tax benefit registries. Adapters own their dataset's column names
// and decoding quirks; the core composes filters only through the helpers in
// filters.go and never touches raw SoQL.
package registry

import (
	"context"
	"time"

	"github.com/propscope/propscope/internal/conf"
	"github.com/propscope/propscope/internal/socrata"
)

// ParcelRegistry answers filtered queries against the parcel inventory
type ParcelRegistry interface {
	Query(ctx context.Context, filter socrata.Predicate, limit int) ([]ParcelRecord, error)
}

// SalesLedger answers filtered queries against the recorded deed transfers
type SalesLedger interface {
	Query(ctx context.Context, filter socrata.Predicate, limit int) ([]SaleRecord, error)
}

// TaxBenefitRegistry answers per-BBL queries against the exemption and
// abatement registries
type TaxBenefitRegistry interface {
	QueryExemptions(ctx context.Context, bblID string) ([]ExemptionRow, error)
	QueryAbatements(ctx context.Context, bblID string) ([]AbatementRow, error)
}

// Registries bundles the three collaborators behind one portal client
type Registries struct {
	Parcels  ParcelRegistry
	Sales    SalesLedger
	Benefits TaxBenefitRegistry

	client *socrata.Client
}

// NewRegistries builds the portal client and all three adapters from
// settings. The caller owns the returned bundle and should Close it when
// done.
func NewRegistries(settings *conf.Settings) (*Registries, error) {
	client, err := socrata.NewClient(socrata.Config{
		BaseURL:   settings.Registry.BaseURL,
		AppToken:  settings.Registry.AppToken,
		Timeout:   time.Duration(settings.Registry.Timeout) * time.Second,
		CacheTTL:  time.Duration(settings.Registry.CacheTTL) * time.Second,
		RateLimit: settings.Registry.RateLimit,
	})
	if err != nil {
		return nil, err
	}

	datasets := settings.Registry.Datasets
	return &Registries{
		Parcels:  NewParcelRegistry(client, datasets.Parcels),
		Sales:    NewSalesLedger(client, datasets.Sales),
		Benefits: NewTaxBenefitRegistry(client, datasets.Exemptions, datasets.Abatements),
		client:   client,
	}, nil
}

// Client exposes the underlying portal client, mainly so callers can attach
// metrics collectors.
func (r *Registries) Client() *socrata.Client {
	return r.client
}

// Close releases the portal client resources
func (r *Registries) Close() {
	if r.client != nil {
		r.client.Close()
	}
}
