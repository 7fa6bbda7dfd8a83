package conf

import (
	"strings"
	"testing"
)

// validSettings returns a settings struct that passes validation, for tests
// to break one field at a time.
func validSettings() *Settings {
	s := &Settings{}
	s.Registry = RegistrySettings{
		BaseURL:   "https://data.cityofnewyork.us",
		Timeout:   30,
		CacheTTL:  300,
		RateLimit: 5,
		Datasets: DatasetSettings{
			Parcels:    "64uk-42ks",
			Sales:      "usep-8jbt",
			Exemptions: "muvi-b6kx",
			Abatements: "dm5y-7i8g",
		},
	}
	s.Comps = CompsSettings{
		DefaultCount:      10,
		MaxCount:          50,
		OverfetchFactor:   3,
		NominalSalePrice:  10000,
		EnrichConcurrency: 4,
	}
	s.WebServer = WebServerSettings{
		Enabled: true,
		Port:    "8080",
	}
	return s
}

func TestValidateSettingsAccepts(t *testing.T) {
	if err := ValidateSettings(validSettings()); err != nil {
		t.Fatalf("expected valid settings to pass validation, got: %v", err)
	}
}

func TestValidateSettingsRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantMsg string
	}{
		{
			name:    "empty base URL",
			mutate:  func(s *Settings) { s.Registry.BaseURL = "" },
			wantMsg: "base URL",
		},
		{
			name:    "relative base URL",
			mutate:  func(s *Settings) { s.Registry.BaseURL = "data.cityofnewyork.us" },
			wantMsg: "base URL",
		},
		{
			name:    "zero timeout",
			mutate:  func(s *Settings) { s.Registry.Timeout = 0 },
			wantMsg: "timeout",
		},
		{
			name:    "negative cache TTL",
			mutate:  func(s *Settings) { s.Registry.CacheTTL = -1 },
			wantMsg: "cache TTL",
		},
		{
			name:    "zero rate limit",
			mutate:  func(s *Settings) { s.Registry.RateLimit = 0 },
			wantMsg: "rate limit",
		},
		{
			name:    "malformed dataset identifier",
			mutate:  func(s *Settings) { s.Registry.Datasets.Sales = "not-a-dataset-id" },
			wantMsg: "dataset",
		},
		{
			name:    "uppercase dataset identifier",
			mutate:  func(s *Settings) { s.Registry.Datasets.Parcels = "64UK-42KS" },
			wantMsg: "dataset",
		},
		{
			name:    "zero default count",
			mutate:  func(s *Settings) { s.Comps.DefaultCount = 0 },
			wantMsg: "default count",
		},
		{
			name:    "max count below default",
			mutate:  func(s *Settings) { s.Comps.MaxCount = 5 },
			wantMsg: "max count",
		},
		{
			name:    "zero overfetch factor",
			mutate:  func(s *Settings) { s.Comps.OverfetchFactor = 0 },
			wantMsg: "overfetch",
		},
		{
			name:    "excessive enrich concurrency",
			mutate:  func(s *Settings) { s.Comps.EnrichConcurrency = 64 },
			wantMsg: "concurrency",
		},
		{
			name:    "web server enabled without port",
			mutate:  func(s *Settings) { s.WebServer.Port = "" },
			wantMsg: "port",
		},
		{
			name:    "web server port out of range",
			mutate:  func(s *Settings) { s.WebServer.Port = "99999" },
			wantMsg: "port",
		},
		{
			name: "telemetry enabled without listen address",
			mutate: func(s *Settings) {
				s.Telemetry.Enabled = true
				s.Telemetry.Listen = ""
			},
			wantMsg: "listen",
		},
		{
			name: "sentry enabled without DSN",
			mutate: func(s *Settings) {
				s.Sentry.Enabled = true
				s.Sentry.DSN = ""
			},
			wantMsg: "DSN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(s)
			err := ValidateSettings(s)
			if err == nil {
				t.Fatalf("expected validation to fail")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error mentioning %q, got: %v", tt.wantMsg, err)
			}
		})
	}
}

func TestDatasetIDPattern(t *testing.T) {
	valid := []string{"64uk-42ks", "usep-8jbt", "abcd-1234", "0000-zzzz"}
	for _, id := range valid {
		if !datasetIDPattern.MatchString(id) {
			t.Errorf("expected %q to be a valid dataset identifier", id)
		}
	}

	invalid := []string{"", "64uk42ks", "64uk-42ks-extra", "64UK-42KS", "64uk_42ks", "6-4"}
	for _, id := range invalid {
		if datasetIDPattern.MatchString(id) {
			t.Errorf("expected %q to be rejected as a dataset identifier", id)
		}
	}
}
