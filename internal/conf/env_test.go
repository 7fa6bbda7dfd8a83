package conf

import (
	"testing"
)

func TestValidateEnvBool(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"true", false},
		{"false", false},
		{"1", false},
		{"0", false},
		{"T", false},
		{"yes", true},
		{"enabled", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := validateEnvBool(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateEnvBool(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEnvURL(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"https://data.cityofnewyork.us", false},
		{"http://localhost:8080", false},
		{"data.cityofnewyork.us", true},
		{"ftp://example.com", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := validateEnvURL(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateEnvURL(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEnvPort(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"8080", false},
		{"1", false},
		{"65535", false},
		{"0", true},
		{"65536", true},
		{"http", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := validateEnvPort(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateEnvPort(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEnvPositiveNumbers(t *testing.T) {
	if err := validateEnvPositiveInt("30"); err != nil {
		t.Errorf("validateEnvPositiveInt(30) unexpected error: %v", err)
	}
	if err := validateEnvPositiveInt("0"); err == nil {
		t.Error("validateEnvPositiveInt(0) expected error")
	}
	if err := validateEnvPositiveInt("ten"); err == nil {
		t.Error("validateEnvPositiveInt(ten) expected error")
	}

	if err := validateEnvPositiveFloat("2.5"); err != nil {
		t.Errorf("validateEnvPositiveFloat(2.5) unexpected error: %v", err)
	}
	if err := validateEnvPositiveFloat("-1"); err == nil {
		t.Error("validateEnvPositiveFloat(-1) expected error")
	}
}
