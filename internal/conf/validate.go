// conf/validate.go
package conf

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// datasetIDPattern matches Socrata dataset identifiers like "64uk-42ks"
var datasetIDPattern = regexp.MustCompile(`^[a-z0-9]{4}-[a-z0-9]{4}$`)

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	// Validate Registry settings
	if err := validateRegistrySettings(&settings.Registry); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate Comps settings
	if err := validateCompsSettings(&settings.Comps); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate WebServer settings
	if err := validateWebServerSettings(&settings.WebServer); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate Telemetry settings
	if err := validateTelemetrySettings(&settings.Telemetry); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// Validate Sentry settings
	if err := validateSentrySettings(&settings.Sentry); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	// If there are any errors, return the ValidationError
	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// validateRegistrySettings validates the open-data portal settings
func validateRegistrySettings(settings *RegistrySettings) error {
	var errs []string

	// Base URL must be an absolute http(s) URL
	if settings.BaseURL == "" {
		errs = append(errs, "Registry base URL must not be empty")
	} else {
		parsed, err := url.Parse(settings.BaseURL)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			errs = append(errs, fmt.Sprintf("Registry base URL must be an absolute http(s) URL, got %q", settings.BaseURL))
		}
	}

	// Check if timeout is positive
	if settings.Timeout <= 0 {
		errs = append(errs, "Registry timeout must be greater than 0 seconds")
	}

	// Check if cache TTL is non-negative
	if settings.CacheTTL < 0 {
		errs = append(errs, "Registry cache TTL must be non-negative")
	}

	// Check if rate limit is positive
	if settings.RateLimit <= 0 {
		errs = append(errs, "Registry rate limit must be greater than 0 requests per second")
	}

	// Each dataset identifier must look like a Socrata 4x4 code
	datasets := map[string]string{
		"parcels":    settings.Datasets.Parcels,
		"sales":      settings.Datasets.Sales,
		"exemptions": settings.Datasets.Exemptions,
		"abatements": settings.Datasets.Abatements,
	}
	for name, id := range datasets {
		if !datasetIDPattern.MatchString(id) {
			errs = append(errs, fmt.Sprintf("Registry %s dataset identifier %q is not a valid dataset code", name, id))
		}
	}

	// If there are any errors, return them as a single error
	if len(errs) > 0 {
		return fmt.Errorf("Registry settings errors: %v", errs)
	}

	return nil
}

// validateCompsSettings validates the comparable discovery settings
func validateCompsSettings(settings *CompsSettings) error {
	var errs []string

	if settings.DefaultCount < 1 {
		errs = append(errs, "Comps default count must be at least 1")
	}

	if settings.MaxCount < settings.DefaultCount {
		errs = append(errs, "Comps max count must be at least the default count")
	}

	if settings.OverfetchFactor < 1 {
		errs = append(errs, "Comps overfetch factor must be at least 1")
	}

	if settings.NominalSalePrice < 0 {
		errs = append(errs, "Comps nominal sale price must be non-negative")
	}

	if settings.EnrichConcurrency < 1 || settings.EnrichConcurrency > 32 {
		errs = append(errs, "Comps enrich concurrency must be between 1 and 32")
	}

	if len(errs) > 0 {
		return fmt.Errorf("Comps settings errors: %v", errs)
	}

	return nil
}

// validateWebServerSettings validates the WebServer-specific settings
func validateWebServerSettings(settings *WebServerSettings) error {
	if settings.Enabled {
		// Check if port is provided when enabled
		if settings.Port == "" {
			return errors.New("WebServer port is required when enabled")
		}
		port, err := strconv.Atoi(settings.Port)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("WebServer port must be a number between 1 and 65535, got %q", settings.Port)
		}
	}

	return nil
}

// validateTelemetrySettings validates the telemetry-specific settings
func validateTelemetrySettings(settings *TelemetrySettings) error {
	if settings.Enabled {
		// Check if a valid listen address is provided when enabled
		if settings.Listen == "" {
			return errors.New("Telemetry listen address is required when enabled")
		}
		if _, _, err := net.SplitHostPort(settings.Listen); err != nil {
			return fmt.Errorf("invalid telemetry listen address: %w", err)
		}
	}
	return nil
}

// validateSentrySettings validates the Sentry-specific settings
func validateSentrySettings(settings *SentrySettings) error {
	if settings.Enabled && settings.DSN == "" {
		return errors.New("Sentry DSN is required when Sentry is enabled")
	}
	return nil
}
