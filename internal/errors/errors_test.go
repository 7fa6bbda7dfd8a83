package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestFastPathNoTelemetry(t *testing.T) {
	t.Parallel()

	// Ensure no telemetry reporter is active
	SetTelemetryReporter(nil)

	// Create an error - should use fast path
	err := fmt.Errorf("test error")
	ee := New(err).Build()

	if ee.Err.Error() != "test error" {
		t.Errorf("Expected error message 'test error', got '%s'", ee.Err.Error())
	}

	if ee.GetComponent() != "unknown" {
		t.Errorf("Expected component 'unknown' in fast path, got '%s'", ee.GetComponent())
	}

	if ee.Category != CategoryGeneric {
		t.Errorf("Expected category 'generic' in fast path, got '%s'", ee.Category)
	}
}

func TestExplicitComponentAndCategory(t *testing.T) {
	t.Parallel()

	SetTelemetryReporter(nil)

	ee := Newf("query for dataset %s failed", "64uk-42ks").
		Component("socrata").
		Category(CategoryRegistryQuery).
		Context("dataset", "64uk-42ks").
		Build()

	if ee.GetComponent() != "socrata" {
		t.Errorf("Expected component 'socrata', got '%s'", ee.GetComponent())
	}
	if ee.Category != CategoryRegistryQuery {
		t.Errorf("Expected category 'registry-query', got '%s'", ee.Category)
	}
	if got := ee.GetContext()["dataset"]; got != "64uk-42ks" {
		t.Errorf("Expected dataset context '64uk-42ks', got '%v'", got)
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	SetTelemetryReporter(nil)

	notFound := Newf("parcel not found").Category(CategoryNotFound).Build()
	if !IsNotFound(notFound) {
		t.Error("Expected IsNotFound to match CategoryNotFound error")
	}

	wrapped := fmt.Errorf("resolve failed: %w", notFound)
	if !IsNotFound(wrapped) {
		t.Error("Expected IsNotFound to match through wrapping")
	}

	other := Newf("bad borough").Category(CategoryValidation).Build()
	if IsNotFound(other) {
		t.Error("Expected IsNotFound to reject CategoryValidation error")
	}
	if !IsValidation(other) {
		t.Error("Expected IsValidation to match CategoryValidation error")
	}
}

func TestRegexPrecompilation(t *testing.T) {
	t.Parallel()

	// Test that regex patterns are pre-compiled and work correctly

	// Test URL scrubbing
	testMessage1 := "Error at https://data.example.gov/resource/64uk-42ks.json?app_token=secret123&token=abc"
	scrubbed1 := basicURLScrub(testMessage1)
	expected1 := "Error at https://data.example.gov/resource/64uk-42ks.json?[REDACTED]"
	if scrubbed1 != expected1 {
		t.Errorf("URL scrubbing failed. Expected: %s, got: %s", expected1, scrubbed1)
	}

	// Test app token scrubbing in non-URL context
	testMessage2 := "Config error: app_token=secret123 is invalid"
	scrubbed2 := basicURLScrub(testMessage2)
	if !strings.Contains(scrubbed2, "[API_KEY_REDACTED]") {
		t.Errorf("App token scrubbing failed. Expected to contain '[API_KEY_REDACTED]', got: %s", scrubbed2)
	}

	// Test multiple patterns
	testMessage3 := "Auth failed with token=abc123 and auth=xyz789"
	scrubbed3 := basicURLScrub(testMessage3)
	if strings.Contains(scrubbed3, "abc123") || strings.Contains(scrubbed3, "xyz789") {
		t.Errorf("Token scrubbing failed. Sensitive data still present: %s", scrubbed3)
	}
}
