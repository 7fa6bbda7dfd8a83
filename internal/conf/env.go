// env.go - Environment variable configuration and validation for PropScope
package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		// Core configuration
		{"debug", "PROPSCOPE_DEBUG", validateEnvBool},

		// Registry configuration; the app token is the usual reason to use
		// environment overrides, it should not live in a checked-in config file
		{"registry.baseurl", "PROPSCOPE_REGISTRY_BASEURL", validateEnvURL},
		{"registry.apptoken", "PROPSCOPE_REGISTRY_APPTOKEN", nil},
		{"registry.apptokenfile", "PROPSCOPE_REGISTRY_APPTOKEN_FILE", nil},
		{"registry.timeout", "PROPSCOPE_REGISTRY_TIMEOUT", validateEnvPositiveInt},
		{"registry.ratelimit", "PROPSCOPE_REGISTRY_RATELIMIT", validateEnvPositiveFloat},

		// Web server configuration
		{"webserver.port", "PROPSCOPE_WEBSERVER_PORT", validateEnvPort},

		// Sentry configuration
		{"sentry.enabled", "PROPSCOPE_SENTRY_ENABLED", validateEnvBool},
		{"sentry.dsn", "PROPSCOPE_SENTRY_DSN", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	bindings := getEnvBindings()
	var warnings []string

	for _, binding := range bindings {
		// Bind the environment variable to the config key
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		// Validate the value if it's set and validation function is provided
		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// Environment variable validation functions

// validateEnvBool validates boolean environment variables
func validateEnvBool(value string) error {
	_, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f, TRUE/FALSE, T/F", value)
	}
	return nil
}

// validateEnvURL validates that the value is an absolute http(s) URL
func validateEnvURL(value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("URL must be absolute with http or https scheme, got '%s'", value)
	}
	return nil
}

// validateEnvPositiveInt validates positive integer environment variables
func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if n <= 0 {
		return fmt.Errorf("value must be positive, got %d", n)
	}
	return nil
}

// validateEnvPositiveFloat validates positive float environment variables
func validateEnvPositiveFloat(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid number: %w", err)
	}
	if f <= 0 {
		return fmt.Errorf("value must be positive, got %g", f)
	}
	return nil
}

// validateEnvPort validates TCP port environment variables
func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables() error {
	// Set up key replacer for nested config keys
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind specific environment variables with validation
	// Return any errors to the caller for centralized handling
	return bindEnvVars()
}
