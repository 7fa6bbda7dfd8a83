// config.go: This file contains the configuration for the PropScope application. It defines the settings struct and functions to load and save the settings.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/propscope/propscope/internal/secrets"
)

//go:embed config.yaml
var configFiles embed.FS

// RegistrySettings configures access to the Socrata open-data portal that
// hosts the city property registries.
type RegistrySettings struct {
	BaseURL      string          // portal base URL, e.g. https://data.cityofnewyork.us
	AppToken     string          // optional application token, raises the portal rate limit; supports ${VAR} references
	AppTokenFile string          // path to a mounted secret file holding the app token, takes precedence over AppToken
	Timeout      int             // request timeout in seconds
	CacheTTL     int             // response cache TTL in seconds, 0 disables caching
	RateLimit    float64         // max requests per second to the portal
	Debug        bool            // true to enable registry query debug logging
	Datasets     DatasetSettings // portal identifiers of each registry dataset
}

// DatasetSettings holds the portal identifiers of each registry dataset.
type DatasetSettings struct {
	Parcels    string // parcel inventory (PLUTO)
	Sales      string // rolling deed transfer ledger
	Exemptions string // property tax exemption detail
	Abatements string // property tax abatement detail
}

// CompsSettings tunes comparable discovery.
type CompsSettings struct {
	DefaultCount      int     // comparables returned when the caller does not ask for a count
	MaxCount          int     // hard cap on returned comparables
	OverfetchFactor   int     // candidate overfetch multiplier before filtering
	NominalSalePrice  float64 // sales at or below this price are treated as non-arm's-length
	EnrichConcurrency int     // concurrent parcel lookups during enrichment
	IncludeAdjacent   bool    // widen candidate search to adjacent neighborhoods
}

// WebServerSettings contains all settings for the web server
type WebServerSettings struct {
	Enabled bool      // true to enable web server
	Debug   bool      // true to enable debug mode
	Port    string    // port for web server
	Log     LogConfig // web server log settings
}

// TelemetrySettings contains settings for the Prometheus telemetry endpoint
type TelemetrySettings struct {
	Enabled bool   // true to enable Prometheus compatible telemetry endpoint
	Listen  string // IP address and port to listen on, e.g. 0.0.0.0:8090
}

// SentrySettings contains settings for Sentry error tracking
type SentrySettings struct {
	Enabled bool   // true to enable Sentry error tracking, strictly opt-in
	DSN     string // Sentry project DSN
	Debug   bool   // true to enable Sentry debug logging
}

// Settings contains all configuration options for the PropScope application.
type Settings struct {
	Debug bool // true to enable debug mode

	Version   string `yaml:"-"` // Version from build
	BuildDate string `yaml:"-"` // Build date from build
	SystemID  string `yaml:"-"` // Anonymous system identifier, generated on first run

	Main struct {
		Name string    // name of this instance, also used in log attribution
		Log  LogConfig // main application log configuration
	}

	Registry RegistrySettings // open-data portal access

	Comps CompsSettings // comparable discovery tuning

	WebServer WebServerSettings // web server configuration

	Telemetry TelemetrySettings // telemetry settings

	Sentry SentrySettings // sentry error tracking settings
}

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled     bool         // true to enable this log
	Path        string       // Path to the log file
	Rotation    RotationType // Type of log rotation
	MaxSize     int64        // Max size in bytes for RotationSize
	RotationDay string       // Day of the week for RotationWeekly (as a string: "Sunday", "Monday", etc.)
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into GlobalConfig.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	// Create a new settings struct
	settings := &Settings{}

	// Initialize viper and read config
	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	// Unmarshal the config into settings
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	// The app token may reference an environment variable or live in a
	// mounted secret file instead of the config file itself.
	token, err := secrets.Resolve(settings.Registry.AppTokenFile, settings.Registry.AppToken)
	if err != nil {
		return nil, fmt.Errorf("error resolving registry app token: %w", err)
	}
	settings.Registry.AppToken = token

	// Validate settings
	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	// Save settings instance
	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Get OS specific config paths
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	// Assign config paths to Viper
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	// Bind environment variable overrides, warnings are not fatal
	if err := configureEnvironmentVariables(); err != nil {
		log.Printf("Environment variable configuration warnings: %v", err)
	}

	// Read configuration file
	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig creates a default config file and writes it to the default config path
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths() // Again, adjusted for error handling
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	// Create directories for config file
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	// Write default config file
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveSettings saves the current settings to the configuration file.
// It uses SaveYAMLConfig to handle the atomic write process.
func SaveSettings() error {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()

	// Create a copy of the settings
	settingsCopy := *settingsInstance

	// Find the path of the current config file
	configPath, err := FindConfigFile()
	if err != nil {
		return fmt.Errorf("error finding config file: %w", err)
	}

	// Save the settings to the config file
	if err := SaveYAMLConfig(configPath, &settingsCopy); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	log.Printf("Settings saved successfully to %s", configPath)
	return nil
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			_, err := Load()
			if err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// SaveYAMLConfig updates the YAML configuration file with new settings.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	// Marshal the settings struct to YAML
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	// Write the YAML data to a temporary file
	// This is done to ensure atomic write operation
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	// Ensure the temporary file is removed in case of any failure
	defer os.Remove(tempFileName)

	// Write the YAML data to the temporary file
	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	// Close the temporary file after writing
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	// Try to rename the temporary file to replace the original config file
	// This is typically an atomic operation on most filesystems
	if err := os.Rename(tempFileName, configPath); err != nil {
		// If rename fails (e.g., cross-device link), fall back to copy & delete
		// This might happen when the temp directory is on a different filesystem
		if err := moveFile(tempFileName, configPath); err != nil {
			return fmt.Errorf("error copying config file: %w", err)
		}
	}

	// If we've reached this point, the operation was successful
	return nil
}
