package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/propscope/propscope/internal/conf"
	"github.com/propscope/propscope/internal/privacy"
)

// systemIDFile is the name of the file holding the persistent system ID,
// stored alongside the configuration.
const systemIDFile = ".system_id"

// LoadOrCreateSystemID loads an existing system ID from the config directory
// or creates and persists a new one. The ID identifies the installation in
// telemetry without revealing anything about host or user.
func LoadOrCreateSystemID(configDir string) (string, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	idFile := filepath.Join(configDir, systemIDFile)

	if data, err := os.ReadFile(idFile); err == nil {
		id := strings.TrimSpace(string(data))
		if privacy.IsValidSystemID(id) {
			return id, nil
		}
	}

	id, err := privacy.GenerateSystemID()
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(idFile, []byte(id), 0o644); err != nil {
		return "", fmt.Errorf("failed to save system ID: %w", err)
	}

	return id, nil
}

// EnsureSystemID populates settings.SystemID from the persistent store,
// generating a new ID on first run. A failure leaves the field empty and is
// returned for the caller to log, telemetry still works without an ID.
func EnsureSystemID(settings *conf.Settings) error {
	if settings.SystemID != "" {
		return nil
	}

	configPaths, err := conf.GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("failed to resolve config paths: %w", err)
	}

	id, err := LoadOrCreateSystemID(configPaths[0])
	if err != nil {
		return err
	}

	settings.SystemID = id
	return nil
}
