// Package secrets resolves credential values from their configured sources.
//
// The registry app token should not live in a checked-in configuration file.
// Settings may instead reference an environment variable, for example
// "${PROPSCOPE_REGISTRY_APPTOKEN}", or point at a mounted secret file in the
// Docker and Kubernetes style. Resolution happens once during configuration
// load and the resolved value is never logged.
package secrets

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/propscope/propscope/internal/errors"
)

const (
	// maxSecretFileSize bounds secret file reads. Tokens are short strings,
	// anything larger is a misconfigured path.
	maxSecretFileSize = 64 * 1024

	// groupOtherBits flags permission bits beyond owner-only access.
	groupOtherBits = 0o077
)

// ExpandString resolves ${VAR} and ${VAR:-default} references against the
// environment. Strings without references pass through unchanged. A
// referenced variable that is unset and carries no fallback is an error.
func ExpandString(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	var missingVars []string

	expanded := os.Expand(s, func(key string) string {
		varName := key
		defaultValue := ""
		fallbackProvided := false

		if idx := strings.Index(key, ":-"); idx != -1 {
			varName = key[:idx]
			defaultValue = key[idx+2:]
			fallbackProvided = true
		}

		value := os.Getenv(varName)
		if value == "" {
			if fallbackProvided {
				// An explicit fallback may be the empty string.
				return defaultValue
			}
			missingVars = append(missingVars, varName)
			return ""
		}
		return value
	})

	if len(missingVars) > 0 {
		return "", errors.Newf("missing required environment variable(s): %s", strings.Join(missingVars, ", ")).
			Component("secrets").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return expanded, nil
}

// ReadFile reads a secret from a mounted file, trimming trailing newlines.
// Non-regular, oversized and empty files are rejected. Group or other
// readable permissions log a warning without failing the read, since some
// secret mounts cannot be chmodded.
func ReadFile(path string) (string, error) {
	if path == "" {
		return "", errors.Newf("secret file path is empty").
			Component("secrets").
			Category(errors.CategoryConfiguration).
			Build()
	}

	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Newf("secret file not found: %s", cleanPath).
				Component("secrets").
				Category(errors.CategoryFileIO).
				Build()
		}
		return "", errors.New(err).
			Component("secrets").
			Category(errors.CategoryFileIO).
			Context("path", cleanPath).
			Build()
	}

	if !info.Mode().IsRegular() {
		return "", errors.Newf("secret path is not a regular file: %s", cleanPath).
			Component("secrets").
			Category(errors.CategoryFileIO).
			Build()
	}

	if info.Size() > maxSecretFileSize {
		return "", errors.Newf("secret file too large (max %d bytes): %s", maxSecretFileSize, cleanPath).
			Component("secrets").
			Category(errors.CategoryFileIO).
			Build()
	}

	if perm := info.Mode().Perm(); perm&groupOtherBits != 0 {
		log.Printf("WARNING: secret file has group/other permissions (%04o): %s", perm, cleanPath)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", errors.New(err).
			Component("secrets").
			Category(errors.CategoryFileIO).
			Context("path", cleanPath).
			Build()
	}

	// Trim only trailing newlines, secrets written by orchestrators often
	// carry one.
	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", errors.Newf("secret file is empty: %s", cleanPath).
			Component("secrets").
			Category(errors.CategoryFileIO).
			Build()
	}

	return secret, nil
}

// Resolve returns the secret value for a file path and inline value pair.
// A file path takes precedence over the inline value, and the inline value
// goes through environment expansion. Both empty resolves to the empty
// string, which callers treat as the secret being unset.
func Resolve(filePath, value string) (string, error) {
	if filePath != "" {
		secret, err := ReadFile(filePath)
		if err != nil {
			return "", err
		}
		return secret, nil
	}

	if value != "" {
		return ExpandString(value)
	}

	return "", nil
}
