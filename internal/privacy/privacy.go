// Package privacy provides scrubbing helpers for data that leaves the
// process, such as telemetry events. Registry query URLs carry caller-supplied
// addresses and parcel identifiers in their query strings, and may carry an
// application token, so none of it may reach an external error tracker in
// raw form.
package privacy

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Pre-compiled patterns, scrubbing runs on every reported error
var (
	// URL pattern for finding URLs in text
	urlPattern = regexp.MustCompile(`\bhttps?://\S+`)

	// Application token in query or key=value form, including the
	// Socrata $$app_token query parameter
	appTokenPattern = regexp.MustCompile(`(?i)(\${0,2}app[_-]?token|api[_-]?key)[=:]\s*[^&\s'"\[\]]+`)

	// X-App-Token header value as it appears in logged request dumps
	tokenHeaderPattern = regexp.MustCompile(`(?i)(x-app-token:?\s*)\S+`)

	// Long hex strings are likely tokens or keys
	hexTokenPattern = regexp.MustCompile(`\b[0-9a-fA-F]{32,}\b`)

	// IPv4 pattern for IP address detection
	ipv4Pattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

	// Portal dataset identifiers are public knowledge and safe to keep
	datasetIDPattern = regexp.MustCompile(`^[a-z0-9]{4}-[a-z0-9]{4}(\.json|\.csv|\.xml)?$`)
)

// ScrubMessage removes or anonymizes sensitive information from telemetry
// messages. URLs are replaced with anonymized digests and credential
// patterns are redacted.
func ScrubMessage(message string) string {
	scrubbed := urlPattern.ReplaceAllStringFunc(message, AnonymizeURL)
	scrubbed = tokenHeaderPattern.ReplaceAllString(scrubbed, "${1}[REDACTED]")
	scrubbed = appTokenPattern.ReplaceAllString(scrubbed, "$1=[REDACTED]")
	scrubbed = hexTokenPattern.ReplaceAllString(scrubbed, "[REDACTED]")
	return scrubbed
}

// AnonymizeURL converts a URL to an anonymized form while preserving
// debugging value. The scheme, host category and path structure survive as
// inputs to a stable digest, so identical endpoints group together in the
// error tracker, but the query string never contributes: that is where
// caller addresses and tokens live.
func AnonymizeURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		hash := sha256.Sum256([]byte(rawURL))
		return fmt.Sprintf("url-hash-%x", hash[:8])
	}

	var normalizedParts []string

	if parsedURL.Scheme != "" {
		normalizedParts = append(normalizedParts, parsedURL.Scheme)
	}

	host := parsedURL.Hostname()
	if host != "" {
		normalizedParts = append(normalizedParts, categorizeHost(host))
	}

	if parsedURL.Port() != "" {
		normalizedParts = append(normalizedParts, "port-"+parsedURL.Port())
	}

	if parsedURL.Path != "" && parsedURL.Path != "/" {
		normalizedParts = append(normalizedParts, anonymizePath(parsedURL.Path))
	}

	normalized := strings.Join(normalizedParts, ":")
	hash := sha256.Sum256([]byte(normalized))

	return fmt.Sprintf("url-%x", hash[:12])
}

// categorizeHost anonymizes hostnames while preserving useful categorization
func categorizeHost(host string) string {
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return "localhost"
	}

	if isPrivateIP(host) {
		return "private-ip"
	}

	if isIPAddress(host) {
		return "public-ip"
	}

	// For domain names, preserve TLD only
	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		tld := parts[len(parts)-1]
		return "domain-" + tld
	}

	return "unknown-host"
}

// anonymizePath creates a structure-preserving but privacy-safe path
// representation. Portal API segments and dataset identifiers are public and
// kept verbatim so that "which dataset failed" remains answerable, everything
// else is hashed per segment.
func anonymizePath(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return "root"
	}

	segments := strings.Split(path, "/")
	anonymized := make([]string, 0, len(segments))

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		switch {
		case isPortalSegment(segment):
			anonymized = append(anonymized, strings.ToLower(segment))
		case datasetIDPattern.MatchString(strings.ToLower(segment)):
			anonymized = append(anonymized, strings.ToLower(segment))
		case isNumeric(segment):
			anonymized = append(anonymized, "numeric")
		default:
			hash := sha256.Sum256([]byte(segment))
			anonymized = append(anonymized, fmt.Sprintf("seg-%x", hash[:4]))
		}
	}

	return strings.Join(anonymized, "/")
}

// isPortalSegment reports whether a path segment is part of the public
// open-data portal URL layout rather than caller data.
func isPortalSegment(segment string) bool {
	switch strings.ToLower(segment) {
	case "resource", "api", "views", "id":
		return true
	}
	return false
}

// isPrivateIP checks if the host is a private IP address (both IPv4 and IPv6)
func isPrivateIP(host string) bool {
	privateRanges := []string{
		// IPv4 private ranges
		"10.", "172.16.", "172.17.", "172.18.", "172.19.", "172.20.", "172.21.", "172.22.", "172.23.",
		"172.24.", "172.25.", "172.26.", "172.27.", "172.28.", "172.29.", "172.30.", "172.31.",
		"192.168.", "169.254.",
		// IPv6 private ranges
		"fc00:", "fd00:", // Unique local addresses
		"fe80:",                   // Link-local addresses
		"::1",                     // Loopback
		"ff00:", "ff01:", "ff02:", // Multicast
	}

	lower := strings.ToLower(host)
	for _, prefix := range privateRanges {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// isIPAddress checks if the host looks like an IP address
func isIPAddress(host string) bool {
	if ipv4Pattern.MatchString(host) {
		return true
	}

	// IPv6 hosts contain colons
	return strings.Contains(host, ":")
}

// isNumeric checks if a string is purely numeric
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// GenerateSystemID creates a unique system identifier.
// The ID is 12 characters long, URL-safe, and case-insensitive.
// Format: XXXX-XXXX-XXXX (14 chars total with hyphens)
func GenerateSystemID() (string, error) {
	// Generate 6 random bytes (will become 12 hex characters)
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	id := hex.EncodeToString(bytes)

	// Format as XXXX-XXXX-XXXX for readability
	formatted := fmt.Sprintf("%s-%s-%s", id[0:4], id[4:8], id[8:12])

	return strings.ToUpper(formatted), nil
}

// IsValidSystemID checks if a system ID has the correct format
func IsValidSystemID(id string) bool {
	// Check format: XXXX-XXXX-XXXX (14 chars total)
	if len(id) != 14 {
		return false
	}

	if id[4] != '-' || id[9] != '-' {
		return false
	}

	for i, char := range id {
		if i == 4 || i == 9 {
			continue // Skip hyphens
		}
		if !isHexChar(char) {
			return false
		}
	}

	return true
}

// isHexChar checks if a rune is a valid hex character
func isHexChar(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F') || (r >= 'a' && r <= 'f')
}
