package telemetry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseErrorType(t *testing.T) {
	tests := []struct {
		name     string
		errMsg   string
		expected string
	}{
		{
			name:     "nil pointer dereference",
			errMsg:   "runtime error: invalid memory address or nil pointer dereference",
			expected: "Nil Pointer Dereference",
		},
		{
			name:     "index out of range",
			errMsg:   "runtime error: index out of range [5] with length 3",
			expected: "Index Out of Range",
		},
		{
			name:     "slice bounds out of range",
			errMsg:   "runtime error: slice bounds out of range [::5]",
			expected: "Slice Bounds Out of Range",
		},
		{
			name:     "integer divide by zero",
			errMsg:   "runtime error: integer divide by zero",
			expected: "Integer Divide by Zero",
		},
		{
			name:     "send on closed channel",
			errMsg:   "send on closed channel",
			expected: "Send on Closed Channel",
		},
		{
			name:     "concurrent map access",
			errMsg:   "concurrent map read and map write",
			expected: "Concurrent Map Access",
		},
		{
			name:     "interface conversion",
			errMsg:   "interface conversion: int is not string",
			expected: "Interface Conversion Failed",
		},
		{
			name:     "panic with message",
			errMsg:   "panic: something went wrong",
			expected: "Panic: something went wrong",
		},
		{
			name:     "panic without space after colon",
			errMsg:   "panic:NoSpaceHere",
			expected: "Panic: NoSpaceHere",
		},
		{
			name:     "short unknown error passes through",
			errMsg:   "query returned no rows",
			expected: "query returned no rows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseErrorType(tt.errMsg))
		})
	}
}

func TestParseErrorTypeTruncatesLongMessages(t *testing.T) {
	longMsg := "this error message is deliberately made very long so that it exceeds the title limit"
	result := parseErrorType(longMsg)
	assert.Len(t, result, 63) // 60 chars plus ellipsis
	assert.Contains(t, result, "...")
}

func TestGenerateErrorTitle(t *testing.T) {
	err := errors.New("runtime error: index out of range [2]")

	assert.Equal(t, "Comps: Index Out of Range", generateErrorTitle(err, "comps"))
	assert.Equal(t, "API: Index Out of Range", generateErrorTitle(err, "api"))

	// Unknown component falls back to the bare error type
	assert.Equal(t, "Index Out of Range", generateErrorTitle(err, "unknown"))
	assert.Equal(t, "Index Out of Range", generateErrorTitle(err, ""))
}

func TestTitleCaseComponent(t *testing.T) {
	tests := []struct {
		component string
		expected  string
	}{
		{"comps", "Comps"},
		{"api", "API"},
		{"bbl", "BBL"},
		{"taxbenefit", "Taxbenefit"},
		{"rent_regulation", "Rent Regulation"},
		{"httpclient", "HTTP Client"},
	}

	for _, tt := range tests {
		t.Run(tt.component, func(t *testing.T) {
			assert.Equal(t, tt.expected, titleCaseComponent(tt.component))
		})
	}
}

func TestApplyPrivacyFilters(t *testing.T) {
	event := sentry.NewEvent()
	event.User = sentry.User{ID: "user-1", IPAddress: "192.168.1.5"}
	event.ServerName = "prod-host-01"
	event.Contexts["device"] = sentry.Context{"name": "workstation"}
	event.Contexts["os"] = sentry.Context{"name": "linux"}
	event.Contexts["custom"] = sentry.Context{"value": "kept"}
	event.Extra["component"] = "comps"
	event.Extra["error_type"] = "*errors.errorString"
	event.Extra["request_url"] = "https://data.cityofnewyork.us/resource/64uk-42ks.json?$where=address='X'"
	event.Tags = map[string]string{
		"server_name": "prod-host-01",
		"hostname":    "prod-host-01",
		"component":   "comps",
	}

	filtered := applyPrivacyFilters(event)

	assert.True(t, filtered.User.IsEmpty(), "user data should be cleared")
	assert.Empty(t, filtered.ServerName)

	assert.NotContains(t, filtered.Contexts, "device")
	assert.NotContains(t, filtered.Contexts, "os")
	assert.Contains(t, filtered.Contexts, "custom")

	assert.Contains(t, filtered.Extra, "component")
	assert.Contains(t, filtered.Extra, "error_type")
	assert.NotContains(t, filtered.Extra, "request_url")

	assert.NotContains(t, filtered.Tags, "server_name")
	assert.NotContains(t, filtered.Tags, "hostname")
	assert.Equal(t, "comps", filtered.Tags["component"])
}

func TestLoadOrCreateSystemID(t *testing.T) {
	dir := t.TempDir()

	id, err := LoadOrCreateSystemID(dir)
	require.NoError(t, err)
	assert.Len(t, id, 14)

	// Second call must return the persisted ID, not a new one
	again, err := LoadOrCreateSystemID(dir)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	// A corrupt ID file is replaced
	idFile := filepath.Join(dir, systemIDFile)
	require.NoError(t, os.WriteFile(idFile, []byte("not-a-valid-id"), 0o644))

	replaced, err := LoadOrCreateSystemID(dir)
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-valid-id", replaced)
	assert.Len(t, replaced, 14)
}

func TestCollectPlatformInfo(t *testing.T) {
	info := collectPlatformInfo()

	assert.NotEmpty(t, info.OS)
	assert.NotEmpty(t, info.Architecture)
	assert.Positive(t, info.NumCPU)
	assert.Contains(t, info.GoVersion, "go")
}
