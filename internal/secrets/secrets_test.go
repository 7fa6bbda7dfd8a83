package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		envVars map[string]string
		want    string
		wantErr bool
	}{
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "literal token passes through",
			input: "a1b2c3d4e5",
			want:  "a1b2c3d4e5",
		},
		{
			name:    "simple variable expansion",
			input:   "${PROPSCOPE_REGISTRY_APPTOKEN}",
			envVars: map[string]string{"PROPSCOPE_REGISTRY_APPTOKEN": "secret123"},
			want:    "secret123",
		},
		{
			name:    "variable with prefix and suffix",
			input:   "token-${SUFFIX}-v2",
			envVars: map[string]string{"SUFFIX": "abc"},
			want:    "token-abc-v2",
		},
		{
			name:    "multiple variables",
			input:   "${USER_PART}:${PASS_PART}",
			envVars: map[string]string{"USER_PART": "admin", "PASS_PART": "secret"},
			want:    "admin:secret",
		},
		{
			name:    "fallback ignored when variable is set",
			input:   "${TOKEN:-default}",
			envVars: map[string]string{"TOKEN": "actual"},
			want:    "actual",
		},
		{
			name:  "fallback used when variable is missing",
			input: "${TOKEN:-default}",
			want:  "default",
		},
		{
			name:  "empty fallback resolves to empty",
			input: "${OPTIONAL_TOKEN:-}",
			want:  "",
		},
		{
			name:    "missing required variable",
			input:   "${MISSING_TOKEN}",
			wantErr: true,
		},
		{
			name:    "partial expansion with missing variable",
			input:   "prefix-${MISSING}-suffix",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			got, err := ExpandString(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "missing required environment variable")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	writeSecret := func(t *testing.T, name, content string, mode os.FileMode) string {
		t.Helper()
		path := filepath.Join(tmpDir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), mode))
		return path
	}

	t.Run("valid secret file", func(t *testing.T) {
		path := writeSecret(t, "valid", "my-app-token", 0o400)

		got, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "my-app-token", got)
	})

	t.Run("trailing newlines trimmed", func(t *testing.T) {
		path := writeSecret(t, "newline", "secret123\r\n", 0o400)

		got, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "secret123", got)
	})

	t.Run("inner whitespace preserved", func(t *testing.T) {
		path := writeSecret(t, "whitespace", "  token  \n\n", 0o400)

		got, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "  token  ", got)
	})

	t.Run("permissive permissions warn but do not fail", func(t *testing.T) {
		path := writeSecret(t, "permissive", "secret", 0o644)

		got, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "secret", got)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := ReadFile("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadFile(filepath.Join(tmpDir, "nonexistent"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("empty secret file", func(t *testing.T) {
		path := writeSecret(t, "empty", "", 0o400)

		_, err := ReadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})

	t.Run("directory instead of file", func(t *testing.T) {
		path := filepath.Join(tmpDir, "dir")
		require.NoError(t, os.Mkdir(path, 0o750))

		_, err := ReadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a regular file")
	})
}

func TestResolve(t *testing.T) {
	tmpDir := t.TempDir()
	secretFile := filepath.Join(tmpDir, "apptoken")
	require.NoError(t, os.WriteFile(secretFile, []byte("file-token\n"), 0o400))

	tests := []struct {
		name     string
		filePath string
		value    string
		envVars  map[string]string
		want     string
		wantErr  bool
	}{
		{
			name:  "inline literal",
			value: "literal-token",
			want:  "literal-token",
		},
		{
			name:    "inline with expansion",
			value:   "${TOKEN}",
			envVars: map[string]string{"TOKEN": "env-token"},
			want:    "env-token",
		},
		{
			name:     "file takes precedence over inline value",
			filePath: secretFile,
			value:    "ignored",
			want:     "file-token",
		},
		{
			name:     "file only",
			filePath: secretFile,
			want:     "file-token",
		},
		{
			name: "neither source resolves to unset",
			want: "",
		},
		{
			name:     "unreadable file fails",
			filePath: filepath.Join(tmpDir, "nonexistent"),
			wantErr:  true,
		},
		{
			name:    "missing variable fails",
			value:   "${MISSING}",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			got, err := Resolve(tt.filePath, tt.value)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
