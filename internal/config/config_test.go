package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keycond.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultSettingsAreValid(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())
	require.Equal(t, 8, s.CoarseIndexGranularity)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	s, err := Load(writeConfig(t, `
min-marks-for-seek = 2
log-level = "debug"
`))
	require.NoError(t, err)
	require.Equal(t, 2, s.MinMarksForSeek)
	require.Equal(t, "debug", s.LogLevel)
	require.Equal(t, 8, s.CoarseIndexGranularity)
	require.Equal(t, 4, s.Parallelism)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"granularity", "coarse-index-granularity = 1"},
		{"seek", "min-marks-for-seek = -1"},
		{"parallelism", "parallelism = 0"},
		{"level", `log-level = "verbose"`},
		{"syntax", "parallelism = "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
