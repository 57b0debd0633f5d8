package config

import (
	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

// Settings controls mark range selection.
type Settings struct {
	// CoarseIndexGranularity is the number of pieces a suspicious mark range
	// is split into on each step. Must be at least 2.
	CoarseIndexGranularity int `toml:"coarse-index-granularity" json:"coarse-index-granularity"`
	// MinMarksForSeek is the largest gap of marks that is read through
	// instead of starting a new range.
	MinMarksForSeek int `toml:"min-marks-for-seek" json:"min-marks-for-seek"`
	// Parallelism bounds the number of parts analyzed concurrently.
	Parallelism int `toml:"parallelism" json:"parallelism"`
	// Log level.
	// One of "debug", "info", "warn", "error".
	LogLevel string `toml:"log-level" json:"log-level"`
}

var defaultSettings = Settings{
	CoarseIndexGranularity: 8,
	MinMarksForSeek:        0,
	Parallelism:            4,
	LogLevel:               "info",
}

// DefaultSettings returns the default settings.
func DefaultSettings() Settings {
	return defaultSettings
}

// Load reads settings from a toml file on top of the defaults.
func Load(confFile string) (Settings, error) {
	s := DefaultSettings()
	if _, err := toml.DecodeFile(confFile, &s); err != nil {
		return Settings{}, errors.Wrapf(err, "loading %s", confFile)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects settings the selector cannot work with.
func (s *Settings) Validate() error {
	if s.CoarseIndexGranularity < 2 {
		return errors.Newf("coarse-index-granularity must be at least 2, got %d", s.CoarseIndexGranularity)
	}
	if s.MinMarksForSeek < 0 {
		return errors.Newf("min-marks-for-seek must not be negative, got %d", s.MinMarksForSeek)
	}
	if s.Parallelism < 1 {
		return errors.Newf("parallelism must be positive, got %d", s.Parallelism)
	}
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf("unknown log-level %q", s.LogLevel)
	}
	return nil
}
