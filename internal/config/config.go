package config

import "errors"

// Config is the top-level configuration struct for treefeed.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	LogLevel  string          `mapstructure:"log_level"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Prep      PrepConfig      `mapstructure:"prep"`
	Vocab     VocabConfig     `mapstructure:"vocab"`
}

// TelemetryConfig holds exporter endpoints. Empty values disable the
// corresponding exporter.
type TelemetryConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	MetricsListen string `mapstructure:"metrics_listen"`
}

// PrepConfig holds pipeline defaults that individual commands may override
// with flags.
type PrepConfig struct {
	Workers       int    `mapstructure:"workers"`
	MaxLen        int    `mapstructure:"max_len"`
	Mode          string `mapstructure:"mode"`
	SubtokenLimit int    `mapstructure:"subtoken_limit"`
	VocabPath     string `mapstructure:"vocab_path"`
	Compress      bool   `mapstructure:"compress"`
}

// VocabConfig holds vocabulary build defaults.
type VocabConfig struct {
	TopStrings int `mapstructure:"top_strings"`
	TopNumbers int `mapstructure:"top_numbers"`
}

// Defaults applied by the loader.
const (
	DefaultLogLevel      = "info"
	DefaultPrepWorkers   = 0 // 0 = all CPUs
	DefaultPrepMaxLen    = 1000
	DefaultPrepMode      = "all"
	DefaultSubtokenLimit = 5
	DefaultPrepCompress  = false
	DefaultTopStrings    = 10000
	DefaultTopNumbers    = 1000
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidLogLevel indicates an unrecognized log level name.
	ErrInvalidLogLevel = errors.New("log_level must be debug, info, warn, or error")
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("prep.workers must be non-negative")
	// ErrInvalidMaxLen indicates the window length is not positive.
	ErrInvalidMaxLen = errors.New("prep.max_len must be positive")
	// ErrInvalidMode indicates an unrecognized separation mode.
	ErrInvalidMode = errors.New("prep.mode must be all or values")
	// ErrInvalidSubtokenLimit indicates the subtoken cap is not positive.
	ErrInvalidSubtokenLimit = errors.New("prep.subtoken_limit must be positive")
	// ErrInvalidTopStrings indicates the string vocabulary size is negative.
	ErrInvalidTopStrings = errors.New("vocab.top_strings must be non-negative")
	// ErrInvalidTopNumbers indicates the numeric vocabulary size is negative.
	ErrInvalidTopNumbers = errors.New("vocab.top_numbers must be non-negative")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	prepErr := c.validatePrep()
	if prepErr != nil {
		return prepErr
	}

	if c.Vocab.TopStrings < 0 {
		return ErrInvalidTopStrings
	}

	if c.Vocab.TopNumbers < 0 {
		return ErrInvalidTopNumbers
	}

	return nil
}

func (c *Config) validatePrep() error {
	if c.Prep.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.Prep.MaxLen <= 0 {
		return ErrInvalidMaxLen
	}

	switch c.Prep.Mode {
	case "all", "values":
	default:
		return ErrInvalidMode
	}

	if c.Prep.SubtokenLimit <= 0 {
		return ErrInvalidSubtokenLimit
	}

	return nil
}
