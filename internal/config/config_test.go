package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/treefeed/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		LogLevel: "info",
		Prep: config.PrepConfig{
			Workers:       4,
			MaxLen:        1000,
			Mode:          "all",
			SubtokenLimit: 5,
		},
		Vocab: config.VocabConfig{
			TopStrings: 10000,
			TopNumbers: 1000,
		},
	}
}

func TestValidate_ValidConfig_NoError(t *testing.T) {
	t.Parallel()

	cfg := validConfig()

	require.NoError(t, cfg.Validate())
}

func TestValidate_BadLogLevel(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.LogLevel = "loud"

	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidLogLevel)
}

func TestValidate_NegativeWorkers(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Prep.Workers = -1

	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidWorkers)
}

func TestValidate_ZeroWorkersAllowed(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Prep.Workers = 0

	require.NoError(t, cfg.Validate())
}

func TestValidate_NonPositiveMaxLen(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Prep.MaxLen = 0

	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidMaxLen)
}

func TestValidate_UnknownMode(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Prep.Mode = "types"

	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidMode)
}

func TestValidate_ValuesMode(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Prep.Mode = "values"

	require.NoError(t, cfg.Validate())
}

func TestValidate_NonPositiveSubtokenLimit(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Prep.SubtokenLimit = 0

	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidSubtokenLimit)
}

func TestValidate_NegativeVocabSizes(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Vocab.TopStrings = -1

	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidTopStrings)

	cfg = validConfig()
	cfg.Vocab.TopNumbers = -5

	require.ErrorIs(t, cfg.Validate(), config.ErrInvalidTopNumbers)
}

func TestValidate_ZeroVocabSizesAllowed(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Vocab.TopStrings = 0
	cfg.Vocab.TopNumbers = 0

	assert.NoError(t, cfg.Validate())
}
