package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".treefeed"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for treefeed settings.
const envPrefix = "TREEFEED"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("log_level", DefaultLogLevel)

	viperCfg.SetDefault("telemetry.endpoint", "")
	viperCfg.SetDefault("telemetry.metrics_listen", "")

	viperCfg.SetDefault("prep.workers", DefaultPrepWorkers)
	viperCfg.SetDefault("prep.max_len", DefaultPrepMaxLen)
	viperCfg.SetDefault("prep.mode", DefaultPrepMode)
	viperCfg.SetDefault("prep.subtoken_limit", DefaultSubtokenLimit)
	viperCfg.SetDefault("prep.vocab_path", "")
	viperCfg.SetDefault("prep.compress", DefaultPrepCompress)

	viperCfg.SetDefault("vocab.top_strings", DefaultTopStrings)
	viperCfg.SetDefault("vocab.top_numbers", DefaultTopNumbers)
}
