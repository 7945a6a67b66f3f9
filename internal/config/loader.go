package config

import (
	"embed"
	"os"

	"claimbuddy/internal/errors"
	"claimbuddy/internal/logging"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override, e.g. CLAIMBUDDY_BATCH_SIZE
const EnvPrefix = "claimbuddy"

//go:embed defaults.yaml
var configFS embed.FS

// ConfigLoader builds a Config from embedded defaults, an optional file and the environment
type ConfigLoader struct {
	logger *logging.Logger
}

// NewConfigLoader creates a new configuration loader
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{
		logger: logging.NewDefaultLogger("config"),
	}
}

// Defaults returns the embedded reference configuration
func (cl *ConfigLoader) Defaults() (*Config, error) {
	data, err := configFS.ReadFile("defaults.yaml")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfiguration,
			"failed to read embedded defaults")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfiguration,
			"failed to parse embedded defaults")
	}
	return &cfg, nil
}

// Load layers the optional YAML file at path and CLAIMBUDDY_* variables over the defaults.
// The result is not validated; commands validate after applying their flags.
func (cl *ConfigLoader) Load(path string) (*Config, error) {
	cfg, err := cl.Defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfiguration,
				"failed to read config file").WithContext("path", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfiguration,
				"failed to parse config file").WithContext("path", path)
		}
		cl.logger.Debug("Loaded config file %s", path)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfiguration,
			"failed to apply environment overrides")
	}

	return cfg, nil
}

// Load is a shorthand for NewConfigLoader().Load(path)
func Load(path string) (*Config, error) {
	return NewConfigLoader().Load(path)
}
