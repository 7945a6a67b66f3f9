package common

import (
	"fmt"
	"io"
	"os"

	"claimbuddy/internal/buildinfo"
	"claimbuddy/internal/config"
	"claimbuddy/internal/di"
	"claimbuddy/internal/errors"
	"claimbuddy/internal/logging"
)

// Context carries what every command needs: identity, loaded config and the client container
type Context struct {
	Environment string
	BinaryName  string
	ConfigPath  string
	LogLevel    string
	// ServerURL overrides the configured claims service when set
	ServerURL string

	Config    *config.Config
	Container *di.Container
	Out       io.Writer

	initialized bool
}

func NewContext(binaryName string) *Context {
	return &Context{
		Environment: buildinfo.BuildEnvironment,
		BinaryName:  binaryName,
		Container:   di.NewContainer(),
		Out:         os.Stdout,
	}
}

// Load reads the configuration and applies its logging settings. Flags parsed by
// cobra may still change the config before Clients is first called.
func (c *Context) Load() error {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return err
	}
	if cfg.Environment != "" {
		c.Environment = cfg.Environment
	}

	level := cfg.Log.Level
	if c.LogLevel != "" {
		level = c.LogLevel
	}
	parsed, err := logging.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfiguration, "invalid log level")
	}
	logging.SetLevel(parsed)
	logging.SetJSON(cfg.Log.JSON)

	if c.ServerURL != "" {
		cfg.ServerURL = c.ServerURL
	}

	c.Config = cfg
	c.initialized = false
	return nil
}

// Clients validates the current config and builds the container from it on first use
func (c *Context) Clients() (*di.ClientSet, error) {
	if !c.initialized {
		if c.Config == nil {
			return nil, errors.Configuration("configuration is not loaded")
		}
		if err := c.Config.Validate(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfiguration, "invalid configuration")
		}
		if err := c.Container.Initialize(c.Config); err != nil {
			return nil, err
		}
		c.initialized = true
	}
	return c.Container.GetClientSet(), nil
}

func (c *Context) GetPrefix() string {
	return fmt.Sprintf("[%s] ", c.Environment)
}
