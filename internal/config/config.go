package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// InvalidRowPolicy decides what happens to input rows missing an account id or chain
type InvalidRowPolicy string

const (
	// InvalidRowsSkip drops the row from the output with a warning
	InvalidRowsSkip InvalidRowPolicy = "skip"
	// InvalidRowsEmit writes the row to the output tagged Invalid
	InvalidRowsEmit InvalidRowPolicy = "emit"
)

// Config is the full runtime configuration of a claims run
type Config struct {
	Environment string `yaml:"-" split_words:"true"`

	ServerURL          string           `yaml:"serverUrl" split_words:"true"`
	DestinationAddress string           `yaml:"destinationAddress" split_words:"true"`
	InputFile          string           `yaml:"inputFile" split_words:"true"`
	OutputFile         string           `yaml:"outputFile" split_words:"true"`
	BatchSize          int              `yaml:"batchSize" split_words:"true"`
	BatchDelay         time.Duration    `yaml:"batchDelay" split_words:"true"`
	MaxRows            int              `yaml:"maxRows" split_words:"true"`
	PoolMaxSize        int              `yaml:"poolMaxSize" split_words:"true"`
	InvalidRows        InvalidRowPolicy `yaml:"invalidRows" split_words:"true"`

	Pressure   PressureConfig   `yaml:"pressure" split_words:"true"`
	Throttle   ThrottleConfig   `yaml:"throttle" split_words:"true"`
	Timeouts   TimeoutConfig    `yaml:"timeouts" split_words:"true"`
	Retry      RetryConfig      `yaml:"retry" split_words:"true"`
	Checkpoint CheckpointConfig `yaml:"checkpoint" split_words:"true"`
	Log        LogConfig        `yaml:"log" split_words:"true"`
	Datadog    DatadogConfig    `yaml:"datadog" split_words:"true"`
	Metrics    MetricsConfig    `yaml:"metrics" split_words:"true"`
}

// PressureCheckpoint is one pool pressure check in the batch cycle
type PressureCheckpoint struct {
	Percent float64       `yaml:"percent" split_words:"true"`
	Settle  time.Duration `yaml:"settle" split_words:"true"`
	// SettleOnlyAfterClear waits only when the check actually cleared the pool
	SettleOnlyAfterClear bool `yaml:"settleOnlyAfterClear" split_words:"true"`
}

// PressureConfig names the four checkpoints of a batch
type PressureConfig struct {
	BeforeBatch      PressureCheckpoint `yaml:"beforeBatch" split_words:"true"`
	AfterEligibility PressureCheckpoint `yaml:"afterEligibility" split_words:"true"`
	AfterHistory     PressureCheckpoint `yaml:"afterHistory" split_words:"true"`
	AfterBatch       PressureCheckpoint `yaml:"afterBatch" split_words:"true"`
}

// ThrottleConfig holds the pause applied after each remote call, per phase
type ThrottleConfig struct {
	Eligibility time.Duration `yaml:"eligibility" split_words:"true"`
	History     time.Duration `yaml:"history" split_words:"true"`
	Submission  time.Duration `yaml:"submission" split_words:"true"`
}

// TimeoutConfig holds per-operation request timeouts
type TimeoutConfig struct {
	Eligibility time.Duration `yaml:"eligibility" split_words:"true"`
	History     time.Duration `yaml:"history" split_words:"true"`
	Submission  time.Duration `yaml:"submission" split_words:"true"`
	Metrics     time.Duration `yaml:"metrics" split_words:"true"`
	ClearPool   time.Duration `yaml:"clearPool" split_words:"true"`
	Health      time.Duration `yaml:"health" split_words:"true"`
}

// RetryConfig controls retries of idempotent GET calls. MaxAttempts 1 disables retrying.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"maxAttempts" split_words:"true"`
	InitialInterval time.Duration `yaml:"initialInterval" split_words:"true"`
	MaxInterval     time.Duration `yaml:"maxInterval" split_words:"true"`
}

// CheckpointConfig locates the SQLite progress store
type CheckpointConfig struct {
	Enabled bool   `yaml:"enabled" split_words:"true"`
	Path    string `yaml:"path" split_words:"true"`
}

type LogConfig struct {
	Level string `yaml:"level" split_words:"true"`
	JSON  bool   `yaml:"json" split_words:"true"`
}

type DatadogConfig struct {
	Enabled bool     `yaml:"enabled" split_words:"true"`
	BaseURL string   `yaml:"baseUrl" split_words:"true"`
	APIKey  string   `yaml:"apiKey" split_words:"true"`
	AppKey  string   `yaml:"appKey" split_words:"true"`
	Service string   `yaml:"service" split_words:"true"`
	Tags    []string `yaml:"tags" split_words:"true"`
}

// MetricsConfig points at a Prometheus textfile written when a run ends
type MetricsConfig struct {
	File string `yaml:"file" split_words:"true"`
}

// Validate checks the settings every command depends on
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ServerURL, validation.Required, is.URL),
		validation.Field(&c.BatchSize, validation.Required, validation.Min(1)),
		validation.Field(&c.BatchDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxRows, validation.Min(0)),
		validation.Field(&c.PoolMaxSize, validation.Required, validation.Min(1)),
		validation.Field(&c.InvalidRows, validation.In(InvalidRowsSkip, InvalidRowsEmit)),
		validation.Field(&c.Pressure),
		validation.Field(&c.Throttle),
		validation.Field(&c.Timeouts),
		validation.Field(&c.Retry),
		validation.Field(&c.Checkpoint),
		validation.Field(&c.Datadog),
	)
}

// ValidateForClaims adds the settings only a claims run needs
func (c *Config) ValidateForClaims() error {
	if err := c.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.DestinationAddress, validation.Required),
		validation.Field(&c.InputFile, validation.Required),
		validation.Field(&c.OutputFile, validation.Required),
	)
}

func (p PressureCheckpoint) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Percent, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&p.Settle, validation.Min(time.Duration(0))),
	)
}

func (p PressureConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.BeforeBatch),
		validation.Field(&p.AfterEligibility),
		validation.Field(&p.AfterHistory),
		validation.Field(&p.AfterBatch),
	)
}

func (t ThrottleConfig) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Eligibility, validation.Min(time.Duration(0))),
		validation.Field(&t.History, validation.Min(time.Duration(0))),
		validation.Field(&t.Submission, validation.Min(time.Duration(0))),
	)
}

func (t TimeoutConfig) Validate() error {
	positive := []validation.Rule{validation.Required, validation.Min(time.Millisecond)}
	return validation.ValidateStruct(&t,
		validation.Field(&t.Eligibility, positive...),
		validation.Field(&t.History, positive...),
		validation.Field(&t.Submission, positive...),
		validation.Field(&t.Metrics, positive...),
		validation.Field(&t.ClearPool, positive...),
		validation.Field(&t.Health, positive...),
	)
}

func (r RetryConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MaxAttempts, validation.Required, validation.Min(1)),
		validation.Field(&r.InitialInterval, validation.Min(time.Duration(0))),
		validation.Field(&r.MaxInterval, validation.Min(r.InitialInterval)),
	)
}

func (c CheckpointConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

func (d DatadogConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.APIKey, validation.When(d.Enabled, validation.Required)),
		validation.Field(&d.BaseURL, validation.When(d.Enabled, validation.Required, is.URL)),
	)
}
