package di

import (
	"fmt"
	"sync"

	"claimbuddy/internal/claims/ports"
	"claimbuddy/internal/clients/claimsapi"
	"claimbuddy/internal/clients/datadog"
	"claimbuddy/internal/config"
	"claimbuddy/internal/errors"
	"claimbuddy/internal/logging"
	"claimbuddy/internal/metrics"
	"claimbuddy/internal/storage"
)

// Container holds all application dependencies
type Container struct {
	config       *config.Config
	metrics      *metrics.Recorder
	claimsClient ports.RemoteClient
	reporter     ports.SummaryReporter
	store        *storage.SQLiteStore
	// injected is set when SetClaimsClient supplied the client
	injected bool
	mu       sync.RWMutex
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{}
}

// Initialize builds every client from the loaded configuration
func (c *Container) Initialize(cfg *config.Config) error {
	if cfg == nil {
		return errors.Configuration("configuration is not loaded")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store != nil && c.store.Path() != cfg.Checkpoint.Path {
		if err := c.store.Close(); err != nil {
			return errors.Storage(err, "failed to close previous checkpoint store")
		}
		c.store = nil
	}

	c.config = cfg
	c.metrics = metrics.NewRecorder()
	if !c.injected {
		c.claimsClient = claimsapi.NewClient(claimsapi.ConfigFrom(cfg),
			claimsapi.WithObserver(c.metrics),
			claimsapi.WithLogger(logging.NewDefaultLogger("claimsapi")),
		)
	}

	c.reporter = nil
	if cfg.Datadog.Enabled {
		client := datadog.NewDatadogClient(datadog.ConfigFrom(cfg.Datadog), nil)
		c.reporter = datadog.NewSummaryReporter(client, cfg.Datadog.Service, cfg.Datadog.Tags)
	}
	return nil
}

// SetClaimsClient replaces the claims service client. Later calls to Initialize keep it.
func (c *Container) SetClaimsClient(client ports.RemoteClient) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.claimsClient = client
	c.injected = client != nil
}

// CheckpointStore opens the run store on first use. It returns nil when checkpointing is disabled.
func (c *Container) CheckpointStore() (*storage.SQLiteStore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.config == nil || !c.config.Checkpoint.Enabled {
		return nil, nil
	}
	if c.store != nil {
		return c.store, nil
	}
	store, err := storage.Open(c.config.Checkpoint.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint store: %w", err)
	}
	c.store = store
	return store, nil
}

// Close releases the checkpoint store if it was opened
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

// ClientSet contains all client dependencies for commands
type ClientSet struct {
	Config   *config.Config
	Claims   ports.RemoteClient
	Reporter ports.SummaryReporter
	Metrics  *metrics.Recorder
}

// GetClientSet returns all clients as a convenient struct
func (c *Container) GetClientSet() *ClientSet {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &ClientSet{
		Config:   c.config,
		Claims:   c.claimsClient,
		Reporter: c.reporter,
		Metrics:  c.metrics,
	}
}
