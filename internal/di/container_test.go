package di

import (
	"path/filepath"
	"testing"

	"claimbuddy/internal/claims/ports"
	"claimbuddy/internal/config"
	"claimbuddy/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDefaults(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.NewConfigLoader().Defaults()
	require.NoError(t, err)
	return cfg
}

func TestInitialize(t *testing.T) {
	cfg := loadDefaults(t)
	c := NewContainer()
	require.NoError(t, c.Initialize(cfg))

	cs := c.GetClientSet()
	assert.Same(t, cfg, cs.Config)
	assert.NotNil(t, cs.Claims)
	assert.NotNil(t, cs.Metrics)
	assert.Nil(t, cs.Reporter, "datadog is disabled by default")
}

func TestInitializeWithDatadog(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Datadog.Enabled = true
	cfg.Datadog.APIKey = "key"

	c := NewContainer()
	require.NoError(t, c.Initialize(cfg))
	assert.NotNil(t, c.GetClientSet().Reporter)
}

func TestInitializeWithoutConfig(t *testing.T) {
	err := NewContainer().Initialize(nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
}

func TestCheckpointStore(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Checkpoint.Path = filepath.Join(t.TempDir(), "runs.db")
	c := NewContainer()
	require.NoError(t, c.Initialize(cfg))

	first, err := c.CheckpointStore()
	require.NoError(t, err)
	require.NotNil(t, first)
	second, err := c.CheckpointStore()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.NoError(t, c.Close())
}

func TestCheckpointStoreDisabled(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Checkpoint.Enabled = false
	c := NewContainer()
	require.NoError(t, c.Initialize(cfg))

	store, err := c.CheckpointStore()
	require.NoError(t, err)
	assert.Nil(t, store)
}

type stubClient struct{ ports.RemoteClient }

func TestSetClaimsClientSurvivesInitialize(t *testing.T) {
	stub := &stubClient{}
	c := NewContainer()
	c.SetClaimsClient(stub)
	require.NoError(t, c.Initialize(loadDefaults(t)))
	assert.Same(t, stub, c.GetClientSet().Claims)
}
