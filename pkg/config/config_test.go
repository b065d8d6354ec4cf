package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/illmade-knight/go-catalog/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTPPort)
	assert.Equal(t, 5*time.Minute, cfg.Cache.DefaultTTL)
	assert.False(t, cfg.Cache.Coalesce)
	assert.True(t, cfg.Cache.Preload)
	assert.Equal(t, config.StoreMemory, cfg.Store.Backend)
	assert.Equal(t, config.EventsNone, cfg.Events.Backend)
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, 50, cfg.Audit.BatchSize)
	assert.Equal(t, 10*time.Second, cfg.Audit.FlushInterval)
	assert.Equal(t, "posts", cfg.Attachments.Prefix)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("CATALOG_HTTP_PORT", ":9090")
	t.Setenv("CATALOG_CACHE_DEFAULT_TTL", "90s")
	t.Setenv("CATALOG_CACHE_COALESCE", "true")
	t.Setenv("CATALOG_EVENTS_BACKEND", "redis")
	t.Setenv("CATALOG_EVENTS_REDIS_ADDR", "redis:6379")

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPPort)
	assert.Equal(t, 90*time.Second, cfg.Cache.DefaultTTL)
	assert.True(t, cfg.Cache.Coalesce)
	assert.Equal(t, config.EventsRedis, cfg.Events.Backend)
	assert.Equal(t, "redis:6379", cfg.Events.Redis.Addr)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
project_id: campus-prod
store:
  backend: firestore
cache:
  default_ttl: 2m
events:
  backend: pubsub
  subscription_id: catalog-admin-1
audit:
  enabled: true
  batch_size: 10
attachments:
  bucket: campus-files
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "campus-prod", cfg.ProjectID)
	assert.Equal(t, config.StoreFirestore, cfg.Store.Backend)
	assert.Equal(t, 2*time.Minute, cfg.Cache.DefaultTTL)
	assert.Equal(t, "catalog-cache-invalidation", cfg.Events.TopicID)
	assert.Equal(t, "catalog-admin-1", cfg.Events.SubscriptionID)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, 10, cfg.Audit.BatchSize)
	assert.Equal(t, "campus-files", cfg.Attachments.Bucket)
}

func TestLoad_RejectsInvalidConfig(t *testing.T) {
	t.Setenv("CATALOG_STORE_BACKEND", "postgres")

	_, err := config.Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown store.backend "postgres"`)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			HTTPPort: ":8080",
			Cache:    config.CacheConfig{DefaultTTL: time.Minute},
			Store:    config.StoreConfig{Backend: config.StoreMemory},
			Events:   config.EventsConfig{Backend: config.EventsNone},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{name: "missing port", mutate: func(c *config.Config) { c.HTTPPort = "" }, wantErr: "http_port is required"},
		{name: "negative ttl", mutate: func(c *config.Config) { c.Cache.DefaultTTL = -time.Second }, wantErr: "default_ttl"},
		{name: "firestore without project", mutate: func(c *config.Config) { c.Store.Backend = config.StoreFirestore }, wantErr: "firestore store"},
		{
			name: "pubsub without subscription",
			mutate: func(c *config.Config) {
				c.ProjectID = "p"
				c.Events = config.EventsConfig{Backend: config.EventsPubsub, TopicID: "t"}
			},
			wantErr: "events.subscription_id",
		},
		{name: "redis without addr", mutate: func(c *config.Config) { c.Events.Backend = config.EventsRedis }, wantErr: "events.redis.addr"},
		{name: "unknown events backend", mutate: func(c *config.Config) { c.Events.Backend = "kafka" }, wantErr: `"kafka"`},
		{name: "audit without project", mutate: func(c *config.Config) { c.Audit = config.AuditConfig{Enabled: true, DatasetID: "d", TableID: "t"} }, wantErr: "audit is enabled"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
