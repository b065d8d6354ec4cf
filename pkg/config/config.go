// Package config loads the catalog admin's configuration from defaults, an
// optional config.yaml, a .env file and CATALOG_* environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "CATALOG"

// Store backends.
const (
	StoreMemory    = "memory"
	StoreFirestore = "firestore"
	StoreNone      = "none"
)

// Event backends.
const (
	EventsNone   = "none"
	EventsPubsub = "pubsub"
	EventsRedis  = "redis"
)

type Config struct {
	LogLevel        string `mapstructure:"log_level"`
	HTTPPort        string `mapstructure:"http_port"`
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	// InstanceID identifies this process in invalidation events. Empty means
	// a random id is generated at startup.
	InstanceID string `mapstructure:"instance_id"`

	Cache       CacheConfig       `mapstructure:"cache"`
	Store       StoreConfig       `mapstructure:"store"`
	Events      EventsConfig      `mapstructure:"events"`
	Audit       AuditConfig       `mapstructure:"audit"`
	Attachments AttachmentsConfig `mapstructure:"attachments"`
}

type CacheConfig struct {
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	Coalesce   bool          `mapstructure:"coalesce"`
	Preload    bool          `mapstructure:"preload"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

type EventsConfig struct {
	Backend        string      `mapstructure:"backend"`
	TopicID        string      `mapstructure:"topic_id"`
	SubscriptionID string      `mapstructure:"subscription_id"`
	Redis          RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type AuditConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DatasetID     string        `mapstructure:"dataset_id"`
	TableID       string        `mapstructure:"table_id"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// AttachmentsConfig enables GCS uploads when Bucket is set.
type AttachmentsConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_port", ":8080")
	v.SetDefault("project_id", "")
	v.SetDefault("credentials_file", "")
	v.SetDefault("instance_id", "")

	v.SetDefault("cache.default_ttl", 5*time.Minute)
	v.SetDefault("cache.coalesce", false)
	v.SetDefault("cache.preload", true)

	v.SetDefault("store.backend", StoreMemory)

	v.SetDefault("events.backend", EventsNone)
	v.SetDefault("events.topic_id", "catalog-cache-invalidation")
	v.SetDefault("events.subscription_id", "")
	v.SetDefault("events.redis.addr", "localhost:6379")
	v.SetDefault("events.redis.password", "")
	v.SetDefault("events.redis.db", 0)
	v.SetDefault("events.redis.channel", "catalog-cache-invalidation")

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.dataset_id", "catalog")
	v.SetDefault("audit.table_id", "mutations")
	v.SetDefault("audit.batch_size", 50)
	v.SetDefault("audit.flush_interval", 10*time.Second)

	v.SetDefault("attachments.bucket", "")
	v.SetDefault("attachments.prefix", "posts")
}

// Load reads the configuration. A config.yaml is looked up in the working
// directory and in every searchPath; it is optional.
func Load(searchPaths ...string) (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the composition root cannot wire.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPPort == "" {
		errs = append(errs, errors.New("http_port is required"))
	}
	if c.Cache.DefaultTTL < 0 {
		errs = append(errs, fmt.Errorf("cache.default_ttl must not be negative, got %s", c.Cache.DefaultTTL))
	}

	switch c.Store.Backend {
	case StoreMemory, StoreNone:
	case StoreFirestore:
		if c.ProjectID == "" {
			errs = append(errs, errors.New("project_id is required for the firestore store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}

	switch c.Events.Backend {
	case EventsNone:
	case EventsPubsub:
		if c.ProjectID == "" {
			errs = append(errs, errors.New("project_id is required for pubsub events"))
		}
		if c.Events.TopicID == "" || c.Events.SubscriptionID == "" {
			errs = append(errs, errors.New("events.topic_id and events.subscription_id are required for pubsub events"))
		}
	case EventsRedis:
		if c.Events.Redis.Addr == "" || c.Events.Redis.Channel == "" {
			errs = append(errs, errors.New("events.redis.addr and events.redis.channel are required for redis events"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown events.backend %q", c.Events.Backend))
	}

	if c.Audit.Enabled {
		if c.ProjectID == "" {
			errs = append(errs, errors.New("project_id is required when audit is enabled"))
		}
		if c.Audit.DatasetID == "" || c.Audit.TableID == "" {
			errs = append(errs, errors.New("audit.dataset_id and audit.table_id are required when audit is enabled"))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
