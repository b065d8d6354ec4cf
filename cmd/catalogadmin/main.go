// Command catalogadmin runs the catalog admin backend: one shared read-through
// cache in front of the catalog store, kept coherent with other instances
// through invalidation events, and an admin HTTP surface for the cache.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/illmade-knight/go-catalog/pkg/attachments"
	"github.com/illmade-knight/go-catalog/pkg/audit"
	"github.com/illmade-knight/go-catalog/pkg/cache"
	"github.com/illmade-knight/go-catalog/pkg/catalog"
	"github.com/illmade-knight/go-catalog/pkg/config"
	"github.com/illmade-knight/go-catalog/pkg/invalidation"
	"github.com/illmade-knight/go-catalog/pkg/microservice"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load("./config")
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration.")
		return 1
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "catalogadmin").Logger()

	origin := cfg.InstanceID
	if origin == "" {
		origin = uuid.NewString()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := wire(ctx, cfg, origin, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to build application.")
		return 1
	}
	defer app.close(logger)

	if cfg.Cache.Preload {
		loaded := app.service.Preload(ctx)
		logger.Info().Int("loaded", loaded).Msg("Cache preload finished.")
	}

	if err := app.server.Start(); err != nil {
		logger.Error().Err(err).Msg("Failed to start admin server.")
		return 1
	}

	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received.")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	code := 0
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		code = 1
	}
	if app.auditor != nil {
		if err := app.auditor.Stop(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("Failed to flush audit records.")
			code = 1
		}
	}
	return code
}

type application struct {
	cache    *cache.ReadThroughCache
	service  *catalog.Service
	server   *microservice.AdminServer
	listener *invalidation.Listener
	auditor  *audit.BatchRecorder
	closers  []func() error
}

func (a *application) close(logger zerolog.Logger) {
	if a.listener != nil {
		if err := a.listener.Stop(); err != nil {
			logger.Warn().Err(err).Msg("Failed to stop invalidation listener.")
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn().Err(err).Msg("Failed to close client.")
		}
	}
}

// wire builds exactly one cache and hands it to every consumer.
func wire(ctx context.Context, cfg *config.Config, origin string, logger zerolog.Logger) (_ *application, err error) {
	app := &application{}
	defer func() {
		if err != nil {
			app.close(logger)
		}
	}()

	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	cacheOpts := []cache.Option{cache.WithDefaultTTL(cfg.Cache.DefaultTTL)}
	if cfg.Cache.Coalesce {
		cacheOpts = append(cacheOpts, cache.WithCoalescing())
	}
	app.cache = cache.NewReadThroughCache(logger, cacheOpts...)

	stores, closeStores, err := buildStores(ctx, cfg, clientOpts, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeStores)

	publisher, subscriber, err := buildEvents(ctx, cfg, clientOpts, app, logger)
	if err != nil {
		return nil, err
	}
	if subscriber != nil {
		app.listener = invalidation.NewListener(origin, subscriber, app.cache, logger)
		if err := app.listener.Start(ctx); err != nil {
			return nil, err
		}
	}

	opts := []catalog.ServiceOption{catalog.WithPublisher(origin, publisher)}

	if cfg.Audit.Enabled {
		bq, err := audit.NewBigQueryClient(ctx, cfg.ProjectID, cfg.CredentialsFile, logger)
		if err != nil {
			return nil, err
		}
		inserter, err := audit.NewBigQueryInserter(ctx, bq, &audit.BigQueryConfig{
			DatasetID: cfg.Audit.DatasetID,
			TableID:   cfg.Audit.TableID,
		}, logger)
		if err != nil {
			_ = bq.Close()
			return nil, err
		}
		app.closers = append(app.closers, bq.Close)
		app.auditor = audit.NewBatchRecorder(&audit.BatchRecorderConfig{
			BatchSize:     cfg.Audit.BatchSize,
			FlushInterval: cfg.Audit.FlushInterval,
			InsertTimeout: 30 * time.Second,
		}, inserter, logger)
		app.auditor.Start(ctx)
		opts = append(opts, catalog.WithAuditRecorder(app.auditor))
	}

	if cfg.Attachments.Bucket != "" {
		gcs, err := storage.NewClient(ctx, clientOpts...)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, gcs.Close)
		uploader, err := attachments.NewGCSUploader(attachments.NewGCSClientAdapter(gcs), attachments.GCSUploaderConfig{
			BucketName:   cfg.Attachments.Bucket,
			ObjectPrefix: cfg.Attachments.Prefix,
		}, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, catalog.WithUploader(uploader))
	}

	app.service = catalog.NewService(stores, app.cache, logger, opts...)
	if cfg.Store.Backend == config.StoreMemory {
		seedDemoCatalog(ctx, app.service, logger)
	}

	app.server = microservice.NewAdminServer(logger, cfg.HTTPPort, app.cache, publisher, origin)
	return app, nil
}

func buildStores(
	ctx context.Context,
	cfg *config.Config,
	clientOpts []option.ClientOption,
	logger zerolog.Logger,
) (catalog.Stores, func() error, error) {
	switch cfg.Store.Backend {
	case config.StoreFirestore:
		client, err := firestore.NewClient(ctx, cfg.ProjectID, clientOpts...)
		if err != nil {
			return catalog.Stores{}, nil, err
		}
		stores, err := catalog.NewFirestoreStores(cfg.ProjectID, client, logger)
		if err != nil {
			_ = client.Close()
			return catalog.Stores{}, nil, err
		}
		return stores, func() error { return errors.Join(stores.Close(), client.Close()) }, nil
	case config.StoreNone:
		logger.Warn().Msg("No data store configured; reads are empty and mutations are rejected.")
		stores := catalog.NewUnconfiguredStores()
		return stores, stores.Close, nil
	default:
		stores := catalog.NewMemoryStores()
		return stores, stores.Close, nil
	}
}

func buildEvents(
	ctx context.Context,
	cfg *config.Config,
	clientOpts []option.ClientOption,
	app *application,
	logger zerolog.Logger,
) (invalidation.Publisher, invalidation.Subscriber, error) {
	switch cfg.Events.Backend {
	case config.EventsPubsub:
		client, err := pubsub.NewClient(ctx, cfg.ProjectID, clientOpts...)
		if err != nil {
			return nil, nil, err
		}
		app.closers = append(app.closers, client.Close)
		pub, err := invalidation.NewPubsubPublisher(ctx, invalidation.NewPubsubPublisherDefaults(cfg.Events.TopicID), client, logger)
		if err != nil {
			return nil, nil, err
		}
		app.closers = append(app.closers, pub.Close)
		sub, err := invalidation.NewPubsubSubscriber(ctx, invalidation.NewPubsubSubscriberDefaults(cfg.Events.SubscriptionID), client, logger)
		if err != nil {
			return nil, nil, err
		}
		return pub, sub, nil
	case config.EventsRedis:
		redisCfg := &invalidation.RedisConfig{
			Addr:     cfg.Events.Redis.Addr,
			Password: cfg.Events.Redis.Password,
			DB:       cfg.Events.Redis.DB,
			Channel:  cfg.Events.Redis.Channel,
		}
		client, err := invalidation.NewRedisClient(ctx, redisCfg, logger)
		if err != nil {
			return nil, nil, err
		}
		app.closers = append(app.closers, client.Close)
		pub, err := invalidation.NewRedisPublisher(redisCfg, client, logger)
		if err != nil {
			return nil, nil, err
		}
		app.closers = append(app.closers, pub.Close)
		sub, err := invalidation.NewRedisSubscriber(redisCfg, client, logger)
		if err != nil {
			return nil, nil, err
		}
		return pub, sub, nil
	default:
		return invalidation.NopPublisher{}, nil, nil
	}
}
