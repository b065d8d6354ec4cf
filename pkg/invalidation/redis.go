package invalidation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig holds the configuration for the Redis transport.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// NewRedisClient connects to Redis and pings it before returning.
func NewRedisClient(ctx context.Context, cfg *RedisConfig, logger zerolog.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info().Str("redis_address", cfg.Addr).Msg("Successfully connected to Redis.")
	return rdb, nil
}

// RedisPublisher publishes invalidation events on a Redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewRedisPublisher creates a publisher over an existing client. The client's
// lifecycle is managed by the caller.
func NewRedisPublisher(cfg *RedisConfig, client *redis.Client, logger zerolog.Logger) (*RedisPublisher, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil for publisher")
	}
	if cfg.Channel == "" {
		return nil, fmt.Errorf("redis channel is required")
	}
	return &RedisPublisher{
		client:  client,
		channel: cfg.Channel,
		logger:  logger.With().Str("component", "RedisPublisher").Str("channel", cfg.Channel).Logger(),
	}, nil
}

// Publish sends the event to every current subscriber of the channel.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal invalidation event: %w", err)
	}
	receivers, err := p.client.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		p.logger.Error().Err(err).Str("event_id", event.ID).Msg("Failed to publish invalidation event.")
		return fmt.Errorf("redis publish failed for event %s: %w", event.ID, err)
	}
	p.logger.Debug().Str("event_id", event.ID).Int64("receivers", receivers).Msg("Invalidation event published.")
	return nil
}

// Close is a no-op; the client is owned by the caller.
func (p *RedisPublisher) Close() error {
	return nil
}

// RedisSubscriber receives invalidation events from a Redis pub/sub channel.
type RedisSubscriber struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger

	pubsub     *redis.PubSub
	outputChan chan Event
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// NewRedisSubscriber creates a subscriber over an existing client.
func NewRedisSubscriber(cfg *RedisConfig, client *redis.Client, logger zerolog.Logger) (*RedisSubscriber, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil for subscriber")
	}
	if cfg.Channel == "" {
		return nil, fmt.Errorf("redis channel is required")
	}
	return &RedisSubscriber{
		client:     client,
		channel:    cfg.Channel,
		logger:     logger.With().Str("component", "RedisSubscriber").Str("channel", cfg.Channel).Logger(),
		outputChan: make(chan Event, 100),
	}, nil
}

// Events returns the channel of received events.
func (s *RedisSubscriber) Events() <-chan Event { return s.outputChan }

// Start subscribes to the channel, waiting for the subscription to be confirmed.
func (s *RedisSubscriber) Start(ctx context.Context) error {
	ps := s.client.Subscribe(ctx, s.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("failed to subscribe to redis channel %s: %w", s.channel, err)
	}
	s.pubsub = ps

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.outputChan)
		for msg := range ps.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.logger.Error().Err(err).Msg("Dropping malformed invalidation event.")
				continue
			}
			s.outputChan <- event
		}
	}()

	s.logger.Info().Msg("Receiving invalidation events.")
	return nil
}

// Stop unsubscribes and waits for the receive loop to exit.
func (s *RedisSubscriber) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		if s.pubsub == nil {
			close(s.outputChan)
			return
		}
		err = s.pubsub.Close()
		s.wg.Wait()
		s.logger.Info().Msg("Redis subscriber stopped.")
	})
	return err
}
