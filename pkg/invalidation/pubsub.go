package invalidation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
)

// PubsubPublisherConfig holds configuration for the Google Pub/Sub publisher.
type PubsubPublisherConfig struct {
	TopicID                    string
	TopicExistsTimeout         time.Duration
	PublishConfirmationTimeout time.Duration
}

// NewPubsubPublisherDefaults provides a config with sensible defaults.
func NewPubsubPublisherDefaults(topicID string) *PubsubPublisherConfig {
	return &PubsubPublisherConfig{
		TopicID:                    topicID,
		TopicExistsTimeout:         15 * time.Second,
		PublishConfirmationTimeout: 10 * time.Second,
	}
}

// PubsubPublisher publishes invalidation events to a Pub/Sub topic.
type PubsubPublisher struct {
	topic               *pubsub.Topic
	logger              zerolog.Logger
	confirmationTimeout time.Duration
}

// NewPubsubPublisher creates a publisher, verifying that the topic exists.
func NewPubsubPublisher(
	ctx context.Context,
	cfg *PubsubPublisherConfig,
	client *pubsub.Client,
	logger zerolog.Logger,
) (*PubsubPublisher, error) {
	if client == nil {
		return nil, fmt.Errorf("pubsub client cannot be nil for publisher")
	}

	topic := client.Topic(cfg.TopicID)
	// Invalidations should go out promptly rather than wait for a batch to fill.
	topic.PublishSettings.CountThreshold = 1
	topic.PublishSettings.DelayThreshold = 10 * time.Millisecond

	existsCtx, cancel := context.WithTimeout(ctx, cfg.TopicExistsTimeout)
	defer cancel()
	exists, err := topic.Exists(existsCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for topic %s: %w", cfg.TopicID, err)
	}
	if !exists {
		return nil, fmt.Errorf("pubsub topic %s does not exist", cfg.TopicID)
	}

	logger.Info().Str("topic_id", cfg.TopicID).Msg("PubsubPublisher initialized successfully.")
	return &PubsubPublisher{
		topic:               topic,
		logger:              logger.With().Str("component", "PubsubPublisher").Str("topic_id", cfg.TopicID).Logger(),
		confirmationTimeout: cfg.PublishConfirmationTimeout,
	}, nil
}

// Publish sends the event and waits for the server to confirm it.
func (p *PubsubPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal invalidation event: %w", err)
	}

	res := p.topic.Publish(ctx, &pubsub.Message{
		Data:       payload,
		Attributes: map[string]string{"origin": event.Origin},
	})

	getCtx, cancel := context.WithTimeout(ctx, p.confirmationTimeout)
	defer cancel()
	msgID, err := res.Get(getCtx)
	if err != nil {
		p.logger.Error().Err(err).Str("event_id", event.ID).Msg("Failed to publish invalidation event.")
		return fmt.Errorf("failed to publish invalidation event %s: %w", event.ID, err)
	}
	p.logger.Debug().Str("event_id", event.ID).Str("pubsub_msg_id", msgID).Msg("Invalidation event published.")
	return nil
}

// Close flushes outstanding messages and stops the topic.
func (p *PubsubPublisher) Close() error {
	p.topic.Stop()
	p.logger.Info().Msg("Pub/Sub publisher stopped.")
	return nil
}

// PubsubSubscriberConfig holds configuration for the Google Pub/Sub subscriber.
type PubsubSubscriberConfig struct {
	SubscriptionID         string
	MaxOutstandingMessages int
	NumGoroutines          int
}

// NewPubsubSubscriberDefaults provides a config with sensible defaults.
func NewPubsubSubscriberDefaults(subID string) *PubsubSubscriberConfig {
	return &PubsubSubscriberConfig{
		SubscriptionID:         subID,
		MaxOutstandingMessages: 100,
		NumGoroutines:          2,
	}
}

// PubsubSubscriber receives invalidation events from a Pub/Sub subscription.
// Each catalog process needs its own subscription to see every event.
type PubsubSubscriber struct {
	subscription       *pubsub.Subscription
	logger             zerolog.Logger
	outputChan         chan Event
	stopOnce           sync.Once
	cancelSubscription context.CancelFunc
	doneChan           chan struct{}
}

// NewPubsubSubscriber creates a subscriber, verifying that the subscription exists.
func NewPubsubSubscriber(
	ctx context.Context,
	cfg *PubsubSubscriberConfig,
	client *pubsub.Client,
	logger zerolog.Logger,
) (*PubsubSubscriber, error) {
	if client == nil {
		return nil, fmt.Errorf("pubsub client cannot be nil for subscriber")
	}
	sub := client.Subscription(cfg.SubscriptionID)

	existsCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	exists, err := sub.Exists(existsCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for subscription %s: %w", cfg.SubscriptionID, err)
	}
	if !exists {
		return nil, fmt.Errorf("subscription %s does not exist", cfg.SubscriptionID)
	}

	sub.ReceiveSettings.MaxOutstandingMessages = cfg.MaxOutstandingMessages
	sub.ReceiveSettings.NumGoroutines = cfg.NumGoroutines

	logger.Info().Str("subscription_id", cfg.SubscriptionID).Msg("PubsubSubscriber initialized successfully.")
	return &PubsubSubscriber{
		subscription: sub,
		logger:       logger.With().Str("component", "PubsubSubscriber").Str("subscription_id", cfg.SubscriptionID).Logger(),
		outputChan:   make(chan Event, cfg.MaxOutstandingMessages),
		doneChan:     make(chan struct{}),
	}, nil
}

// Events returns the channel of received events.
func (s *PubsubSubscriber) Events() <-chan Event { return s.outputChan }

// Start begins receiving in a background goroutine.
func (s *PubsubSubscriber) Start(ctx context.Context) error {
	receiveCtx, cancel := context.WithCancel(ctx)
	s.cancelSubscription = cancel

	go func() {
		defer close(s.doneChan)
		defer close(s.outputChan)

		err := s.subscription.Receive(receiveCtx, func(ctx context.Context, msg *pubsub.Message) {
			var event Event
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				// A malformed event will never decode; redelivering it is pointless.
				s.logger.Error().Err(err).Str("msg_id", msg.ID).Msg("Dropping malformed invalidation event.")
				msg.Ack()
				return
			}
			select {
			case s.outputChan <- event:
				msg.Ack()
			case <-receiveCtx.Done():
				msg.Nack()
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Msg("Pub/Sub Receive call exited with error.")
		}
	}()

	s.logger.Info().Msg("Receiving invalidation events.")
	return nil
}

// Stop cancels receiving and waits for the receive goroutine to exit.
func (s *PubsubSubscriber) Stop() error {
	s.stopOnce.Do(func() {
		if s.cancelSubscription == nil {
			close(s.outputChan)
			close(s.doneChan)
			return
		}
		s.cancelSubscription()
		select {
		case <-s.doneChan:
			s.logger.Info().Msg("Pub/Sub subscriber stopped.")
		case <-time.After(30 * time.Second):
			s.logger.Error().Msg("Timeout waiting for Pub/Sub Receive goroutine to stop.")
		}
	})
	return nil
}
