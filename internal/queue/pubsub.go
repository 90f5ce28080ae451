package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
)

// PubSubProvider publishes run events to a Google Cloud Pub/Sub topic.
type PubSubProvider struct {
	Client *pubsub.Client
	Topic  *pubsub.Topic
	Logger *zap.Logger
}

// NewPubSubProvider connects via Application Default Credentials and fails
// fast when the topic does not exist.
func NewPubSubProvider(ctx context.Context, projectID, topicID string, logger *zap.Logger) (*PubSubProvider, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("queue: create pubsub client: %w", err)
	}
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		if cerr := client.Close(); cerr != nil {
			logger.Warn("pubsub client close failed", zap.Error(cerr))
		}
		return nil, fmt.Errorf("queue: check topic %s: %w", topicID, err)
	}
	if !exists {
		if cerr := client.Close(); cerr != nil {
			logger.Warn("pubsub client close failed", zap.Error(cerr))
		}
		return nil, fmt.Errorf("queue: topic %s does not exist in project %s", topicID, projectID)
	}
	return &PubSubProvider{Client: client, Topic: topic, Logger: logger}, nil
}

// Publish sends the event as JSON. The client batches and retries in the
// background; the returned result is awaited so delivery errors surface.
func (p *PubSubProvider) Publish(ctx context.Context, evt RunEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("queue: marshal event: %w", err)
	}
	result := p.Topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"outcome": evt.Outcome,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("queue: publish run %s: %w", evt.RunID, err)
	}
	return nil
}

// Close stops the topic publisher and the client.
func (p *PubSubProvider) Close() error {
	p.Topic.Stop()
	if err := p.Client.Close(); err != nil {
		return fmt.Errorf("queue: close pubsub client: %w", err)
	}
	return nil
}
