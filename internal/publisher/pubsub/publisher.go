// Package pubsub implements a Google Cloud Pub/Sub completion publisher.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
)

// Config identifies the project and topic that receive completion messages.
type Config struct {
	ProjectID string `mapstructure:"project_id" yaml:"project_id"`
	TopicID   string `mapstructure:"topic_id" yaml:"topic_id"`
}

// Publisher announces finished crawl runs on a Pub/Sub topic.
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// New connects to Pub/Sub and verifies the topic exists so misconfiguration
// fails at startup.
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project id is required")
	}
	if cfg.TopicID == "" {
		return nil, fmt.Errorf("topic id is required")
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(cfg.TopicID)
	ok, err := topic.Exists(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("check pubsub topic %q: %w", cfg.TopicID, err)
	}
	if !ok {
		_ = client.Close()
		return nil, fmt.Errorf("pubsub topic %q does not exist", cfg.TopicID)
	}
	return &Publisher{client: client, topic: topic}, nil
}

type completionMessage struct {
	RunID      string    `json:"run_id"`
	FinishedAt time.Time `json:"finished_at"`
}

// Publish marshals a completion message and publishes it, blocking until the
// server acknowledges or ctx ends.
func (p *Publisher) Publish(ctx context.Context, runID string) error {
	if p == nil || p.topic == nil {
		return fmt.Errorf("pubsub publisher is not configured")
	}
	data, err := json.Marshal(completionMessage{
		RunID:      runID,
		FinishedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"run_id": runID},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Close flushes pending messages and releases the client.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.topic != nil {
		p.topic.Stop()
	}
	if p.client != nil {
		if err := p.client.Close(); err != nil {
			return fmt.Errorf("close pubsub client: %w", err)
		}
	}
	return nil
}
