package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
	"vn.io.arda/notifengine/internal/domain"
)

// Producer publishes device actions. It implements device.ActionSender.
type Producer struct {
	client *kgo.Client
}

// NewProducer creates a Producer writing to topic.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	return &Producer{client: client}, nil
}

// Send produces the action synchronously, keyed by package name.
func (p *Producer) Send(ctx context.Context, a domain.DeviceAction) error {
	value, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode action: %w", err)
	}
	rec := &kgo.Record{Key: []byte(a.PackageName), Value: value}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce %s: %w", a.Action, err)
	}
	return nil
}

// Close flushes and closes the client.
func (p *Producer) Close() {
	p.client.Close()
}
