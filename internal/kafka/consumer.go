package kafka

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/twmb/franz-go/pkg/kgo"
	"vn.io.arda/notifengine/internal/kafka/handlers"
	"vn.io.arda/notifengine/internal/kafka/registry"
)

// Topics names the configured inbound topics.
type Topics struct {
	Device     string
	Media      string
	Preference string
}

// Consumer wraps the franz-go Kafka client.
type Consumer struct {
	client     *kgo.Client
	dispatcher *Dispatcher
	canonical  map[string]string // configured topic -> handler topic
}

// New creates a Consumer with the given brokers, group ID, and topics.
func New(brokers []string, groupID string, topics Topics, dispatcher *Dispatcher) (*Consumer, error) {
	canonical := map[string]string{}
	for configured, name := range map[string]string{
		topics.Device:     handlers.DeviceTopic,
		topics.Media:      handlers.MediaTopic,
		topics.Preference: handlers.PreferenceTopic,
	} {
		if configured != "" {
			canonical[configured] = name
		}
	}

	names := make([]string, 0, len(canonical))
	for t := range canonical {
		names = append(names, t)
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(names...),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, err
	}
	return &Consumer{client: client, dispatcher: dispatcher, canonical: canonical}, nil
}

// Start begins polling Kafka and processing records. Blocks until ctx is cancelled.
// Records are processed one at a time, in partition order.
func (c *Consumer) Start(ctx context.Context) {
	log.Info().Strs("topics", c.topics()).Msg("kafka consumer started")

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			break
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			log.Error().Err(err).Str("topic", topic).Int32("partition", partition).Msg("kafka fetch error")
		})

		fetches.EachRecord(func(r *kgo.Record) {
			c.process(ctx, r)
		})

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			log.Error().Err(err).Msg("kafka commit error")
		}
	}

	c.client.Close()
	log.Info().Msg("kafka consumer stopped")
}

func (c *Consumer) topics() []string {
	out := make([]string, 0, len(c.canonical))
	for t := range c.canonical {
		out = append(out, t)
	}
	return out
}

// process dispatches a Kafka record to the registered handler via the registry,
// then applies the decoded event.
func (c *Consumer) process(ctx context.Context, r *kgo.Record) {
	log.Debug().
		Str("topic", r.Topic).
		Str("key", string(r.Key)).
		Msg("processing kafka record")

	topic := c.canonical[r.Topic]

	// preference-events doesn't use eventType routing
	ev := registry.DispatchDirect(topic, r.Value)
	if ev == nil {
		ev = registry.Dispatch(topic, r.Value)
	}

	if ev == nil {
		log.Debug().Str("topic", r.Topic).Msg("no handler matched, skipping")
		return
	}

	if err := c.dispatcher.Apply(ctx, ev); err != nil {
		log.Error().Err(err).
			Str("topic", r.Topic).
			Str("kind", string(ev.Kind)).
			Str("event_id", ev.EventID).
			Msg("failed to apply device event")
	}
}
