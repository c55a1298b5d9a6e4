package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	metrics "github.com/rcrowley/go-metrics"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/AustralianCyberSecurityCentre/timing-bloom/bloom"
	"github.com/AustralianCyberSecurityCentre/timing-bloom/prom"
	st "github.com/AustralianCyberSecurityCentre/timing-bloom/settings"
)

// Membership is the subset of bloom.Filter/bloom.Controller the
// consumer depends on, so tests can substitute a small fake instead of
// standing up a real filter. bloom.Filter.Add and bloom.Controller.Add
// return their receiver for chaining, so FilterMembership and
// ControllerMembership adapt them to this narrower shape.
type Membership interface {
	Add(key []byte)
	Contains(key []byte) bool
}

// FilterMembership adapts a single, non-scaling *bloom.Filter to Membership.
type FilterMembership struct{ Filter *bloom.Filter }

func (m FilterMembership) Add(key []byte)           { m.Filter.Add(key) }
func (m FilterMembership) Contains(key []byte) bool { return m.Filter.Contains(key) }
func (m FilterMembership) NonzeroCells() uint32     { return m.Filter.NonzeroCells() }
func (m FilterMembership) SizeEstimate() float64    { return m.Filter.SizeEstimate() }

// ControllerMembership adapts a scaling *bloom.Controller to Membership.
type ControllerMembership struct{ Controller *bloom.Controller }

func (m ControllerMembership) Add(key []byte)           { m.Controller.Add(key) }
func (m ControllerMembership) Contains(key []byte) bool { return m.Controller.Contains(key) }
func (m ControllerMembership) NonzeroCells() uint32     { return m.Controller.NonzeroCells() }
func (m ControllerMembership) SizeEstimate() float64    { return m.Controller.SizeEstimate() }
func (m ControllerMembership) TierCount() int           { return m.Controller.TierCount() }
func (m ControllerMembership) ExpectedError() float64   { return m.Controller.ExpectedError() }

// Consumer reads events from Kafka, extracts a dedupe key from each
// message with a gjson path, and drops messages whose key the
// Membership filter has already seen.
type Consumer struct {
	membership Membership
	keyPath    string
	ready      chan struct{}
}

// NewConsumer builds a Consumer that dedupes against membership using
// the gjson path keyPath to pull the key out of each message body.
func NewConsumer(membership Membership, keyPath string) *Consumer {
	return &Consumer{membership: membership, keyPath: keyPath, ready: make(chan struct{})}
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	close(c.ready)
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim implements sarama.ConsumerGroupHandler. Messages judged
// duplicate are marked consumed but not forwarded anywhere further;
// this consumer's only side effect on a duplicate is the audit line.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			c.handle(msg)
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func (c *Consumer) handle(msg *sarama.ConsumerMessage) {
	prom.ConsumeMessages.WithLabelValues(msg.Topic).Inc()

	result := gjson.GetBytes(msg.Value, c.keyPath)
	if !result.Exists() {
		prom.DedupeKeyExtractFailures.Inc()
		prom.ConsumeErrors.WithLabelValues(msg.Topic, "key_extract").Inc()
		st.Logger.Warn().Str("topic", msg.Topic).Str("key_path", c.keyPath).Msg("could not extract dedupe key from message")
		return
	}
	key := []byte(result.String())

	prom.DedupeLookups.Inc()
	seen := c.membership.Contains(key)
	if seen {
		prom.DedupeHits.Inc()
	} else {
		c.membership.Add(key)
		prom.DedupeAdds.Inc()
	}

	c.audit(msg, key, seen)
}

// audit builds one JSON line per decision and hands it to the rotating
// audit sink; sjson lets us build the line without an intermediate
// struct since the fields are simple and fixed.
func (c *Consumer) audit(msg *sarama.ConsumerMessage, key []byte, duplicate bool) {
	if st.ChLogAudit == nil {
		return
	}
	line, err := sjson.Set("{}", "topic", msg.Topic)
	if err != nil {
		return
	}
	line, _ = sjson.Set(line, "partition", msg.Partition)
	line, _ = sjson.Set(line, "offset", msg.Offset)
	line, _ = sjson.Set(line, "key", string(key))
	line, _ = sjson.Set(line, "duplicate", duplicate)
	line, _ = sjson.Set(line, "observed_at", msg.Timestamp.Format(time.RFC3339Nano))

	select {
	case st.ChLogAudit <- []byte(line):
	default:
		st.Logger.Warn().Msg("audit log channel full, dropping audit line")
	}
}

// Run connects to Kafka and consumes from topics under group until ctx
// is cancelled. metricsRegistry, when non-nil, is attached to the
// sarama config so broker/consumer stats flow into the go-metrics
// registry the caller bridges to Prometheus.
func Run(ctx context.Context, brokers []string, group string, topics []string, consumer *Consumer, metricsRegistry metrics.Registry) error {
	if len(topics) == 0 {
		return fmt.Errorf("dedupe: no topics configured to consume")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_0_0_0
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	cfg.Consumer.Return.Errors = true
	if metricsRegistry != nil {
		cfg.MetricRegistry = metricsRegistry
	}

	client, err := sarama.NewConsumerGroup(brokers, group, cfg)
	if err != nil {
		return fmt.Errorf("dedupe: creating consumer group: %w", err)
	}
	defer client.Close()

	go func() {
		for err := range client.Errors() {
			st.Logger.Error().Err(err).Msg("consumer group error")
		}
	}()

	for {
		if err := client.Consume(ctx, topics, consumer); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("dedupe: consume: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}
		consumer.ready = make(chan struct{})
	}
}
