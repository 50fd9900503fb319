package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"salonbook-backend/models"
)

// KafkaPublisher writes each event to "<prefix>.<event type>.v1", keyed by
// appointment id so one appointment's events stay ordered.
type KafkaPublisher struct {
	writer *kafka.Writer
	prefix string
	logger *slog.Logger
}

func NewKafkaPublisher(brokers []string, topicPrefix string, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are not configured")
	}
	topicPrefix = strings.Trim(strings.TrimSpace(topicPrefix), ".")
	if topicPrefix == "" {
		topicPrefix = "salon"
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           10 * time.Second,
		AllowAutoTopicCreation: true,
	}
	logger.Info("kafka publisher initialized", "brokers", brokers, "topic_prefix", topicPrefix)
	return &KafkaPublisher{writer: writer, prefix: topicPrefix, logger: logger}, nil
}

func (p *KafkaPublisher) Name() string { return "kafka" }

func (p *KafkaPublisher) Topic(t models.EventType) string {
	return p.prefix + "." + string(t) + ".v1"
}

func (p *KafkaPublisher) Handle(ctx context.Context, evt models.AppointmentEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	headers := []kafka.Header{
		{Key: "event_id", Value: []byte(uuid.NewString())},
		{Key: "event_type", Value: []byte(evt.Type)},
	}
	msg := kafka.Message{
		Topic:   p.Topic(evt.Type),
		Key:     []byte(evt.Appointment.ID.String()),
		Value:   value,
		Headers: InjectTraceHeaders(ctx, headers),
		Time:    evt.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s: %w", msg.Topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// InjectTraceHeaders appends W3C trace context headers to Kafka headers.
func InjectTraceHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := &headerCarrier{headers: headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier.headers
}

type headerCarrier struct {
	headers []kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	for _, h := range c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func (c *headerCarrier) Set(key, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

var _ propagation.TextMapCarrier = (*headerCarrier)(nil)
