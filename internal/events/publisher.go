package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/zerotwo/cloudprobe/internal/models"
)

// AlarmEvent is published when a probe snapshot arrives in alarm state.
type AlarmEvent struct {
	EventID     string `json:"event_id"`
	Address     string `json:"address"`
	CustomerID  string `json:"customer_id"`
	SiteID      string `json:"site_id"`
	AlarmStatus string `json:"alarm_status"`
	DateTime    string `json:"datetime"`
	PublishedAt int64  `json:"published_at"`
}

// Publisher sends alarm events to a Kafka topic. A nil *Publisher is a no-op
// so callers can publish unconditionally when no broker is configured.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher returns a Publisher for the broker, or nil when broker is
// empty.
func NewPublisher(broker, topic string) *Publisher {
	if broker == "" {
		return nil
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// PublishAlarm emits one alarm event keyed by probe address.
func (p *Publisher) PublishAlarm(ctx context.Context, rec models.ProbeRecord) error {
	if p == nil {
		return nil
	}

	event := AlarmEvent{
		EventID:     uuid.New().String(),
		Address:     rec.Address,
		CustomerID:  rec.CustomerID,
		SiteID:      rec.SiteID,
		AlarmStatus: rec.AlarmStatus,
		DateTime:    rec.DateTime,
		PublishedAt: time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal alarm event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rec.Address),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("publish alarm event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
