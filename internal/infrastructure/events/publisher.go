package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// MeetingProcessed is emitted when a pipeline run leaves a meeting terminal
type MeetingProcessed struct {
	MeetingID          uuid.UUID `json:"meeting_id"`
	TeamID             uuid.UUID `json:"team_id"`
	Status             string    `json:"status"`
	ActionItemsCreated int       `json:"action_items_created"`
	ActionItemsSkipped int       `json:"action_items_skipped"`
	FailureReason      *string   `json:"failure_reason,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// Publisher delivers meeting outcome events
type Publisher interface {
	PublishMeetingProcessed(ctx context.Context, evt MeetingProcessed) error
	Close() error
}

// messageWriter is the subset of *kafkago.Writer used here
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher writes events to a single Kafka topic keyed by meeting id
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher for topic on brokers
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) PublishMeetingProcessed(ctx context.Context, evt MeetingProcessed) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(evt.MeetingID.String()),
		Value: value,
		Time:  evt.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) PublishMeetingProcessed(context.Context, MeetingProcessed) error { return nil }

func (NopPublisher) Close() error { return nil }

// New returns a Kafka publisher, or a no-op one when no brokers are configured
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return NopPublisher{}
	}
	return NewKafkaPublisher(brokers, topic)
}
