package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/m3rciful/signupbot/internal/onboarding"
)

// SubmissionEvent is the JSON payload published for each completed signup.
type SubmissionEvent struct {
	Type             string    `json:"type"`
	SubmissionID     string    `json:"submission_id"`
	UserID           int64     `json:"user_id"`
	Username         string    `json:"username,omitempty"`
	Email            string    `json:"email"`
	Age              *int      `json:"age,omitempty"`
	Experience       *string   `json:"experience,omitempty"`
	Capital          *string   `json:"capital,omitempty"`
	PaymentProofKind string    `json:"payment_proof_kind"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

// NewSubmissionEvent projects a record onto the published event.
func NewSubmissionEvent(rec onboarding.Record) SubmissionEvent {
	return SubmissionEvent{
		Type:             DefaultTopic,
		SubmissionID:     rec.SubmissionID,
		UserID:           rec.UserID,
		Username:         rec.Username,
		Email:            rec.Email,
		Age:              rec.Age,
		Experience:       rec.Experience,
		Capital:          rec.Capital,
		PaymentProofKind: rec.PaymentProofKind,
		SubmittedAt:      rec.SubmittedAt.UTC(),
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes SubmissionEvent messages keyed by user id.
type KafkaPublisher struct {
	w     messageWriter
	topic string
}

// NewKafkaPublisher builds a synchronous writer for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		MaxAttempts:            3,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{w: w, topic: topic}
}

// NotifySubmission publishes the event. Messages of one user share a partition.
func (p *KafkaPublisher) NotifySubmission(ctx context.Context, rec onboarding.Record) error {
	payload, err := json.Marshal(NewSubmissionEvent(rec))
	if err != nil {
		return fmt.Errorf("notify: encode event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(rec.UserID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(DefaultTopic)},
			{Key: "submission-id", Value: []byte(rec.SubmissionID)},
		},
		Time: rec.SubmittedAt,
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("notify: write to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
