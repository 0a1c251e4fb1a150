// Package notify forwards completed signups to secondary channels: the bot
// administrator's chat and a Kafka topic. Failures never affect the user flow.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/signupbot/core/logger"
	"github.com/m3rciful/signupbot/internal/onboarding"
)

// DefaultTopic is used when Kafka brokers are configured without a topic.
const DefaultTopic = "onboarding.completed"

// Notifier receives every persisted submission.
type Notifier interface {
	NotifySubmission(ctx context.Context, rec onboarding.Record) error
}

// Config enables the notification channels.
type Config struct {
	Admin        bool     `yaml:"admin" envconfig:"NOTIFY_ADMIN"`
	KafkaBrokers []string `yaml:"kafka_brokers" envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `yaml:"kafka_topic" envconfig:"KAFKA_TOPIC"`
}

// Normalize trims broker addresses and defaults the topic.
func (c *Config) Normalize() error {
	brokers := c.KafkaBrokers[:0]
	for _, b := range c.KafkaBrokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	c.KafkaBrokers = brokers
	c.KafkaTopic = strings.TrimSpace(c.KafkaTopic)
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		c.KafkaTopic = DefaultTopic
	}
	if c.KafkaTopic != "" && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("notify.kafka_topic is set but notify.kafka_brokers is empty")
	}
	return nil
}

// KafkaEnabled reports whether submissions should be published to Kafka.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

type namedNotifier struct {
	name string
	n    Notifier
}

// Multi fans a submission out to every registered notifier.
type Multi struct {
	targets []namedNotifier
}

// Add registers n under name. Nil notifiers are ignored.
func (m *Multi) Add(name string, n Notifier) {
	if n == nil {
		return
	}
	m.targets = append(m.targets, namedNotifier{name: name, n: n})
}

// Len returns the number of registered notifiers.
func (m *Multi) Len() int {
	return len(m.targets)
}

// NotifySubmission calls every notifier and joins their errors.
func (m *Multi) NotifySubmission(ctx context.Context, rec onboarding.Record) error {
	var errs []error
	for _, t := range m.targets {
		if err := t.n.NotifySubmission(ctx, rec); err != nil {
			logger.Warn(ctx, logger.ComponentNotify, "notify.send",
				slog.String("status", "fail"),
				slog.String("target", t.name),
				slog.Int64("user_id", rec.UserID),
				slog.String("submission_id", rec.SubmissionID),
				slog.String("err", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", t.name, err))
			continue
		}
		logger.Debug(ctx, logger.ComponentNotify, "notify.send",
			slog.String("status", "ok"),
			slog.String("target", t.name),
			slog.String("submission_id", rec.SubmissionID),
		)
	}
	return errors.Join(errs...)
}
