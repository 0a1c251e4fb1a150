package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/m3rciful/signupbot/internal/onboarding"

	tele "gopkg.in/telebot.v4"
)

func sampleRecord() onboarding.Record {
	age := 25
	capital := "1000 USD"
	return onboarding.Record{
		UserID:           77,
		Username:         "alice",
		Email:            "alice@example.com",
		Secret:           "supersecret1",
		Age:              &age,
		Capital:          &capital,
		PaymentProof:     "file-123",
		PaymentProofKind: onboarding.ProofPhoto,
		SubmissionID:     "sub-1",
		SubmittedAt:      time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

type sentMessage struct {
	to   tele.Recipient
	what interface{}
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	f.sent = append(f.sent, sentMessage{to: to, what: what})
	if f.err != nil {
		return nil, f.err
	}
	return &tele.Message{}, nil
}

func TestSummaryOmitsSecret(t *testing.T) {
	s := Summary(sampleRecord())
	for _, want := range []string{"77 (@alice)", "alice@example.com", "Age: 25", "Capital: 1000 USD", "sub-1"} {
		if !strings.Contains(s, want) {
			t.Fatalf("summary %q lacks %q", s, want)
		}
	}
	if strings.Contains(s, "supersecret1") {
		t.Fatal("summary leaks the secret")
	}
	if strings.Contains(s, "Experience") {
		t.Fatal("summary shows an unanswered question")
	}
}

func TestTelegramAdminSendsProof(t *testing.T) {
	admin := NewTelegramAdmin(1001)
	if err := admin.NotifySubmission(context.Background(), sampleRecord()); !errors.Is(err, ErrNotAttached) {
		t.Fatalf("err = %v, want ErrNotAttached", err)
	}

	sender := &fakeSender{}
	admin.Attach(sender)
	if err := admin.NotifySubmission(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.to.Recipient() != "1001" {
		t.Fatalf("recipient = %q", msg.to.Recipient())
	}
	photo, ok := msg.what.(*tele.Photo)
	if !ok || photo.FileID != "file-123" || !strings.Contains(photo.Caption, "alice@example.com") {
		t.Fatalf("unexpected payload %#v", msg.what)
	}

	rec := sampleRecord()
	rec.PaymentProofKind = onboarding.ProofDocument
	if err := admin.NotifySubmission(context.Background(), rec); err != nil {
		t.Fatalf("notify document: %v", err)
	}
	if _, ok := sender.sent[1].what.(*tele.Document); !ok {
		t.Fatalf("document proof sent as %T", sender.sent[1].what)
	}
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisherWritesEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{w: w, topic: DefaultTopic}

	if err := p.NotifySubmission(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "77" {
		t.Fatalf("key = %q", msg.Key)
	}
	if strings.Contains(string(msg.Value), "supersecret1") {
		t.Fatal("event leaks the secret")
	}
	var ev SubmissionEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Type != DefaultTopic || ev.SubmissionID != "sub-1" || ev.Email != "alice@example.com" || *ev.Age != 25 {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Experience != nil {
		t.Fatalf("experience = %v, want omitted", *ev.Experience)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Fatalf("close: err=%v closed=%v", err, w.closed)
	}
}

type notifierFunc func(ctx context.Context, rec onboarding.Record) error

func (f notifierFunc) NotifySubmission(ctx context.Context, rec onboarding.Record) error {
	return f(ctx, rec)
}

func TestMultiContinuesAfterFailure(t *testing.T) {
	boom := errors.New("broker down")
	var calls []string
	var m Multi
	m.Add("kafka", notifierFunc(func(context.Context, onboarding.Record) error {
		calls = append(calls, "kafka")
		return boom
	}))
	m.Add("admin", notifierFunc(func(context.Context, onboarding.Record) error {
		calls = append(calls, "admin")
		return nil
	}))
	m.Add("nil", nil)

	err := m.NotifySubmission(context.Background(), sampleRecord())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want joined broker error", err)
	}
	if strings.Join(calls, ",") != "kafka,admin" || m.Len() != 2 {
		t.Fatalf("calls = %v len = %d", calls, m.Len())
	}
}

func TestConfigNormalize(t *testing.T) {
	cfg := Config{KafkaBrokers: []string{" kafka:9092 ", ""}}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "kafka:9092" || cfg.KafkaTopic != DefaultTopic {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !cfg.KafkaEnabled() {
		t.Fatal("kafka should be enabled")
	}

	bad := Config{KafkaTopic: "signups"}
	if err := bad.Normalize(); err == nil {
		t.Fatal("expected error for topic without brokers")
	}
}
