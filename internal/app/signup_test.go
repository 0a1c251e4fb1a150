package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/signupbot/core/telegram/state"
	"github.com/m3rciful/signupbot/internal/onboarding"

	tele "gopkg.in/telebot.v4"
)

type sentMessage struct {
	text   string
	markup *tele.ReplyMarkup
}

// fakeContext implements the parts of tele.Context used by the handlers.
type fakeContext struct {
	tele.Context
	user  *tele.User
	msg   *tele.Message
	store map[string]interface{}
	sent  *[]sentMessage
}

func (f *fakeContext) Sender() *tele.User { return f.user }
func (f *fakeContext) Message() *tele.Message { return f.msg }
func (f *fakeContext) Callback() *tele.Callback { return nil }
func (f *fakeContext) Respond(...*tele.CallbackResponse) error { return nil }
func (f *fakeContext) Text() string {
	if f.msg == nil {
		return ""
	}
	return f.msg.Text
}
func (f *fakeContext) Chat() *tele.Chat {
	return &tele.Chat{ID: f.user.ID, Type: tele.ChatPrivate}
}
func (f *fakeContext) Update() tele.Update {
	return tele.Update{ID: 1, Message: f.msg}
}
func (f *fakeContext) Get(key string) interface{} { return f.store[key] }
func (f *fakeContext) Set(key string, val interface{}) {
	f.store[key] = val
}
func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	text, _ := what.(string)
	sm := sentMessage{text: text}
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok && so != nil {
			sm.markup = so.ReplyMarkup
		}
	}
	*f.sent = append(*f.sent, sm)
	return nil
}

type chat struct {
	user *tele.User
	sent []sentMessage
}

func (c *chat) ctx(msg *tele.Message) *fakeContext {
	return &fakeContext{user: c.user, msg: msg, store: map[string]interface{}{}, sent: &c.sent}
}

func (c *chat) last(t *testing.T) sentMessage {
	t.Helper()
	if len(c.sent) == 0 {
		t.Fatal("nothing was sent")
	}
	return c.sent[len(c.sent)-1]
}

type memRecords struct {
	mu   sync.Mutex
	rows map[int64]onboarding.Record
}

func (m *memRecords) UpsertUser(_ context.Context, rec onboarding.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[rec.UserID] = rec
	return nil
}

func (m *memRecords) GetUser(_ context.Context, userID int64) (onboarding.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[userID]
	return rec, ok, nil
}

func (m *memRecords) CountUsers(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

type recordingNotifier struct {
	got []onboarding.Record
	err error
}

func (r *recordingNotifier) NotifySubmission(_ context.Context, rec onboarding.Record) error {
	r.got = append(r.got, rec)
	return r.err
}

func newTestSignup() (*signup, *memRecords, *recordingNotifier) {
	records := &memRecords{rows: make(map[int64]onboarding.Record)}
	ctrl := onboarding.NewController(state.NewMemoryStore(0), records, onboarding.Options{
		NewSubmissionID: func() string { return "sub-1" },
	})
	n := &recordingNotifier{}
	return newSignup(ctrl, n, records), records, n
}

func TestSignupFullFlow(t *testing.T) {
	s, records, notifier := newTestSignup()
	c := &chat{user: &tele.User{ID: 42, Username: "alice"}}
	msgs := onboarding.DefaultMessages()

	if err := s.onStart(c.ctx(&tele.Message{Text: "/start"})); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := c.last(t).markup; got == nil || len(got.InlineKeyboard) != 1 {
		t.Fatalf("prompt should carry the cancel button, got %+v", got)
	}
	if !s.InProgress(context.Background(), 42) {
		t.Fatal("session should be active after /start")
	}

	steps := []*tele.Message{
		{Text: "alice@example.com"},
		{Text: "hunter22"},
		{Photo: &tele.Photo{File: tele.File{FileID: "photo-big"}, Width: 1280, Height: 720}},
	}
	for i, m := range steps {
		if err := s.Dispatch(c.ctx(m)); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	last := c.last(t)
	if last.text != msgs.Success {
		t.Fatalf("last reply = %q, want success", last.text)
	}
	if last.markup == nil || !last.markup.RemoveKeyboard {
		t.Fatalf("success reply should remove the keyboard, got %+v", last.markup)
	}
	rec, ok := records.rows[42]
	if !ok {
		t.Fatal("record not stored")
	}
	if rec.Email != "alice@example.com" || rec.Secret != "hunter22" || rec.PaymentProof != "photo-big" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Username != "alice" || rec.PaymentProofKind != onboarding.ProofPhoto {
		t.Fatalf("record = %+v", rec)
	}
	if len(notifier.got) != 1 || notifier.got[0].SubmissionID != "sub-1" {
		t.Fatalf("notifications = %+v", notifier.got)
	}
	if s.InProgress(context.Background(), 42) {
		t.Fatal("session should be gone after completion")
	}
}

func TestSignupNotifierFailureKeepsSuccess(t *testing.T) {
	s, records, notifier := newTestSignup()
	notifier.err = errors.New("kafka down")
	c := &chat{user: &tele.User{ID: 7}}

	_ = s.onStart(c.ctx(&tele.Message{Text: "/start"}))
	_ = s.Dispatch(c.ctx(&tele.Message{Text: "bob@example.org"}))
	_ = s.Dispatch(c.ctx(&tele.Message{Text: "12345678"}))
	err := s.Dispatch(c.ctx(&tele.Message{Document: &tele.Document{File: tele.File{FileID: "doc-1"}, MIME: "image/png"}}))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if c.last(t).text != onboarding.DefaultMessages().Success {
		t.Fatalf("reply = %q", c.last(t).text)
	}
	if rec := records.rows[7]; rec.PaymentProofKind != onboarding.ProofDocument {
		t.Fatalf("proof kind = %q", rec.PaymentProofKind)
	}
}

func TestSignupRejectsNonImageDocument(t *testing.T) {
	s, records, _ := newTestSignup()
	c := &chat{user: &tele.User{ID: 9}}

	_ = s.onStart(c.ctx(&tele.Message{Text: "/start"}))
	_ = s.Dispatch(c.ctx(&tele.Message{Text: "carol@example.net"}))
	_ = s.Dispatch(c.ctx(&tele.Message{Text: "longenough"}))
	_ = s.Dispatch(c.ctx(&tele.Message{Document: &tele.Document{File: tele.File{FileID: "pdf"}, MIME: "application/pdf"}}))

	if c.last(t).text != onboarding.DefaultMessages().ProofExpected {
		t.Fatalf("reply = %q", c.last(t).text)
	}
	if len(records.rows) != 0 {
		t.Fatal("nothing should be stored")
	}
	if !s.InProgress(context.Background(), 9) {
		t.Fatal("session should survive a wrong upload")
	}
}

func TestSignupCancelAndFallback(t *testing.T) {
	s, _, _ := newTestSignup()
	c := &chat{user: &tele.User{ID: 5}}
	msgs := onboarding.DefaultMessages()

	if err := s.onCancel(c.ctx(&tele.Message{Text: "/cancel"})); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if c.last(t).text != msgs.NothingToCancel {
		t.Fatalf("reply = %q", c.last(t).text)
	}

	_ = s.Dispatch(c.ctx(&tele.Message{Text: "hello"}))
	if c.last(t).text != msgs.Fallback {
		t.Fatalf("reply = %q", c.last(t).text)
	}

	_ = s.onStart(c.ctx(&tele.Message{Text: "/start"}))
	_ = s.onCancel(c.ctx(&tele.Message{Text: "/cancel"}))
	if c.last(t).text != msgs.Cancelled {
		t.Fatalf("reply = %q", c.last(t).text)
	}
	if s.InProgress(context.Background(), 5) {
		t.Fatal("session should be cleared by cancel")
	}
}

func TestSignupStats(t *testing.T) {
	s, records, _ := newTestSignup()
	records.rows[1] = onboarding.Record{UserID: 1}
	records.rows[2] = onboarding.Record{UserID: 2}
	c := &chat{user: &tele.User{ID: 1}}

	if err := s.onStats(c.ctx(&tele.Message{Text: "/stats"})); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if got := c.last(t).text; got != "📊 Registered users: 2" {
		t.Fatalf("reply = %q", got)
	}
}

func TestSignupStaleButton(t *testing.T) {
	s, _, _ := newTestSignup()
	c := &chat{user: &tele.User{ID: 9}}

	if err := s.onStaleButton(c.ctx(nil)); err != nil {
		t.Fatalf("stale button: %v", err)
	}
	if got, want := c.last(t).text, onboarding.DefaultMessages().Fallback; got != want {
		t.Fatalf("reply = %q, want %q", got, want)
	}
}

func TestSignupStatus(t *testing.T) {
	s, records, _ := newTestSignup()
	c := &chat{user: &tele.User{ID: 5}}

	if err := s.onStatus(c.ctx(&tele.Message{Text: "/status"})); err != nil {
		t.Fatalf("status: %v", err)
	}
	if got := c.last(t).text; got != statusMissingText {
		t.Fatalf("reply = %q, want not-registered text", got)
	}

	records.rows[5] = onboarding.Record{
		UserID:      5,
		Email:       "bob@example.com",
		SubmittedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
	if err := s.onStatus(c.ctx(&tele.Message{Text: "/status"})); err != nil {
		t.Fatalf("status: %v", err)
	}
	want := "✅ Registered as bob@example.com, last updated 2024-03-01 09:30 UTC."
	if got := c.last(t).text; got != want {
		t.Fatalf("reply = %q, want %q", got, want)
	}
}
