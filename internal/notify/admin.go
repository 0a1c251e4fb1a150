package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/m3rciful/signupbot/internal/onboarding"

	tele "gopkg.in/telebot.v4"
)

// ErrNotAttached is returned until the admin notifier has a bot to send with.
var ErrNotAttached = errors.New("notify: bot not attached")

// Sender is the part of *tele.Bot used to reach the administrator.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type senderBox struct{ s Sender }

// TelegramAdmin forwards the payment screenshot with a submission summary to the admin chat.
type TelegramAdmin struct {
	adminID int64
	sender  atomic.Pointer[senderBox]
}

// NewTelegramAdmin targets the chat of adminID. Attach must be called once the bot exists.
func NewTelegramAdmin(adminID int64) *TelegramAdmin {
	return &TelegramAdmin{adminID: adminID}
}

// Attach sets the bot used for delivery.
func (a *TelegramAdmin) Attach(s Sender) {
	if s == nil {
		a.sender.Store(nil)
		return
	}
	a.sender.Store(&senderBox{s: s})
}

// NotifySubmission sends the proof as photo or document, captioned with the summary.
func (a *TelegramAdmin) NotifySubmission(_ context.Context, rec onboarding.Record) error {
	box := a.sender.Load()
	if box == nil {
		return ErrNotAttached
	}
	to := tele.ChatID(a.adminID)
	caption := Summary(rec)

	var what interface{}
	switch rec.PaymentProofKind {
	case onboarding.ProofDocument:
		what = &tele.Document{File: tele.File{FileID: rec.PaymentProof}, Caption: caption}
	default:
		what = &tele.Photo{File: tele.File{FileID: rec.PaymentProof}, Caption: caption}
	}
	if _, err := box.s.Send(to, what); err != nil {
		return fmt.Errorf("notify: send proof to admin: %w", err)
	}
	return nil
}

// Summary renders a plain text description of a submission. The secret is never included.
func Summary(rec onboarding.Record) string {
	var b strings.Builder
	b.WriteString("🆕 New registration\n")
	b.WriteString("User: ")
	b.WriteString(strconv.FormatInt(rec.UserID, 10))
	if rec.Username != "" {
		b.WriteString(" (@" + rec.Username + ")")
	}
	b.WriteString("\nEmail: " + rec.Email)
	if rec.Age != nil {
		b.WriteString("\nAge: " + strconv.Itoa(*rec.Age))
	}
	if rec.Experience != nil {
		b.WriteString("\nExperience: " + *rec.Experience)
	}
	if rec.Capital != nil {
		b.WriteString("\nCapital: " + *rec.Capital)
	}
	if rec.SubmissionID != "" {
		b.WriteString("\nSubmission: " + rec.SubmissionID)
	}
	return b.String()
}
