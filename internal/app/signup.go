package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/signupbot/core/logger"
	tghelpers "github.com/m3rciful/signupbot/core/telegram/helpers"
	"github.com/m3rciful/signupbot/core/telegram/state"
	"github.com/m3rciful/signupbot/internal/notify"
	"github.com/m3rciful/signupbot/internal/onboarding"

	tele "gopkg.in/telebot.v4"
)

const (
	defaultNotifyTimeout = 10 * time.Second

	rateLimitedText = "⏳ Too many messages, please slow down."
	statsText       = "📊 Registered users: %d"
	statsFailedText = "Could not read statistics right now."

	statusDoneText    = "✅ Registered as %s, last updated %s."
	statusMissingText = "You are not registered yet. Send /start to begin."
	statusFailedText  = "Could not check your registration right now."
)

// UserDirectory reads stored signups.
type UserDirectory interface {
	CountUsers(ctx context.Context) (int64, error)
	GetUser(ctx context.Context, userID int64) (onboarding.Record, bool, error)
}

// signup adapts the onboarding controller to telebot handlers.
type signup struct {
	ctrl          *onboarding.Controller
	notifier      notify.Notifier
	users         UserDirectory
	notifyTimeout time.Duration
}

func newSignup(ctrl *onboarding.Controller, notifier notify.Notifier, users UserDirectory) *signup {
	return &signup{
		ctrl:          ctrl,
		notifier:      notifier,
		users:         users,
		notifyTimeout: defaultNotifyTimeout,
	}
}

// InProgress reports whether userID has an active signup. A failing store counts as active so
// the controller can answer with its generic failure reply.
func (s *signup) InProgress(ctx context.Context, userID int64) bool {
	st, err := s.ctrl.Current(ctx, userID)
	if err != nil {
		logger.Warn(ctx, logger.ComponentOnboarding, "session.lookup",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return true
	}
	return st != state.StateIdle
}

// Dispatch feeds a text, photo or document message into the flow.
func (s *signup) Dispatch(c tele.Context) error {
	return s.handle(c, eventFromMessage(c.Sender(), c.Message()))
}

func (s *signup) onStart(c tele.Context) error {
	return s.handle(c, s.commandEvent(c, onboarding.EventStart))
}

func (s *signup) onCancel(c tele.Context) error {
	return s.handle(c, s.commandEvent(c, onboarding.EventCancel))
}

func (s *signup) commandEvent(c tele.Context, kind onboarding.EventKind) onboarding.Event {
	ev := onboarding.Event{Kind: kind}
	if u := c.Sender(); u != nil {
		ev.UserID = u.ID
		ev.Username = u.Username
	}
	return ev
}

func (s *signup) handle(c tele.Context, ev onboarding.Event) error {
	ctx := tghelpers.BuildContext(c)
	out, err := s.ctrl.Handle(ctx, ev)
	if out.Reply.Text != "" {
		if sendErr := tghelpers.SendText(c, out.Reply.Text, replyMarkup(out.Reply.Markup)); sendErr != nil && err == nil {
			err = sendErr
		}
	}
	if out.Record != nil {
		s.notify(ctx, *out.Record)
	}
	return err
}

// notify runs after the reply went out; its result never reaches the user.
func (s *signup) notify(ctx context.Context, rec onboarding.Record) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()
	if err := s.notifier.NotifySubmission(nctx, rec); err != nil {
		return
	}
	logger.Debug(ctx, logger.ComponentNotify, "notify.done",
		slog.String("status", "ok"),
		slog.String("submission_id", rec.SubmissionID),
	)
}

func (s *signup) onStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	n, err := s.users.CountUsers(ctx)
	if err != nil {
		_ = tghelpers.SendText(c, statsFailedText)
		return fmt.Errorf("app: stats: %w", err)
	}
	return tghelpers.SendText(c, fmt.Sprintf(statsText, n))
}

// onStatus tells the sender whether a submission is stored for them.
func (s *signup) onStatus(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	u := c.Sender()
	if u == nil {
		return tghelpers.SendText(c, s.ctrl.Fallback().Text)
	}
	rec, ok, err := s.users.GetUser(ctx, u.ID)
	switch {
	case err != nil:
		_ = tghelpers.SendText(c, statusFailedText)
		return fmt.Errorf("app: status: %w", err)
	case !ok:
		return tghelpers.SendText(c, statusMissingText)
	}
	return tghelpers.SendText(c, fmt.Sprintf(statusDoneText, rec.Email, rec.SubmittedAt.UTC().Format("2006-01-02 15:04 MST")))
}

// onStaleButton answers presses on buttons from messages the bot no longer handles.
func (s *signup) onStaleButton(c tele.Context) error {
	_ = c.Respond()
	return tghelpers.SendText(c, s.ctrl.Fallback().Text)
}

func (s *signup) onRateLimited(c tele.Context) error {
	return tghelpers.SendText(c, rateLimitedText)
}
