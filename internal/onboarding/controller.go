package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/signupbot/core/logger"
	"github.com/m3rciful/signupbot/core/telegram/state"
)

const defaultUpsertTimeout = 10 * time.Second

// Options customizes a Controller. Zero values select defaults.
type Options struct {
	Policy          Policy
	Messages        *Messages
	Locker          *state.KeyedLocker
	Now             func() time.Time
	NewSubmissionID func() string
	UpsertTimeout   time.Duration
}

// Controller owns the per-user signup sessions and performs the final upsert.
// Events of the same user are applied one at a time; different users run in parallel.
type Controller struct {
	store         state.Store
	records       RecordStore
	policy        Policy
	msgs          Messages
	flow          flow
	locks         *state.KeyedLocker
	now           func() time.Time
	newID         func() string
	upsertTimeout time.Duration
}

// NewController wires the controller to its session store and record store.
func NewController(store state.Store, records RecordStore, opts Options) *Controller {
	policy := opts.Policy.withDefaults()
	msgs := DefaultMessages()
	if opts.Messages != nil {
		msgs = *opts.Messages
	}
	locks := opts.Locker
	if locks == nil {
		locks = state.NewKeyedLocker()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewSubmissionID
	if newID == nil {
		newID = uuid.NewString
	}
	timeout := opts.UpsertTimeout
	if timeout <= 0 {
		timeout = defaultUpsertTimeout
	}
	return &Controller{
		store:         store,
		records:       records,
		policy:        policy,
		msgs:          msgs,
		flow:          buildFlow(policy),
		locks:         locks,
		now:           now,
		newID:         newID,
		upsertTimeout: timeout,
	}
}

// Steps returns the ordered steps of the configured flow.
func (c *Controller) Steps() []state.State {
	return append([]state.State(nil), c.flow.order...)
}

// Fallback is the reply for input that no step accepts.
func (c *Controller) Fallback() Reply {
	return Reply{Text: c.msgs.Fallback}
}

// Current reports the step the user is at, or state.StateIdle without a session.
func (c *Controller) Current(ctx context.Context, userID int64) (state.State, error) {
	sess, ok, err := c.store.Get(ctx, userID)
	if err != nil {
		return state.StateIdle, fmt.Errorf("onboarding: load session: %w", err)
	}
	if !ok {
		return state.StateIdle, nil
	}
	return sess.State, nil
}

// Handle applies one event and returns the reply to deliver. Input problems are
// reported through Outcome.Err; the returned error is set only when the session
// store fails, in which case the outcome still carries a generic reply.
func (c *Controller) Handle(ctx context.Context, ev Event) (out Outcome, err error) {
	start := time.Now()
	defer func() {
		out.Duration = time.Since(start)
		c.logOutcome(ctx, ev, out, err)
	}()

	if ev.UserID == 0 {
		return Outcome{
			From:  state.StateIdle,
			To:    state.StateIdle,
			Reply: Reply{Text: c.msgs.Fallback},
			Err:   &InputError{Kind: ErrUnroutable, Reason: ReasonNoIdentity},
		}, nil
	}

	unlock := c.locks.Lock(ev.UserID)
	defer unlock()

	sess, ok, err := c.store.Get(ctx, ev.UserID)
	if err != nil {
		return c.storeFailure(state.StateIdle, "load", err)
	}
	if ok && !c.flow.has(sess.State) {
		// Left over from a flow with different steps.
		if err := c.store.Delete(ctx, ev.UserID); err != nil {
			return c.storeFailure(sess.State, "delete", err)
		}
		ok = false
	}

	if ev.Kind == EventStart {
		from := state.StateIdle
		if ok {
			from = sess.State
		}
		return c.start(ctx, ev, from)
	}

	if !ok {
		text := c.msgs.Fallback
		if ev.Kind == EventCancel {
			text = c.msgs.NothingToCancel
		}
		return Outcome{
			From:  state.StateIdle,
			To:    state.StateIdle,
			Reply: Reply{Text: text},
			Err:   &InputError{Kind: ErrUnroutable, Reason: ReasonNoSession},
		}, nil
	}

	tr, found := c.flow.lookup(sess.State, ev.Kind)
	if !found {
		return Outcome{
			From:  sess.State,
			To:    sess.State,
			Reply: Reply{Text: c.msgs.TextExpected, Markup: MarkupCancel},
			Err:   &InputError{Kind: ErrUnroutable, Field: stepFields[sess.State], Reason: ReasonWrongContent},
		}, nil
	}

	switch tr.action {
	case actCancel:
		return c.cancel(ctx, ev, sess)
	case actRetry:
		return Outcome{
			From:  sess.State,
			To:    sess.State,
			Reply: Reply{Text: c.msgs.ProofExpected, Markup: MarkupCancel},
			Err:   invalid(tr.field, ReasonNotImage),
		}, nil
	case actCollect:
		return c.collect(ctx, ev, sess, tr)
	case actComplete:
		return c.complete(ctx, ev, sess, tr)
	}
	return Outcome{From: sess.State, To: sess.State, Reply: Reply{Text: c.msgs.Fallback}, Err: ErrUnroutable}, nil
}

func (c *Controller) start(ctx context.Context, ev Event, from state.State) (Outcome, error) {
	first := c.flow.first()
	if err := c.store.Put(ctx, ev.UserID, state.NewSession(first, c.now())); err != nil {
		return c.storeFailure(from, "save", err)
	}
	return Outcome{
		From:  from,
		To:    first,
		Reply: Reply{Text: c.msgs.Welcome + "\n\n" + c.prompt(first), Markup: MarkupCancel},
	}, nil
}

func (c *Controller) cancel(ctx context.Context, ev Event, sess *state.Session) (Outcome, error) {
	if err := c.store.Delete(ctx, ev.UserID); err != nil {
		return c.storeFailure(sess.State, "delete", err)
	}
	return Outcome{
		From:  sess.State,
		To:    StateCancelled,
		Reply: Reply{Text: c.msgs.Cancelled, Markup: MarkupRemoveKeyboard},
	}, nil
}

func (c *Controller) collect(ctx context.Context, ev Event, sess *state.Session, tr transition) (Outcome, error) {
	from := sess.State
	value, err := c.validate(tr.field, ev.Text)
	if errors.Is(err, ErrPolicyRejected) {
		if delErr := c.store.Delete(ctx, ev.UserID); delErr != nil {
			return c.storeFailure(from, "delete", delErr)
		}
		return Outcome{
			From:  from,
			To:    StateCancelled,
			Reply: Reply{Text: c.msgs.underage(c.policy.MinAge), Markup: MarkupRemoveKeyboard},
			Err:   err,
		}, nil
	}
	if err != nil {
		return Outcome{
			From:  from,
			To:    from,
			Reply: Reply{Text: c.invalidText(err), Markup: MarkupCancel},
			Err:   err,
		}, nil
	}

	sess.Data[tr.field] = value
	sess.State = tr.next
	sess.UpdatedAt = c.now()
	if err := c.store.Put(ctx, ev.UserID, sess); err != nil {
		return c.storeFailure(from, "save", err)
	}
	return Outcome{
		From:  from,
		To:    tr.next,
		Reply: Reply{Text: c.prompt(tr.next), Markup: MarkupCancel},
	}, nil
}

func (c *Controller) complete(ctx context.Context, ev Event, sess *state.Session, tr transition) (Outcome, error) {
	from := sess.State
	img, err := PickLargestImage(ev.Images)
	if err != nil {
		return Outcome{
			From:  from,
			To:    from,
			Reply: Reply{Text: c.msgs.ProofExpected, Markup: MarkupCancel},
			Err:   err,
		}, nil
	}
	kind := ProofPhoto
	if img.Document {
		kind = ProofDocument
	}
	sess.Data[tr.field] = img.FileID
	sess.Data[FieldPaymentProofKind] = kind

	rec, err := c.buildRecord(ev, sess)
	if err == nil {
		upsertCtx, cancel := context.WithTimeout(ctx, c.upsertTimeout)
		err = c.records.UpsertUser(upsertCtx, rec)
		cancel()
	}

	// The session ends either way; a failed upsert is not retried.
	if delErr := c.store.Delete(ctx, ev.UserID); delErr != nil {
		logger.Warn(ctx, logger.ComponentOnboarding, "session.delete",
			slog.String("status", "fail"),
			slog.Int64("user_id", ev.UserID),
			slog.String("err", delErr.Error()),
		)
	}

	if err != nil {
		return Outcome{
			From:  from,
			To:    state.StateIdle,
			Reply: Reply{Text: c.msgs.Failure, Markup: MarkupRemoveKeyboard},
			Err:   fmt.Errorf("%w: %w", ErrPersistence, err),
		}, nil
	}
	return Outcome{
		From:   from,
		To:     tr.next,
		Reply:  Reply{Text: c.msgs.Success, Markup: MarkupRemoveKeyboard},
		Record: &rec,
	}, nil
}

func (c *Controller) validate(field, text string) (string, error) {
	switch field {
	case FieldEmail:
		return ValidateEmail(text)
	case FieldSecret:
		return ValidateSecret(text, c.policy.MinSecretLen, c.policy.SecretRequireAlnum)
	case FieldAge:
		age, err := ValidateAge(text, c.policy.MinAge)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(age), nil
	default:
		return ValidateFreeText(field, text)
	}
}

func (c *Controller) prompt(st state.State) string {
	switch st {
	case StepAwaitEmail:
		return c.msgs.AskEmail
	case StepAwaitSecret:
		return c.msgs.secretPrompt(c.policy.MinSecretLen)
	case StepAwaitAge:
		return c.msgs.AskAge
	case StepAwaitExperience:
		return c.msgs.AskExperience
	case StepAwaitCapital:
		return c.msgs.AskCapital
	case StepAwaitProof:
		return c.msgs.proofPrompt()
	}
	return c.msgs.Fallback
}

func (c *Controller) invalidText(err error) string {
	switch reasonOf(err) {
	case ReasonEmailShape:
		return c.msgs.InvalidEmail
	case ReasonTooShort:
		return c.msgs.secretTooShort(c.policy.MinSecretLen)
	case ReasonWeak:
		return c.msgs.SecretWeak
	case ReasonNotInteger:
		return c.msgs.AgeNotNumber
	case ReasonEmpty:
		return c.msgs.EmptyAnswer
	}
	return c.msgs.TextExpected
}

func (c *Controller) buildRecord(ev Event, sess *state.Session) (Record, error) {
	rec := Record{
		UserID:           ev.UserID,
		Username:         ev.Username,
		Email:            sess.Data[FieldEmail],
		Secret:           sess.Data[FieldSecret],
		PaymentProof:     sess.Data[FieldPaymentProof],
		PaymentProofKind: sess.Data[FieldPaymentProofKind],
		SubmissionID:     c.newID(),
		SubmittedAt:      c.now(),
	}
	if rec.Email == "" || rec.Secret == "" || rec.PaymentProof == "" {
		return Record{}, fmt.Errorf("onboarding: incomplete session for user %d", ev.UserID)
	}
	if v, ok := sess.Data[FieldAge]; ok {
		age, err := strconv.Atoi(v)
		if err != nil {
			return Record{}, fmt.Errorf("onboarding: stored age %q: %w", v, err)
		}
		rec.Age = &age
	}
	if v, ok := sess.Data[FieldExperience]; ok {
		rec.Experience = &v
	}
	if v, ok := sess.Data[FieldCapital]; ok {
		rec.Capital = &v
	}
	return rec, nil
}

func (c *Controller) storeFailure(from state.State, op string, err error) (Outcome, error) {
	return Outcome{
		From:  from,
		To:    from,
		Reply: Reply{Text: c.msgs.Failure},
	}, fmt.Errorf("onboarding: %s session: %w", op, err)
}

func (c *Controller) logOutcome(ctx context.Context, ev Event, out Outcome, err error) {
	attrs := []slog.Attr{
		slog.String("status", outcomeStatus(out, err)),
		slog.Int64("user_id", ev.UserID),
		slog.String("kind", string(ev.Kind)),
		slog.String("from_step", string(out.From)),
		slog.String("to_step", string(out.To)),
		slog.Bool("advanced", out.Changed()),
		slog.Duration("duration", logger.RoundMS(out.Duration)),
	}
	if r := reasonOf(out.Err); r != "" {
		attrs = append(attrs, slog.String("reason", r))
	}
	if out.Record != nil {
		attrs = append(attrs, slog.String("submission_id", out.Record.SubmissionID))
	}
	switch {
	case err != nil:
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.Error(ctx, logger.ComponentOnboarding, "event.handled", attrs...)
	case errors.Is(out.Err, ErrPersistence):
		attrs = append(attrs, slog.String("err", out.Err.Error()))
		logger.Error(ctx, logger.ComponentOnboarding, "event.handled", attrs...)
	case out.Record != nil, out.To == StateCancelled:
		logger.Info(ctx, logger.ComponentOnboarding, "event.handled", attrs...)
	default:
		logger.Debug(ctx, logger.ComponentOnboarding, "event.handled", attrs...)
	}
}

func outcomeStatus(out Outcome, err error) string {
	switch {
	case err != nil, errors.Is(out.Err, ErrPersistence):
		return "fail"
	case errors.Is(out.Err, ErrPolicyRejected):
		return "rejected"
	case errors.Is(out.Err, ErrValidation):
		return "invalid"
	case errors.Is(out.Err, ErrUnroutable):
		return "skip"
	case out.To == StateCancelled:
		return "cancelled"
	}
	return "ok"
}
