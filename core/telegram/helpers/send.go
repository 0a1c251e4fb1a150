package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/signupbot/core/logger"
	"github.com/m3rciful/signupbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions. Nil makes helpers
// send synchronously.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// SendText sends plain text to the current chat, attaching markup when it is not nil.
// The call is queued on the dispatcher when one is set; a saturated or closed queue
// degrades to a direct send.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var opts []interface{}
	if len(markup) > 0 && markup[0] != nil {
		opts = append(opts, &tele.SendOptions{ReplyMarkup: markup[0]})
	}
	send := func() error { return c.Send(text, opts...) }

	disp := globalDispatcher.Load()
	if disp == nil {
		return send()
	}
	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, "send.text", "sendMessage", send)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, logger.ComponentSender, "queue.fallback",
			slog.String("status", "retry"),
			slog.String("err", err.Error()),
		)
		return send()
	}
	return err
}
