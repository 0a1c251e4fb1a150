package router

import (
	"log/slog"

	tg "github.com/m3rciful/signupbot/core/telegram"
	"github.com/m3rciful/signupbot/core/telegram/callbacks"
	"github.com/m3rciful/signupbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute answers every callback query and dispatches it by its unique key.
// Unknown keys go to the registry's not-found handler when one is set.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key, _ := callbacks.Parse(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		keyAttr := slog.String("cb_key", key)

		if h, ok := reg.GetCallback(key); ok && h != nil {
			// Stop the client spinner before the handler replies.
			_ = c.Respond()
			return run(c, name, h, keyAttr)
		}

		fallback := reg.CallbackNotFound()
		if fallback == nil {
			_ = c.Respond()
			skip(c, name, keyAttr, slog.String("reason", "not_found"))
			return nil
		}
		return run(c, name, fallback, keyAttr, slog.String("reason", "not_found"))
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
