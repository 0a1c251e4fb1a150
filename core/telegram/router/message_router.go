package router

import (
	"context"

	tg "github.com/m3rciful/signupbot/core/telegram"
	tghelpers "github.com/m3rciful/signupbot/core/telegram/helpers"
	"github.com/m3rciful/signupbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Conversation is the minimal contract of a multi-step dialogue owned by the bot.
type Conversation interface {
	InProgress(ctx context.Context, userID int64) bool
	Dispatch(c tele.Context) error
}

// MessageOptions controls fallback behaviour for text, photo and document updates.
type MessageOptions struct {
	UnknownText  tele.HandlerFunc
	UnknownMedia tele.HandlerFunc
}

// MessageRoutes builds handlers for text, photo and document routing.
// Messages of a user with an active conversation go to the conversation; plain text outside of it
// is matched against registered commands and then against the registry fallback.
func MessageRoutes(conv Conversation, reg *tg.Registry, opts MessageOptions) []tg.Route {
	inProgress := func(c tele.Context) bool {
		if conv == nil || c.Sender() == nil {
			return false
		}
		return conv.InProgress(tghelpers.BuildContext(c), c.Sender().ID)
	}

	textHandler := func(c tele.Context) error {
		if inProgress(c) {
			return run(c, "conversation", conv.Dispatch)
		}
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return run(c, normalizeHandlerName(key), cmd.Handler)
			}
			if fb := reg.TextFallback(); fb != nil {
				return run(c, "fallback", fb)
			}
		}
		if opts.UnknownText != nil {
			return run(c, "unknown_text", opts.UnknownText)
		}
		skip(c, "unknown_text")
		return nil
	}

	mediaHandler := func(kind string) tele.HandlerFunc {
		return func(c tele.Context) error {
			if inProgress(c) {
				return run(c, "conversation_"+kind, conv.Dispatch)
			}
			if opts.UnknownMedia != nil {
				return run(c, "unexpected_"+kind, opts.UnknownMedia)
			}
			skip(c, "unexpected_"+kind)
			return nil
		}
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(textHandler)},
		{Endpoint: tele.OnPhoto, Handler: wrap(mediaHandler("photo"))},
		{Endpoint: tele.OnDocument, Handler: wrap(mediaHandler("document"))},
	}
}
