package middleware

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/signupbot/core/logger"
	"github.com/m3rciful/signupbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/signupbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// seenUpdates remembers recently logged update ids so nested middleware logs each update once.
type seenUpdates struct {
	mu      sync.Mutex
	keepFor time.Duration
	seen    map[int]time.Time
}

var receipts = &seenUpdates{keepFor: 10 * time.Second, seen: make(map[int]time.Time)}

func (s *seenUpdates) firstTime(updateID int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ts := range s.seen {
		if now.Sub(ts) > s.keepFor {
			delete(s.seen, id)
		}
	}
	if _, ok := s.seen[updateID]; ok {
		return false
	}
	s.seen[updateID] = now
	return true
}

// LoggerMiddleware attaches a request id and update metadata to the context and logs
// one receipt line per update. Free text is never logged: it may carry emails or secrets.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		user := c.Sender()
		chat := c.Chat()
		ctx := tghelpers.BuildContext(c)

		if receipts.firstTime(upd.ID, time.Now()) {
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", receiptAttrs(c, upd, user, chat)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context, upd tele.Update, user *tele.User, chat *tele.Chat) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user != nil {
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}

	switch {
	case upd.Callback != nil:
		attrs = append(attrs, slog.String("kind", "callback"))
		if key, _ := callbacks.Parse(upd.Callback); key != "" {
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
		}
	case upd.Message != nil:
		msg := upd.Message
		switch {
		case msg.Photo != nil:
			attrs = append(attrs, slog.String("kind", "photo"))
		case msg.Document != nil:
			attrs = append(attrs,
				slog.String("kind", "document"),
				slog.String("mime", logger.SanitizeLimit(msg.Document.MIME, 64)),
			)
		default:
			text := c.Text()
			attrs = append(attrs, slog.String("kind", "text"), slog.Int("payload_len", len(text)))
			if strings.HasPrefix(text, "/") {
				cmd, _, _ := strings.Cut(text, " ")
				attrs = append(attrs, slog.String("command", logger.SanitizeLimit(cmd, 64)))
			}
		}
	}
	return attrs
}
