package app

import (
	"testing"

	"github.com/m3rciful/signupbot/internal/onboarding"

	tele "gopkg.in/telebot.v4"
)

func TestEventFromMessage(t *testing.T) {
	user := &tele.User{ID: 3, Username: "dave"}
	cases := []struct {
		name   string
		msg    *tele.Message
		kind   onboarding.EventKind
		images int
	}{
		{name: "text", msg: &tele.Message{Text: "a@b.co"}, kind: onboarding.EventText},
		{name: "photo", msg: &tele.Message{Photo: &tele.Photo{File: tele.File{FileID: "p"}, Width: 10, Height: 10}}, kind: onboarding.EventImage, images: 1},
		{name: "image document", msg: &tele.Message{Document: &tele.Document{File: tele.File{FileID: "d"}, MIME: " Image/JPEG"}}, kind: onboarding.EventImage, images: 1},
		{name: "other document", msg: &tele.Message{Document: &tele.Document{File: tele.File{FileID: "d"}, MIME: "text/plain"}}, kind: onboarding.EventImage},
		{name: "no message", kind: onboarding.EventText},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := eventFromMessage(user, tc.msg)
			if ev.Kind != tc.kind {
				t.Fatalf("kind = %q, want %q", ev.Kind, tc.kind)
			}
			if len(ev.Images) != tc.images {
				t.Fatalf("images = %d, want %d", len(ev.Images), tc.images)
			}
			if ev.UserID != 3 || ev.Username != "dave" {
				t.Fatalf("identity = %d/%q", ev.UserID, ev.Username)
			}
		})
	}
}

func TestEventFromMessageKeepsTextVerbatim(t *testing.T) {
	ev := eventFromMessage(&tele.User{ID: 1}, &tele.Message{Text: "  secret with spaces "})
	if ev.Text != "  secret with spaces " {
		t.Fatalf("text = %q", ev.Text)
	}
}

func TestDocumentVariantFlag(t *testing.T) {
	ev := eventFromMessage(&tele.User{ID: 1}, &tele.Message{Document: &tele.Document{File: tele.File{FileID: "d"}, MIME: "image/png"}})
	if !ev.Images[0].Document || ev.Images[0].FileID != "d" {
		t.Fatalf("variant = %+v", ev.Images[0])
	}
}

func TestReplyMarkup(t *testing.T) {
	if replyMarkup(onboarding.MarkupNone) != nil {
		t.Fatal("none should map to nil")
	}
	if m := replyMarkup(onboarding.MarkupRemoveKeyboard); m == nil || !m.RemoveKeyboard {
		t.Fatalf("remove = %+v", m)
	}
	m := replyMarkup(onboarding.MarkupCancel)
	if m == nil || m.InlineKeyboard[0][0].Unique != cancelUnique {
		t.Fatalf("cancel = %+v", m)
	}
}
