package app

import (
	"strings"

	"github.com/m3rciful/signupbot/core/telegram/keyboard"
	"github.com/m3rciful/signupbot/internal/onboarding"

	tele "gopkg.in/telebot.v4"
)

// cancelUnique is the callback key of the inline cancel button.
const cancelUnique = "signup_cancel"

// eventFromMessage converts a message into a controller event. Photos and documents become
// image events; a document that is not an image carries no variants and is rejected as proof.
func eventFromMessage(sender *tele.User, msg *tele.Message) onboarding.Event {
	ev := onboarding.Event{Kind: onboarding.EventText}
	if sender != nil {
		ev.UserID = sender.ID
		ev.Username = sender.Username
	}
	if msg == nil {
		return ev
	}

	switch {
	case msg.Photo != nil:
		ev.Kind = onboarding.EventImage
		ev.Images = []onboarding.ImageVariant{photoVariant(msg.Photo)}
	case msg.Document != nil:
		ev.Kind = onboarding.EventImage
		if isImageDocument(msg.Document) {
			ev.Images = []onboarding.ImageVariant{documentVariant(msg.Document)}
		}
	default:
		ev.Text = msg.Text
	}
	return ev
}

func photoVariant(p *tele.Photo) onboarding.ImageVariant {
	return onboarding.ImageVariant{
		FileID:   p.FileID,
		Width:    p.Width,
		Height:   p.Height,
		FileSize: int64(p.FileSize),
	}
}

func documentVariant(d *tele.Document) onboarding.ImageVariant {
	return onboarding.ImageVariant{
		FileID:   d.FileID,
		FileSize: int64(d.FileSize),
		Document: true,
	}
}

func isImageDocument(d *tele.Document) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(d.MIME)), "image/")
}

func replyMarkup(m onboarding.Markup) *tele.ReplyMarkup {
	switch m {
	case onboarding.MarkupCancel:
		return keyboard.SingleCancelMarkup(cancelUnique)
	case onboarding.MarkupRemoveKeyboard:
		return keyboard.RemoveKeyboard()
	}
	return nil
}
