package onboarding

import (
	"time"

	"github.com/m3rciful/signupbot/core/telegram/state"
)

// EventKind classifies inbound user input.
type EventKind string

const (
	EventStart  EventKind = "start"
	EventText   EventKind = "text"
	EventImage  EventKind = "image"
	EventCancel EventKind = "cancel"
)

// ImageVariant is one resolution of an image offered by the transport.
type ImageVariant struct {
	FileID   string
	Width    int
	Height   int
	FileSize int64
	// Document is set when the image arrived as a file instead of a compressed photo.
	Document bool
}

// Event is a single inbound update addressed to the controller.
type Event struct {
	Kind     EventKind
	UserID   int64
	Username string
	Text     string
	Images   []ImageVariant
}

// Markup selects the reply keyboard the transport should attach.
type Markup int

const (
	MarkupNone Markup = iota
	// MarkupCancel attaches a cancel button to the prompt.
	MarkupCancel
	// MarkupRemoveKeyboard clears any custom keyboard.
	MarkupRemoveKeyboard
)

// Reply is the message sent back to the user.
type Reply struct {
	Text   string
	Markup Markup
}

// Pseudo-states reported in Outcome.To. They are never stored.
const (
	StateDone      state.State = "done"
	StateCancelled state.State = "cancelled"
)

// Outcome summarizes how one event was handled.
type Outcome struct {
	From  state.State
	To    state.State
	Reply Reply
	// Err is one of the package sentinels (possibly wrapped) when the event was not accepted.
	Err error
	// Record is set once a submission has been persisted.
	Record   *Record
	Duration time.Duration
}

// Changed reports whether the event moved the conversation to another step.
func (o Outcome) Changed() bool {
	return o.From != o.To
}
