package onboarding

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input that can be corrected by answering the same step again.
	ErrValidation = errors.New("onboarding: invalid input")
	// ErrPolicyRejected marks input that ends the session, e.g. an age below the minimum.
	ErrPolicyRejected = errors.New("onboarding: rejected by policy")
	// ErrPersistence marks a failed final upsert. The session is discarded.
	ErrPersistence = errors.New("onboarding: persistence failed")
	// ErrUnroutable marks input that matches no transition for the current step.
	ErrUnroutable = errors.New("onboarding: unroutable input")
)

// Reasons reported by InputError.
const (
	ReasonEmailShape   = "email_shape"
	ReasonTooShort     = "too_short"
	ReasonWeak         = "weak"
	ReasonNotInteger   = "not_integer"
	ReasonUnderage     = "underage"
	ReasonEmpty        = "empty"
	ReasonNotImage     = "not_image"
	ReasonNoVariants   = "no_variants"
	ReasonNoIdentity   = "no_identity"
	ReasonNoSession    = "no_session"
	ReasonWrongContent = "wrong_content"
)

// InputError describes why a value was refused. Kind is ErrValidation or ErrPolicyRejected.
type InputError struct {
	Kind   error
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return e.Kind }

func invalid(field, reason string) error {
	return &InputError{Kind: ErrValidation, Field: field, Reason: reason}
}

func rejected(field, reason string) error {
	return &InputError{Kind: ErrPolicyRejected, Field: field, Reason: reason}
}

// reasonOf extracts the InputError reason, if any.
func reasonOf(err error) string {
	var ie *InputError
	if errors.As(err, &ie) {
		return ie.Reason
	}
	return ""
}
