package onboarding

import (
	"fmt"
	"strings"
)

// Messages holds every user facing text of the flow.
type Messages struct {
	Welcome             string
	AskEmail            string
	AskSecret           string
	AskAge              string
	AskExperience       string
	AskCapital          string
	PaymentInstructions string
	AskProof            string

	InvalidEmail   string
	SecretTooShort string
	SecretWeak     string
	AgeNotNumber   string
	Underage       string
	EmptyAnswer    string
	ProofExpected  string
	TextExpected   string

	Success         string
	Cancelled       string
	NothingToCancel string
	Failure         string
	Fallback        string
}

// DefaultMessages returns the built-in English texts. SecretTooShort and Underage
// take the configured threshold as their only format verb.
func DefaultMessages() Messages {
	return Messages{
		Welcome:             "👋 Welcome! Let's get you registered.",
		AskEmail:            "Please send your email address.",
		AskSecret:           "✅ Email received. Now send a secret code of at least %d characters.",
		AskAge:              "How old are you?",
		AskExperience:       "Tell us briefly about your trading experience.",
		AskCapital:          "What starting capital do you plan to use?",
		PaymentInstructions: "💳 Complete the payment using the details provided by the administrator.",
		AskProof:            "📸 Then send a screenshot of the payment.",

		InvalidEmail:   "❌ That does not look like an email address. Try again, e.g. name@example.com.",
		SecretTooShort: "❌ The secret code must be at least %d characters long.",
		SecretWeak:     "❌ The secret code must contain at least one letter and one digit.",
		AgeNotNumber:   "❌ Please send your age as a whole number.",
		Underage:       "⛔ Sorry, you must be at least %d years old to register. Send /start if you made a mistake.",
		EmptyAnswer:    "❌ The answer cannot be empty.",
		ProofExpected:  "🖼 Please send the payment screenshot as an image.",
		TextExpected:   "✍️ Please answer with a text message.",

		Success:         "✅ Payment proof received. Your registration will be reviewed shortly.",
		Cancelled:       "Registration cancelled. Send /start to begin again.",
		NothingToCancel: "There is nothing to cancel. Send /start to begin registration.",
		Failure:         "⚠️ Something went wrong while saving your data. Please send /start and try again.",
		Fallback:        "Send /start to begin registration.",
	}
}

func (m Messages) secretPrompt(minLen int) string {
	return formatCount(m.AskSecret, minLen)
}

func (m Messages) secretTooShort(minLen int) string {
	return formatCount(m.SecretTooShort, minLen)
}

func (m Messages) underage(minAge int) string {
	return formatCount(m.Underage, minAge)
}

func (m Messages) proofPrompt() string {
	if m.PaymentInstructions == "" {
		return m.AskProof
	}
	return m.PaymentInstructions + "\n\n" + m.AskProof
}

func formatCount(tmpl string, n int) string {
	if !strings.Contains(tmpl, "%d") {
		return tmpl
	}
	return fmt.Sprintf(tmpl, n)
}
