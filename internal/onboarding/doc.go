// Package onboarding drives the signup conversation: it walks a user through
// email, secret, optional profile questions and a payment screenshot, then
// writes the collected record with a single upsert.
//
// The package is transport agnostic. Adapters translate chat updates into
// Event values and deliver the Reply carried by each Outcome.
package onboarding
