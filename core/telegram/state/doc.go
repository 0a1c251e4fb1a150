// Package state keeps per-user conversation sessions for Telegram bots.
// Sessions are addressed by Telegram user id and can live in process memory,
// in a local bolt file, or in Redis; the Store interface hides the difference.
package state
