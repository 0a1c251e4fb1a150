// Package netutil decides which failures of Telegram API calls are transient.
package netutil

import (
	"errors"
	"net"
	"net/url"
	"time"

	tele "gopkg.in/telebot.v4"
)

// ShouldRetry reports whether a transport level error is worth retrying: timeouts,
// failed dials and connection resets while talking to the Bot API.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && urlErr.Err != err {
			return ShouldRetry(urlErr.Err)
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Timeout() || opErr.Op == "dial" || opErr.Op == "read"
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ShouldRetryAPI extends ShouldRetry with Bot API answers that succeed later:
// flood control and 5xx responses.
func ShouldRetryAPI(err error) bool {
	if ShouldRetry(err) {
		return true
	}
	if _, ok := RetryAfter(err); ok {
		return true
	}
	var apiErr *tele.Error
	return errors.As(err, &apiErr) && apiErr.Code >= 500
}

// RetryAfter extracts the wait requested by Telegram flood control.
func RetryAfter(err error) (time.Duration, bool) {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second, true
	}
	return 0, false
}
