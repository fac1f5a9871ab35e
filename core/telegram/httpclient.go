package telegram

import (
	"net/http"
	"time"

	"github.com/m3rciful/arrbot/core/netutil"
)

const pollGrace = 10 * time.Second

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls.
// getUpdates holds the response open for the poll timeout, so header and
// client timeouts are stretched past it.
func BuildHTTPClient(pollTimeoutSeconds int) *http.Client {
	if pollTimeoutSeconds <= 0 {
		pollTimeoutSeconds = 10
	}
	poll := time.Duration(pollTimeoutSeconds) * time.Second
	return netutil.NewClient(netutil.ClientOptions{
		ResponseTimeout: poll + pollGrace,
		ClientTimeout:   poll + 2*pollGrace,
	})
}
