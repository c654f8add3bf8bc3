package utils

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Substrings of RPC provider messages that mean the request timed out
var timeoutMessages = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"429", // rate limited providers behave like slow ones
	"too many requests",
}

// IsTimeout reports whether err belongs to the transient, timeout-like failure
// class that callers retry indefinitely.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range timeoutMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
