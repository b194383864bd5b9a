package broker

import (
	"strings"

	"github.com/amken3d/sim868/modemerr"
)

// Resolver is a pure, total function from accumulated UTF-8 response
// text to a typed outcome. Returning modemerr.NotResolved means "keep
// polling"; any other non-nil error is terminal.
type Resolver[T any] func(text string) (T, error)

// AckMatch reports whether text contains the AT success terminator.
func AckMatch(text string) bool {
	return strings.Contains(text, "\r\nOK\r\n")
}

// ErrorMatch reports whether text contains the AT failure terminator.
func ErrorMatch(text string) bool {
	return strings.Contains(text, "\r\nERROR\r\n")
}

// Generic is the feature-agnostic ack/error resolver: errOnError if the
// response errored, success if it acked, NotResolved otherwise.
func Generic(text string, errOnError error) error {
	if ErrorMatch(text) {
		return errOnError
	}
	if AckMatch(text) {
		return nil
	}
	return modemerr.NotResolved
}
