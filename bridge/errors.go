/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package bridge

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when a backend response can't be decoded.
var ErrMalformedResponse = errors.New("malformed bridge response")

// CommandError is returned when the backend rejects a command.
type CommandError struct {
	Command    string
	StatusCode int
	Message    string
}

func (e *CommandError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("bridge command %s failed with status %d", e.Command, e.StatusCode)
	}
	return fmt.Sprintf("bridge command %s failed with status %d: %s", e.Command, e.StatusCode, e.Message)
}

// RateLimitingWaitError is returned when a call can't pass client-side rate limiting in time.
type RateLimitingWaitError struct {
	Inner error
}

func (e *RateLimitingWaitError) Error() string {
	return fmt.Sprintf("wait due to client side rate limiting: %s", e.Inner.Error())
}

// Unwrap returns the next error in the error chain.
func (e *RateLimitingWaitError) Unwrap() error {
	return e.Inner
}
