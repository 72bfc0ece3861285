/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package ipc

import (
	"github.com/typstudio/editorkit/bridge"
)

// Backend provides typed methods for the backend commands.
type Backend struct {
	invoker bridge.Invoker
}

// NewBackend creates a new Backend that sends commands through the given invoker.
func NewBackend(invoker bridge.Invoker) *Backend {
	return &Backend{invoker: invoker}
}
