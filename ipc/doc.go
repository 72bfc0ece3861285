/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package ipc provides typed access to the commands and events of the Typst backend service.
//
// Backend wraps a bridge.Invoker and exposes one method per backend command.
// The On* helpers subscribe to typed backend events on a bridge.Listener.
package ipc
