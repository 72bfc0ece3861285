/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package coalesce provides a throttle that serializes executions of an operation
// and collapses calls arriving during an execution into a single pending call
// that runs with the most recent arguments as soon as the current execution settles.
//
// At most one execution is in flight at any time. Calls are coalesced, not queued:
// if several calls arrive while the operation runs, only the latest one survives.
// The throttle is safe for concurrent use.
package coalesce
