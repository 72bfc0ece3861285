/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package bridge provides the request/response call bridge to the Typst backend service
// and the stream of events the backend emits.
//
// Commands are invoked with POST {url}/invoke/{command} and a JSON argument object.
// Successful responses carry the JSON result, failed ones carry the backend error message.
// Events are delivered over a WebSocket connection at {url}/events.
package bridge
