/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package preview keeps the document preview in sync with the editor.
//
// Edits are pushed to the backend through a coalescing throttle, so at most one write is in
// flight and only the newest edit waits behind it. The backend recompiles on every write and
// reports the result with the typst_compile event. Rendered pages are kept in a bounded LRU cache
// keyed by the document hash, the page number and the scale.
package preview
