/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package completion adapts completions proposed by the Typst backend to editor suggestions.
//
// The editor addresses text with 1-based line/column positions while the backend works with
// byte offsets. Provider converts between the two, maps completion kinds and rewrites
// backend snippets into numbered editor snippets.
package completion
