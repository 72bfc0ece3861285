/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package testutil contains helpers shared by tests of the editorkit packages.
package testutil

type tHelper interface {
	Helper()
}
