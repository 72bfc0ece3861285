/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package shell contains the observable state of the editor shell: the opened project,
// the selected file, the modal queue and the state of the preview.
package shell
