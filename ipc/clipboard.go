/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package ipc

import "context"

// PasteResponse is the result of the clipboard_paste command.
// Path points to the file the backend stored the clipboard image to.
type PasteResponse struct {
	Path string `json:"path"`
}

// Paste asks the backend to store the clipboard contents into the project.
func (b *Backend) Paste(ctx context.Context) (PasteResponse, error) {
	var resp PasteResponse
	err := b.invoker.Invoke(ctx, CommandClipboardPaste, nil, &resp)
	return resp, err
}
