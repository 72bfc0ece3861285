/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package ipc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/typstudio/editorkit/bridge"
)

// Backend event names.
const (
	EventTypstCompile   = "typst_compile"
	EventFSRefresh      = "fs_refresh"
	EventProjectChanged = "project_changed"

	EventTogglePreviewVisibility = "toggle_preview_visibility"
)

// Project is a project opened in the backend.
type Project struct {
	Root string `json:"root"`
}

// FSRefreshEvent is the payload of the fs_refresh event.
// Path is the directory whose listing changed.
type FSRefreshEvent struct {
	Path string `json:"path"`
}

// ProjectChangeEvent is the payload of the project_changed event.
// Project is nil when the project was closed.
type ProjectChangeEvent struct {
	Project *Project `json:"project"`
}

// TogglePreviewVisibilityEvent is the payload of the toggle_preview_visibility event.
// The backend sends it when the user toggles the preview from the application menu.
type TogglePreviewVisibilityEvent struct{}

// EventSource is implemented by bridge.Listener.
type EventSource interface {
	On(event string, handler bridge.EventHandler) (unsubscribe func())
}

var _ EventSource = (*bridge.Listener)(nil)

func on[E any](src EventSource, event string, handler func(ctx context.Context, ev E) error) func() {
	return src.On(event, func(ctx context.Context, payload json.RawMessage) error {
		var ev E
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("decode %s event: %w", event, err)
		}
		return handler(ctx, ev)
	})
}

// OnCompile subscribes to the typst_compile event.
func OnCompile(src EventSource, handler func(ctx context.Context, ev CompileEvent) error) (unsubscribe func()) {
	return on(src, EventTypstCompile, handler)
}

// OnFSRefresh subscribes to the fs_refresh event.
func OnFSRefresh(src EventSource, handler func(ctx context.Context, ev FSRefreshEvent) error) (unsubscribe func()) {
	return on(src, EventFSRefresh, handler)
}

// OnTogglePreviewVisibility subscribes to the toggle_preview_visibility event.
func OnTogglePreviewVisibility(
	src EventSource, handler func(ctx context.Context, ev TogglePreviewVisibilityEvent) error,
) (unsubscribe func()) {
	return on(src, EventTogglePreviewVisibility, handler)
}

// OnProjectChanged subscribes to the project_changed event.
func OnProjectChanged(
	src EventSource, handler func(ctx context.Context, ev ProjectChangeEvent) error,
) (unsubscribe func()) {
	return on(src, EventProjectChanged, handler)
}
