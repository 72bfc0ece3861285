/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package cli

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/spf13/cobra"

	"github.com/typstudio/editorkit/ipc"
)

type eventRecord struct {
	Event   string      `json:"event" yaml:"event"`
	Payload interface{} `json:"payload" yaml:"payload"`
}

func newEventsCommand(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "events [event...]",
		Short: "Print backend events until interrupted",
		Long: "Print backend events until interrupted. Without arguments all known events are printed: " +
			ipc.EventTypstCompile + ", " + ipc.EventFSRefresh + ", " + ipc.EventProjectChanged + ", " +
			ipc.EventTogglePreviewVisibility + ".",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = []string{
					ipc.EventTypstCompile, ipc.EventFSRefresh, ipc.EventProjectChanged, ipc.EventTogglePreviewVisibility,
				}
			}
			listener, err := st.app.newListener()
			if err != nil {
				return err
			}

			var outMu sync.Mutex
			for _, name := range names {
				name := name
				listener.On(name, func(_ context.Context, payload json.RawMessage) error {
					var decoded interface{}
					if err := json.Unmarshal(payload, &decoded); err != nil {
						return err
					}
					outMu.Lock()
					defer outMu.Unlock()
					return st.app.out.printLine(eventRecord{Event: name, Payload: decoded})
				})
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return listener.Run(ctx)
		},
	}
}
