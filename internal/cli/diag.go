/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/typstudio/editorkit/bridge"
	"github.com/typstudio/editorkit/diagserver"
	"github.com/typstudio/editorkit/log"
)

// runDiagServer starts the diagnostics server and returns a function that stops it.
// Fatal server errors are sent to fatalErr.
func runDiagServer(a *app, listener *bridge.Listener, fatalErr chan<- error) func() {
	srv := diagserver.New(a.cfg.DiagServer, a.logger, diagserver.Opts{
		Gatherer: a.registry,
		HealthCheck: func(ctx context.Context) (diagserver.HealthCheckResult, error) {
			return diagserver.HealthCheckResult{"backend_events": listener.Connected()}, ctx.Err()
		},
	})
	go srv.Start(fatalErr)
	return func() {
		if err := srv.Stop(true); err != nil {
			a.logger.Error("failed to stop diagnostics server", log.Error(err))
		}
	}
}

func newServeDiagCommand(st *rootState) *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "serve-diag",
		Short: "Serve metrics and health of the backend connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if address != "" {
				st.app.cfg.DiagServer.Address = address
			}
			listener, err := st.app.newListener()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			fatalErr := make(chan error, 1)
			stop := runDiagServer(st.app, listener, fatalErr)
			defer stop()

			listenerDone := make(chan error, 1)
			go func() { listenerDone <- listener.Run(ctx) }()

			select {
			case err = <-fatalErr:
				cancel()
				<-listenerDone
				return fmt.Errorf("diagnostics server: %w", err)
			case err = <-listenerDone:
				return err
			}
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "listen address (overrides diagServer.address)")
	return cmd
}
