/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package cli implements the typstudio command line tool that drives the Typst backend service.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

type rootState struct {
	flags globalFlags
	app   *app
}

// close releases the resources of the app created for the executed command.
func (st *rootState) close() {
	if st.app != nil {
		st.app.close()
		st.app = nil
	}
}

// newRootCommand creates the root command with all subcommands. Command results are written to stdout.
func newRootCommand(stdout io.Writer) (*cobra.Command, *rootState) {
	st := &rootState{}
	root := &cobra.Command{
		Use:           "typstudio",
		Short:         "Command line client of the Typst editor backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(&st.flags, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			st.app = a
			return nil
		},
	}
	root.SetOut(stdout)

	pf := root.PersistentFlags()
	pf.StringVar(&st.flags.configPath, "config", "", "config file (yaml or json)")
	pf.StringVar(&st.flags.url, "url", "", "URL of the backend service (overrides bridge.url)")
	pf.StringVar(&st.flags.logLevel, "log-level", "", "log level: error, warn, info or debug (overrides log.level)")
	pf.StringVarP(&st.flags.output, "output", "o", string(OutputTable), "output format: table, json or yaml")

	root.AddCommand(
		newLsCommand(st),
		newCatCommand(st),
		newCompleteCommand(st),
		newCompileCommand(st),
		newEventsCommand(st),
		newSyncCommand(st),
		newServeDiagCommand(st),
		newVersionCommand(st),
	)
	return root, st
}

// Execute runs the root command with the process arguments.
func Execute() error {
	root, st := newRootCommand(os.Stdout)
	defer st.close()
	return root.Execute()
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
