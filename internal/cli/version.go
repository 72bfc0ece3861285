/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package cli

import (
	"runtime"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/typstudio/editorkit/internal/libinfo"
)

type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
}

func (v versionInfo) header() table.Row { return table.Row{"Version", "Go"} }

func (v versionInfo) rows() []table.Row { return []table.Row{{v.Version, v.GoVersion}} }

func newVersionCommand(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return st.app.out.print(versionInfo{Version: libinfo.Version(), GoVersion: runtime.Version()})
		},
	}
}
