/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/typstudio/editorkit/ipc"
)

type dirListing struct {
	Path  string         `json:"path" yaml:"path"`
	Items []ipc.FileItem `json:"items" yaml:"items"`
}

func (d dirListing) header() table.Row {
	return table.Row{"Name", "Type"}
}

func (d dirListing) rows() []table.Row {
	rows := make([]table.Row, 0, len(d.Items))
	for _, item := range d.Items {
		name := item.Name
		if item.IsDir() {
			name += "/"
		}
		rows = append(rows, table.Row{name, string(item.Type)})
	}
	return rows
}

func newLsCommand(st *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [dir]",
		Short: "List a directory of the opened project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "/"
			if len(args) == 1 {
				dir = args[0]
			}
			items, err := st.app.backend.ListDir(cmd.Context(), dir)
			if err != nil {
				return fmt.Errorf("list %s: %w", dir, err)
			}
			return st.app.out.print(dirListing{Path: dir, Items: items})
		},
	}
}

func newCatCommand(st *rootState) *cobra.Command {
	var binary bool
	cmd := &cobra.Command{
		Use:   "cat <file>",
		Short: "Print a file of the opened project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if binary {
				data, err := st.app.backend.ReadFileBinary(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("read %s: %w", args[0], err)
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			text, err := st.app.backend.ReadFileText(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			if !strings.HasSuffix(text, "\n") {
				text += "\n"
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().BoolVar(&binary, "binary", false, "read the file as raw bytes")
	return cmd
}
