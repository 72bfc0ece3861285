/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/typstudio/editorkit/completion"
)

type suggestionView struct {
	Label  string `json:"label" yaml:"label"`
	Kind   string `json:"kind" yaml:"kind"`
	Insert string `json:"insert" yaml:"insert"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

type completionResult struct {
	From        completion.Position `json:"from" yaml:"from"`
	To          completion.Position `json:"to" yaml:"to"`
	Suggestions []suggestionView    `json:"suggestions" yaml:"suggestions"`
}

func (r completionResult) header() table.Row {
	return table.Row{"Label", "Kind", "Insert", "Detail"}
}

func (r completionResult) rows() []table.Row {
	rows := make([]table.Row, 0, len(r.Suggestions))
	for _, s := range r.Suggestions {
		rows = append(rows, table.Row{s.Label, s.Kind, s.Insert, s.Detail})
	}
	return rows
}

func newCompleteCommand(st *rootState) *cobra.Command {
	var localFile string
	cmd := &cobra.Command{
		Use:   "complete <file> <line> <column>",
		Short: "Show completions at a position of a file",
		Long: "Show completions at a 1-based line and column of a project file.\n" +
			"The content is read from the backend unless --content-from names a local file.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("parse line: %w", err)
			}
			column, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("parse column: %w", err)
			}

			var content string
			if localFile != "" {
				data, readErr := os.ReadFile(localFile)
				if readErr != nil {
					return readErr
				}
				content = string(data)
			} else if content, err = st.app.backend.ReadFileText(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			provider := completion.NewProviderWithOpts(st.app.backend, completion.ProviderOpts{Logger: st.app.logger})
			list, err := provider.Provide(cmd.Context(), completion.Request{
				Path:     args[0],
				Content:  content,
				Position: completion.Position{Line: line, Column: column},
				Trigger:  completion.TriggerInvoke,
			})
			if err != nil {
				return err
			}

			res := completionResult{Suggestions: make([]suggestionView, 0, len(list.Suggestions))}
			for i, s := range list.Suggestions {
				if i == 0 {
					res.From, res.To = s.Range.Start, s.Range.End
				}
				res.Suggestions = append(res.Suggestions, suggestionView{
					Label: s.Label, Kind: s.Kind.String(), Insert: s.InsertText, Detail: s.Detail,
				})
			}
			return st.app.out.print(res)
		},
	}
	cmd.Flags().StringVar(&localFile, "content-from", "", "local file with the current content")
	return cmd
}
