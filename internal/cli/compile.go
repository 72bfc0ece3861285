/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package cli

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type compileResult struct {
	Path   string  `json:"path" yaml:"path"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Image  string  `json:"image,omitempty" yaml:"image,omitempty"`
}

func (r compileResult) header() table.Row {
	return table.Row{"Path", "Width", "Height", "Image"}
}

func (r compileResult) rows() []table.Row {
	return []table.Row{{r.Path, r.Width, r.Height, r.Image}}
}

func newCompileCommand(st *rootState) *cobra.Command {
	var pngPath string
	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a document and render its first page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := st.app.backend.ReadFileText(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			resp, err := st.app.backend.Compile(cmd.Context(), args[0], content)
			if err != nil {
				return fmt.Errorf("compile %s: %w", args[0], err)
			}

			res := compileResult{Path: args[0], Width: resp.Width, Height: resp.Height}
			if pngPath != "" {
				img, decodeErr := base64.StdEncoding.DecodeString(resp.Image)
				if decodeErr != nil {
					return fmt.Errorf("decode rendered image: %w", decodeErr)
				}
				if err = os.WriteFile(pngPath, img, 0o644); err != nil {
					return err
				}
				res.Image = pngPath
			}
			return st.app.out.print(res)
		},
	}
	cmd.Flags().StringVar(&pngPath, "png", "", "write the rendered first page to this file")
	return cmd
}
