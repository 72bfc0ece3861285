/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/typstudio/editorkit/ipc"
)

func TestParseOutputFormat(t *testing.T) {
	for _, s := range []string{"table", "json", "yaml"} {
		f, err := parseOutputFormat(s)
		require.NoError(t, err)
		require.Equal(t, OutputFormat(s), f)
	}
	_, err := parseOutputFormat("xml")
	require.EqualError(t, err, `unknown output format "xml", should be one of [table json yaml]`)
}

func TestPrinter_Print(t *testing.T) {
	listing := dirListing{Path: "/", Items: []ipc.FileItem{
		{Name: "main.typ", Type: ipc.FileTypeFile},
		{Name: "img", Type: ipc.FileTypeDirectory},
	}}

	tests := []struct {
		name   string
		format OutputFormat
		want   []string
	}{
		{
			name:   "table",
			format: OutputTable,
			want:   []string{"NAME", "TYPE", "main.typ", "img/", "directory"},
		},
		{
			name:   "json",
			format: OutputJSON,
			want:   []string{`"path": "/"`, `"name": "main.typ"`, `"type": "directory"`},
		},
		{
			name:   "yaml",
			format: OutputYAML,
			want:   []string{"path: /", "- name: main.typ", "type: directory"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			p := &printer{w: &buf, format: tt.format}
			require.NoError(t, p.print(listing))
			for _, s := range tt.want {
				require.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestPrinter_PrintLine(t *testing.T) {
	rec := eventRecord{Event: ipc.EventFSRefresh, Payload: map[string]interface{}{"path": "/a.typ"}}

	var buf bytes.Buffer
	p := &printer{w: &buf, format: OutputTable}
	require.NoError(t, p.printLine(rec))
	require.NoError(t, p.printLine(rec))
	require.Equal(t,
		`{"event":"fs_refresh","payload":{"path":"/a.typ"}}`+"\n"+`{"event":"fs_refresh","payload":{"path":"/a.typ"}}`+"\n",
		buf.String())

	buf.Reset()
	p.format = OutputYAML
	require.NoError(t, p.printLine(rec))
	require.Equal(t, "---\nevent: fs_refresh\npayload:\n    path: /a.typ\n", buf.String())
}
