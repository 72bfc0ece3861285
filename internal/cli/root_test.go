/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/typstudio/editorkit/bridge"
)

// newBackendServer serves the invoke endpoint with handlers keyed by command name.
func newBackendServer(t *testing.T, handlers map[string]func(args map[string]interface{}) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		command := strings.TrimPrefix(r.URL.Path, "/invoke/")
		h, ok := handlers[command]
		if !ok {
			rw.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(rw, `"unknown command"`)
			return
		}
		var args map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&args)
		status, body := h(args)
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(status)
		_, _ = io.WriteString(rw, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root, st := newRootCommand(&out)
	defer st.close()
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestLsCommand(t *testing.T) {
	var gotPath interface{}
	srv := newBackendServer(t, map[string]func(map[string]interface{}) (int, string){
		"fs_list_dir": func(args map[string]interface{}) (int, string) {
			gotPath = args["path"]
			return http.StatusOK, `[{"name":"main.typ","type":"file"},{"name":"img","type":"directory"}]`
		},
	})

	out, err := runRoot(t, "ls", "/chapters", "--url", srv.URL, "--output", "json")
	require.NoError(t, err)
	require.Equal(t, "/chapters", gotPath)

	var listing struct {
		Path  string `json:"path"`
		Items []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listing))
	require.Equal(t, "/chapters", listing.Path)
	require.Len(t, listing.Items, 2)
	require.Equal(t, "img", listing.Items[1].Name)
	require.Equal(t, "directory", listing.Items[1].Type)

	out, err = runRoot(t, "ls", "--url", srv.URL)
	require.NoError(t, err)
	require.Equal(t, "/", gotPath)
	require.Contains(t, out, "img/")
}

func TestCatCommand(t *testing.T) {
	srv := newBackendServer(t, map[string]func(map[string]interface{}) (int, string){
		"fs_read_file_text": func(args map[string]interface{}) (int, string) {
			if args["path"] != "/main.typ" {
				return http.StatusNotFound, `"file not found"`
			}
			return http.StatusOK, `"= Hello"`
		},
		"fs_read_file_binary": func(map[string]interface{}) (int, string) {
			return http.StatusOK, `[104,105]`
		},
	})

	out, err := runRoot(t, "cat", "/main.typ", "--url", srv.URL)
	require.NoError(t, err)
	require.Equal(t, "= Hello\n", out)

	out, err = runRoot(t, "cat", "/logo.png", "--binary", "--url", srv.URL)
	require.NoError(t, err)
	require.Equal(t, "hi", out)

	_, err = runRoot(t, "cat", "/missing.typ", "--url", srv.URL)
	require.Error(t, err)
	var cmdErr *bridge.CommandError
	require.True(t, errors.As(err, &cmdErr))
	require.Equal(t, http.StatusNotFound, cmdErr.StatusCode)
	require.Contains(t, err.Error(), "read /missing.typ")
}

func TestCompleteCommand(t *testing.T) {
	srv := newBackendServer(t, map[string]func(map[string]interface{}) (int, string){
		"fs_read_file_text": func(map[string]interface{}) (int, string) {
			return http.StatusOK, `"#le"`
		},
		"typst_autocomplete": func(args map[string]interface{}) (int, string) {
			if args["offset"] != float64(3) || args["explicit"] != true {
				return http.StatusBadRequest, `{"error":"unexpected args"}`
			}
			return http.StatusOK, `{"offset":1,"completions":[{"kind":2,"label":"let","apply":"let ${name} = ${value}"}]}`
		},
	})

	out, err := runRoot(t, "complete", "/main.typ", "1", "4", "--url", srv.URL, "-o", "json")
	require.NoError(t, err)
	require.Contains(t, out, `"let ${1:name} = ${2:value}"`)
}

func TestRootCommand_InvalidOutput(t *testing.T) {
	_, err := runRoot(t, "version", "--output", "xml")
	require.EqualError(t, err, `unknown output format "xml", should be one of [table json yaml]`)
}

func TestVersionCommand(t *testing.T) {
	out, err := runRoot(t, "version", "-o", "yaml")
	require.NoError(t, err)
	require.Contains(t, out, "version: ")
	require.Contains(t, out, "goVersion: go")
}
