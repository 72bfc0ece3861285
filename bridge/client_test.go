/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/typstudio/editorkit/log"
	"github.com/typstudio/editorkit/log/logtest"
)

type renderArgs struct {
	Page  int     `json:"page"`
	Scale float64 `json:"scale"`
}

type renderResult struct {
	Image string `json:"image"`
}

func newTestConfig(url string) *Config {
	cfg := NewDefaultConfig()
	cfg.URL = url
	cfg.Retries.InitialInterval = time.Millisecond
	return cfg
}

func TestClient_Invoke(t *testing.T) {
	var gotHeaders http.Header
	var gotArgs renderArgs
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/invoke/typst_render", r.URL.Path)
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotArgs))
		rw.Header().Set("Content-Type", "application/json")
		_, _ = rw.Write([]byte(`{"image":"iVBORw0KGgo="}`))
	}))
	defer server.Close()

	client, err := NewClient(newTestConfig(server.URL + "/api/"))
	require.NoError(t, err)

	ctx := NewContextWithRequestID(context.Background(), "req-42")
	var res renderResult
	require.NoError(t, client.Invoke(ctx, "typst_render", renderArgs{Page: 2, Scale: 1.5}, &res))
	require.Equal(t, "iVBORw0KGgo=", res.Image)
	require.Equal(t, renderArgs{Page: 2, Scale: 1.5}, gotArgs)
	require.Equal(t, "req-42", gotHeaders.Get("X-Request-ID"))
	require.Equal(t, DefaultUserAgent, gotHeaders.Get("User-Agent"))
	require.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
}

func TestClient_InvokeWithoutResult(t *testing.T) {
	var gotBody string
	var gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var raw json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		gotBody = string(raw)
		gotRequestID = r.Header.Get("X-Request-ID")
		rw.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := NewClient(newTestConfig(server.URL))
	require.NoError(t, err)
	require.NoError(t, client.Invoke(context.Background(), "clipboard_paste", nil, nil))
	require.Equal(t, "{}", gotBody)
	require.NotEmpty(t, gotRequestID, "request id must be generated")
}

func TestClient_CommandError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "json string", body: `"the provided path does not belong to the project"`,
			wantMsg: "the provided path does not belong to the project"},
		{name: "json object", body: `{"error":"unknown project"}`, wantMsg: "unknown project"},
		{name: "plain text", body: "io error occurred\n", wantMsg: "io error occurred"},
		{name: "empty", body: "", wantMsg: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
				rw.WriteHeader(http.StatusBadRequest)
				_, _ = rw.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient(newTestConfig(server.URL))
			require.NoError(t, err)

			err = client.Invoke(context.Background(), "fs_read_file_text", map[string]string{"path": "../etc"}, nil)
			var cmdErr *CommandError
			require.ErrorAs(t, err, &cmdErr)
			require.Equal(t, &CommandError{Command: "fs_read_file_text", StatusCode: 400, Message: tt.wantMsg}, cmdErr)
		})
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte(`{"image":`))
	}))
	defer server.Close()

	client, err := NewClientWithOpts(newTestConfig(server.URL), Opts{IdempotentCommands: []string{"typst_render"}})
	require.NoError(t, err)
	err = client.Invoke(context.Background(), "typst_render", renderArgs{}, &renderResult{})
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestClient_Retries(t *testing.T) {
	newFlakyServer := func(failures int32) (*httptest.Server, *atomic.Int32) {
		attempts := atomic.NewInt32(0)
		return httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			if attempts.Inc() <= failures {
				rw.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = rw.Write([]byte(`{"image":"ok"}`))
		})), attempts
	}

	t.Run("idempotent command is retried", func(t *testing.T) {
		server, attempts := newFlakyServer(2)
		defer server.Close()

		logger := logtest.NewRecorder()
		client, err := NewClientWithOpts(newTestConfig(server.URL), Opts{
			Logger:             logger,
			IdempotentCommands: []string{"typst_render"},
		})
		require.NoError(t, err)

		var res renderResult
		require.NoError(t, client.Invoke(context.Background(), "typst_render", renderArgs{}, &res))
		require.Equal(t, "ok", res.Image)
		require.Equal(t, int32(3), attempts.Load())
		_, found := logger.FindEntry("retrying bridge call")
		require.True(t, found)
	})

	t.Run("non-idempotent command is not retried", func(t *testing.T) {
		server, attempts := newFlakyServer(1)
		defer server.Close()

		client, err := NewClientWithOpts(newTestConfig(server.URL), Opts{IdempotentCommands: []string{"typst_render"}})
		require.NoError(t, err)

		err = client.Invoke(context.Background(), "fs_write_file_text", nil, nil)
		var cmdErr *CommandError
		require.ErrorAs(t, err, &cmdErr)
		require.Equal(t, http.StatusServiceUnavailable, cmdErr.StatusCode)
		require.Equal(t, int32(1), attempts.Load())
	})

	t.Run("idempotent hint in context", func(t *testing.T) {
		server, attempts := newFlakyServer(1)
		defer server.Close()

		client, err := NewClient(newTestConfig(server.URL))
		require.NoError(t, err)

		ctx := NewContextWithIdempotentHint(context.Background(), true)
		require.NoError(t, client.Invoke(ctx, "fs_list_dir", nil, nil))
		require.Equal(t, int32(2), attempts.Load())
	})

	t.Run("retries are limited", func(t *testing.T) {
		server, attempts := newFlakyServer(100)
		defer server.Close()

		cfg := newTestConfig(server.URL)
		cfg.Retries.MaxRetryAttempts = 2
		client, err := NewClientWithOpts(cfg, Opts{IdempotentCommands: []string{"typst_render"}})
		require.NoError(t, err)

		require.Error(t, client.Invoke(context.Background(), "typst_render", nil, nil))
		require.Equal(t, int32(3), attempts.Load()) // 2 retries after the first request
	})
}

func TestClient_LoggingAndMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/invoke/fs_delete" {
			rw.WriteHeader(http.StatusNotFound)
			return
		}
		rw.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	logger := logtest.NewRecorder()
	metrics := NewPrometheusMetricsCollector("")
	cfg := newTestConfig(server.URL)
	cfg.Log.Mode = LoggingModeFailed
	client, err := NewClientWithOpts(cfg, Opts{Logger: logger, MetricsCollector: metrics})
	require.NoError(t, err)

	require.NoError(t, client.Invoke(context.Background(), "fs_create_file", nil, nil))
	require.Empty(t, logger.Entries(), "successful calls are not logged in failed mode")

	require.Error(t, client.Invoke(context.Background(), "fs_delete", nil, nil))
	entry, found := logger.FindEntry("bridge call POST /invoke/fs_delete rejected")
	require.True(t, found)
	require.Equal(t, log.LevelWarn, entry.Level)
	statusField, ok := entry.FindField("status")
	require.True(t, ok)
	require.Equal(t, int64(404), statusField.Int)

	require.Equal(t, 2, testutil.CollectAndCount(metrics.Durations))
}

func TestClient_RateLimiting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	cfg := newTestConfig(server.URL)
	cfg.RateLimit = RateLimitConfig{Enabled: true, Limit: 1, Burst: 1, WaitTimeout: 10 * time.Millisecond}
	client, err := NewClient(cfg)
	require.NoError(t, err)

	require.NoError(t, client.Invoke(context.Background(), "typst_autocomplete", nil, nil))
	err = client.Invoke(context.Background(), "typst_autocomplete", nil, nil)
	var rlErr *RateLimitingWaitError
	require.True(t, errors.As(err, &rlErr), "got %v", err)
}
