/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package bridge

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/typstudio/editorkit/config"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfgData string
		check   func(t *testing.T, cfg *Config)
		wantErr string
	}{
		{
			name:    "defaults",
			cfgData: `{}`,
			check: func(t *testing.T, cfg *Config) {
				require.Equal(t, NewDefaultConfig(), cfg)
			},
		},
		{
			name: "custom",
			cfgData: `
bridge:
  url: https://localhost:9443/typst
  timeout: 5s
  log:
    mode: ALL
    slowRequestThreshold: 200ms
  rateLimit:
    enabled: true
    limit: 5
    burst: 2
  retries:
    enabled: false
  events:
    reconnect: false
`,
			check: func(t *testing.T, cfg *Config) {
				require.Equal(t, "https://localhost:9443/typst", cfg.URL)
				require.Equal(t, 5*time.Second, cfg.Timeout)
				require.Equal(t, LogConfig{Mode: LoggingModeAll, SlowRequestThreshold: 200 * time.Millisecond}, cfg.Log)
				require.Equal(t, RateLimitConfig{Enabled: true, Limit: 5, Burst: 2, WaitTimeout: DefaultRateLimitWaitTimeout}, cfg.RateLimit)
				require.False(t, cfg.Retries.Enabled)
				require.False(t, cfg.Events.Reconnect)
			},
		},
		{
			name:    "bad scheme",
			cfgData: "bridge:\n  url: unix:///tmp/typst.sock\n",
			wantErr: `bridge.url: unsupported scheme "unix", should be http or https`,
		},
		{
			name:    "bad logging mode",
			cfgData: "bridge:\n  log:\n    mode: verbose\n",
			wantErr: `bridge.log.mode: unknown value "verbose", should be one of [none all failed]`,
		},
		{
			name:    "retry attempts",
			cfgData: "bridge:\n  retries:\n    maxRetryAttempts: 1\n    initialInterval: 10ms\n",
			check: func(t *testing.T, cfg *Config) {
				require.Equal(t, RetriesConfig{Enabled: true, MaxRetryAttempts: 1, InitialInterval: 10 * time.Millisecond}, cfg.Retries)
			},
		},
		{
			name:    "negative retry attempts",
			cfgData: "bridge:\n  retries:\n    maxRetryAttempts: -1\n",
			wantErr: "bridge.retries.maxRetryAttempts: should be >= 0",
		},
		{
			name:    "zero rate limit",
			cfgData: "bridge:\n  rateLimit:\n    enabled: true\n    limit: 0\n",
			wantErr: "bridge.rateLimit.limit: should be > 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("")
			err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
				bytes.NewBufferString(tt.cfgData), config.DataTypeYAML, cfg)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}
