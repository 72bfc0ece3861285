/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/typstudio/editorkit/config"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfgData string
		wantCfg *Config
		wantErr string
	}{
		{
			name:    "defaults",
			cfgData: `{}`,
			wantCfg: NewDefaultConfig(),
		},
		{
			name: "text output to rotated file",
			cfgData: `
log:
  level: DEBUG
  format: text
  output: file
  nocolor: true
  file:
    path: /tmp/typstudio.log
    rotation:
      compress: true
      maxSize: 10M
      maxBackups: 3
`,
			wantCfg: &Config{
				Level:   LevelDebug,
				Format:  FormatText,
				Output:  OutputFile,
				NoColor: true,
				File: FileOutputConfig{
					Path:     "/tmp/typstudio.log",
					Rotation: FileRotationConfig{Compress: true, MaxSize: 10 * 1024 * 1024, MaxBackups: 3},
				},
			},
		},
		{
			name:    "unknown level",
			cfgData: "log:\n  level: trace\n",
			wantErr: `log.level: unknown value "trace", should be one of [error warn info debug]`,
		},
		{
			name:    "file output without path",
			cfgData: "log:\n  output: file\n",
			wantErr: `log.file.path: cannot be empty when "file" output is used`,
		},
		{
			name:    "too small rotation size",
			cfgData: "log:\n  file:\n    rotation:\n      maxSize: 1K\n",
			wantErr: "log.file.rotation.maxSize: should be >= 1M",
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
			require.Equal(t, tt.wantCfg, cfg)
		})
	}
}

func TestNewDisabledLogger(t *testing.T) {
	logger := NewDisabledLogger()
	require.NotPanics(t, func() {
		logger.With(String("path", "main.typ")).Info("compiled", Int("pages", 3))
	})
}
