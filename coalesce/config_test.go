/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package coalesce

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/typstudio/editorkit/config"
)

func TestConfig(t *testing.T) {
	load := func(data string) (*Config, error) {
		cfg := NewConfig("")
		err := config.NewLoader(config.NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(data), config.DataTypeYAML, cfg)
		return cfg, err
	}

	cfg, err := load(`{}`)
	require.NoError(t, err)
	require.Equal(t, NewDefaultConfig(), cfg)

	cfg, err = load("throttle:\n  deferredErrorPolicy: Notify\n  errorsBufferSize: 4\n")
	require.NoError(t, err)
	require.Equal(t, DeferredErrorPolicyNotify, cfg.DeferredErrorPolicy)

	var opts Opts[string]
	ApplyTo(cfg, &opts)
	require.Equal(t, DeferredErrorPolicyNotify, opts.DeferredErrorPolicy)
	require.Equal(t, 4, opts.ErrorsBufferSize)

	_, err = load("throttle:\n  deferredErrorPolicy: panic\n")
	require.EqualError(t, err, `throttle.deferredErrorPolicy: unknown value "panic", should be one of [ignore log notify]`)

	_, err = load("throttle:\n  errorsBufferSize: -1\n")
	require.EqualError(t, err, "throttle.errorsBufferSize: should be >= 0")
}
