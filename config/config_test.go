/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testEditorConfig struct {
	Theme     string
	AutoSave  time.Duration
	FontSizes []int
}

func (c *testEditorConfig) KeyPrefix() string {
	return "editor"
}

func (c *testEditorConfig) SetProviderDefaults(dp DataProvider) {
	dp.SetDefault("theme", "light")
	dp.SetDefault("autoSave", "500ms")
}

func (c *testEditorConfig) Set(dp DataProvider) error {
	var err error
	if c.Theme, err = dp.GetStringFromSet("theme", []string{"light", "dark"}, true); err != nil {
		return err
	}
	if c.AutoSave, err = dp.GetDuration("autoSave"); err != nil {
		return err
	}
	return dp.UnmarshalKey("fontSizes", &c.FontSizes)
}

type testCacheConfig struct {
	MaxSize uint64
}

func (c *testCacheConfig) SetProviderDefaults(dp DataProvider) {
	dp.SetDefault("cache.maxSize", "1M")
}

func (c *testCacheConfig) Set(dp DataProvider) error {
	var err error
	c.MaxSize, err = dp.GetSizeInBytes("cache.maxSize")
	return err
}

const testEditorConfigYAML = `
editor:
  theme: Dark
  autoSave: 2s
  fontSizes: [12, 14]
cache:
  maxSize: 2K
`

func TestLoader_LoadFromReader(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		editorCfg, cacheCfg := &testEditorConfig{}, &testCacheConfig{}
		err := NewLoader(NewViperAdapter()).LoadFromReader(bytes.NewBufferString(`{}`), DataTypeJSON, editorCfg, cacheCfg)
		require.NoError(t, err)
		require.Equal(t, "light", editorCfg.Theme)
		require.Equal(t, 500*time.Millisecond, editorCfg.AutoSave)
		require.Empty(t, editorCfg.FontSizes)
		require.Equal(t, uint64(1024*1024), cacheCfg.MaxSize)
	})

	t.Run("yaml with key prefix", func(t *testing.T) {
		editorCfg, cacheCfg := &testEditorConfig{}, &testCacheConfig{}
		err := NewLoader(NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(testEditorConfigYAML), DataTypeYAML, editorCfg, cacheCfg)
		require.NoError(t, err)
		require.Equal(t, "Dark", editorCfg.Theme)
		require.Equal(t, 2*time.Second, editorCfg.AutoSave)
		require.Equal(t, []int{12, 14}, editorCfg.FontSizes)
		require.Equal(t, uint64(2048), cacheCfg.MaxSize)
	})

	t.Run("value outside of set", func(t *testing.T) {
		err := NewLoader(NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(`{"editor":{"theme":"solarized"}}`), DataTypeJSON, &testEditorConfig{})
		require.EqualError(t, err, `editor.theme: unknown value "solarized", should be one of [light dark]`)
	})
}

func TestLoader_LoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(testEditorConfigYAML), 0o600))

	editorCfg := &testEditorConfig{}
	require.NoError(t, NewLoader(NewViperAdapter()).LoadFromFile(path, DataTypeYAML, editorCfg))
	require.Equal(t, "Dark", editorCfg.Theme)
}

func TestLoader_LoadDefaultsWithEnvVars(t *testing.T) {
	t.Setenv("TYPSTUDIO_EDITOR_THEME", "dark")

	editorCfg := &testEditorConfig{}
	require.NoError(t, NewDefaultLoader("typstudio").LoadDefaults(editorCfg))
	require.Equal(t, "dark", editorCfg.Theme)
}

func TestKeyPrefixedDataProvider(t *testing.T) {
	va := NewViperAdapter()
	dp := NewKeyPrefixedDataProvider(va, "bridge")
	dp.Set("url", "http://127.0.0.1:7070")
	dp.SetDefault("rateLimit.limit", 20)

	url, err := va.GetString("bridge.url")
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:7070", url)
	require.True(t, dp.IsSet("url"))

	limit, err := dp.GetInt("rateLimit.limit")
	require.NoError(t, err)
	require.Equal(t, 20, limit)

	require.EqualError(t, dp.WrapKeyErr("url", os.ErrInvalid), "bridge.url: invalid argument")
}

func TestViperAdapter_Getters(t *testing.T) {
	va := NewViperAdapter()
	va.Set("cache.maxSize", "16M")
	va.Set("cache.maxPages", "not a number")
	va.Set("render.scale", "1.5")

	size, err := va.GetSizeInBytes("cache.maxSize")
	require.NoError(t, err)
	require.Equal(t, uint64(16*1024*1024), size)

	_, err = va.GetInt("cache.maxPages")
	require.ErrorContains(t, err, "cache.maxPages: ")

	scale, err := va.GetFloat64("render.scale")
	require.NoError(t, err)
	require.Equal(t, 1.5, scale)

	timeout, err := va.GetDuration("shutdownTimeout")
	require.NoError(t, err)
	require.Zero(t, timeout)

	_, err = va.GetStringFromSet("render.scale", []string{"low", "high"}, false)
	require.EqualError(t, err, `render.scale: unknown value "1.5", should be one of [low high]`)
}
