/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package preview

import (
	"fmt"

	"github.com/typstudio/editorkit/config"
)

const cfgDefaultKeyPrefix = "preview"

const (
	cfgKeyCacheMaxPages = "cache.maxPages"
	cfgKeyCacheMaxSize  = "cache.maxSize"
	cfgKeyRenderScale   = "render.scale"
)

// Default values.
const (
	DefaultCacheMaxPages = 64
	DefaultCacheMaxSize  = 128 * 1024 * 1024
	DefaultRenderScale   = 1.0
)

// Config represents a set of configuration parameters for the preview.
type Config struct {
	Cache  CacheConfig  `mapstructure:"cache" yaml:"cache" json:"cache"`
	Render RenderConfig `mapstructure:"render" yaml:"render" json:"render"`

	keyPrefix string
}

// CacheConfig configures the cache of rendered pages.
// MaxSize limits the total size of cached images in bytes, 0 means no limit.
type CacheConfig struct {
	MaxPages int    `mapstructure:"maxPages" yaml:"maxPages" json:"maxPages"`
	MaxSize  uint64 `mapstructure:"maxSize" yaml:"maxSize" json:"maxSize"`
}

// RenderConfig configures page rendering.
type RenderConfig struct {
	Scale float64 `mapstructure:"scale" yaml:"scale" json:"scale"`
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config with the given key prefix ("preview" if empty).
func NewConfig(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Cache:  CacheConfig{MaxPages: DefaultCacheMaxPages, MaxSize: DefaultCacheMaxSize},
		Render: RenderConfig{Scale: DefaultRenderScale},
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyCacheMaxPages, DefaultCacheMaxPages)
	dp.SetDefault(cfgKeyCacheMaxSize, DefaultCacheMaxSize)
	dp.SetDefault(cfgKeyRenderScale, DefaultRenderScale)
}

// Set sets configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.Cache.MaxPages, err = dp.GetInt(cfgKeyCacheMaxPages); err != nil {
		return err
	}
	if c.Cache.MaxPages <= 0 {
		return dp.WrapKeyErr(cfgKeyCacheMaxPages, fmt.Errorf("should be > 0"))
	}
	if c.Cache.MaxSize, err = dp.GetSizeInBytes(cfgKeyCacheMaxSize); err != nil {
		return err
	}

	if c.Render.Scale, err = dp.GetFloat64(cfgKeyRenderScale); err != nil {
		return err
	}
	if c.Render.Scale <= 0 {
		return dp.WrapKeyErr(cfgKeyRenderScale, fmt.Errorf("should be > 0"))
	}
	return nil
}
