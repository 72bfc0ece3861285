/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package diagserver

import (
	"fmt"
	"time"

	"github.com/typstudio/editorkit/config"
)

const cfgDefaultKeyPrefix = "diagServer"

const (
	cfgKeyEnabled         = "enabled"
	cfgKeyAddress         = "address"
	cfgKeyProfiling       = "profiling"
	cfgKeyShutdownTimeout = "shutdownTimeout"
)

// Default values.
const (
	DefaultAddress         = "127.0.0.1:9090"
	DefaultShutdownTimeout = 5 * time.Second
)

// Config represents a set of configuration parameters for the diagnostics server.
type Config struct {
	Enabled         bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Address         string        `mapstructure:"address" yaml:"address" json:"address"`
	Profiling       bool          `mapstructure:"profiling" yaml:"profiling" json:"profiling"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout" yaml:"shutdownTimeout" json:"shutdownTimeout"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config with the given key prefix ("diagServer" if empty).
func NewConfig(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{Enabled: true, Address: DefaultAddress, ShutdownTimeout: DefaultShutdownTimeout}
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
	dp.SetDefault(cfgKeyEnabled, true)
	dp.SetDefault(cfgKeyAddress, DefaultAddress)
	dp.SetDefault(cfgKeyProfiling, false)
	dp.SetDefault(cfgKeyShutdownTimeout, DefaultShutdownTimeout)
}

// Set sets configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error
	if c.Enabled, err = dp.GetBool(cfgKeyEnabled); err != nil {
		return err
	}
	if c.Address, err = dp.GetString(cfgKeyAddress); err != nil {
		return err
	}
	if c.Profiling, err = dp.GetBool(cfgKeyProfiling); err != nil {
		return err
	}
	if c.ShutdownTimeout, err = dp.GetDuration(cfgKeyShutdownTimeout); err != nil {
		return err
	}
	if c.ShutdownTimeout < 0 {
		return dp.WrapKeyErr(cfgKeyShutdownTimeout, fmt.Errorf("should be >= 0"))
	}
	return nil
}
