/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package coalesce

import (
	"fmt"
	"strings"

	"github.com/typstudio/editorkit/config"
)

// DeferredErrorPolicy defines how failures of executions without a waiting caller are surfaced.
type DeferredErrorPolicy string

// Deferred error policies.
const (
	DeferredErrorPolicyIgnore DeferredErrorPolicy = "ignore"
	DeferredErrorPolicyLog    DeferredErrorPolicy = "log"
	DeferredErrorPolicyNotify DeferredErrorPolicy = "notify"
)

const cfgDefaultKeyPrefix = "throttle"

const (
	cfgKeyDeferredErrorPolicy = "deferredErrorPolicy"
	cfgKeyErrorsBufferSize    = "errorsBufferSize"
)

// DefaultErrorsBufferSize is a default capacity of the deferred errors channel.
const DefaultErrorsBufferSize = 16

var availablePolicies = []string{
	string(DeferredErrorPolicyIgnore), string(DeferredErrorPolicyLog), string(DeferredErrorPolicyNotify),
}

// Config represents a set of configuration parameters for throttles.
type Config struct {
	DeferredErrorPolicy DeferredErrorPolicy `mapstructure:"deferredErrorPolicy" yaml:"deferredErrorPolicy" json:"deferredErrorPolicy"`
	ErrorsBufferSize    int                 `mapstructure:"errorsBufferSize" yaml:"errorsBufferSize" json:"errorsBufferSize"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config with the given key prefix ("throttle" if empty).
func NewConfig(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{DeferredErrorPolicy: DeferredErrorPolicyLog, ErrorsBufferSize: DefaultErrorsBufferSize}
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
	dp.SetDefault(cfgKeyDeferredErrorPolicy, string(DeferredErrorPolicyLog))
	dp.SetDefault(cfgKeyErrorsBufferSize, DefaultErrorsBufferSize)
}

// Set sets configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	policy, err := dp.GetStringFromSet(cfgKeyDeferredErrorPolicy, availablePolicies, true)
	if err != nil {
		return err
	}
	c.DeferredErrorPolicy = DeferredErrorPolicy(strings.ToLower(policy))

	if c.ErrorsBufferSize, err = dp.GetInt(cfgKeyErrorsBufferSize); err != nil {
		return err
	}
	if c.ErrorsBufferSize < 0 {
		return dp.WrapKeyErr(cfgKeyErrorsBufferSize, fmt.Errorf("should be >= 0"))
	}
	return nil
}

// ApplyTo copies configuration values into throttle options.
func ApplyTo[T any](cfg *Config, opts *Opts[T]) {
	opts.DeferredErrorPolicy = cfg.DeferredErrorPolicy
	opts.ErrorsBufferSize = cfg.ErrorsBufferSize
}
