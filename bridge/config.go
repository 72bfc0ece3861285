/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package bridge

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/typstudio/editorkit/config"
)

const cfgDefaultKeyPrefix = "bridge"

const (
	cfgKeyURL                     = "url"
	cfgKeyTimeout                 = "timeout"
	cfgKeyUserAgent               = "userAgent"
	cfgKeyLogMode                 = "log.mode"
	cfgKeyLogSlowRequestThreshold = "log.slowRequestThreshold"
	cfgKeyRateLimitEnabled        = "rateLimit.enabled"
	cfgKeyRateLimitLimit          = "rateLimit.limit"
	cfgKeyRateLimitBurst          = "rateLimit.burst"
	cfgKeyRateLimitWaitTimeout    = "rateLimit.waitTimeout"
	cfgKeyRetriesEnabled          = "retries.enabled"
	cfgKeyRetriesMaxRetryAttempts = "retries.maxRetryAttempts"
	cfgKeyRetriesInitialInterval  = "retries.initialInterval"
	cfgKeyEventsReconnect         = "events.reconnect"
	cfgKeyEventsReconnectInterval = "events.reconnectInterval"
)

// Default values.
const (
	DefaultURL                     = "http://127.0.0.1:7070"
	DefaultTimeout                 = 30 * time.Second
	DefaultUserAgent               = "typstudio-editorkit"
	DefaultRateLimit               = 50
	DefaultRateLimitBurst          = 10
	DefaultRateLimitWaitTimeout    = 15 * time.Second
	DefaultRetriesMaxRetryAttempts = 3
	DefaultRetriesInitialInterval  = 100 * time.Millisecond
	DefaultEventsReconnectInterval = 500 * time.Millisecond
)

// LoggingMode represents a mode of logging bridge calls.
type LoggingMode string

// Logging modes.
const (
	LoggingModeNone   LoggingMode = "none"
	LoggingModeAll    LoggingMode = "all"
	LoggingModeFailed LoggingMode = "failed"
)

var availableLoggingModes = []string{string(LoggingModeNone), string(LoggingModeAll), string(LoggingModeFailed)}

// Config represents a set of configuration parameters for the bridge client and event listener.
type Config struct {
	URL       string        `mapstructure:"url" yaml:"url" json:"url"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	UserAgent string        `mapstructure:"userAgent" yaml:"userAgent" json:"userAgent"`

	Log       LogConfig       `mapstructure:"log" yaml:"log" json:"log"`
	RateLimit RateLimitConfig `mapstructure:"rateLimit" yaml:"rateLimit" json:"rateLimit"`
	Retries   RetriesConfig   `mapstructure:"retries" yaml:"retries" json:"retries"`
	Events    EventsConfig    `mapstructure:"events" yaml:"events" json:"events"`

	keyPrefix string
}

// LogConfig configures logging of bridge calls.
type LogConfig struct {
	Mode                 LoggingMode   `mapstructure:"mode" yaml:"mode" json:"mode"`
	SlowRequestThreshold time.Duration `mapstructure:"slowRequestThreshold" yaml:"slowRequestThreshold" json:"slowRequestThreshold"`
}

// RateLimitConfig configures client-side rate limiting of bridge calls.
type RateLimitConfig struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Limit       int           `mapstructure:"limit" yaml:"limit" json:"limit"`
	Burst       int           `mapstructure:"burst" yaml:"burst" json:"burst"`
	WaitTimeout time.Duration `mapstructure:"waitTimeout" yaml:"waitTimeout" json:"waitTimeout"`
}

// RetriesConfig configures retries of idempotent commands.
type RetriesConfig struct {
	Enabled          bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	// MaxRetryAttempts limits retries of a failed call, so up to MaxRetryAttempts+1 requests are sent.
	// Zero means no limit.
	MaxRetryAttempts int           `mapstructure:"maxRetryAttempts" yaml:"maxRetryAttempts" json:"maxRetryAttempts"`
	InitialInterval  time.Duration `mapstructure:"initialInterval" yaml:"initialInterval" json:"initialInterval"`
}

// EventsConfig configures the event listener.
type EventsConfig struct {
	Reconnect         bool          `mapstructure:"reconnect" yaml:"reconnect" json:"reconnect"`
	ReconnectInterval time.Duration `mapstructure:"reconnectInterval" yaml:"reconnectInterval" json:"reconnectInterval"`
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config with the given key prefix ("bridge" if empty).
func NewConfig(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		URL:       DefaultURL,
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		Log:       LogConfig{Mode: LoggingModeFailed},
		RateLimit: RateLimitConfig{
			Limit:       DefaultRateLimit,
			Burst:       DefaultRateLimitBurst,
			WaitTimeout: DefaultRateLimitWaitTimeout,
		},
		Retries: RetriesConfig{
			Enabled:          true,
			MaxRetryAttempts: DefaultRetriesMaxRetryAttempts,
			InitialInterval:  DefaultRetriesInitialInterval,
		},
		Events: EventsConfig{Reconnect: true, ReconnectInterval: DefaultEventsReconnectInterval},
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
	dp.SetDefault(cfgKeyURL, DefaultURL)
	dp.SetDefault(cfgKeyTimeout, DefaultTimeout)
	dp.SetDefault(cfgKeyUserAgent, DefaultUserAgent)
	dp.SetDefault(cfgKeyLogMode, string(LoggingModeFailed))
	dp.SetDefault(cfgKeyRateLimitLimit, DefaultRateLimit)
	dp.SetDefault(cfgKeyRateLimitBurst, DefaultRateLimitBurst)
	dp.SetDefault(cfgKeyRateLimitWaitTimeout, DefaultRateLimitWaitTimeout)
	dp.SetDefault(cfgKeyRetriesEnabled, true)
	dp.SetDefault(cfgKeyRetriesMaxRetryAttempts, DefaultRetriesMaxRetryAttempts)
	dp.SetDefault(cfgKeyRetriesInitialInterval, DefaultRetriesInitialInterval)
	dp.SetDefault(cfgKeyEventsReconnect, true)
	dp.SetDefault(cfgKeyEventsReconnectInterval, DefaultEventsReconnectInterval)
}

// Set sets configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.URL, err = dp.GetString(cfgKeyURL); err != nil {
		return err
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return dp.WrapKeyErr(cfgKeyURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return dp.WrapKeyErr(cfgKeyURL, fmt.Errorf("unsupported scheme %q, should be http or https", u.Scheme))
	}

	if c.Timeout, err = dp.GetDuration(cfgKeyTimeout); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return dp.WrapKeyErr(cfgKeyTimeout, fmt.Errorf("should be >= 0"))
	}
	if c.UserAgent, err = dp.GetString(cfgKeyUserAgent); err != nil {
		return err
	}

	if err = c.setLogConfig(dp); err != nil {
		return err
	}
	if err = c.setRateLimitConfig(dp); err != nil {
		return err
	}
	if err = c.setRetriesConfig(dp); err != nil {
		return err
	}

	if c.Events.Reconnect, err = dp.GetBool(cfgKeyEventsReconnect); err != nil {
		return err
	}
	if c.Events.ReconnectInterval, err = dp.GetDuration(cfgKeyEventsReconnectInterval); err != nil {
		return err
	}
	return nil
}

func (c *Config) setLogConfig(dp config.DataProvider) error {
	mode, err := dp.GetStringFromSet(cfgKeyLogMode, availableLoggingModes, true)
	if err != nil {
		return err
	}
	c.Log.Mode = LoggingMode(strings.ToLower(mode))
	if c.Log.SlowRequestThreshold, err = dp.GetDuration(cfgKeyLogSlowRequestThreshold); err != nil {
		return err
	}
	return nil
}

func (c *Config) setRateLimitConfig(dp config.DataProvider) error {
	var err error
	if c.RateLimit.Enabled, err = dp.GetBool(cfgKeyRateLimitEnabled); err != nil {
		return err
	}
	if c.RateLimit.Limit, err = dp.GetInt(cfgKeyRateLimitLimit); err != nil {
		return err
	}
	if c.RateLimit.Enabled && c.RateLimit.Limit <= 0 {
		return dp.WrapKeyErr(cfgKeyRateLimitLimit, fmt.Errorf("should be > 0"))
	}
	if c.RateLimit.Burst, err = dp.GetInt(cfgKeyRateLimitBurst); err != nil {
		return err
	}
	if c.RateLimit.Burst < 0 {
		return dp.WrapKeyErr(cfgKeyRateLimitBurst, fmt.Errorf("should be >= 0"))
	}
	if c.RateLimit.WaitTimeout, err = dp.GetDuration(cfgKeyRateLimitWaitTimeout); err != nil {
		return err
	}
	return nil
}

func (c *Config) setRetriesConfig(dp config.DataProvider) error {
	var err error
	if c.Retries.Enabled, err = dp.GetBool(cfgKeyRetriesEnabled); err != nil {
		return err
	}
	if c.Retries.MaxRetryAttempts, err = dp.GetInt(cfgKeyRetriesMaxRetryAttempts); err != nil {
		return err
	}
	if c.Retries.MaxRetryAttempts < 0 {
		return dp.WrapKeyErr(cfgKeyRetriesMaxRetryAttempts, fmt.Errorf("should be >= 0"))
	}
	if c.Retries.InitialInterval, err = dp.GetDuration(cfgKeyRetriesInitialInterval); err != nil {
		return err
	}
	return nil
}
