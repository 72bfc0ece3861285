/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
	"time"

	"github.com/mitchellh/mapstructure"
)

// DataType is a format of a configuration file or stream.
type DataType string

// Supported formats.
const (
	DataTypeYAML DataType = "yaml"
	DataTypeJSON DataType = "json"
)

// DataSource fills configuration values. Values set explicitly win over env vars,
// env vars win over files and files win over defaults.
type DataSource interface {
	UseEnvVars(prefix string)
	Set(key string, value interface{})
	SetDefault(key string, value interface{})
	SetFromFile(path string, dataType DataType) error
	SetFromReader(reader io.Reader, dataType DataType) error
}

// DataReader reads typed configuration values.
// Getters return an error when a value cannot be converted to the requested type.
type DataReader interface {
	IsSet(key string) bool
	Get(key string) interface{}
	GetBool(key string) (bool, error)
	GetInt(key string) (int, error)
	GetFloat64(key string) (float64, error)
	GetString(key string) (string, error)
	// GetStringFromSet returns the value only if it is one of set.
	GetStringFromSet(key string, set []string, ignoreCase bool) (string, error)
	GetDuration(key string) (time.Duration, error)
	// GetSizeInBytes parses sizes like "512K" or "16M".
	GetSizeInBytes(key string) (uint64, error)
	UnmarshalKey(key string, rawVal interface{}, opts ...DecoderConfigOption) error
}

// DataProvider is what Config implementations are loaded from.
type DataProvider interface {
	DataSource
	DataReader

	// WrapKeyErr adds the full key (with prefix, if any) to err.
	WrapKeyErr(key string, err error) error
}

// DecoderConfigOption tunes mapstructure decoding in UnmarshalKey.
type DecoderConfigOption func(*mapstructure.DecoderConfig)

// WrapKeyErrIfNeeded is WrapKeyErr that keeps nil errors nil.
func WrapKeyErrIfNeeded(key string, err error) error {
	if err == nil {
		return nil
	}
	return WrapKeyErr(key, err)
}

// WrapKeyErr prefixes err with the key it relates to.
func WrapKeyErr(key string, err error) error {
	return fmt.Errorf("%s: %w", key, err)
}
