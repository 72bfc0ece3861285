/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/typstudio/editorkit/bridge"
	"github.com/typstudio/editorkit/coalesce"
	"github.com/typstudio/editorkit/config"
	"github.com/typstudio/editorkit/diagserver"
	"github.com/typstudio/editorkit/internal/libinfo"
	"github.com/typstudio/editorkit/ipc"
	"github.com/typstudio/editorkit/log"
	"github.com/typstudio/editorkit/preview"
	"github.com/typstudio/editorkit/shell"
)

const envVarsPrefix = "TYPSTUDIO"

const metricsNamespace = "typstudio"

// globalFlags are the persistent flags of the root command.
type globalFlags struct {
	configPath string
	url        string
	logLevel   string
	output     string
}

type appConfig struct {
	Log        *log.Config
	Bridge     *bridge.Config
	Throttle   *coalesce.Config
	Preview    *preview.Config
	DiagServer *diagserver.Config
}

func loadAppConfig(flags *globalFlags) (*appConfig, error) {
	cfg := &appConfig{
		Log:        log.NewConfig(""),
		Bridge:     bridge.NewConfig(""),
		Throttle:   coalesce.NewConfig(""),
		Preview:    preview.NewConfig(""),
		DiagServer: diagserver.NewConfig(""),
	}
	loader := config.NewDefaultLoader(envVarsPrefix)
	if flags.url != "" {
		loader.DataProvider.Set(cfg.Bridge.KeyPrefix()+".url", flags.url)
	}
	if flags.logLevel != "" {
		loader.DataProvider.Set(cfg.Log.KeyPrefix()+".level", flags.logLevel)
	}

	var err error
	if flags.configPath == "" {
		err = loader.LoadDefaults(cfg.Log, cfg.Bridge, cfg.Throttle, cfg.Preview, cfg.DiagServer)
	} else {
		dataType := config.DataTypeYAML
		if strings.EqualFold(filepath.Ext(flags.configPath), ".json") {
			dataType = config.DataTypeJSON
		}
		err = loader.LoadFromFile(flags.configPath, dataType,
			cfg.Log, cfg.Bridge, cfg.Throttle, cfg.Preview, cfg.DiagServer)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Command results go to stdout.
	if cfg.Log.Output == log.OutputStdout {
		cfg.Log.Output = log.OutputStderr
	}
	return cfg, nil
}

// app holds the components shared by the commands.
type app struct {
	cfg      *appConfig
	logger   log.FieldLogger
	closeLog log.CloseFunc
	registry *prometheus.Registry
	client   *bridge.Client
	backend  *ipc.Backend
	out      *printer
}

func newApp(flags *globalFlags, stdout io.Writer) (*app, error) {
	format, err := parseOutputFormat(flags.output)
	if err != nil {
		return nil, err
	}
	cfg, err := loadAppConfig(flags)
	if err != nil {
		return nil, err
	}
	logger, closeLog := log.NewLogger(cfg.Log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		libinfo.NewBuildInfoGauge(metricsNamespace),
	)
	bridgeMetrics := bridge.NewPrometheusMetricsCollector(metricsNamespace)
	bridgeMetrics.MustRegisterWith(registry)

	client, err := bridge.NewClientWithOpts(cfg.Bridge, bridge.Opts{
		Logger:             logger,
		MetricsCollector:   bridgeMetrics,
		IdempotentCommands: ipc.IdempotentCommands,
	})
	if err != nil {
		closeLog()
		return nil, err
	}
	return &app{
		cfg:      cfg,
		logger:   logger,
		closeLog: closeLog,
		registry: registry,
		client:   client,
		backend:  ipc.NewBackend(client),
		out:      &printer{w: stdout, format: format},
	}, nil
}

func (a *app) newListener() (*bridge.Listener, error) {
	return bridge.NewListenerWithOpts(a.cfg.Bridge, bridge.ListenerOpts{Logger: a.logger})
}

func (a *app) newSynchronizer(sh *shell.Shell) (*preview.Synchronizer, error) {
	throttleMetrics := coalesce.NewPrometheusMetricsWithOpts(coalesce.PrometheusMetricsOpts{
		Namespace:   metricsNamespace,
		ConstLabels: libinfo.WithVersionLabel(nil),
	})
	throttleMetrics.MustRegisterWith(a.registry)
	cacheMetrics := preview.NewPrometheusCacheMetrics(metricsNamespace)
	cacheMetrics.MustRegisterWith(a.registry)

	return preview.NewSynchronizerWithOpts(a.backend, sh, a.cfg.Preview, preview.SynchronizerOpts{
		Logger:          a.logger,
		ThrottleConfig:  a.cfg.Throttle,
		ThrottleMetrics: throttleMetrics,
		CacheMetrics:    cacheMetrics,
	})
}

func (a *app) close() {
	if a.closeLog != nil {
		a.closeLog()
	}
}
