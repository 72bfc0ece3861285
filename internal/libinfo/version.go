/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package libinfo reports the version of the editor kit the binary was built with.
package libinfo

import (
	"regexp"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ModulePath is the import path of the editor kit module.
const ModulePath = "github.com/typstudio/editorkit"

// PrometheusVersionLabel is the label carrying the editor kit version.
const PrometheusVersionLabel = "editorkit_version"

var (
	version     string
	versionOnce sync.Once
)

// Version returns the version of the editor kit module, "(devel)" for a local build
// or "v0.0.0" when build information is unavailable.
func Version() string {
	versionOnce.Do(func() {
		if bi, ok := debug.ReadBuildInfo(); ok {
			version = moduleVersion(bi, ModulePath)
		}
		if version == "" {
			version = "v0.0.0"
		}
	})
	return version
}

// moduleVersion looks the module up as the main module first and then among dependencies.
// Major version suffixes ("/v2") are accepted.
func moduleVersion(bi *debug.BuildInfo, modPath string) string {
	if bi == nil {
		return ""
	}
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(modPath) + `(/v[0-9]+)?$`)
	if re.MatchString(bi.Main.Path) {
		return bi.Main.Version
	}
	for _, dep := range bi.Deps {
		if re.MatchString(dep.Path) {
			return dep.Version
		}
	}
	return ""
}

// WithVersionLabel returns a copy of labels with the editor kit version added.
func WithVersionLabel(labels prometheus.Labels) prometheus.Labels {
	res := make(prometheus.Labels, len(labels)+1)
	for k, v := range labels {
		res[k] = v
	}
	res[PrometheusVersionLabel] = Version()
	return res
}

// NewBuildInfoGauge creates a gauge that is always 1 and carries the version and the Go runtime version.
func NewBuildInfoGauge(namespace string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information of the editor kit.",
		ConstLabels: WithVersionLabel(prometheus.Labels{
			"go_version": runtime.Version(),
		}),
	})
	g.Set(1)
	return g
}
