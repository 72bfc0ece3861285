/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertHistogramSamples asserts that all histograms of the collector together hold the given number of samples.
// Collectors that are vectors are summed over every label combination.
func AssertHistogramSamples(t assert.TestingT, c prometheus.Collector, wantSamples int) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	reg := prometheus.NewPedanticRegistry()
	if !assert.NoError(t, reg.Register(c)) {
		return false
	}
	families, err := reg.Gather()
	if !assert.NoError(t, err) {
		return false
	}
	var got uint64
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if hist := m.GetHistogram(); hist != nil {
				got += hist.GetSampleCount()
			}
		}
	}
	return assert.Equal(t, wantSamples, int(got))
}

// RequireHistogramSamples calls AssertHistogramSamples and fails the test immediately on mismatch.
func RequireHistogramSamples(t require.TestingT, c prometheus.Collector, wantSamples int) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if !AssertHistogramSamples(t, c, wantSamples) {
		t.FailNow()
	}
}
