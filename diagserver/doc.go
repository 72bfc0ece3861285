/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package diagserver provides an HTTP server that exposes Prometheus metrics and the health
// of the editor components. pprof handlers may be mounted under /debug.
package diagserver
